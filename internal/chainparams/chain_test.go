package chainparams

import "testing"

func TestParseChainAcceptsShortAndLongNames(t *testing.T) {
	cases := map[string]Chain{
		"main": Mainnet, "mainnet": Mainnet,
		"test": Testnet, "testnet": Testnet,
		"test4": Testnet4, "testnet4": Testnet4,
		"signet": Signet, "regtest": Regtest,
	}
	for input, want := range cases {
		got, err := ParseChain(input)
		if err != nil {
			t.Fatalf("ParseChain(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseChain(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseChainRejectsUnknown(t *testing.T) {
	if _, err := ParseChain("moonnet"); err == nil {
		t.Fatal("expected error for unknown chain")
	}
}

func TestDataSubdirLayout(t *testing.T) {
	if got := Mainnet.DataSubdir("/data"); got != "/data" {
		t.Fatalf("mainnet should use data root, got %s", got)
	}
	if got := Testnet.DataSubdir("/data"); got != "/data/testnet3" {
		t.Fatalf("testnet subdir mismatch: %s", got)
	}
	if got := Testnet4.DataSubdir("/data"); got != "/data/testnet4" {
		t.Fatalf("testnet4 subdir mismatch: %s", got)
	}
	if got := Signet.DataSubdir("/data"); got != "/data/signet" {
		t.Fatalf("signet subdir mismatch: %s", got)
	}
	if got := Regtest.DataSubdir("/data"); got != "/data/regtest" {
		t.Fatalf("regtest subdir mismatch: %s", got)
	}
}
