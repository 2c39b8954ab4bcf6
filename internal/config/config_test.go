package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsUnknownNetwork(t *testing.T) {
	c := Default()
	c.Network = "nonsense"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unknown network")
	}
}

func TestValidateRequiresPairedCredentials(t *testing.T) {
	c := Default()
	c.BitcoinRPCUsername = "alice"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error when only username is set")
	}
}

func TestStringRedactsCredentials(t *testing.T) {
	c := Default()
	c.BitcoinRPCUsername = "alice"
	c.BitcoinRPCPassword = "hunter2"
	s := c.String()
	if contains(s, "hunter2") || contains(s, "alice") {
		t.Fatalf("credentials leaked into String(): %s", s)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
