package codec

import (
	"testing"
)

func TestRuneIdRoundTrip(t *testing.T) {
	id := RuneId{Block: 840000, Tx: 42}
	stored := id.Store()
	got, err := LoadRuneId(stored[:])
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Fatalf("got %+v want %+v", got, id)
	}
}

func TestRuneIdOrdering(t *testing.T) {
	a := RuneId{Block: 1, Tx: 5}
	b := RuneId{Block: 1, Tx: 6}
	c := RuneId{Block: 2, Tx: 0}
	if a.Cmp(b) >= 0 {
		t.Fatal("a should sort before b")
	}
	if b.Cmp(c) >= 0 {
		t.Fatal("b should sort before c")
	}
}

func TestBalanceEntryRoundTrip(t *testing.T) {
	balances := EncodeBalances([]RuneBalance{
		{ID: RuneId{Block: 2, Tx: 1}, Amount: NewU128(100)},
		{ID: RuneId{Block: 1, Tx: 9}, Amount: NewU128(5)},
	})
	e := BalanceEntry{
		ConfirmedHeight: 100,
		SpentHeight:     0,
		ValueSats:       546,
		ScriptPubKey:    []byte{0x51, 0x20},
		Balances:        balances,
	}
	buf := e.Encode()
	got, err := DecodeBalanceEntry(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.ConfirmedHeight != e.ConfirmedHeight || got.ValueSats != e.ValueSats {
		t.Fatalf("got %+v want %+v", got, e)
	}

	decoded, err := DecodeBalances(got.Balances)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(decoded))
	}
	// EncodeBalances sorts ascending by RuneId.
	if decoded[0].ID != (RuneId{Block: 1, Tx: 9}) {
		t.Fatalf("balances not sorted: %+v", decoded)
	}
}

func TestRuneEntryRoundTrip(t *testing.T) {
	e := RuneEntry{
		Block:        840000,
		Burned:       NewU128(10),
		Divisibility: 8,
		Mints:        NewU128(3),
		Number:       12,
		Premine:      NewU128(1000),
		Rune:         NewU128(999999),
		Spacers:      0b101,
		HasSymbol:    true,
		Symbol:       'R',
		HasTerms: true,
		Terms: Terms{
			HasCap:         true,
			Cap:            NewU128(1000),
			HasAmount:      true,
			Amount:         NewU128(10),
			HasStartHeight: true,
			StartHeight:    840000,
		},
		Timestamp: 1700000000,
		Turbo:     true,
	}
	buf := e.Encode()
	got, err := DecodeRuneEntry(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Block != e.Block || got.Number != e.Number || got.Rune != e.Rune {
		t.Fatalf("got %+v want %+v", got, e)
	}
	if !got.HasSymbol || got.Symbol != 'R' {
		t.Fatalf("symbol not preserved: %+v", got)
	}
	if !got.HasTerms || !got.Terms.HasCap || got.Terms.Cap != NewU128(1000) {
		t.Fatalf("terms not preserved: %+v", got.Terms)
	}
	if !got.Turbo {
		t.Fatal("turbo flag not preserved")
	}
}

func TestRuneEntryWithoutOptionals(t *testing.T) {
	e := RuneEntry{Block: 1, Rune: NewU128(1)}
	buf := e.Encode()
	got, err := DecodeRuneEntry(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.HasSymbol || got.HasTerms {
		t.Fatalf("unexpected optionals set: %+v", got)
	}
}

func TestDecodeRuneEntryRejectsUnknownVersion(t *testing.T) {
	buf := RuneEntry{Block: 1}.Encode()
	buf[0] = 0xFF
	if _, err := DecodeRuneEntry(buf); err != ErrCorruptVersion {
		t.Fatalf("expected ErrCorruptVersion, got %v", err)
	}
}
