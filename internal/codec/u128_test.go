package codec

import "testing"

func TestU128AddSub(t *testing.T) {
	a := NewU128(10)
	b := NewU128(3)
	if got := a.Add(b); got != NewU128(13) {
		t.Fatalf("add: got %+v", got)
	}
	if got := a.Sub(b); got != NewU128(7) {
		t.Fatalf("sub: got %+v", got)
	}
	if got := b.Sub(a); !got.IsZero() {
		t.Fatalf("sub underflow should saturate at zero, got %+v", got)
	}
}

func TestU128DivEvenly(t *testing.T) {
	share, rem := NewU128(10).DivEvenly(3)
	if share != NewU128(3) || rem != 1 {
		t.Fatalf("10/3 = %+v rem %d, want 3 rem 1", share, rem)
	}
	share, rem = NewU128(9).DivEvenly(3)
	if share != NewU128(3) || rem != 0 {
		t.Fatalf("9/3 = %+v rem %d, want 3 rem 0", share, rem)
	}
}

func TestU128RoundTrip(t *testing.T) {
	cases := []U128{Zero, NewU128(1), NewU128(1 << 40), {Hi: 7, Lo: 1 << 63}}
	for _, c := range cases {
		buf := c.PutUvarint(nil)
		got, n, err := DecodeU128(buf)
		if err != nil {
			t.Fatalf("decode %+v: %v", c, err)
		}
		if n != len(buf) {
			t.Fatalf("decode %+v consumed %d, want %d", c, n, len(buf))
		}
		if got != c {
			t.Fatalf("round trip %+v got %+v", c, got)
		}
	}
}

func TestDecodeU128Truncated(t *testing.T) {
	if _, _, err := DecodeU128(nil); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
