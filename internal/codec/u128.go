// Package codec implements the binary wire format for every entity the
// indexing engine stores: rune identifiers, per-outpoint balance lists,
// rune entries, and block headers. Every type here is a thin value type
// with Encode/Decode methods; nothing here touches a store or the
// network.
package codec

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

// U128 is an unsigned 128-bit integer represented as two uint64 limbs,
// used for rune amounts and supply counters. Go has no native 128-bit
// integer; amounts in this protocol can exceed 64 bits (divisibility up
// to 38 combined with large premines), so a fixed-width pair is used
// rather than math/big, which would allocate on every balance op in the
// per-transaction hot path.
type U128 struct {
	Hi, Lo uint64
}

// Zero is the additive identity.
var Zero = U128{}

func NewU128(lo uint64) U128 { return U128{Lo: lo} }

func (a U128) IsZero() bool { return a.Hi == 0 && a.Lo == 0 }

func (a U128) Cmp(b U128) int {
	if a.Hi != b.Hi {
		if a.Hi < b.Hi {
			return -1
		}
		return 1
	}
	if a.Lo != b.Lo {
		if a.Lo < b.Lo {
			return -1
		}
		return 1
	}
	return 0
}

// Add returns a+b, wrapping silently on overflow (the protocol never
// allows supply to approach 2^128; overflow here would indicate a
// decode-level corruption elsewhere, not a value this function should
// try to detect).
func (a U128) Add(b U128) U128 {
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	hi, _ := bits.Add64(a.Hi, b.Hi, carry)
	return U128{Hi: hi, Lo: lo}
}

// Sub returns a-b. The caller is expected to have checked a >= b;
// saturating at zero rather than wrapping keeps accounting bugs visible
// as a zero balance instead of a huge one.
func (a U128) Sub(b U128) U128 {
	if a.Cmp(b) < 0 {
		return Zero
	}
	lo, borrow := bits.Sub64(a.Lo, b.Lo, 0)
	hi, _ := bits.Sub64(a.Hi, b.Hi, borrow)
	return U128{Hi: hi, Lo: lo}
}

// Min returns the smaller of a and b.
func (a U128) Min(b U128) U128 {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// DivEvenly splits a into n equal shares, returning the per-share
// amount and the remainder (which the caller distributes to the first
// `remainder` recipients, matching the edict "amount == 0" rule).
func (a U128) DivEvenly(n uint64) (share U128, remainder uint64) {
	if n == 0 {
		return Zero, 0
	}
	if a.Hi == 0 {
		return U128{Lo: a.Lo / n}, a.Lo % n
	}
	// Rare path: amount spans both limbs. n is always a small output
	// count in practice, so a straightforward double-width division
	// in terms of bits.Div64 on the high limb then the low limb with
	// carried remainder is sufficient and avoids pulling in math/big.
	hiQ, hiR := bits.Div64(0, a.Hi, n)
	loQ, loR := bits.Div64(hiR, a.Lo, n)
	return U128{Hi: hiQ, Lo: loQ}, loR
}

// String renders a in decimal, reusing DivEvenly to peel off one digit
// at a time rather than pulling in math/big for display purposes.
func (a U128) String() string {
	if a.IsZero() {
		return "0"
	}
	var digits []byte
	v := a
	for !v.IsZero() {
		q, r := v.DivEvenly(10)
		digits = append(digits, byte('0')+byte(r))
		v = q
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

// PutUvarint appends the LEB128 varint encoding of a to buf (two
// uvarints: Hi then Lo, Hi omitted when zero via a leading presence
// byte) and returns the extended slice.
func (a U128) PutUvarint(buf []byte) []byte {
	if a.Hi == 0 {
		buf = append(buf, 0)
		return appendUvarint(buf, a.Lo)
	}
	buf = append(buf, 1)
	buf = appendUvarint(buf, a.Hi)
	return appendUvarint(buf, a.Lo)
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// ErrTruncated is returned by every Decode function in this package
// when the input ends before a complete value has been read.
var ErrTruncated = errors.New("codec: truncated input")

// ErrCorruptVersion is returned when a stored value's leading version
// byte doesn't match a version this build knows how to decode.
var ErrCorruptVersion = errors.New("codec: unknown encoding version")

// DecodeU128 reads a U128 written by PutUvarint, returning the number
// of bytes consumed.
func DecodeU128(buf []byte) (U128, int, error) {
	if len(buf) < 1 {
		return Zero, 0, ErrTruncated
	}
	hasHi := buf[0] != 0
	off := 1
	var hi uint64
	if hasHi {
		v, n := binary.Uvarint(buf[off:])
		if n <= 0 {
			return Zero, 0, ErrTruncated
		}
		hi = v
		off += n
	}
	lo, n := binary.Uvarint(buf[off:])
	if n <= 0 {
		return Zero, 0, ErrTruncated
	}
	off += n
	return U128{Hi: hi, Lo: lo}, off, nil
}
