package codec

import (
	"encoding/binary"
	"sort"
)

// RuneBalance pairs a rune identifier with an amount held at an
// outpoint.
type RuneBalance struct {
	ID     RuneId
	Amount U128
}

// EncodeBalances writes a sorted, length-implicit list of (rune id,
// amount) pairs as repeated (varint block, varint tx, varint amount)
// triples, ascending by RuneId. The list has no overall length prefix;
// the caller decodes until the buffer is exhausted, matching the
// on-disk value format of OUTPOINT_TO_RUNE_BALANCES.
func EncodeBalances(balances []RuneBalance) []byte {
	sorted := make([]RuneBalance, len(balances))
	copy(sorted, balances)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.Cmp(sorted[j].ID) < 0 })

	var buf []byte
	for _, b := range sorted {
		buf = appendUvarint(buf, b.ID.Block)
		buf = appendUvarint(buf, uint64(b.ID.Tx))
		buf = b.Amount.PutUvarint(buf)
	}
	return buf
}

// DecodeBalances reads every (rune id, amount) triple out of buf.
func DecodeBalances(buf []byte) ([]RuneBalance, error) {
	var out []RuneBalance
	for len(buf) > 0 {
		block, n := binary.Uvarint(buf)
		if n <= 0 {
			return nil, ErrTruncated
		}
		buf = buf[n:]

		tx, n := binary.Uvarint(buf)
		if n <= 0 {
			return nil, ErrTruncated
		}
		buf = buf[n:]

		amount, n, err := DecodeU128(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]

		out = append(out, RuneBalance{ID: RuneId{Block: block, Tx: uint32(tx)}, Amount: amount})
	}
	return out, nil
}
