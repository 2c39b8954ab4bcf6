package codec

import "encoding/binary"

// RuneId is the (block, tx-index) pair that uniquely identifies a rune.
// It sorts chronologically by its raw byte encoding, which is why the
// FastStore key format uses big-endian here even though every other
// value payload in this package is little-endian.
type RuneId struct {
	Block uint64
	Tx    uint32
}

// RuneIdSize is the fixed encoded width of a RuneId: 8 bytes block, 4
// bytes tx index, both big-endian.
const RuneIdSize = 12

// Store encodes the RuneId into its fixed 12-byte big-endian form.
func (id RuneId) Store() [RuneIdSize]byte {
	var out [RuneIdSize]byte
	binary.BigEndian.PutUint64(out[0:8], id.Block)
	binary.BigEndian.PutUint32(out[8:12], id.Tx)
	return out
}

// LoadRuneId decodes a RuneId from its fixed 12-byte big-endian form.
func LoadRuneId(buf []byte) (RuneId, error) {
	if len(buf) < RuneIdSize {
		return RuneId{}, ErrTruncated
	}
	return RuneId{
		Block: binary.BigEndian.Uint64(buf[0:8]),
		Tx:    binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}

// Cmp orders RuneIds chronologically: by block, then by tx index.
func (id RuneId) Cmp(other RuneId) int {
	if id.Block != other.Block {
		if id.Block < other.Block {
			return -1
		}
		return 1
	}
	if id.Tx != other.Tx {
		if id.Tx < other.Tx {
			return -1
		}
		return 1
	}
	return 0
}
