package codec

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// OutPointSize is the fixed encoded width of a Bitcoin outpoint: 32
// bytes txid (internal byte order) plus 4 bytes little-endian vout.
const OutPointSize = 36

// EncodeOutPoint writes the standard Bitcoin consensus encoding of an
// outpoint, reusing wire.OutPoint rather than hand-rolling another copy
// of a format the btcd wire package already encodes correctly.
func EncodeOutPoint(op wire.OutPoint) [OutPointSize]byte {
	var out [OutPointSize]byte
	copy(out[0:32], op.Hash[:])
	out[32] = byte(op.Index)
	out[33] = byte(op.Index >> 8)
	out[34] = byte(op.Index >> 16)
	out[35] = byte(op.Index >> 24)
	return out
}

// DecodeOutPoint is the inverse of EncodeOutPoint.
func DecodeOutPoint(buf []byte) (wire.OutPoint, error) {
	if len(buf) < OutPointSize {
		return wire.OutPoint{}, ErrTruncated
	}
	var hash chainhash.Hash
	copy(hash[:], buf[0:32])
	index := uint32(buf[32]) | uint32(buf[33])<<8 | uint32(buf[34])<<16 | uint32(buf[35])<<24
	return wire.OutPoint{Hash: hash, Index: index}, nil
}
