package codec

import (
	"bytes"

	"github.com/btcsuite/btcd/wire"
)

// HeaderSize is the fixed 80-byte Bitcoin block header encoding.
const HeaderSize = 80

// EncodeHeader writes the raw 80-byte Bitcoin consensus encoding of a
// block header — the HEIGHT_TO_BLOCK_HEADER value.
func EncodeHeader(h wire.BlockHeader) ([]byte, error) {
	var buf bytes.Buffer
	if err := h.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeHeader is the inverse of EncodeHeader.
func DecodeHeader(buf []byte) (wire.BlockHeader, error) {
	if len(buf) < HeaderSize {
		return wire.BlockHeader{}, ErrTruncated
	}
	var h wire.BlockHeader
	if err := h.Deserialize(bytes.NewReader(buf[:HeaderSize])); err != nil {
		return wire.BlockHeader{}, err
	}
	return h, nil
}
