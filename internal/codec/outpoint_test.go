package codec

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

func TestOutPointRoundTrip(t *testing.T) {
	var h chainhash.Hash
	for i := range h {
		h[i] = byte(i)
	}
	op := wire.OutPoint{Hash: h, Index: 7}
	enc := EncodeOutPoint(op)
	got, err := DecodeOutPoint(enc[:])
	if err != nil {
		t.Fatal(err)
	}
	if got != op {
		t.Fatalf("got %+v want %+v", got, op)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := wire.BlockHeader{Version: 1}
	enc, err := EncodeHeader(h)
	if err != nil {
		t.Fatal(err)
	}
	if len(enc) != HeaderSize {
		t.Fatalf("expected %d bytes, got %d", HeaderSize, len(enc))
	}
	got, err := DecodeHeader(enc)
	if err != nil {
		t.Fatal(err)
	}
	var want bytes.Buffer
	_ = h.Serialize(&want)
	var gotBuf bytes.Buffer
	_ = got.Serialize(&gotBuf)
	if !bytes.Equal(want.Bytes(), gotBuf.Bytes()) {
		t.Fatal("header did not round trip byte-for-byte")
	}
}
