package main

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/runestate"
)

// noopDecoder is the default artifact decoder wired when no runestone
// binary-format library is configured. It reports every transaction as
// carrying no artifact, which is still correct per-transaction
// behavior: unallocated input balances still forward to the first
// non-OP_RETURN output.
//
// A real deployment replaces this with a Decoder backed by a runestone
// parser satisfying indexer.Decoder's single method.
type noopDecoder struct{}

func (noopDecoder) Decipher(tx *wire.MsgTx) (runestate.Artifact, bool) {
	return runestate.Artifact{}, false
}
