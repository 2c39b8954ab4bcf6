package indexer

import (
	"context"

	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/codec"
	"github.com/AstroxNetwork/runesd/internal/commitverify"
	"github.com/AstroxNetwork/runesd/internal/faststore"
)

// storeViews adapts a FastStore handle (plus the commit verifier) to
// the runestate.StateViews contract the state machine reads through.
type storeViews struct {
	ctx      context.Context
	fast     *faststore.Store
	verifier *commitverify.Verifier
	height   uint64
}

func (v *storeViews) RuneEntry(id codec.RuneId) (codec.RuneEntry, bool, error) {
	return v.fast.RuneEntry(id)
}

func (v *storeViews) RuneIDByName(name codec.U128) (codec.RuneId, bool, error) {
	return v.fast.RuneToRuneID(name)
}

func (v *storeViews) OutpointBalances(op wire.OutPoint) (codec.BalanceEntry, bool, error) {
	return v.fast.OutpointBalances(op)
}

func (v *storeViews) CommitsToRune(tx *wire.MsgTx, name codec.U128) (bool, error) {
	return v.verifier.CommitsToRune(v.ctx, v.height, tx, name)
}
