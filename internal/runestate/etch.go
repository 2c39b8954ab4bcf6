package runestate

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/codec"
)

// reservedRuneBase is the lowest reserved rune name,
// 6402364363415443603228541259936211926; every name at or above it is
// reserved.
var reservedRuneBase = codec.U128{Hi: 347072867592939878, Lo: 18016373645310469078}

// reservedRune derives the reserved name used when a transaction etches
// without supplying one: reservedRuneBase + (height<<32 | txIndex).
func reservedRune(height uint64, txIndex uint32) codec.U128 {
	return reservedRuneBase.Add(codec.U128{Hi: height >> 32, Lo: height<<32 | uint64(txIndex)})
}

// IsReservedRune reports whether name lies in the reserved range that
// reservedRune draws from, letting callers outside this package (a
// reorg rewind recomputing Statistic::ReservedRunes from surviving
// entries) classify a RuneEntry without their own copy of the layout.
func IsReservedRune(name codec.U128) bool {
	return name.Cmp(reservedRuneBase) >= 0
}

// buildEtchingEntry validates an etching and, if valid, returns the
// RuneEntry it produces. A nil return (with no error) means the
// etching was rejected (name below minimum, reserved, already taken,
// or commit-unconfirmed) and the transaction etches nothing.
func buildEtchingEntry(ctx TxContext, tx *wire.MsgTx, etching Etching, views StateViews) (*codec.RuneEntry, bool, error) {
	var name codec.U128
	reserved := false

	if etching.HasRune && etching.Rune != nil {
		name = *etching.Rune
		if name.Cmp(ctx.MinimumRune) < 0 {
			return nil, false, nil
		}
		if IsReservedRune(name) {
			return nil, false, nil
		}
		if _, exists, err := views.RuneIDByName(name); err != nil {
			return nil, false, err
		} else if exists {
			return nil, false, nil
		}
		ok, err := views.CommitsToRune(tx, name)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
	} else {
		name = reservedRune(ctx.Height, ctx.TxIndex)
		reserved = true
	}

	entry := codec.RuneEntry{
		Block:        ctx.Height,
		Divisibility: etching.Divisibility,
		Etching:      ctx.Txid,
		Premine:      etching.Premine,
		Rune:         name,
		Turbo:        etching.Turbo,
		Timestamp:    uint64(ctx.BlockTime),
	}
	if etching.Symbol != nil {
		entry.HasSymbol = true
		entry.Symbol = *etching.Symbol
	}
	if etching.Terms != nil {
		entry.HasTerms = true
		entry.Terms = *etching.Terms
	}
	return &entry, reserved, nil
}
