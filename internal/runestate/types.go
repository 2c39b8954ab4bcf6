// Package runestate implements the mint/etch/edict/cenotaph rules that
// turn a deciphered runestone into rune balance and entry mutations.
// It is a pure function of (chain state views, transaction, deciphered
// artifact) -> Plan; it never touches a store directly, so it can be
// tested without any storage backend at all.
package runestate

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/codec"
)

// Edict moves amount of a rune (id may be the zero value, meaning "the
// rune just etched by this transaction") to output, or distributes it
// across every eligible output when output equals OutputAll.
type Edict struct {
	ID     codec.RuneId
	Amount codec.U128
	Output uint32
}

// OutputAll is the edict output sentinel meaning "every non-OP_RETURN
// output of this transaction", triggering the divide-evenly-with-
// remainder distribution (edict Case A) instead of a single-output
// allocation (Case B).
const OutputAll = ^uint32(0)

// Etching describes a rune name being created by this transaction, if
// any. A transaction with no name supplied (Rune == nil) still etches,
// under a reserved name derived from (height, tx index).
type Etching struct {
	Rune         *codec.U128
	Divisibility uint8
	Premine      codec.U128
	Symbol       *rune
	Terms        *codec.Terms
	Turbo        bool
	HasRune      bool
}

// Artifact is what an external runestone decoder produces from a
// transaction: either a Runestone (edicts/etching/mint/pointer) or a
// Cenotaph (a malformed runestone that burns everything unallocated).
// Decipher() itself is out of scope for this package — it consumes
// whatever a conforming decoder returns.
type Artifact struct {
	IsCenotaph bool
	Edicts     []Edict
	Etching    *Etching
	Mint       *codec.RuneId
	Pointer    *uint32
}

// StateViews is the read-only window into chain state the state
// machine needs to apply one transaction. The indexer adapts a
// FastStore handle to it; tests can supply an in-memory fake.
type StateViews interface {
	RuneEntry(id codec.RuneId) (codec.RuneEntry, bool, error)
	RuneIDByName(name codec.U128) (codec.RuneId, bool, error)
	OutpointBalances(op wire.OutPoint) (codec.BalanceEntry, bool, error)
	// CommitsToRune reports whether any input of tx commits to name via
	// a matching taproot reveal, per the commit-verification contract.
	CommitsToRune(tx *wire.MsgTx, name codec.U128) (bool, error)
}

// OutputBalances is the set of rune balances this transaction assigns
// to one of its own outputs.
type OutputBalances struct {
	Output   uint32
	Balances []codec.RuneBalance
}

// Plan is every mutation index_runes produces for one transaction: the
// updated/created rune entries, the per-output balances to persist, and
// the amounts burned (folded into Statistics/RUNE_ID_HEIGHT_TO_BURNED
// by the caller).
type Plan struct {
	NewEtching      *codec.RuneId
	NewEtchingEntry codec.RuneEntry
	UpdatedEntries  map[codec.RuneId]codec.RuneEntry
	Outputs         []OutputBalances
	Burned          map[codec.RuneId]codec.U128
	Minted          map[codec.RuneId]codec.U128
	ReservedEtch    bool
}

func newPlan() Plan {
	return Plan{
		UpdatedEntries: map[codec.RuneId]codec.RuneEntry{},
		Burned:         map[codec.RuneId]codec.U128{},
		Minted:         map[codec.RuneId]codec.U128{},
	}
}

// TxContext carries the per-transaction identifiers the state machine
// needs beyond the wire.MsgTx itself.
type TxContext struct {
	Height      uint64
	TxIndex     uint32
	BlockTime   uint32
	Txid        chainhash.Hash
	MinimumRune codec.U128
}
