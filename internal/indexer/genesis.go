package indexer

import (
	"math"

	"github.com/AstroxNetwork/runesd/internal/chainparams"
	"github.com/AstroxNetwork/runesd/internal/codec"
	"github.com/AstroxNetwork/runesd/internal/faststore"
)

// genesisRuneName is UNCOMMON•GOODS's protocol-defined numeric name —
// the one rune etched without an on-chain etching transaction.
var genesisRuneName = codec.NewU128(2055900680524219742)

// genesisRuneID is the reserved id slot the protocol assigns to the
// genesis rune, fixed at (1, 0) regardless of network.
var genesisRuneID = codec.RuneId{Block: 1, Tx: 0}

// subsidyHalvingInterval is Bitcoin's block-subsidy halving period,
// used only to derive the genesis rune's mint window.
const subsidyHalvingInterval = 210_000

// maybeBootstrapGenesis writes the genesis rune's entry once, on
// mainnet only, before this engine's first loop iteration. It is
// idempotent: once the entry exists, this is a no-op.
func (bi *BlockIndexer) maybeBootstrapGenesis() error {
	if bi.chain != chainparams.Mainnet {
		return nil
	}

	if _, ok, err := bi.fast.RuneEntry(genesisRuneID); err != nil {
		return err
	} else if ok {
		return nil
	}

	entry := codec.RuneEntry{
		Block:        1,
		Divisibility: 0,
		Etching:      [32]byte{},
		Rune:         genesisRuneName,
		Spacers:      128,
		HasSymbol:    true,
		Symbol:       '⧉',
		HasTerms:     true,
		Terms: codec.Terms{
			HasAmount:      true,
			Amount:         codec.NewU128(1),
			HasCap:         true,
			Cap:            codec.U128{Hi: math.MaxUint64, Lo: math.MaxUint64},
			HasStartHeight: true,
			StartHeight:    subsidyHalvingInterval * 4,
			HasEndHeight:   true,
			EndHeight:      subsidyHalvingInterval * 5,
		},
		Timestamp: 0,
		Turbo:     true,
	}

	total, err := bi.fast.Statistic(faststore.StatRunes)
	if err != nil {
		return err
	}

	batch := bi.fast.NewBatch()
	batch.PutRuneEntry(genesisRuneID, entry)
	batch.PutRuneToRuneID(entry.Rune, genesisRuneID)
	batch.PutStatistic(faststore.StatRunes, total+1)
	batch.PutStatisticDeltaAtHeight(faststore.StatRunes, 1, 1)
	return batch.Commit()
}
