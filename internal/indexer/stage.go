package indexer

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/codec"
	"github.com/AstroxNetwork/runesd/internal/faststore"
	"github.com/AstroxNetwork/runesd/internal/log"
	"github.com/AstroxNetwork/runesd/internal/relstore"
	"github.com/AstroxNetwork/runesd/internal/reorg"
	"github.com/AstroxNetwork/runesd/internal/runestate"
)

// applyBlock fetches, applies, and commits one block's worth of rune
// state. Context cancellation is only checked between this and the
// next block; once a FastStore batch begins committing, it runs to
// completion.
func (bi *BlockIndexer) applyBlock(ctx context.Context, height uint64) error {
	logger := log.Indexer()

	hash, err := bi.node.BlockHash(ctx, height)
	if err != nil {
		return err
	}
	block, err := bi.node.Block(ctx, hash)
	if err != nil {
		return err
	}

	batch := bi.fast.NewBatch()
	if err := batch.PutHeader(height, block.Header); err != nil {
		return err
	}

	views := &storeViews{ctx: ctx, fast: bi.fast, verifier: bi.commit, height: height}
	relTx, err := bi.rel.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer relTx.Rollback()

	blockBurned := map[codec.RuneId]codec.U128{}
	touchedOutpoints := map[wire.OutPoint][]codec.RuneId{}
	touched := map[codec.RuneId]struct{}{}
	var etched, reservedEtched uint64

	runesTotal, err := bi.fast.Statistic(faststore.StatRunes)
	if err != nil {
		return err
	}
	minimumRune := bi.minimumRuneAt(height)

	for txIndex, tx := range block.Transactions {
		txCtx := runestate.TxContext{
			Height:      height,
			TxIndex:     uint32(txIndex),
			BlockTime:   uint32(block.Header.Timestamp.Unix()),
			Txid:        tx.TxHash(),
			MinimumRune: minimumRune,
		}
		artifact, _ := bi.decoder.Decipher(tx)

		plan, err := runestate.Apply(txCtx, tx, artifact, views)
		if err != nil {
			return fmt.Errorf("indexer: apply tx %s at height %d: %w", txCtx.Txid, height, err)
		}

		if plan.NewEtching != nil {
			plan.NewEtchingEntry.Number = runesTotal
			runesTotal++
			etched++
			if plan.ReservedEtch {
				reservedEtched++
			}
		}

		if err := bi.stagePlan(ctx, batch, relTx, height, tx, plan, touchedOutpoints, touched, blockBurned); err != nil {
			return err
		}
	}

	if etched > 0 {
		batch.PutStatistic(faststore.StatRunes, runesTotal)
		batch.PutStatisticDeltaAtHeight(faststore.StatRunes, height, etched)
	}
	if reservedEtched > 0 {
		total, err := bi.fast.Statistic(faststore.StatReservedRunes)
		if err != nil {
			return err
		}
		batch.PutStatistic(faststore.StatReservedRunes, total+reservedEtched)
		batch.PutStatisticDeltaAtHeight(faststore.StatReservedRunes, height, reservedEtched)
	}

	for id, amount := range blockBurned {
		if amount.IsZero() {
			continue
		}
		batch.PutBurnedAtHeight(id, height, amount)
		entry, ok, err := bi.fast.RuneEntry(id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		entry.Burned = entry.Burned.Add(amount)
		batch.PutRuneEntry(id, entry)
		touched[id] = struct{}{}
		if err := stageEntryRow(ctx, relTx, id, entry, height); err != nil {
			return err
		}
	}

	for op, ids := range touchedOutpoints {
		batch.PutHeightOutpointRuneIDs(height, op, ids)
	}
	bi.gcPendingSpends(batch, height)

	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, runeIDString(id))
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("indexer: commit faststore batch: %w", err)
	}
	if err := relTx.Commit(); err != nil {
		return fmt.Errorf("indexer: commit relstore tx: %w", err)
	}
	if err := bi.rel.RecomputeHoldersAndTransactions(ctx, ids); err != nil {
		return fmt.Errorf("indexer: recompute holders/transactions: %w", err)
	}

	select {
	case bi.Invalidate <- struct{}{}:
	default:
	}

	logger.Info().Uint64("height", height).Int("txs", len(block.Transactions)).Int("runes_touched", len(ids)).Msg("indexed block")
	return nil
}

// stagePlan stages every mutation one transaction's Plan produces: the
// spend-marking of its consumed outpoints, the write-out of its output
// allocations, its mint/etch bookkeeping, and the accumulation of its
// burns into the block-level burned map (written once, at block end).
func (bi *BlockIndexer) stagePlan(
	ctx context.Context,
	batch *faststore.Batch,
	relTx *sql.Tx,
	height uint64,
	tx *wire.MsgTx,
	plan runestate.Plan,
	touchedOutpoints map[wire.OutPoint][]codec.RuneId,
	touched map[codec.RuneId]struct{},
	blockBurned map[codec.RuneId]codec.U128,
) error {
	txid := tx.TxHash()
	var spentUpdates []relstore.SpentUpdate

	for vin, in := range tx.TxIn {
		entry, ok, err := bi.fast.OutpointBalances(in.PreviousOutPoint)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		balances, err := codec.DecodeBalances(entry.Balances)
		if err != nil {
			return fmt.Errorf("indexer: decode spent balances at %s: %w", in.PreviousOutPoint, err)
		}
		entry.SpentHeight = uint32(height)
		batch.PutOutpointBalances(in.PreviousOutPoint, entry)
		touchedOutpoints[in.PreviousOutPoint] = append(touchedOutpoints[in.PreviousOutPoint], idsOf(balances)...)

		prevTxidHex := in.PreviousOutPoint.Hash.String()
		for _, b := range balances {
			touched[b.ID] = struct{}{}
			spentUpdates = append(spentUpdates, relstore.SpentUpdate{
				Txid:        prevTxidHex,
				Vout:        in.PreviousOutPoint.Index,
				RuneID:      runeIDString(b.ID),
				SpentHeight: height,
				SpentTxid:   txid.String(),
				SpentVin:    uint32(vin),
			})
		}
	}
	if err := relstore.UpdateSpent(ctx, relTx, spentUpdates); err != nil {
		return err
	}

	for _, ob := range plan.Outputs {
		if int(ob.Output) >= len(tx.TxOut) {
			continue
		}
		out := tx.TxOut[ob.Output]
		outpoint := wire.OutPoint{Hash: txid, Index: ob.Output}
		entry := codec.BalanceEntry{
			ConfirmedHeight: uint32(height),
			SpentHeight:     0,
			ValueSats:       uint64(out.Value),
			ScriptPubKey:    out.PkScript,
			Balances:        codec.EncodeBalances(ob.Balances),
		}
		batch.PutOutpointBalances(outpoint, entry)

		var ids []codec.RuneId
		var rows []relstore.RuneBalanceRow
		address := scriptAddress(out.PkScript, bi.chain.Params())
		for _, b := range ob.Balances {
			ids = append(ids, b.ID)
			touched[b.ID] = struct{}{}
			rows = append(rows, relstore.RuneBalanceRow{
				Txid:       txid.String(),
				Vout:       ob.Output,
				Value:      uint64(out.Value),
				RuneID:     runeIDString(b.ID),
				RuneAmount: b.Amount.String(),
				Address:    address,
				Height:     height,
			})
		}
		if err := relstore.InsertRuneBalances(ctx, relTx, rows); err != nil {
			return err
		}
		touchedOutpoints[outpoint] = append(touchedOutpoints[outpoint], ids...)
	}

	for id, amount := range plan.Burned {
		blockBurned[id] = blockBurned[id].Add(amount)
	}

	for id := range plan.Minted {
		batch.PutMintsAtHeight(id, height, 1)
		touched[id] = struct{}{}
	}

	if plan.NewEtching != nil {
		id := *plan.NewEtching
		entry := plan.NewEtchingEntry
		batch.PutRuneEntry(id, entry)
		batch.PutRuneToRuneID(entry.Rune, id)
		touched[id] = struct{}{}
		if err := stageEntryRow(ctx, relTx, id, entry, height); err != nil {
			return err
		}
	}

	for id, entry := range plan.UpdatedEntries {
		batch.PutRuneEntry(id, entry)
		touched[id] = struct{}{}
		if err := stageEntryRow(ctx, relTx, id, entry, height); err != nil {
			return err
		}
	}

	return nil
}

// stageEntryRow upserts the RelStore projection of a rune entry.
// The upsert writes holders/transactions as zero here — the caller
// recomputes them in a dedicated pass once every touched rune's
// balance rows have landed.
func stageEntryRow(ctx context.Context, relTx *sql.Tx, id codec.RuneId, entry codec.RuneEntry, height uint64) error {
	mintableNow := false
	if _, mintErr := runestate.Mintable(entry, height); mintErr == nil {
		mintableNow = true
	}

	row := relstore.RuneEntryRow{
		RuneID:       runeIDString(id),
		Etching:      hex.EncodeToString(entry.Etching[:]),
		Number:       entry.Number,
		Rune:         entry.Rune.String(),
		SpacedRune:   entry.Rune.String(),
		Divisibility: entry.Divisibility,
		Premine:      entry.Premine.String(),
		Mints:        entry.Mints.String(),
		Turbo:        entry.Turbo,
		Burned:       entry.Burned.String(),
		Mintable:     mintableNow,
		Height:       entry.Block,
		Timestamp:    entry.Timestamp,
	}
	if entry.HasSymbol {
		s := string(entry.Symbol)
		row.Symbol = &s
	}
	if entry.HasTerms {
		if entry.Terms.HasAmount {
			v := entry.Terms.Amount.String()
			row.Amount = &v
		}
		if entry.Terms.HasCap {
			v := entry.Terms.Cap.String()
			row.Cap = &v
		}
		if entry.Terms.HasStartHeight {
			v := entry.Terms.StartHeight
			row.StartHeight = &v
		}
		if entry.Terms.HasEndHeight {
			v := entry.Terms.EndHeight
			row.EndHeight = &v
		}
		if entry.Terms.HasStartOffset {
			v := entry.Terms.StartOffset
			row.StartOffset = &v
		}
		if entry.Terms.HasEndOffset {
			v := entry.Terms.EndOffset
			row.EndOffset = &v
		}
	}
	return relstore.InsertRuneEntries(ctx, relTx, []relstore.RuneEntryRow{row})
}

// gcPendingSpends drops HEIGHT_OUTPOINT_TO_RUNE_IDS entries older than
// reorg.MaxDepth — they can no longer be needed by a bounded-depth
// rewind.
func (bi *BlockIndexer) gcPendingSpends(batch *faststore.Batch, height uint64) {
	if height <= reorg.MaxDepth {
		return
	}
	cutoff := height - reorg.MaxDepth
	_ = bi.fast.ForEachPrefix(faststore.HeightOutpointToRuneIDs, nil, func(key, value []byte) bool {
		h := beUint64(key[:8])
		if h >= cutoff {
			return false
		}
		batch.Delete(faststore.HeightOutpointToRuneIDs, append([]byte(nil), key...))
		return true
	})
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func idsOf(balances []codec.RuneBalance) []codec.RuneId {
	out := make([]codec.RuneId, len(balances))
	for i, b := range balances {
		out[i] = b.ID
	}
	return out
}

func runeIDString(id codec.RuneId) string {
	return fmt.Sprintf("%d:%d", id.Block, id.Tx)
}

// scriptAddress derives the display address for a scriptPubKey on the
// given network, falling back to hex of the raw script when it can't
// be parsed into a standard address (e.g. a bare multisig or an
// otherwise non-standard output).
func scriptAddress(pkScript []byte, params *chaincfg.Params) string {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, params)
	if err != nil || len(addrs) == 0 {
		return hex.EncodeToString(pkScript)
	}
	return addrs[0].EncodeAddress()
}
