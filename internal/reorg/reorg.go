// Package reorg implements bounded-depth chain reorg recovery: fork
// point discovery bounded by a maximum rewind depth, and a rewind that
// reconstructs rune accounting from per-height deltas and the pending
// spend side index rather than replaying undo records.
package reorg

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/AstroxNetwork/runesd/internal/codec"
	"github.com/AstroxNetwork/runesd/internal/faststore"
	"github.com/AstroxNetwork/runesd/internal/ierr"
	"github.com/AstroxNetwork/runesd/internal/log"
	"github.com/AstroxNetwork/runesd/internal/relstore"
	"github.com/AstroxNetwork/runesd/internal/runestate"
)

// MaxDepth bounds how far back a single reorg recovery will rewind.
// Anything deeper is treated as a fatal divergence requiring manual
// intervention rather than an automatic rewind — the same bound the
// reference implementation enforces.
const MaxDepth = 10

// NodeHeaders is the minimal view into the connected node the fork-
// point walk needs: the hash of the block at a given height, on the
// node's current best chain.
type NodeHeaders interface {
	BlockHash(ctx context.Context, height uint64) (chainhash.Hash, error)
}

// Manager owns reorg detection and recovery for the indexing engine.
type Manager struct {
	fast *faststore.Store
	rel  *relstore.Store
	node NodeHeaders
	// floor is the lowest height a rewind will ever reach — the
	// network's first-rune height, below which there is no rune state
	// to rewind.
	floor uint64
}

func New(fast *faststore.Store, rel *relstore.Store, node NodeHeaders, floor uint64) *Manager {
	return &Manager{fast: fast, rel: rel, node: node, floor: floor}
}

// DetectDivergence checks whether the header this engine indexed at
// height still matches the node's current best chain at that height.
// A mismatch means the block this engine indexed has been reorged out.
func (m *Manager) DetectDivergence(ctx context.Context, height uint64) (bool, error) {
	indexed, ok, err := m.fast.Header(height)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	nodeHash, err := m.node.BlockHash(ctx, height)
	if err != nil {
		return false, err
	}
	indexedHash := indexed.BlockHash()
	return !indexedHash.IsEqual(&nodeHash), nil
}

// FindForkPoint walks backward from tip, comparing this engine's
// indexed header hash against the node's hash at each height, until it
// finds the highest height where they agree. It never walks further
// back than MaxDepth blocks, nor below floor.
func (m *Manager) FindForkPoint(ctx context.Context, tip uint64) (uint64, error) {
	lowest := m.floor
	if tip > MaxDepth && tip-MaxDepth > lowest {
		lowest = tip - MaxDepth
	}
	for h := tip; h >= lowest; h-- {
		diverged, err := m.DetectDivergence(ctx, h)
		if err != nil {
			return 0, err
		}
		if !diverged {
			return h, nil
		}
		if h == lowest {
			break
		}
	}
	return 0, fmt.Errorf("reorg: fork point not found within %d blocks of tip %d: %w", MaxDepth, tip, ErrTooDeep)
}

// RewindTo performs the three-stage rewind of every store down to (and
// discarding) height: FastStore deletions/patches via reverse
// iteration of the pending-spend side index, the corresponding RelStore
// statements, and a forward recompute pass over every surviving rune
// entry.
func (m *Manager) RewindTo(ctx context.Context, height uint64) error {
	logger := log.Reorg()
	logger.Warn().Uint64("to_height", height).Msg("rewinding chain state")

	changed, err := m.rewindFastStore(height)
	if err != nil {
		return fmt.Errorf("reorg: faststore rewind: %w", err)
	}

	if err := m.rewindRelStore(ctx, height); err != nil {
		return fmt.Errorf("reorg: relstore rewind: %w", err)
	}

	if err := m.recomputeEntries(ctx, changed, height); err != nil {
		return fmt.Errorf("reorg: recompute: %w", err)
	}

	logger.Info().Uint64("to_height", height).Int("runes_touched", len(changed)).Msg("rewind complete")
	return nil
}

// rewindFastStore implements stage 1. It deletes every HEIGHT_TO_* and
// per-height statistic record at or after height, reverse-iterates the
// pending-spend side index from the tip down to height to delete or
// patch OUTPOINT_TO_RUNE_BALANCES entries, deletes the per-height mint
// and burn deltas of every rune id the rewind touched, and deletes
// every RuneEntry (and its name index entry) etched on the abandoned
// branch. It returns every rune id whose accounting needs
// recomputation.
func (m *Manager) rewindFastStore(height uint64) (map[codec.RuneId]struct{}, error) {
	changed := map[codec.RuneId]struct{}{}

	batch := m.fast.NewBatch()

	if err := deleteFromHeight(m.fast, batch, faststore.HeightToBlockHeader, height); err != nil {
		return nil, err
	}
	if err := deleteStatisticDeltasFromHeight(m.fast, batch, height); err != nil {
		return nil, err
	}

	if err := m.fast.ForEachPrefixReverse(faststore.HeightOutpointToRuneIDs, nil, func(key, value []byte) bool {
		h := beUint64(key[:8])
		if h < height {
			return false
		}
		batch.Delete(faststore.HeightOutpointToRuneIDs, append([]byte(nil), key...))

		ids, err := faststore.DecodeRuneIDList(value)
		if err != nil {
			return false
		}
		for _, id := range ids {
			changed[id] = struct{}{}
		}

		op, err := codec.DecodeOutPoint(key[8:])
		if err != nil {
			return false
		}
		entry, ok, err := m.fast.OutpointBalances(op)
		if err != nil {
			return false
		}
		if !ok {
			return true
		}
		switch {
		case uint64(entry.ConfirmedHeight) >= height:
			// Created on the abandoned branch: the balance entry never
			// existed on the surviving chain.
			batch.DeleteOutpointBalances(op)
		case uint64(entry.SpentHeight) >= height:
			// Created before the rewind point but spent on the
			// abandoned branch: the spend is undone, the balance
			// becomes unspent again.
			entry.SpentHeight = 0
			batch.PutOutpointBalances(op, entry)
		}
		return true
	}); err != nil {
		return nil, err
	}

	for id := range changed {
		if err := deletePerIDHeightDeltas(m.fast, batch, faststore.RuneIDHeightToMints, id, height); err != nil {
			return nil, err
		}
		if err := deletePerIDHeightDeltas(m.fast, batch, faststore.RuneIDHeightToBurned, id, height); err != nil {
			return nil, err
		}
	}

	if err := deleteEtchedFromHeight(m.fast, batch, height); err != nil {
		return nil, err
	}

	if err := batch.Commit(); err != nil {
		return nil, err
	}
	return changed, nil
}

// deleteFromHeight deletes every row of an 8-byte-big-endian-height-
// keyed CF at or after height, via a reverse scan that stops at the
// first surviving row.
func deleteFromHeight(s *faststore.Store, batch *faststore.Batch, cf faststore.CF, height uint64) error {
	return s.ForEachPrefixReverse(cf, nil, func(key, value []byte) bool {
		h := beUint64(key[:8])
		if h < height {
			return false
		}
		batch.Delete(cf, append([]byte(nil), key...))
		return true
	})
}

// deleteStatisticDeltasFromHeight deletes HEIGHT_TO_STATISTIC_COUNT
// rows at or after height. Unlike deleteFromHeight's CFs, this one
// packs several stat tags into a single bucket behind a 1-byte prefix
// (see heightStatKey), so each tag needs its own bounded reverse scan —
// a single nil-prefix scan would stop at the first surviving height
// within whichever tag sorts last and never visit the others.
func deleteStatisticDeltasFromHeight(s *faststore.Store, batch *faststore.Batch, height uint64) error {
	for _, stat := range []faststore.Statistic{faststore.StatRunes, faststore.StatReservedRunes} {
		prefix := []byte{byte(stat)}
		if err := s.ForEachPrefixReverse(faststore.HeightToStatisticCount, prefix, func(key, value []byte) bool {
			h := uint64(binary.BigEndian.Uint32(key[1:5]))
			if h < height {
				return false
			}
			batch.Delete(faststore.HeightToStatisticCount, append([]byte(nil), key...))
			return true
		}); err != nil {
			return err
		}
	}
	return nil
}

// deletePerIDHeightDeltas deletes the per-height mint or burn deltas of
// a single rune id at or after height, via a reverse scan bounded by
// the id's own key prefix.
func deletePerIDHeightDeltas(s *faststore.Store, batch *faststore.Batch, cf faststore.CF, id codec.RuneId, height uint64) error {
	stored := id.Store()
	return s.ForEachPrefixReverse(cf, stored[:], func(key, value []byte) bool {
		h := beUint64(key[len(stored):])
		if h < height {
			return false
		}
		batch.Delete(cf, append([]byte(nil), key...))
		return true
	})
}

// deleteEtchedFromHeight removes every RuneEntry (and its
// RUNE_TO_RUNE_ID mapping) whose id was etched on the abandoned
// branch: RuneId.Block >= height. RUNE_ID_TO_RUNE_ENTRY keys sort
// chronologically by construction, so a reverse scan from the tip
// stops at the first surviving entry.
func deleteEtchedFromHeight(s *faststore.Store, batch *faststore.Batch, height uint64) error {
	return s.ForEachPrefixReverse(faststore.RuneIDToRuneEntry, nil, func(key, value []byte) bool {
		h := beUint64(key[:8])
		if h < height {
			return false
		}
		entry, err := codec.DecodeRuneEntry(value)
		if err != nil {
			return false
		}
		batch.Delete(faststore.RuneIDToRuneEntry, append([]byte(nil), key...))
		batch.Delete(faststore.RuneToRuneID, entry.Rune.PutUvarint(nil))
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

// rewindRelStore implements stage 2: the three SQL statements that
// delete/reset rows created or spent at or after height.
func (m *Manager) rewindRelStore(ctx context.Context, height uint64) error {
	tx, err := m.rel.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := relstore.DeleteFromHeight(ctx, tx, height); err != nil {
		return err
	}
	if err := relstore.ResetSpentFromHeight(ctx, tx, height); err != nil {
		return err
	}
	if err := relstore.DeleteEntriesFromHeight(ctx, tx, height); err != nil {
		return err
	}
	return tx.Commit()
}

// recomputeEntries implements stage 3. First, every rune id the rewind
// touched has its mints/burned totals recomputed by summing surviving
// per-height deltas. Then, across every surviving RuneEntry,
// Statistic::Runes and Statistic::ReservedRunes are recomputed from
// scratch along with each entry's ordinal number, and the recount is
// checked fatally against the per-height statistic deltas that
// survived the rewind — a mismatch means the rewind itself left the
// state inconsistent and must not be silently accepted.
func (m *Manager) recomputeEntries(ctx context.Context, changed map[codec.RuneId]struct{}, height uint64) error {
	ids := make([]string, 0, len(changed))
	if len(changed) > 0 {
		mintBurnBatch := m.fast.NewBatch()
		for id := range changed {
			entry, ok, err := m.fast.RuneEntry(id)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			mints, err := m.fast.SumMintsToHeight(id, height-1)
			if err != nil {
				return err
			}
			burned, err := m.fast.SumBurnedToHeight(id, height-1)
			if err != nil {
				return err
			}
			entry.Mints = codec.NewU128(mints)
			entry.Burned = burned
			mintBurnBatch.PutRuneEntry(id, entry)
			ids = append(ids, fmt.Sprintf("%d:%d", id.Block, id.Tx))
		}
		if err := mintBurnBatch.Commit(); err != nil {
			return err
		}
	}

	recountBatch := m.fast.NewBatch()
	runesTotal, reservedTotal, err := m.recountEntries(recountBatch)
	if err != nil {
		return err
	}

	wantRunes, err := m.fast.SumStatisticToHeight(faststore.StatRunes, height-1)
	if err != nil {
		return err
	}
	if runesTotal != wantRunes {
		return fmt.Errorf("reorg: recomputed %d surviving rune entries but Statistic::Runes delta sum is %d: %w", runesTotal, wantRunes, ierr.ErrCorruption)
	}

	wantReserved, err := m.fast.SumStatisticToHeight(faststore.StatReservedRunes, height-1)
	if err != nil {
		return err
	}
	if reservedTotal != wantReserved {
		return fmt.Errorf("reorg: recomputed %d surviving reserved entries but Statistic::ReservedRunes delta sum is %d: %w", reservedTotal, wantReserved, ierr.ErrCorruption)
	}

	recountBatch.PutStatistic(faststore.StatRunes, runesTotal)
	recountBatch.PutStatistic(faststore.StatReservedRunes, reservedTotal)
	if err := recountBatch.Commit(); err != nil {
		return err
	}

	if len(ids) == 0 {
		return nil
	}
	return m.rel.RecomputeHoldersAndTransactions(ctx, ids)
}

// recountEntries walks every surviving RuneEntry in ascending RuneId
// order, reassigning each entry's ordinal Number to its position in
// that order and staging the write in batch. It returns the total
// entry count and the reserved-name subset count.
func (m *Manager) recountEntries(batch *faststore.Batch) (runesTotal, reservedTotal uint64, err error) {
	var number uint64
	var loopErr error
	scanErr := m.fast.ForEachPrefix(faststore.RuneIDToRuneEntry, nil, func(key, value []byte) bool {
		id, decErr := codec.LoadRuneId(key)
		if decErr != nil {
			loopErr = decErr
			return false
		}
		entry, decErr := codec.DecodeRuneEntry(value)
		if decErr != nil {
			loopErr = decErr
			return false
		}
		entry.Number = number
		number++
		if runestate.IsReservedRune(entry.Rune) {
			reservedTotal++
		}
		batch.PutRuneEntry(id, entry)
		return true
	})
	if scanErr != nil {
		return 0, 0, scanErr
	}
	if loopErr != nil {
		return 0, 0, loopErr
	}
	return number, reservedTotal, nil
}

// ErrTooDeep is returned when a reorg would need to rewind further than
// MaxDepth to find a fork point.
var ErrTooDeep = errors.New("reorg: exceeds maximum recovery depth")
