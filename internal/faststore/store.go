// Package faststore is the embedded, ordered key-value store that backs
// the indexing engine's rune state — the single source of truth for
// rune balances, entries, and per-height accounting. It is built on
// bbolt, whose buckets serve directly as the store's column families:
// each CF is one top-level bucket, opened once at startup.
package faststore

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/AstroxNetwork/runesd/internal/chainparams"
)

// CF names a column family. Each is a distinct bbolt bucket.
type CF string

const (
	HeightToBlockHeader     CF = "height_to_block_header"
	HeightToStatisticCount  CF = "height_to_statistic_count"
	StatisticToValue        CF = "statistic_to_value"
	OutpointToRuneBalances  CF = "outpoint_to_rune_balances"
	RuneIDToRuneEntry       CF = "rune_id_to_rune_entry"
	RuneToRuneID            CF = "rune_to_rune_id"
	RuneIDHeightToMints     CF = "rune_id_height_to_mints"
	RuneIDHeightToBurned    CF = "rune_id_height_to_burned"
	RuneIDToMints           CF = "rune_id_to_mints"
	RuneIDToBurned          CF = "rune_id_to_burned"
	HeightOutpointToRuneIDs CF = "height_outpoint_to_rune_ids"
)

var allCFs = []CF{
	HeightToBlockHeader,
	HeightToStatisticCount,
	StatisticToValue,
	OutpointToRuneBalances,
	RuneIDToRuneEntry,
	RuneToRuneID,
	RuneIDHeightToMints,
	RuneIDHeightToBurned,
	RuneIDToMints,
	RuneIDToBurned,
	HeightOutpointToRuneIDs,
}

// Store is the FastStore handle.
type Store struct {
	db  *bbolt.DB
	dir string
}

// Open opens (creating if necessary) the FastStore for the given
// network under dataDir, resolving the network-named subdirectory
// convention: mainnet data lives at dataDir's root, every other network
// gets its own named subdirectory.
func Open(dataDir string, chain chainparams.Chain) (*Store, error) {
	dir := chain.DataSubdir(dataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("faststore: create data dir: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, "runes.db"), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("faststore: open: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, cf := range allCFs {
			if _, err := tx.CreateBucketIfNotExists([]byte(cf)); err != nil {
				return fmt.Errorf("create bucket %s: %w", cf, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, dir: dir}
	if err := s.ensureMeta(chain); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Flush forces the store's pages to stable storage. bbolt has no
// separate write-ahead log to flush independently of the data file, so
// this and FlushWAL both resolve to the same fsync.
func (s *Store) Flush() error { return s.db.Sync() }

// FlushWAL performs the same fsync as Flush.
func (s *Store) FlushWAL() error { return s.db.Sync() }

// View runs fn inside a read-only transaction.
func (s *Store) View(fn func(tx *bbolt.Tx) error) error { return s.db.View(fn) }

// Update runs fn inside a read-write transaction, applying all of its
// writes atomically on success.
func (s *Store) Update(fn func(tx *bbolt.Tx) error) error { return s.db.Update(fn) }

// Get reads a single key from a single column family.
func (s *Store) Get(cf CF, key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(cf))
		if b == nil {
			return fmt.Errorf("faststore: unknown column family %s", cf)
		}
		if v := b.Get(key); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

// Put writes a single key in a single column family, outside of a
// caller-managed Batch.
func (s *Store) Put(cf CF, key, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(cf))
		if b == nil {
			return fmt.Errorf("faststore: unknown column family %s", cf)
		}
		return b.Put(key, value)
	})
}

// Delete removes a single key from a single column family.
func (s *Store) Delete(cf CF, key []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(cf))
		if b == nil {
			return fmt.Errorf("faststore: unknown column family %s", cf)
		}
		return b.Delete(key)
	})
}
