package reorg

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/chainparams"
	"github.com/AstroxNetwork/runesd/internal/codec"
	"github.com/AstroxNetwork/runesd/internal/faststore"
	"github.com/AstroxNetwork/runesd/internal/relstore"
)

type fakeNode struct {
	hashes map[uint64]chainhash.Hash
}

func (f *fakeNode) BlockHash(ctx context.Context, height uint64) (chainhash.Hash, error) {
	return f.hashes[height], nil
}

func headerWithNonce(nonce uint32) wire.BlockHeader {
	return wire.BlockHeader{Nonce: nonce}
}

func setupStores(t *testing.T) (*faststore.Store, *relstore.Store) {
	t.Helper()
	fast, err := faststore.Open(t.TempDir(), chainparams.Regtest)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = fast.Close() })

	rel, err := relstore.Open(filepath.Join(t.TempDir(), "runes.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = rel.Close() })
	return fast, rel
}

func TestFindForkPointAgreesAtCommonAncestor(t *testing.T) {
	fast, rel := setupStores(t)

	node := &fakeNode{hashes: map[uint64]chainhash.Hash{}}
	batch := fast.NewBatch()
	for h := uint64(1); h <= 5; h++ {
		hdr := headerWithNonce(uint32(h))
		if err := batch.PutHeader(h, hdr); err != nil {
			t.Fatal(err)
		}
		node.hashes[h] = hdr.BlockHash()
	}
	if err := batch.Commit(); err != nil {
		t.Fatal(err)
	}

	// Node's view of height 5 and 4 now differs (reorged); 3 still agrees.
	node.hashes[5] = headerWithNonce(999).BlockHash()
	node.hashes[4] = headerWithNonce(998).BlockHash()

	m := New(fast, rel, node, 0)
	fork, err := m.FindForkPoint(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if fork != 3 {
		t.Fatalf("expected fork point 3, got %d", fork)
	}
}

func TestRewindToDeletesHeadersAtOrAboveHeight(t *testing.T) {
	fast, rel := setupStores(t)
	node := &fakeNode{hashes: map[uint64]chainhash.Hash{}}

	batch := fast.NewBatch()
	for h := uint64(1); h <= 5; h++ {
		if err := batch.PutHeader(h, headerWithNonce(uint32(h))); err != nil {
			t.Fatal(err)
		}
	}
	if err := batch.Commit(); err != nil {
		t.Fatal(err)
	}

	m := New(fast, rel, node, 0)
	if err := m.RewindTo(context.Background(), 3); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := fast.Header(3); err != nil || ok {
		t.Fatalf("expected height 3 removed, ok=%v err=%v", ok, err)
	}
	if _, ok, err := fast.Header(2); err != nil || !ok {
		t.Fatalf("expected height 2 retained, ok=%v err=%v", ok, err)
	}
}

func TestRewindDeletesAbandonedEtchingsAndRecomputesStatistics(t *testing.T) {
	fast, rel := setupStores(t)
	node := &fakeNode{hashes: map[uint64]chainhash.Hash{}}

	id1 := codec.RuneId{Block: 5, Tx: 0}
	id2 := codec.RuneId{Block: 7, Tx: 0}
	entry1 := codec.RuneEntry{Block: 5, Rune: codec.NewU128(100), Number: 0, Mints: codec.NewU128(2)}
	entry2 := codec.RuneEntry{Block: 7, Rune: codec.NewU128(200), Number: 1}

	touchOutpoint := wire.OutPoint{Index: 0}

	batch := fast.NewBatch()
	batch.PutRuneEntry(id1, entry1)
	batch.PutRuneToRuneID(entry1.Rune, id1)
	batch.PutRuneEntry(id2, entry2)
	batch.PutRuneToRuneID(entry2.Rune, id2)
	batch.PutStatistic(faststore.StatRunes, 2)
	batch.PutStatisticDeltaAtHeight(faststore.StatRunes, 5, 1)
	batch.PutStatisticDeltaAtHeight(faststore.StatRunes, 7, 1)
	batch.PutMintsAtHeight(id1, 5, 1)
	batch.PutMintsAtHeight(id1, 7, 1)
	batch.PutHeightOutpointRuneIDs(7, touchOutpoint, []codec.RuneId{id1})
	if err := batch.Commit(); err != nil {
		t.Fatal(err)
	}

	m := New(fast, rel, node, 0)
	if err := m.RewindTo(context.Background(), 6); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := fast.RuneEntry(id2); err != nil || ok {
		t.Fatalf("expected id2 deleted, ok=%v err=%v", ok, err)
	}
	if _, ok, err := fast.RuneToRuneID(entry2.Rune); err != nil || ok {
		t.Fatalf("expected id2's name index deleted, ok=%v err=%v", ok, err)
	}

	got, ok, err := fast.RuneEntry(id1)
	if err != nil || !ok {
		t.Fatalf("expected id1 retained, ok=%v err=%v", ok, err)
	}
	if got.Number != 0 {
		t.Fatalf("expected id1 ordinal 0, got %d", got.Number)
	}
	if got.Mints.Cmp(codec.NewU128(1)) != 0 {
		t.Fatalf("expected id1 mints recomputed to 1, got %s", got.Mints.String())
	}

	total, err := fast.Statistic(faststore.StatRunes)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("expected Statistic::Runes recomputed to 1, got %d", total)
	}
}
