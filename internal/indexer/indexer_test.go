package indexer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/chainparams"
	"github.com/AstroxNetwork/runesd/internal/faststore"
	"github.com/AstroxNetwork/runesd/internal/relstore"
	"github.com/AstroxNetwork/runesd/internal/reorg"
	"github.com/AstroxNetwork/runesd/internal/runestate"
)

type fakeDecoder struct{}

func (fakeDecoder) Decipher(tx *wire.MsgTx) (runestate.Artifact, bool) { return runestate.Artifact{}, false }

type fakeNode struct {
	blocks map[uint64]*wire.MsgBlock
	tip    uint64
}

func (f *fakeNode) TipHeight(ctx context.Context) (uint64, error) { return f.tip, nil }

func (f *fakeNode) BlockHash(ctx context.Context, height uint64) (chainhash.Hash, error) {
	b, ok := f.blocks[height]
	if !ok {
		return chainhash.Hash{}, nil
	}
	return b.BlockHash(), nil
}

func (f *fakeNode) Block(ctx context.Context, hash chainhash.Hash) (*wire.MsgBlock, error) {
	for _, b := range f.blocks {
		if b.BlockHash().IsEqual(&hash) {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeNode) RawTxInfo(ctx context.Context, txid chainhash.Hash) (*btcjson.TxRawResult, error) {
	return &btcjson.TxRawResult{}, nil
}

func (f *fakeNode) HeaderInfo(ctx context.Context, hash chainhash.Hash) (*btcjson.GetBlockHeaderVerboseResult, error) {
	return &btcjson.GetBlockHeaderVerboseResult{}, nil
}

func coinbaseBlock(prev chainhash.Hash, nonce uint32) *wire.MsgBlock {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0xffffffff}})
	tx.AddTxOut(&wire.TxOut{Value: 5_000_000_000, PkScript: []byte{0x51}})
	block := wire.NewMsgBlock(&wire.BlockHeader{PrevBlock: prev, Nonce: nonce, Timestamp: time.Unix(1700000000, 0)})
	block.AddTransaction(tx)
	return block
}

func newTestIndexer(t *testing.T) (*BlockIndexer, *fakeNode) {
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

	genesis := coinbaseBlock(chainhash.Hash{}, 1)
	node := &fakeNode{blocks: map[uint64]*wire.MsgBlock{0: genesis}, tip: 0}

	rm := reorg.New(fast, rel, node, 0)
	bi := New(fast, rel, node, rm, fakeDecoder{}, chainparams.Regtest)
	return bi, node
}

func TestStepIndexesGenesisBlock(t *testing.T) {
	bi, _ := newTestIndexer(t)
	if err := bi.maybeBootstrapGenesis(); err != nil {
		t.Fatal(err)
	}

	advanced, err := bi.step(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !advanced {
		t.Fatal("expected step to index a block")
	}

	height, ok, err := bi.fast.LatestIndexedHeight()
	if err != nil || !ok || height != 0 {
		t.Fatalf("expected indexed height 0, got %d ok=%v err=%v", height, ok, err)
	}
}

func TestStepIsNoopWhenCaughtUp(t *testing.T) {
	bi, node := newTestIndexer(t)
	if _, err := bi.step(context.Background()); err != nil {
		t.Fatal(err)
	}
	node.tip = 0 // still no new block beyond genesis
	advanced, err := bi.step(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if advanced {
		t.Fatal("expected no-op step when already caught up to tip")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	bi, _ := newTestIndexer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bi.Run(ctx); err == nil {
		t.Fatal("expected Run to return an error on a pre-cancelled context")
	}
}
