// Package indexer orchestrates the indexing engine's main loop: fetch
// the next block from the connected node, apply the rune state machine
// to each of its transactions, stage the resulting mutations into both
// stores, and commit — or detect a reorg and hand off to the reorg
// manager before continuing.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/chainparams"
	"github.com/AstroxNetwork/runesd/internal/commitverify"
	"github.com/AstroxNetwork/runesd/internal/faststore"
	"github.com/AstroxNetwork/runesd/internal/log"
	"github.com/AstroxNetwork/runesd/internal/relstore"
	"github.com/AstroxNetwork/runesd/internal/reorg"
	"github.com/AstroxNetwork/runesd/internal/rpcnode"
	"github.com/AstroxNetwork/runesd/internal/runestate"
)

// pollInterval is how long the indexer sleeps when it has caught up to
// the node's tip before checking again.
const pollInterval = time.Second

// Decoder is the external runestone-parsing contract this engine
// consumes: given a transaction, it returns the artifact carried by
// that transaction's runestone, if any. The binary runestone wire
// format is a protocol concern owned elsewhere — a conforming decoder
// is injected at construction rather than implemented here.
type Decoder interface {
	Decipher(tx *wire.MsgTx) (runestate.Artifact, bool)
}

// BlockIndexer is the engine's main orchestration loop.
type BlockIndexer struct {
	fast    *faststore.Store
	rel     *relstore.Store
	node    rpcnode.NodeRpc
	reorg   *reorg.Manager
	commit  *commitverify.Verifier
	decoder Decoder
	chain   chainparams.Chain

	// Invalidate is signalled after each block commits, so an external
	// query layer (out of this engine's scope) knows to drop any cached
	// results. Sends are always non-blocking: a missed signal just means
	// the next block's signal covers it too.
	Invalidate chan struct{}
}

func New(fast *faststore.Store, rel *relstore.Store, node rpcnode.NodeRpc, rm *reorg.Manager, decoder Decoder, chain chainparams.Chain) *BlockIndexer {
	return &BlockIndexer{
		fast:       fast,
		rel:        rel,
		node:       node,
		reorg:      rm,
		commit:     commitverify.New(node),
		decoder:    decoder,
		chain:      chain,
		Invalidate: make(chan struct{}, 1),
	}
}

// Run drives the main loop until ctx is cancelled. Cancellation is only
// observed between block iterations — never mid-commit — so a shutdown
// either finishes the in-progress block cleanly or doesn't start it.
func (bi *BlockIndexer) Run(ctx context.Context) error {
	if err := bi.maybeBootstrapGenesis(); err != nil {
		return fmt.Errorf("indexer: genesis bootstrap: %w", err)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		advanced, err := bi.step(ctx)
		if err != nil {
			return err
		}
		if !advanced {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollInterval):
			}
		}
	}
}

// step runs one iteration: refresh the node's tip height, and if there
// is a new block to process, process exactly one. Returns true if work
// was done (a block applied, or a reorg rewind performed).
func (bi *BlockIndexer) step(ctx context.Context) (bool, error) {
	tip, err := bi.node.TipHeight(ctx)
	if err != nil {
		return false, err
	}
	if err := bi.fast.Put(faststore.StatisticToValue, []byte{byte(faststore.StatLatestHeight)}, leU64(tip)); err != nil {
		return false, err
	}

	indexed, haveIndexed, err := bi.fast.LatestIndexedHeight()
	if err != nil {
		return false, err
	}
	nextHeight := bi.chain.FirstRuneHeight()
	if haveIndexed {
		nextHeight = indexed + 1
	}
	if nextHeight > tip {
		return false, nil
	}

	if haveIndexed {
		diverged, err := bi.reorg.DetectDivergence(ctx, indexed)
		if err != nil {
			return false, err
		}
		if diverged {
			fork, err := bi.reorg.FindForkPoint(ctx, indexed)
			if err != nil {
				return false, err
			}
			if err := bi.reorg.RewindTo(ctx, fork+1); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	if err := bi.applyBlock(ctx, nextHeight); err != nil {
		return false, err
	}
	return true, nil
}

func leU64(v uint64) []byte {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
