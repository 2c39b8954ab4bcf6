// Package ierr defines the sentinel error taxonomy shared across the
// indexing engine, so callers can classify a failure with errors.Is
// instead of parsing strings.
package ierr

import "errors"

// ErrTransient marks a failure that is expected to clear on retry: a
// dropped RPC connection, a node still catching up, a timeout.
var ErrTransient = errors.New("transient error")

// ErrCorruption marks a failure that must never be swallowed: a decode
// that didn't round-trip, an invariant the state machine relies on that
// no longer holds, a counter mismatch discovered during rewind.
var ErrCorruption = errors.New("corruption detected")

// ErrDivergence classifies the condition where the indexer's notion of
// the chain no longer matches the node's — the header at some height
// doesn't match what was previously indexed. The BlockIndexer's reorg
// guard learns of a divergence from reorg.Manager.DetectDivergence's
// boolean result, so no code path returns this error.
var ErrDivergence = errors.New("chain divergence detected")
