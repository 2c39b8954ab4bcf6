package indexer

import "github.com/AstroxNetwork/runesd/internal/codec"

// minimumRuneSteps is the number of equal-length intervals the
// first-rune-height-to-jubilee window is divided into while the
// minimum-name floor steps down to zero.
const minimumRuneSteps = 12

// minimumRuneAt returns the floor a proposed etching's name must clear
// at height. Across the window from FirstRuneHeight to JubileeHeight it
// returns remaining<<40, where remaining counts down from
// minimumRuneSteps one interval at a time, and it returns zero at or
// past JubileeHeight. chainparams sets JubileeHeight equal to
// FirstRuneHeight on every network, so the window is empty and the
// floor is zero at every height: no name is rejected as too short.
func (bi *BlockIndexer) minimumRuneAt(height uint64) codec.U128 {
	start := bi.chain.FirstRuneHeight()
	end := bi.chain.JubileeHeight()
	if end <= start || height >= end {
		return codec.Zero
	}
	if height < start {
		height = start
	}

	stepLen := (end - start) / minimumRuneSteps
	if stepLen == 0 {
		return codec.Zero
	}
	elapsed := (height - start) / stepLen
	if elapsed >= minimumRuneSteps {
		return codec.Zero
	}
	remaining := uint64(minimumRuneSteps) - elapsed
	return codec.U128{Hi: 0, Lo: remaining << 40}
}
