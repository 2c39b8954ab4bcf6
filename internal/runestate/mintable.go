package runestate

import (
	"errors"

	"github.com/AstroxNetwork/runesd/internal/codec"
)

// MintError classifies why a mint attempt against a rune entry failed.
type MintError struct {
	Kind MintErrorKind
	// Cap is populated when Kind == MintErrorCap.
	Cap codec.U128
	// Height is populated when Kind == MintErrorStart or MintErrorEnd.
	Height uint64
}

type MintErrorKind int

const (
	MintErrorNone MintErrorKind = iota
	MintErrorCap
	MintErrorStart
	MintErrorEnd
	MintErrorUnmintable
)

func (e *MintError) Error() string {
	switch e.Kind {
	case MintErrorCap:
		return "mint cap reached"
	case MintErrorStart:
		return "mint has not started"
	case MintErrorEnd:
		return "mint has ended"
	case MintErrorUnmintable:
		return "rune has no open mint terms"
	default:
		return "mintable"
	}
}

var errNoTerms = errors.New("runestate: entry has no terms")

// start returns the effective mint start height: the later of the
// relative offset (etching block + start offset) and the absolute
// start height, whichever are set; ok is false if neither is set.
func start(entry codec.RuneEntry) (uint64, bool) {
	t := entry.Terms
	var relative, absolute uint64
	var hasRelative, hasAbsolute bool
	if t.HasStartOffset {
		relative = entry.Block + t.StartOffset
		hasRelative = true
	}
	if t.HasStartHeight {
		absolute = t.StartHeight
		hasAbsolute = true
	}
	switch {
	case hasRelative && hasAbsolute:
		if relative > absolute {
			return relative, true
		}
		return absolute, true
	case hasRelative:
		return relative, true
	case hasAbsolute:
		return absolute, true
	default:
		return 0, false
	}
}

// end returns the effective mint end height: the earlier of the
// relative offset and the absolute end height, whichever are set; ok
// is false if neither is set.
func end(entry codec.RuneEntry) (uint64, bool) {
	t := entry.Terms
	var relative, absolute uint64
	var hasRelative, hasAbsolute bool
	if t.HasEndOffset {
		relative = entry.Block + t.EndOffset
		hasRelative = true
	}
	if t.HasEndHeight {
		absolute = t.EndHeight
		hasAbsolute = true
	}
	switch {
	case hasRelative && hasAbsolute:
		if relative < absolute {
			return relative, true
		}
		return absolute, true
	case hasRelative:
		return relative, true
	case hasAbsolute:
		return absolute, true
	default:
		return 0, false
	}
}

// Mintable reports whether entry can be minted at height, and if so,
// the amount a single mint produces.
func Mintable(entry codec.RuneEntry, height uint64) (codec.U128, *MintError) {
	if !entry.HasTerms {
		return codec.Zero, &MintError{Kind: MintErrorUnmintable}
	}
	if s, ok := start(entry); ok && height < s {
		return codec.Zero, &MintError{Kind: MintErrorStart, Height: s}
	}
	if e, ok := end(entry); ok && height >= e {
		return codec.Zero, &MintError{Kind: MintErrorEnd, Height: e}
	}
	mintCap := codec.Zero
	if entry.Terms.HasCap {
		mintCap = entry.Terms.Cap
	}
	if entry.Mints.Cmp(mintCap) >= 0 {
		return codec.Zero, &MintError{Kind: MintErrorCap, Cap: mintCap}
	}
	amount := codec.Zero
	if entry.Terms.HasAmount {
		amount = entry.Terms.Amount
	}
	return amount, nil
}
