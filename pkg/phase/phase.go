// Package phase compacts a puzzle's state space into a small phase space and precomputes move
// transitions over it.
//
// A Phase projects full patterns with a mask, accepts or rejects the projection with a validity
// checker, and keeps an auxiliary invariant of the full pattern (such as a permutation parity)
// that the mask would otherwise lose. Build enumerates every phase state reachable from the
// default pattern breadth-first and returns a Table whose indices are dense and ordered by
// distance from the default pattern.
package phase

import (
	"errors"
	"fmt"

	"crosswarped.com/scramble/pkg/search"
)

var (
	// ErrEmptyPhase is returned when the default pattern itself is not valid for the phase.
	ErrEmptyPhase = errors.New("default pattern is not valid for the phase")
	// ErrPhaseTooLarge is returned when enumeration exceeds the configured state limit.
	ErrPhaseTooLarge = errors.New("phase has too many states")
	// ErrUnreachable is returned when no path leads from a phase state to the phase goal.
	ErrUnreachable = errors.New("phase goal is unreachable")
	// ErrSnapshotMismatch is returned when a snapshot does not fit the requested table.
	ErrSnapshotMismatch = errors.New("snapshot does not match")
)

// MaskablePuzzle is a puzzle whose patterns can be projected onto a mask.
//
// Mask must succeed for any pattern and mask of the same puzzle; an error means the two do not
// belong together and is treated as a fatal configuration bug.
type MaskablePuzzle[P, T any] interface {
	search.Puzzle[P, T]
	Mask(full, mask P) (P, error)
}

// Phase describes one restricted view of a puzzle.
type Phase[P any] struct {
	Name string
	// Mask is a pattern-shaped template of the components that matter to the phase.
	Mask P
	// Checker validates masked patterns. Nil accepts everything.
	Checker search.PatternValidityChecker[P]
	// Invariant is computed from the full pattern and folded into the lookup key. Nil means none.
	Invariant func(full P) int
}

// LookupKey is the identity of a full pattern within a phase: the canonical key of its masked
// projection plus the auxiliary invariant.
type LookupKey struct {
	Masked    string
	Invariant int
}

// TryNewLookupKey derives the lookup key of full. It returns false when the masked pattern is not
// valid for the phase. A masking failure panics with an error wrapping the puzzle's mask error.
func TryNewLookupKey[P, T any](puzzle MaskablePuzzle[P, T], full P, ph Phase[P]) (LookupKey, bool) {
	masked, err := puzzle.Mask(full, ph.Mask)
	if err != nil {
		panic(fmt.Errorf("phase %s: mask application failed: %w", ph.Name, err))
	}
	if ph.Checker != nil && !ph.Checker.IsValid(masked) {
		return LookupKey{}, false
	}

	key := LookupKey{Masked: puzzle.PatternKey(masked)}
	if ph.Invariant != nil {
		key.Invariant = ph.Invariant(full)
	}
	return key, true
}

// IndexOfPattern translates a live full pattern into its table index.
func IndexOfPattern[P, T any](puzzle MaskablePuzzle[P, T], table *Table, ph Phase[P], full P) (PatternIndex, bool) {
	key, ok := TryNewLookupKey(puzzle, full, ph)
	if !ok {
		return NoIndex, false
	}
	return table.IndexOf(key)
}
