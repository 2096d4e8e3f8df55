package phase

import (
	"fmt"

	"crosswarped.com/scramble/pkg/search"
)

// PruneTable is a search.PruneTable backed by a fully built phase Table. Every stored distance is
// exact, so ExtendForSearchDepth has nothing to do.
//
// The bound is admissible for searches that stay inside the phase's valid subspace; use
// Filter on the search data to enforce that. Patterns outside the phase get 0.
type PruneTable[P, T any] struct {
	puzzle MaskablePuzzle[P, T]
	table  *Table
	phase  Phase[P]
}

var _ search.PruneTable[int] = (*PruneTable[int, int])(nil)

// NewPruneTable wraps table. The table must have been built for puzzle and ph.
func NewPruneTable[P, T any](puzzle MaskablePuzzle[P, T], table *Table, ph Phase[P], logger *search.SearchLogger) (*PruneTable[P, T], error) {
	if table.PuzzleName() != puzzle.Name() || table.Name() != ph.Name {
		return nil, fmt.Errorf("%w: table %s/%s used with %s/%s", search.ErrIncompatibleSearchContext, table.PuzzleName(), table.Name(), puzzle.Name(), ph.Name)
	}
	if logger == nil {
		logger = search.NopSearchLogger()
	}
	logger.Extra("using phase prune table")
	return &PruneTable[P, T]{puzzle: puzzle, table: table, phase: ph}, nil
}

// Lookup returns the exact number of in-phase moves from pattern to the phase goal.
func (p *PruneTable[P, T]) Lookup(pattern P) search.Depth {
	i, ok := IndexOfPattern(p.puzzle, p.table, p.phase, pattern)
	if !ok {
		return 0
	}
	d, ok := p.table.GoalDistance(i)
	if !ok {
		return 0
	}
	return d
}

// ExtendForSearchDepth is a no-op; the table is complete.
func (p *PruneTable[P, T]) ExtendForSearchDepth(search.Depth, int) {}

// Accepts reports whether pattern lies inside the phase. It fits SearchAPIData.Filter.
func (p *PruneTable[P, T]) Accepts(pattern P) bool {
	_, ok := IndexOfPattern(p.puzzle, p.table, p.phase, pattern)
	return ok
}
