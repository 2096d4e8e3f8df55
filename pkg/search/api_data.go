package search

import "fmt"

// SearchAPIData is the context shared by a search driver and its prune table.
type SearchAPIData[P, T any] struct {
	Puzzle        Puzzle[P, T]
	Generators    *SearchGenerators[T]
	TargetPattern P
	// Filter, when set, prunes every node whose full pattern it rejects. Searches that rely on a
	// phase prune table use it to stay inside the phase's valid subspace.
	Filter func(pattern P) bool

	targetKey string
}

// NewSearchAPIData checks that generators were built for puzzle.
func NewSearchAPIData[P, T any](puzzle Puzzle[P, T], generators *SearchGenerators[T], target P) (*SearchAPIData[P, T], error) {
	if puzzle == nil || generators == nil {
		return nil, fmt.Errorf("%w: puzzle and generators are required", ErrIncompatibleSearchContext)
	}
	if generators.PuzzleName() != puzzle.Name() {
		return nil, fmt.Errorf("%w: generators built for %q, puzzle is %q", ErrIncompatibleSearchContext, generators.PuzzleName(), puzzle.Name())
	}
	if generators.Len() == 0 {
		return nil, fmt.Errorf("%w: no generators", ErrIncompatibleSearchContext)
	}
	return &SearchAPIData[P, T]{
		Puzzle:        puzzle,
		Generators:    generators,
		TargetPattern: target,
		targetKey:     puzzle.PatternKey(target),
	}, nil
}

// IsTarget reports whether pattern is the search target.
func (d *SearchAPIData[P, T]) IsTarget(pattern P) bool {
	return d.Puzzle.PatternKey(pattern) == d.targetKey
}
