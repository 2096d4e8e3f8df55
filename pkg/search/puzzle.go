// Package search contains the pieces shared by every search over a puzzle: the puzzle contract,
// generator sets with flat move indices, depth lower bounds and the iterative-deepening driver
// that consumes them.
package search

import (
	"errors"

	"crosswarped.com/scramble/pkg/primitives"
)

// ErrIncompatibleSearchContext is returned when search inputs were built for different puzzles
// or are missing required parts.
var ErrIncompatibleSearchContext = errors.New("incompatible search context")

// Puzzle is the semigroup action a search runs over. Patterns P are acted on by transformations
// T; composition must be associative and every move transformation invertible.
type Puzzle[P, T any] interface {
	Name() string
	DefaultPattern() P
	MoveTransformation(m primitives.Move) (T, error)
	ApplyTransformation(pattern P, t T) P
	ComposeTransformations(first, second T) T
	InvertTransformation(t T) T
	// PatternKey returns a canonical identity: equal keys iff equal patterns.
	PatternKey(pattern P) string
}

// PatternValidityChecker decides whether a (usually masked) pattern is acceptable.
type PatternValidityChecker[P any] interface {
	IsValid(pattern P) bool
}

// ValidityFunc adapts a function to PatternValidityChecker.
type ValidityFunc[P any] func(pattern P) bool

// IsValid calls f.
func (f ValidityFunc[P]) IsValid(pattern P) bool {
	return f(pattern)
}

// AlwaysValid accepts every pattern.
type AlwaysValid[P any] struct{}

// IsValid returns true.
func (AlwaysValid[P]) IsValid(P) bool {
	return true
}
