package search

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"crosswarped.com/scramble/pkg/primitives"
)

// maxMoveOrder bounds the search for a move's order on the default pattern.
const maxMoveOrder = 1000

var (
	// ErrDuplicateGenerator is returned when a move family is listed more than once.
	ErrDuplicateGenerator = errors.New("duplicate generator")
	// ErrTrivialGenerator is returned for a move that does not change the default pattern or
	// has no finite order on it.
	ErrTrivialGenerator = errors.New("generator has no usable order")
)

// Metric decides which amounts of each move family become search moves.
type Metric int

const (
	// MetricHand uses every distinct amount of a family (R, R2, R').
	MetricHand Metric = iota
	// MetricQuantum uses only single turns in both directions (R, R').
	MetricQuantum
)

// ParseMetric parses "hand" or "quantum".
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "", "hand", "htm":
		return MetricHand, nil
	case "quantum", "qtm":
		return MetricQuantum, nil
	}
	return MetricHand, fmt.Errorf("unknown metric %q", s)
}

func (m Metric) String() string {
	if m == MetricQuantum {
		return "quantum"
	}
	return "hand"
}

// Generators names the move families a search may use.
type Generators struct {
	Families []string
	Metric   Metric
}

// FlatMoveTag tags indices into a SearchGenerators move list.
type FlatMoveTag struct{}

// FlatMoveIndex identifies one move of a SearchGenerators value.
type FlatMoveIndex = primitives.Index[FlatMoveTag]

// MoveInfo is one search move.
type MoveInfo[T any] struct {
	Move           primitives.Move
	Transformation T
	FlatIndex      FlatMoveIndex
	// FamilyIndex is the position of the move's family in Generators.Families.
	FamilyIndex int
}

// SearchGenerators is the canonical flat list of moves a search expands, in generator order.
type SearchGenerators[T any] struct {
	puzzleName string
	flat       *primitives.IndexedVec[FlatMoveTag, MoveInfo[T]]
}

// NewSearchGenerators expands generator families into flat search moves for puzzle.
func NewSearchGenerators[P, T any](puzzle Puzzle[P, T], generators Generators) (*SearchGenerators[T], error) {
	flat := primitives.NewIndexedVec[FlatMoveTag, MoveInfo[T]](len(generators.Families) * 3)
	seen := make(map[string]bool, len(generators.Families))

	for familyIndex, family := range generators.Families {
		if seen[family] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGenerator, family)
		}
		seen[family] = true

		order, err := moveOrder(puzzle, family)
		if err != nil {
			return nil, err
		}
		for _, amount := range canonicalAmounts(order, generators.Metric) {
			move := primitives.Move{Family: family, Amount: amount}
			t, err := puzzle.MoveTransformation(move)
			if err != nil {
				return nil, err
			}
			index := FlatMoveIndex(flat.Len())
			flat.Push(MoveInfo[T]{
				Move:           move,
				Transformation: t,
				FlatIndex:      index,
				FamilyIndex:    familyIndex,
			})
		}
	}
	return &SearchGenerators[T]{puzzleName: puzzle.Name(), flat: flat}, nil
}

func moveOrder[P, T any](puzzle Puzzle[P, T], family string) (int, error) {
	t, err := puzzle.MoveTransformation(primitives.Move{Family: family, Amount: 1})
	if err != nil {
		return 0, err
	}
	start := puzzle.DefaultPattern()
	startKey := puzzle.PatternKey(start)
	p := start
	for n := 1; n <= maxMoveOrder; n++ {
		p = puzzle.ApplyTransformation(p, t)
		if puzzle.PatternKey(p) == startKey {
			if n == 1 {
				return 0, fmt.Errorf("%w: %s does not change the default pattern", ErrTrivialGenerator, family)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrTrivialGenerator, family)
}

// canonicalAmounts lists the amounts 1..order-1 normalized into (-order/2, order/2]: positive
// amounts ascending, then negative amounts ascending (order 5 yields 1, 2, -2, -1).
func canonicalAmounts(order int, metric Metric) []int {
	if metric == MetricQuantum {
		if order == 2 {
			return []int{1}
		}
		return []int{1, -1}
	}
	var amounts []int
	for a := 1; a <= order/2; a++ {
		amounts = append(amounts, a)
	}
	for a := order/2 + 1; a < order; a++ {
		amounts = append(amounts, a-order)
	}
	return amounts
}

// PuzzleName returns the name of the puzzle the moves were built for.
func (g *SearchGenerators[T]) PuzzleName() string {
	return g.puzzleName
}

// Len returns the number of flat moves.
func (g *SearchGenerators[T]) Len() int {
	return g.flat.Len()
}

// At returns the move with the given flat index.
func (g *SearchGenerators[T]) At(index FlatMoveIndex) MoveInfo[T] {
	return g.flat.At(index)
}

// All iterates over the moves in flat index order.
func (g *SearchGenerators[T]) All() iter.Seq2[FlatMoveIndex, MoveInfo[T]] {
	return g.flat.All()
}

// Moves returns the moves in flat index order.
func (g *SearchGenerators[T]) Moves() []primitives.Move {
	moves := make([]primitives.Move, 0, g.flat.Len())
	for _, info := range g.flat.All() {
		moves = append(moves, info.Move)
	}
	return moves
}
