package phase

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"crosswarped.com/scramble/pkg/primitives"
	"crosswarped.com/scramble/pkg/search"
)

type buildOptions struct {
	logger    *search.SearchLogger
	maxStates int
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithLogger reports progress and timing to logger.
func WithLogger(logger *search.SearchLogger) BuildOption {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// WithMaxStates makes Build fail with ErrPhaseTooLarge instead of enumerating more than n
// states. 0 disables the limit.
func WithMaxStates(n int) BuildOption {
	return func(o *buildOptions) {
		o.maxStates = n
	}
}

// Build expands generators into search moves and builds the phase lookup table for ph. It
// returns the moves the table's flat move indices refer to.
func Build[P, T any](puzzle MaskablePuzzle[P, T], generators search.Generators, ph Phase[P], opts ...BuildOption) (*Table, *search.SearchGenerators[T], error) {
	gens, err := search.NewSearchGenerators[P, T](puzzle, generators)
	if err != nil {
		return nil, nil, fmt.Errorf("phase %s: build search generators: %w", ph.Name, err)
	}
	table, err := BuildWithSearchGenerators(puzzle, gens, ph, opts...)
	if err != nil {
		return nil, nil, err
	}
	return table, gens, nil
}

// BuildWithSearchGenerators builds the phase lookup table for ph over already expanded moves.
//
// The first pass is a breadth-first enumeration from the default pattern. A state gets the next
// index the first time its lookup key is discovered, together with the discovering full pattern
// as its representative and its BFS depth. Because discovery happens in FIFO order, indices are
// assigned in non-decreasing distance order and every recorded depth is exact. The representative
// list doubles as the frontier, so no pattern is queued twice.
//
// The second pass fills one transition row per state by applying every move to the state's
// representative. Every valid target must already have an index; anything else means the mask,
// checker and invariant do not describe a consistent projection, and Build panics.
func BuildWithSearchGenerators[P, T any](puzzle MaskablePuzzle[P, T], gens *search.SearchGenerators[T], ph Phase[P], opts ...BuildOption) (*Table, error) {
	o := buildOptions{logger: search.NopSearchLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if gens.PuzzleName() != puzzle.Name() {
		return nil, fmt.Errorf("phase %s: %w: generators built for %q, puzzle is %q", ph.Name, search.ErrIncompatibleSearchContext, gens.PuzzleName(), puzzle.Name())
	}

	start := time.Now()
	keys := primitives.NewIndexedVec[PatternTag, LookupKey](0)
	index := make(map[LookupKey]PatternIndex)
	depths := primitives.NewIndexedVec[PatternTag, search.Depth](0)
	representatives := primitives.NewIndexedVec[PatternTag, P](0)

	defaultPattern := puzzle.DefaultPattern()
	defaultKey, ok := TryNewLookupKey(puzzle, defaultPattern, ph)
	if !ok {
		return nil, fmt.Errorf("phase %s: %w", ph.Name, ErrEmptyPhase)
	}
	index[defaultKey] = keys.Push(defaultKey)
	depths.Push(0)
	representatives.Push(defaultPattern)

	for head := PatternIndex(0); int(head) < representatives.Len(); head++ {
		full := representatives.At(head)
		depth := depths.At(head)
		for _, info := range gens.All() {
			next := puzzle.ApplyTransformation(full, info.Transformation)
			key, ok := TryNewLookupKey(puzzle, next, ph)
			if !ok {
				continue
			}
			if _, seen := index[key]; seen {
				continue
			}
			if o.maxStates > 0 && keys.Len() >= o.maxStates {
				return nil, fmt.Errorf("phase %s: %w: more than %d states", ph.Name, ErrPhaseTooLarge, o.maxStates)
			}
			index[key] = keys.Push(key)
			depths.Push(depth + 1)
			representatives.Push(next)
		}
	}
	o.logger.Info("enumerated phase lookup table",
		zap.String("phase", ph.Name),
		zap.Int("size", keys.Len()),
		zap.Int("max_depth", int(depths.At(PatternIndex(depths.Len()-1)))))

	transitions := primitives.NewIndexedVec[PatternTag, transitionRow](keys.Len())
	for i, representative := range representatives.All() {
		row := primitives.NewIndexedVec[search.FlatMoveTag, PatternIndex](gens.Len())
		for _, info := range gens.All() {
			next := puzzle.ApplyTransformation(representative, info.Transformation)
			key, ok := TryNewLookupKey(puzzle, next, ph)
			if !ok {
				row.Push(NoIndex)
				continue
			}
			target, found := index[key]
			if !found {
				panic(fmt.Sprintf("phase %s: inconsistent pattern enumeration: move %s from state %d reaches an unindexed state", ph.Name, info.Move, i))
			}
			row.Push(target)
		}
		transitions.Push(row)
	}

	elapsed := time.Since(start)
	phaseTableBuilds.WithLabelValues(puzzle.Name(), ph.Name).Inc()
	phaseTableStates.WithLabelValues(puzzle.Name(), ph.Name).Set(float64(keys.Len()))
	phaseTableBuildSeconds.WithLabelValues(puzzle.Name(), ph.Name).Observe(elapsed.Seconds())
	o.logger.Info("built phase lookup table",
		zap.String("phase", ph.Name),
		zap.Int("size", keys.Len()),
		zap.Int("moves", gens.Len()),
		zap.Duration("elapsed", elapsed))

	return &Table{
		name:        ph.Name,
		puzzleName:  puzzle.Name(),
		moves:       gens.Moves(),
		keys:        keys,
		index:       index,
		depths:      depths,
		transitions: transitions,
	}, nil
}
