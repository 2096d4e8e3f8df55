package search

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultHashPruneTableMaxEntries bounds the memory of a HashPruneTable when no larger size is
// requested.
const DefaultHashPruneTableMaxEntries = 1 << 20

// HashPruneTable stores exact distances to the target for every pattern within its covered
// depth, keyed by pattern key. Patterns it has not stored are at least coveredDepth+1 away.
//
// The table grows one BFS layer at a time from the target. It is not safe for concurrent use.
type HashPruneTable[P, T any] struct {
	puzzle   Puzzle[P, T]
	logger   *SearchLogger
	inverses []T

	depths       map[string]Depth
	frontier     []P
	coveredDepth Depth
	exhausted    bool
	maxEntries   int
}

// NewHashPruneTable seeds a table with the target of apiData. minSize pre-sizes the table and
// raises its entry limit when it exceeds DefaultHashPruneTableMaxEntries; 0 means no hint.
func NewHashPruneTable[P, T any](puzzle Puzzle[P, T], apiData *SearchAPIData[P, T], logger *SearchLogger, minSize int) (*HashPruneTable[P, T], error) {
	if apiData == nil {
		return nil, fmt.Errorf("%w: missing search data", ErrIncompatibleSearchContext)
	}
	if puzzle == nil || apiData.Generators == nil || apiData.Generators.PuzzleName() != puzzle.Name() {
		return nil, fmt.Errorf("%w: generators do not belong to the puzzle", ErrIncompatibleSearchContext)
	}
	if logger == nil {
		logger = NopSearchLogger()
	}

	inverses := make([]T, 0, apiData.Generators.Len())
	for _, info := range apiData.Generators.All() {
		inverses = append(inverses, puzzle.InvertTransformation(info.Transformation))
	}

	maxEntries := max(DefaultHashPruneTableMaxEntries, minSize)
	depths := make(map[string]Depth, max(minSize, 1))
	depths[puzzle.PatternKey(apiData.TargetPattern)] = 0

	return &HashPruneTable[P, T]{
		puzzle:     puzzle,
		logger:     logger,
		inverses:   inverses,
		depths:     depths,
		frontier:   []P{apiData.TargetPattern},
		maxEntries: maxEntries,
	}, nil
}

// Lookup returns the exact distance of a stored pattern, and coveredDepth+1 otherwise.
func (t *HashPruneTable[P, T]) Lookup(pattern P) Depth {
	if d, ok := t.depths[t.puzzle.PatternKey(pattern)]; ok {
		return d
	}
	return t.coveredDepth + 1
}

// ExtendForSearchDepth adds BFS layers until the table covers searchDepth, the reachable space
// is exhausted, or the entry limit (raised to approximateNumEntries if larger) is reached.
func (t *HashPruneTable[P, T]) ExtendForSearchDepth(searchDepth Depth, approximateNumEntries int) {
	limit := max(t.maxEntries, approximateNumEntries)
	if t.exhausted || t.coveredDepth >= searchDepth || len(t.depths) >= limit {
		return
	}

	start := time.Now()
	for !t.exhausted && t.coveredDepth < searchDepth && len(t.depths) < limit {
		t.addLayer()
	}
	hashPruneTableEntries.WithLabelValues(t.puzzle.Name()).Set(float64(len(t.depths)))
	t.logger.Info("extended hash prune table",
		zap.Int("covered_depth", int(t.coveredDepth)),
		zap.Int("entries", len(t.depths)),
		zap.Bool("exhausted", t.exhausted),
		zap.Duration("elapsed", time.Since(start)))
}

func (t *HashPruneTable[P, T]) addLayer() {
	next := t.coveredDepth + 1
	var layer []P
	for _, p := range t.frontier {
		for _, inverse := range t.inverses {
			q := t.puzzle.ApplyTransformation(p, inverse)
			key := t.puzzle.PatternKey(q)
			if _, seen := t.depths[key]; seen {
				continue
			}
			t.depths[key] = next
			layer = append(layer, q)
		}
	}
	t.coveredDepth = next
	t.frontier = layer
	if len(layer) == 0 {
		t.exhausted = true
	}
	t.logger.Extra("prune table layer", zap.Int("depth", int(next)), zap.Int("patterns", len(layer)))
}

// CoveredDepth returns the depth up to which every pattern is stored.
func (t *HashPruneTable[P, T]) CoveredDepth() Depth {
	return t.coveredDepth
}

// Len returns the number of stored patterns.
func (t *HashPruneTable[P, T]) Len() int {
	return len(t.depths)
}
