package search

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"crosswarped.com/scramble/pkg/primitives"
)

// SearchOptions bounds one call to IDFSearch.Search.
type SearchOptions struct {
	MinDepth Depth
	MaxDepth Depth
	// ApproximateNumEntries is forwarded to the prune table when the depth bound grows.
	ApproximateNumEntries int
}

// IDFSearch is an iterative-deepening depth-first search guided by a prune table.
type IDFSearch[P, T any] struct {
	apiData    *SearchAPIData[P, T]
	pruneTable PruneTable[P]
	logger     *SearchLogger
}

// NewIDFSearch creates a driver. The prune table must bound distances to apiData's target.
func NewIDFSearch[P, T any](apiData *SearchAPIData[P, T], pruneTable PruneTable[P], logger *SearchLogger) (*IDFSearch[P, T], error) {
	if apiData == nil || pruneTable == nil {
		return nil, fmt.Errorf("%w: search data and prune table are required", ErrIncompatibleSearchContext)
	}
	if logger == nil {
		logger = NopSearchLogger()
	}
	return &IDFSearch[P, T]{apiData: apiData, pruneTable: pruneTable, logger: logger}, nil
}

// Search yields move sequences that take pattern to the target, shortest first. Within one depth
// solutions come out in generator order. Two consecutive moves never share a family.
//
// The sequence ends when MaxDepth is exhausted, the consumer stops, or ctx is done.
func (s *IDFSearch[P, T]) Search(ctx context.Context, pattern P, opts SearchOptions) iter.Seq[primitives.Alg] {
	return func(yield func(primitives.Alg) bool) {
		puzzleName := s.apiData.Puzzle.Name()
		for depth := opts.MinDepth; depth <= opts.MaxDepth; depth++ {
			if ctx.Err() != nil {
				return
			}
			s.pruneTable.ExtendForSearchDepth(depth, opts.ApproximateNumEntries)

			start := time.Now()
			st := &searchState[P, T]{
				ctx:        ctx,
				search:     s,
				yield:      yield,
				puzzleName: puzzleName,
			}
			more := st.recurse(pattern, depth, -1)
			searchNodesVisited.WithLabelValues(puzzleName).Add(float64(st.nodes))
			s.logger.Extra("searched depth",
				zap.Int("depth", int(depth)),
				zap.Int64("nodes", st.nodes),
				zap.Duration("elapsed", time.Since(start)))
			if !more {
				return
			}
		}
	}
}

type searchState[P, T any] struct {
	ctx        context.Context
	search     *IDFSearch[P, T]
	yield      func(primitives.Alg) bool
	puzzleName string
	stack      []primitives.Move
	nodes      int64
}

// recurse returns false once the search must stop.
func (st *searchState[P, T]) recurse(pattern P, remaining Depth, previousFamily int) bool {
	st.nodes++
	data := st.search.apiData
	if data.Filter != nil && !data.Filter(pattern) {
		return true
	}
	if remaining == 0 {
		if !data.IsTarget(pattern) {
			return true
		}
		searchSolutionsFound.WithLabelValues(st.puzzleName).Inc()
		return st.yield(primitives.Alg{Moves: append([]primitives.Move(nil), st.stack...)})
	}
	if st.search.pruneTable.Lookup(pattern) > remaining {
		return true
	}
	if st.ctx.Err() != nil {
		return false
	}

	for _, info := range data.Generators.All() {
		if info.FamilyIndex == previousFamily {
			continue
		}
		st.stack = append(st.stack, info.Move)
		next := data.Puzzle.ApplyTransformation(pattern, info.Transformation)
		if !st.recurse(next, remaining-1, info.FamilyIndex) {
			return false
		}
		st.stack = st.stack[:len(st.stack)-1]
	}
	return true
}
