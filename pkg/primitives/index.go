package primitives

import (
	"fmt"
	"iter"
)

// Index is a dense, zero-based position inside a table. The Tag parameter is never stored; it
// only keeps indices of unrelated tables from being mixed up at compile time.
type Index[Tag any] int

// IndexedVec is a growable dense arena addressed by Index[Tag].
//
// Elements are only ever appended, so an index returned by Push stays valid for the lifetime of
// the arena.
type IndexedVec[Tag any, V any] struct {
	items []V
}

// NewIndexedVec creates an arena with room for capacity elements.
func NewIndexedVec[Tag any, V any](capacity int) *IndexedVec[Tag, V] {
	return &IndexedVec[Tag, V]{items: make([]V, 0, capacity)}
}

// Push appends a value and returns its index.
func (v *IndexedVec[Tag, V]) Push(value V) Index[Tag] {
	v.items = append(v.items, value)
	return Index[Tag](len(v.items) - 1)
}

// At returns the value stored at index. Out-of-range access is a programming error and panics.
func (v *IndexedVec[Tag, V]) At(index Index[Tag]) V {
	if index < 0 || int(index) >= len(v.items) {
		panic(fmt.Sprintf("index %d out of range for arena of length %d", index, len(v.items)))
	}
	return v.items[index]
}

// Len returns the number of stored values.
func (v *IndexedVec[Tag, V]) Len() int {
	return len(v.items)
}

// All iterates over every (index, value) pair in index order.
func (v *IndexedVec[Tag, V]) All() iter.Seq2[Index[Tag], V] {
	return func(yield func(Index[Tag], V) bool) {
		for i, item := range v.items {
			if !yield(Index[Tag](i), item) {
				return
			}
		}
	}
}
