package phase

import (
	"fmt"
	"sync"

	"crosswarped.com/scramble/pkg/primitives"
	"crosswarped.com/scramble/pkg/search"
)

// PatternTag tags indices into a phase Table.
type PatternTag struct{}

// PatternIndex identifies one distinct lookup key of a phase.
type PatternIndex = primitives.Index[PatternTag]

// NoIndex marks a transition that leaves the phase's valid subspace.
const NoIndex PatternIndex = -1

type transitionRow = *primitives.IndexedVec[search.FlatMoveTag, PatternIndex]

// Table is a fully built phase lookup table. It never changes after construction and is safe
// for concurrent use.
type Table struct {
	name       string
	puzzleName string
	moves      []primitives.Move

	keys        *primitives.IndexedVec[PatternTag, LookupKey]
	index       map[LookupKey]PatternIndex
	depths      *primitives.IndexedVec[PatternTag, search.Depth]
	transitions *primitives.IndexedVec[PatternTag, transitionRow]

	goalOnce      sync.Once
	goalDistances []search.Depth
}

// Name returns the phase name.
func (t *Table) Name() string {
	return t.name
}

// PuzzleName returns the name of the puzzle the table was built for.
func (t *Table) PuzzleName() string {
	return t.puzzleName
}

// Moves returns the moves in flat index order.
func (t *Table) Moves() []primitives.Move {
	return t.moves
}

// MoveCount returns the number of flat moves per row.
func (t *Table) MoveCount() int {
	return len(t.moves)
}

// Len returns the number of phase states.
func (t *Table) Len() int {
	return t.keys.Len()
}

// ApplyMove returns the state reached from index by a flat move, or false if the move leaves the
// phase. Out-of-range arguments panic.
func (t *Table) ApplyMove(index PatternIndex, move search.FlatMoveIndex) (PatternIndex, bool) {
	next := t.transitions.At(index).At(move)
	return next, next != NoIndex
}

// IndexOf returns the index assigned to key.
func (t *Table) IndexOf(key LookupKey) (PatternIndex, bool) {
	i, ok := t.index[key]
	if !ok {
		return NoIndex, false
	}
	return i, true
}

// KeyAt returns the lookup key of index.
func (t *Table) KeyAt(index PatternIndex) LookupKey {
	return t.keys.At(index)
}

// DepthAt returns the exact distance from the default pattern's state to index.
func (t *Table) DepthAt(index PatternIndex) search.Depth {
	return t.depths.At(index)
}

// GoalDistance returns the exact number of moves from index to the default pattern's state
// (index 0), or false if the goal cannot be reached without leaving the phase.
func (t *Table) GoalDistance(index PatternIndex) (search.Depth, bool) {
	t.goalOnce.Do(t.computeGoalDistances)
	if index < 0 || int(index) >= len(t.goalDistances) {
		panic(fmt.Sprintf("phase %s: index %d out of range for table of length %d", t.name, index, len(t.goalDistances)))
	}
	d := t.goalDistances[index]
	return d, d >= 0
}

// computeGoalDistances runs a BFS from index 0 over reversed transitions.
func (t *Table) computeGoalDistances() {
	n := t.keys.Len()
	predecessors := make([][]PatternIndex, n)
	for from, row := range t.transitions.All() {
		for _, to := range row.All() {
			if to != NoIndex {
				predecessors[to] = append(predecessors[to], from)
			}
		}
	}

	dist := make([]search.Depth, n)
	for i := range dist {
		dist[i] = -1
	}
	if n == 0 {
		t.goalDistances = dist
		return
	}
	dist[0] = 0
	queue := []PatternIndex{0}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, prev := range predecessors[cur] {
			if dist[prev] < 0 {
				dist[prev] = dist[cur] + 1
				queue = append(queue, prev)
			}
		}
	}
	t.goalDistances = dist
}
