package phase

import (
	"fmt"
	"slices"

	"crosswarped.com/scramble/pkg/primitives"
	"crosswarped.com/scramble/pkg/search"
)

// SnapshotKey is the serialized form of a LookupKey. Masked is kept as bytes since pattern keys
// are not necessarily valid UTF-8.
type SnapshotKey struct {
	Masked    []byte `json:"masked"`
	Invariant int    `json:"invariant"`
}

// Snapshot is a plain-data copy of a Table suitable for persistence.
type Snapshot struct {
	Name        string        `json:"name"`
	Puzzle      string        `json:"puzzle"`
	Moves       []string      `json:"moves"`
	Keys        []SnapshotKey `json:"keys"`
	Depths      []int         `json:"depths"`
	Transitions [][]int       `json:"transitions"`
}

// Snapshot copies the table's contents.
func (t *Table) Snapshot() *Snapshot {
	snap := &Snapshot{
		Name:        t.name,
		Puzzle:      t.puzzleName,
		Moves:       make([]string, len(t.moves)),
		Keys:        make([]SnapshotKey, 0, t.keys.Len()),
		Depths:      make([]int, 0, t.depths.Len()),
		Transitions: make([][]int, 0, t.transitions.Len()),
	}
	for i, m := range t.moves {
		snap.Moves[i] = m.String()
	}
	for _, key := range t.keys.All() {
		snap.Keys = append(snap.Keys, SnapshotKey{Masked: []byte(key.Masked), Invariant: key.Invariant})
	}
	for _, d := range t.depths.All() {
		snap.Depths = append(snap.Depths, int(d))
	}
	for _, row := range t.transitions.All() {
		out := make([]int, 0, row.Len())
		for _, to := range row.All() {
			out = append(out, int(to))
		}
		snap.Transitions = append(snap.Transitions, out)
	}
	return snap
}

// FromSnapshot rebuilds a Table. moves are the flat moves the caller will search with; they must
// equal the moves the snapshot was taken with.
func FromSnapshot(snap *Snapshot, moves []primitives.Move) (*Table, error) {
	n := len(snap.Keys)
	if n == 0 {
		return nil, fmt.Errorf("phase %s: %w: no states", snap.Name, ErrSnapshotMismatch)
	}
	if len(snap.Depths) != n || len(snap.Transitions) != n {
		return nil, fmt.Errorf("phase %s: %w: %d keys, %d depths, %d transition rows", snap.Name, ErrSnapshotMismatch, n, len(snap.Depths), len(snap.Transitions))
	}
	want := make([]string, len(moves))
	for i, m := range moves {
		want[i] = m.String()
	}
	if !slices.Equal(want, snap.Moves) {
		return nil, fmt.Errorf("phase %s: %w: moves %v, snapshot has %v", snap.Name, ErrSnapshotMismatch, want, snap.Moves)
	}

	t := &Table{
		name:        snap.Name,
		puzzleName:  snap.Puzzle,
		moves:       slices.Clone(moves),
		keys:        primitives.NewIndexedVec[PatternTag, LookupKey](n),
		index:       make(map[LookupKey]PatternIndex, n),
		depths:      primitives.NewIndexedVec[PatternTag, search.Depth](n),
		transitions: primitives.NewIndexedVec[PatternTag, transitionRow](n),
	}
	for i, k := range snap.Keys {
		key := LookupKey{Masked: string(k.Masked), Invariant: k.Invariant}
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("phase %s: %w: duplicate key at %d", snap.Name, ErrSnapshotMismatch, i)
		}
		t.index[key] = t.keys.Push(key)
		t.depths.Push(search.Depth(snap.Depths[i]))
	}
	for i, in := range snap.Transitions {
		if len(in) != len(moves) {
			return nil, fmt.Errorf("phase %s: %w: row %d has %d moves, want %d", snap.Name, ErrSnapshotMismatch, i, len(in), len(moves))
		}
		row := primitives.NewIndexedVec[search.FlatMoveTag, PatternIndex](len(in))
		for _, to := range in {
			if to < int(NoIndex) || to >= n {
				return nil, fmt.Errorf("phase %s: %w: row %d points at %d", snap.Name, ErrSnapshotMismatch, i, to)
			}
			row.Push(PatternIndex(to))
		}
		t.transitions.Push(row)
	}
	return t, nil
}
