package search

// Depth is a number of moves: an exact distance while building tables, or an admissible lower
// bound when returned by a prune table. It is never negative.
type Depth int
