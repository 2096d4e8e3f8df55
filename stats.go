package scramble

import (
	"time"

	"crosswarped.com/scramble/pkg/phase"
)

// Source tells where a table came from.
type Source string

const (
	// SourceBuilt means the table was enumerated by this request.
	SourceBuilt Source = "built"
	// SourceCache means the table came from memory or the table store.
	SourceCache Source = "cache"
)

// BuildStats summarizes one table request.
type BuildStats struct {
	Puzzle   string
	Phase    string
	Source   Source
	States   int
	Moves    int
	MaxDepth int
	Duration time.Duration
}

func (s *BuildStats) fill(t *phase.Table) {
	s.States = t.Len()
	s.Moves = t.MoveCount()
	s.MaxDepth = int(t.DepthAt(phase.PatternIndex(t.Len() - 1)))
}

// DepthDistribution counts the states of t at each distance from the default pattern.
func DepthDistribution(t *phase.Table) []int {
	var counts []int
	for i := range t.Len() {
		d := int(t.DepthAt(phase.PatternIndex(i)))
		for len(counts) <= d {
			counts = append(counts, 0)
		}
		counts[d]++
	}
	return counts
}
