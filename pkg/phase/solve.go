package phase

import (
	"fmt"

	"crosswarped.com/scramble/pkg/search"
)

// Solve returns a shortest sequence of flat moves taking start to the phase goal (index 0). It
// walks downhill on goal distance, picking the lowest-numbered move at each step, so the result
// is deterministic.
func Solve(table *Table, start PatternIndex) ([]search.FlatMoveIndex, error) {
	dist, ok := table.GoalDistance(start)
	if !ok {
		return nil, fmt.Errorf("phase %s: state %d: %w", table.Name(), start, ErrUnreachable)
	}

	solution := make([]search.FlatMoveIndex, 0, dist)
	current := start
	for dist > 0 {
		stepped := false
		for m := range table.MoveCount() {
			move := search.FlatMoveIndex(m)
			next, ok := table.ApplyMove(current, move)
			if !ok {
				continue
			}
			if d, _ := table.GoalDistance(next); d == dist-1 {
				solution = append(solution, move)
				current, dist = next, d
				stepped = true
				break
			}
		}
		if !stepped {
			panic(fmt.Sprintf("phase %s: no move decreases goal distance from state %d", table.Name(), current))
		}
	}
	return solution, nil
}
