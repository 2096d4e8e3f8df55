package kpuzzle

import "fmt"

// Parity is the parity of a permutation.
type Parity int

const (
	ParityEven Parity = 0
	ParityOdd  Parity = 1
)

func (p Parity) String() string {
	if p == ParityOdd {
		return "odd"
	}
	return "even"
}

// OrbitParity returns the permutation parity of the pieces in the named orbit. Pieces of the orbit
// must be pairwise distinct.
func OrbitParity(pattern KPattern, orbitName string) (Parity, error) {
	i, ok := pattern.puzzle.OrbitIndex(orbitName)
	if !ok {
		return ParityEven, fmt.Errorf("%w: unknown orbit %s", ErrInvalidDefinition, orbitName)
	}
	pieces := pattern.orbits[i].Pieces
	visited := make([]bool, len(pieces))
	parity := ParityEven
	for start := range pieces {
		if visited[start] {
			continue
		}
		cycleLen := 0
		for j := start; !visited[j]; j = pieces[j] {
			if pieces[j] < 0 || pieces[j] >= len(pieces) {
				return ParityEven, fmt.Errorf("%w: orbit %s is not a permutation", ErrInvalidDefinition, orbitName)
			}
			visited[j] = true
			cycleLen++
		}
		if cycleLen%2 == 0 {
			parity ^= 1
		}
	}
	return parity, nil
}

// OrbitParityInvariant returns an auxiliary invariant that distinguishes patterns by the
// permutation parity of one orbit. The orbit must exist and hold distinct pieces in every
// pattern passed to the returned function; anything else is a puzzle definition bug and panics.
func OrbitParityInvariant(orbitName string) func(KPattern) int {
	return func(full KPattern) int {
		parity, err := OrbitParity(full, orbitName)
		if err != nil {
			panic(fmt.Sprintf("parity invariant: %v", err))
		}
		return int(parity)
	}
}
