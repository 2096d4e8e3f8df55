package kpuzzle

import (
	"fmt"
	"strings"
)

// KPattern is a full or masked configuration of a KPuzzle.
type KPattern struct {
	puzzle *KPuzzle
	orbits []OrbitData
}

// KTransformation maps patterns to patterns. It is invertible and composes associatively.
type KTransformation struct {
	puzzle *KPuzzle
	orbits []TransformationOrbitData
}

// NewPattern builds a pattern from per-orbit data.
func (k *KPuzzle) NewPattern(data map[string]OrbitData) (KPattern, error) {
	orbits := make([]OrbitData, len(k.def.Orbits))
	for i, orbit := range k.def.Orbits {
		d, ok := data[orbit.Name]
		if !ok {
			return KPattern{}, fmt.Errorf("%w: pattern is missing orbit %s", ErrInvalidDefinition, orbit.Name)
		}
		if len(d.Pieces) != orbit.NumPieces || len(d.Orientation) != orbit.NumPieces {
			return KPattern{}, fmt.Errorf("%w: orbit %s has the wrong size", ErrInvalidDefinition, orbit.Name)
		}
		if d.OrientationMod != nil && len(d.OrientationMod) != orbit.NumPieces {
			return KPattern{}, fmt.Errorf("%w: orbit %s has the wrong orientation mod size", ErrInvalidDefinition, orbit.Name)
		}
		orbits[i] = OrbitData{
			Pieces:      append([]int(nil), d.Pieces...),
			Orientation: append([]int(nil), d.Orientation...),
		}
		if d.OrientationMod != nil {
			orbits[i].OrientationMod = append([]int(nil), d.OrientationMod...)
		}
	}
	return KPattern{puzzle: k, orbits: orbits}, nil
}

// Puzzle returns the puzzle the pattern belongs to.
func (p KPattern) Puzzle() *KPuzzle {
	return p.puzzle
}

// Orbit returns a copy of the named orbit's data.
func (p KPattern) Orbit(name string) (OrbitData, bool) {
	i, ok := p.puzzle.OrbitIndex(name)
	if !ok {
		return OrbitData{}, false
	}
	d := p.orbits[i]
	return OrbitData{
		Pieces:         append([]int(nil), d.Pieces...),
		Orientation:    append([]int(nil), d.Orientation...),
		OrientationMod: append([]int(nil), d.OrientationMod...),
	}, true
}

func (p KPattern) String() string {
	var b strings.Builder
	for i, orbit := range p.puzzle.def.Orbits {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s%v%v", orbit.Name, p.orbits[i].Pieces, p.orbits[i].Orientation)
	}
	return b.String()
}

// Orbit returns a copy of the named orbit's transformation data.
func (t KTransformation) Orbit(name string) (TransformationOrbitData, bool) {
	i, ok := t.puzzle.OrbitIndex(name)
	if !ok {
		return TransformationOrbitData{}, false
	}
	d := t.orbits[i]
	return TransformationOrbitData{
		Permutation:      append([]int(nil), d.Permutation...),
		OrientationDelta: append([]int(nil), d.OrientationDelta...),
	}, true
}
