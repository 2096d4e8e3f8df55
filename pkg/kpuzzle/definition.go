// Package kpuzzle implements permutation puzzles described by orbits of pieces that can be
// permuted and twisted. Patterns and transformations share the same per-orbit layout, so a
// pattern can be read as the transformation that produces it from the default pattern.
package kpuzzle

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	// ErrInvalidDefinition is returned when a puzzle definition is structurally unsound.
	ErrInvalidDefinition = errors.New("invalid puzzle definition")
	// ErrUnknownMove is returned for a move family the puzzle does not define.
	ErrUnknownMove = errors.New("unknown move")
	// ErrMaskMismatch is returned when a mask does not fit the pattern it is applied to.
	ErrMaskMismatch = errors.New("mask does not match pattern")
)

// OrbitDefinition describes one orbit: a group of interchangeable slots.
type OrbitDefinition struct {
	Name            string `json:"orbitName"`
	NumPieces       int    `json:"numPieces"`
	NumOrientations int    `json:"numOrientations"`
}

// OrbitData is the pattern data for one orbit. Pieces[slot] is the piece in that slot and
// Orientation[slot] its twist. OrientationMod is only used by masks (see Mask).
type OrbitData struct {
	Pieces         []int `json:"pieces"`
	Orientation    []int `json:"orientation"`
	OrientationMod []int `json:"orientationMod,omitempty"`
}

// TransformationOrbitData is the transformation data for one orbit. Permutation[slot] names the
// slot whose piece moves into slot.
type TransformationOrbitData struct {
	Permutation      []int `json:"permutation"`
	OrientationDelta []int `json:"orientationDelta"`
}

// Definition is the serializable description of a puzzle.
type Definition struct {
	Name           string                                        `json:"name"`
	Orbits         []OrbitDefinition                             `json:"orbits"`
	DefaultPattern map[string]OrbitData                          `json:"defaultPattern"`
	Moves          map[string]map[string]TransformationOrbitData `json:"moves"`
}

// ParseDefinition decodes a JSON puzzle definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode puzzle definition: %w", err)
	}
	return &def, nil
}

func (d *Definition) validate() error {
	if len(d.Orbits) == 0 {
		return fmt.Errorf("%w: %q has no orbits", ErrInvalidDefinition, d.Name)
	}
	for _, orbit := range d.Orbits {
		if orbit.NumPieces <= 0 || orbit.NumPieces > 255 {
			return fmt.Errorf("%w: orbit %s has %d pieces", ErrInvalidDefinition, orbit.Name, orbit.NumPieces)
		}
		if orbit.NumOrientations <= 0 || orbit.NumOrientations > 255 {
			return fmt.Errorf("%w: orbit %s has %d orientations", ErrInvalidDefinition, orbit.Name, orbit.NumOrientations)
		}
		data, ok := d.DefaultPattern[orbit.Name]
		if !ok {
			return fmt.Errorf("%w: default pattern is missing orbit %s", ErrInvalidDefinition, orbit.Name)
		}
		if len(data.Pieces) != orbit.NumPieces || len(data.Orientation) != orbit.NumPieces {
			return fmt.Errorf("%w: default pattern orbit %s has the wrong size", ErrInvalidDefinition, orbit.Name)
		}
	}
	for name, move := range d.Moves {
		for _, orbit := range d.Orbits {
			data, ok := move[orbit.Name]
			if !ok {
				continue
			}
			if err := validatePermutation(data.Permutation, orbit.NumPieces); err != nil {
				return fmt.Errorf("%w: move %s orbit %s: %v", ErrInvalidDefinition, name, orbit.Name, err)
			}
			if len(data.OrientationDelta) != orbit.NumPieces {
				return fmt.Errorf("%w: move %s orbit %s has the wrong orientation size", ErrInvalidDefinition, name, orbit.Name)
			}
		}
	}
	return nil
}

func validatePermutation(permutation []int, n int) error {
	if len(permutation) != n {
		return fmt.Errorf("permutation has length %d, want %d", len(permutation), n)
	}
	seen := make([]bool, n)
	for _, p := range permutation {
		if p < 0 || p >= n || seen[p] {
			return fmt.Errorf("not a permutation: %v", permutation)
		}
		seen[p] = true
	}
	return nil
}
