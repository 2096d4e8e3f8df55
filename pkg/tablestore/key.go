package tablestore

import (
	"fmt"

	"github.com/mitchellh/hashstructure"
)

// OrbitMaskDescriptor describes the mask applied to one orbit.
type OrbitMaskDescriptor struct {
	Orbit             string
	Keep              []int `hash:"set"`
	IgnoreOrientation bool
}

// Descriptor identifies everything that determines a phase table's contents.
type Descriptor struct {
	Puzzle string
	// Definition fingerprints the puzzle definition, so an edited definition that keeps its
	// name gets a fresh key.
	Definition uint64
	Families   []string
	Metric     string
	Phase      string
	Masks      []OrbitMaskDescriptor `hash:"set"`
	Checker    string
	// CheckerVersion changes whenever the named checker accepts a different set of patterns.
	CheckerVersion string
	ParityOrbit    string
	// MaxStates does not change a successfully built table.
	MaxStates int `hash:"ignore"`
}

// KeyFor returns a stable store key for d. Readable parts come first so keys sort by puzzle
// and phase.
func KeyFor(d Descriptor) (string, error) {
	h, err := hashstructure.Hash(d, nil)
	if err != nil {
		return "", fmt.Errorf("tablestore: hash descriptor: %w", err)
	}
	return fmt.Sprintf("%s/%s/%016x", d.Puzzle, d.Phase, h), nil
}
