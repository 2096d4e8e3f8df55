package kpuzzle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/hashstructure"

	"crosswarped.com/scramble/pkg/primitives"
)

// KPuzzle is a validated puzzle definition.
type KPuzzle struct {
	def        *Definition
	orbitIndex map[string]int
}

// New validates a definition and builds a puzzle from it.
func New(def *Definition) (*KPuzzle, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	orbitIndex := make(map[string]int, len(def.Orbits))
	for i, orbit := range def.Orbits {
		orbitIndex[orbit.Name] = i
	}
	return &KPuzzle{def: def, orbitIndex: orbitIndex}, nil
}

// Name returns the puzzle name.
func (k *KPuzzle) Name() string {
	return k.def.Name
}

// Orbits returns the orbit definitions in canonical order.
func (k *KPuzzle) Orbits() []OrbitDefinition {
	return k.def.Orbits
}

// OrbitIndex returns the position of the named orbit.
func (k *KPuzzle) OrbitIndex(name string) (int, bool) {
	i, ok := k.orbitIndex[name]
	return i, ok
}

// MoveFamilies returns the names of the moves the definition provides, sorted.
func (k *KPuzzle) MoveFamilies() []string {
	families := make([]string, 0, len(k.def.Moves))
	for name := range k.def.Moves {
		families = append(families, name)
	}
	sort.Strings(families)
	return families
}

// Fingerprint hashes the whole definition. Two puzzles with the same name but different orbits,
// default pattern or moves have different fingerprints.
func (k *KPuzzle) Fingerprint() (uint64, error) {
	h, err := hashstructure.Hash(k.def, nil)
	if err != nil {
		return 0, fmt.Errorf("fingerprint %s: %w", k.def.Name, err)
	}
	return h, nil
}

// DefaultPattern returns the solved pattern.
func (k *KPuzzle) DefaultPattern() KPattern {
	orbits := make([]OrbitData, len(k.def.Orbits))
	for i, orbit := range k.def.Orbits {
		data := k.def.DefaultPattern[orbit.Name]
		orbits[i] = OrbitData{
			Pieces:      append([]int(nil), data.Pieces...),
			Orientation: append([]int(nil), data.Orientation...),
		}
		if data.OrientationMod != nil {
			orbits[i].OrientationMod = append([]int(nil), data.OrientationMod...)
		}
	}
	return KPattern{puzzle: k, orbits: orbits}
}

// IdentityTransformation returns the transformation that changes nothing.
func (k *KPuzzle) IdentityTransformation() KTransformation {
	orbits := make([]TransformationOrbitData, len(k.def.Orbits))
	for i, orbit := range k.def.Orbits {
		perm := make([]int, orbit.NumPieces)
		for j := range perm {
			perm[j] = j
		}
		orbits[i] = TransformationOrbitData{
			Permutation:      perm,
			OrientationDelta: make([]int, orbit.NumPieces),
		}
	}
	return KTransformation{puzzle: k, orbits: orbits}
}

// MoveTransformation returns the transformation for a move. Negative amounts invert the move.
func (k *KPuzzle) MoveTransformation(m primitives.Move) (KTransformation, error) {
	data, ok := k.def.Moves[m.Family]
	if !ok {
		return KTransformation{}, fmt.Errorf("%w: %s on %s", ErrUnknownMove, m.Family, k.def.Name)
	}

	base := k.IdentityTransformation()
	for i, orbit := range k.def.Orbits {
		if orbitData, ok := data[orbit.Name]; ok {
			base.orbits[i] = TransformationOrbitData{
				Permutation:      append([]int(nil), orbitData.Permutation...),
				OrientationDelta: append([]int(nil), orbitData.OrientationDelta...),
			}
		}
	}

	amount := m.Amount
	if amount < 0 {
		base = k.InvertTransformation(base)
		amount = -amount
	}
	result := k.IdentityTransformation()
	for range amount {
		result = k.ComposeTransformations(result, base)
	}
	return result, nil
}

// ApplyTransformation returns the pattern reached by applying t to pattern.
func (k *KPuzzle) ApplyTransformation(pattern KPattern, t KTransformation) KPattern {
	orbits := make([]OrbitData, len(k.def.Orbits))
	for i, orbit := range k.def.Orbits {
		src := pattern.orbits[i]
		tr := t.orbits[i]
		dst := OrbitData{
			Pieces:      make([]int, orbit.NumPieces),
			Orientation: make([]int, orbit.NumPieces),
		}
		if src.OrientationMod != nil {
			dst.OrientationMod = make([]int, orbit.NumPieces)
		}
		for slot, from := range tr.Permutation {
			dst.Pieces[slot] = src.Pieces[from]
			mod := orbit.NumOrientations
			if src.OrientationMod != nil {
				dst.OrientationMod[slot] = src.OrientationMod[from]
				if m := src.OrientationMod[from]; m != 0 {
					mod = m
				}
			}
			dst.Orientation[slot] = (src.Orientation[from] + tr.OrientationDelta[slot]) % mod
		}
		orbits[i] = dst
	}
	return KPattern{puzzle: k, orbits: orbits}
}

// ApplyAlg applies every move of alg in order.
func (k *KPuzzle) ApplyAlg(pattern KPattern, alg primitives.Alg) (KPattern, error) {
	for _, m := range alg.Moves {
		t, err := k.MoveTransformation(m)
		if err != nil {
			return KPattern{}, err
		}
		pattern = k.ApplyTransformation(pattern, t)
	}
	return pattern, nil
}

// ComposeTransformations returns the transformation equivalent to first followed by second.
func (k *KPuzzle) ComposeTransformations(first, second KTransformation) KTransformation {
	orbits := make([]TransformationOrbitData, len(k.def.Orbits))
	for i, orbit := range k.def.Orbits {
		a, b := first.orbits[i], second.orbits[i]
		perm := make([]int, orbit.NumPieces)
		delta := make([]int, orbit.NumPieces)
		for slot, from := range b.Permutation {
			perm[slot] = a.Permutation[from]
			delta[slot] = (a.OrientationDelta[from] + b.OrientationDelta[slot]) % orbit.NumOrientations
		}
		orbits[i] = TransformationOrbitData{Permutation: perm, OrientationDelta: delta}
	}
	return KTransformation{puzzle: k, orbits: orbits}
}

// InvertTransformation returns the transformation that undoes t.
func (k *KPuzzle) InvertTransformation(t KTransformation) KTransformation {
	orbits := make([]TransformationOrbitData, len(k.def.Orbits))
	for i, orbit := range k.def.Orbits {
		src := t.orbits[i]
		perm := make([]int, orbit.NumPieces)
		delta := make([]int, orbit.NumPieces)
		for slot, from := range src.Permutation {
			perm[from] = slot
			delta[from] = (orbit.NumOrientations - src.OrientationDelta[slot]) % orbit.NumOrientations
		}
		orbits[i] = TransformationOrbitData{Permutation: perm, OrientationDelta: delta}
	}
	return KTransformation{puzzle: k, orbits: orbits}
}

// PatternKey returns a compact canonical identity for a pattern. Two patterns of the same puzzle
// have equal keys iff they have equal pieces and orientations.
func (k *KPuzzle) PatternKey(pattern KPattern) string {
	var b strings.Builder
	for _, orbit := range pattern.orbits {
		for _, p := range orbit.Pieces {
			b.WriteByte(byte(p))
		}
		for _, o := range orbit.Orientation {
			b.WriteByte(byte(o))
		}
	}
	return b.String()
}
