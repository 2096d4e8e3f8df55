package kpuzzle

import (
	"fmt"

	"crosswarped.com/scramble/pkg/primitives"
)

// Mask projects full onto the structure described by mask.
//
// mask is a pattern of the same puzzle whose data is read per piece rather than per slot:
// the piece p found in a slot of full is replaced by mask.Pieces[p], and its orientation is
// reduced modulo mask.OrientationMod[p] when that value is non-zero (1 discards orientation).
func (k *KPuzzle) Mask(full, mask KPattern) (KPattern, error) {
	if full.puzzle != k || mask.puzzle != k {
		return KPattern{}, fmt.Errorf("%w: patterns belong to different puzzles", ErrMaskMismatch)
	}
	orbits := make([]OrbitData, len(k.def.Orbits))
	for i, orbit := range k.def.Orbits {
		src, m := full.orbits[i], mask.orbits[i]
		if len(m.Pieces) != orbit.NumPieces {
			return KPattern{}, fmt.Errorf("%w: orbit %s", ErrMaskMismatch, orbit.Name)
		}
		dst := OrbitData{
			Pieces:         make([]int, orbit.NumPieces),
			Orientation:    make([]int, orbit.NumPieces),
			OrientationMod: make([]int, orbit.NumPieces),
		}
		for slot, piece := range src.Pieces {
			if piece < 0 || piece >= len(m.Pieces) {
				return KPattern{}, fmt.Errorf("%w: orbit %s has piece %d outside the mask", ErrMaskMismatch, orbit.Name, piece)
			}
			dst.Pieces[slot] = m.Pieces[piece]
			mod := orbit.NumOrientations
			if m.OrientationMod != nil && m.OrientationMod[piece] != 0 {
				mod = m.OrientationMod[piece]
			}
			dst.OrientationMod[slot] = mod
			dst.Orientation[slot] = src.Orientation[slot] % mod
		}
		orbits[i] = dst
	}
	return KPattern{puzzle: k, orbits: orbits}, nil
}

// OrbitMask describes how one orbit is projected.
type OrbitMask struct {
	// Keep lists the pieces that stay distinguishable. All other pieces become one
	// indistinguishable piece.
	Keep *primitives.PieceSet
	// IgnoreOrientation discards the orientation of every piece in the orbit.
	IgnoreOrientation bool
}

// NewMask builds a mask pattern. Orbits without an entry are kept unchanged.
func (k *KPuzzle) NewMask(orbits map[string]OrbitMask) (KPattern, error) {
	for name := range orbits {
		if _, ok := k.orbitIndex[name]; !ok {
			return KPattern{}, fmt.Errorf("%w: unknown orbit %s", ErrMaskMismatch, name)
		}
	}
	data := make([]OrbitData, len(k.def.Orbits))
	for i, orbit := range k.def.Orbits {
		d := OrbitData{
			Pieces:         make([]int, orbit.NumPieces),
			Orientation:    make([]int, orbit.NumPieces),
			OrientationMod: make([]int, orbit.NumPieces),
		}
		om, masked := orbits[orbit.Name]
		if masked && om.Keep != nil {
			inside := 0
			for p := range orbit.NumPieces {
				if om.Keep.Contains(p) {
					inside++
				}
			}
			if inside != om.Keep.Count() {
				return KPattern{}, fmt.Errorf("%w: orbit %s has %d pieces, keep set is %s", ErrMaskMismatch, orbit.Name, orbit.NumPieces, om.Keep)
			}
		}
		for p := range d.Pieces {
			d.Pieces[p] = p
			if !masked {
				continue
			}
			if om.Keep == nil || !om.Keep.Contains(p) {
				d.Pieces[p] = orbit.NumPieces
			}
			if om.IgnoreOrientation {
				d.OrientationMod[p] = 1
			}
		}
		data[i] = d
	}
	return KPattern{puzzle: k, orbits: data}, nil
}
