package primitives

import (
	"fmt"
	"math/bits"
	"strings"
)

// PieceSet efficiently represents a set of piece indices within one orbit using bit manipulation.
// It supports pieces 0 through 63, which fits in a uint64.
type PieceSet struct {
	bits  uint64
	count int
}

// MaxPieces is the largest orbit size a PieceSet can describe.
const MaxPieces = 64

// NewPieceSet creates a set containing the given pieces.
func NewPieceSet(pieces ...int) (*PieceSet, error) {
	s := &PieceSet{}
	for _, p := range pieces {
		if err := s.Add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add adds a piece to the set.
func (s *PieceSet) Add(piece int) error {
	if piece < 0 || piece >= MaxPieces {
		return fmt.Errorf("piece %d is out of range", piece)
	}

	bitPos := uint(piece)
	if s.bits&(1<<bitPos) == 0 {
		s.bits |= 1 << bitPos
		s.count = bits.OnesCount64(s.bits)
	}
	return nil
}

// Contains checks if a piece is in the set.
func (s *PieceSet) Contains(piece int) bool {
	if piece < 0 || piece >= MaxPieces {
		return false
	}
	return s.bits&(1<<uint(piece)) != 0
}

// Count returns the number of pieces in the set.
func (s *PieceSet) Count() int {
	return s.count
}

// String returns a string representation of the set.
func (s *PieceSet) String() string {
	if s.count == 0 {
		return "pieces []"
	}

	var pieces []string
	for i := range MaxPieces {
		if s.bits&(1<<uint(i)) != 0 {
			pieces = append(pieces, fmt.Sprintf("%d", i))
		}
	}
	return fmt.Sprintf("pieces [%s]", strings.Join(pieces, ", "))
}
