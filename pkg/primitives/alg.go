package primitives

import (
	"fmt"
	"strconv"
	"strings"
)

// Move is a single turn of a move family by a signed amount, e.g. R (1), R2 (2) or R' (-1).
type Move struct {
	Family string
	Amount int
}

// ParseMove parses a move such as "R", "U2", "F'" or "Rw2'".
func ParseMove(s string) (Move, error) {
	if s == "" {
		return Move{}, fmt.Errorf("empty move")
	}
	inverted := strings.HasSuffix(s, "'")
	s = strings.TrimSuffix(s, "'")

	end := len(s)
	for end > 0 && s[end-1] >= '0' && s[end-1] <= '9' {
		end--
	}
	family := s[:end]
	if family == "" {
		return Move{}, fmt.Errorf("move %q has no family", s)
	}

	amount := 1
	if end < len(s) {
		n, err := strconv.Atoi(s[end:])
		if err != nil {
			return Move{}, fmt.Errorf("move %q: %w", s, err)
		}
		amount = n
	}
	if inverted {
		amount = -amount
	}
	return Move{Family: family, Amount: amount}, nil
}

// Invert returns the move that undoes m.
func (m Move) Invert() Move {
	return Move{Family: m.Family, Amount: -m.Amount}
}

func (m Move) String() string {
	abs := m.Amount
	if abs < 0 {
		abs = -abs
	}
	var b strings.Builder
	b.WriteString(m.Family)
	if abs != 1 {
		b.WriteString(strconv.Itoa(abs))
	}
	if m.Amount < 0 {
		b.WriteByte('\'')
	}
	return b.String()
}

// Alg represents a sequence of moves, such as a scramble or a solution.
type Alg struct {
	Moves []Move
}

// ParseAlg parses whitespace-separated moves.
func ParseAlg(s string) (Alg, error) {
	var alg Alg
	for _, field := range strings.Fields(s) {
		m, err := ParseMove(field)
		if err != nil {
			return Alg{}, err
		}
		alg.Moves = append(alg.Moves, m)
	}
	return alg, nil
}

// Length returns the number of moves in the alg.
func (a Alg) Length() int {
	return len(a.Moves)
}

// Invert returns the alg that undoes a.
func (a Alg) Invert() Alg {
	inverted := make([]Move, len(a.Moves))
	for i, m := range a.Moves {
		inverted[len(a.Moves)-1-i] = m.Invert()
	}
	return Alg{Moves: inverted}
}

func (a Alg) String() string {
	parts := make([]string, len(a.Moves))
	for i, m := range a.Moves {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}
