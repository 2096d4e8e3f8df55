package kpuzzle

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"crosswarped.com/scramble/pkg/primitives"
)

func mustBuiltin(t *testing.T, name string) *KPuzzle {
	t.Helper()
	k, err := Builtin(name)
	require.NoError(t, err)
	return k
}

func mustApply(t *testing.T, k *KPuzzle, pattern KPattern, alg string) KPattern {
	t.Helper()
	a, err := primitives.ParseAlg(alg)
	require.NoError(t, err)
	out, err := k.ApplyAlg(pattern, a)
	require.NoError(t, err)
	return out
}

func TestBuiltinNames(t *testing.T) {
	require.Equal(t, []string{"2x2x2", "rotor4"}, BuiltinNames())
	_, err := Builtin("megaminx")
	require.Error(t, err)
}

func TestMoveOrders(t *testing.T) {
	k := mustBuiltin(t, "2x2x2")
	solved := k.PatternKey(k.DefaultPattern())

	for _, family := range []string{"U", "D", "R", "L", "F", "B"} {
		p := k.DefaultPattern()
		for i := 1; i <= 4; i++ {
			p = mustApply(t, k, p, family)
			if i < 4 {
				require.NotEqual(t, solved, k.PatternKey(p), "%s^%d", family, i)
			}
		}
		require.Equal(t, solved, k.PatternKey(p), family)
	}
}

func TestInverseAndCompose(t *testing.T) {
	k := mustBuiltin(t, "2x2x2")
	solved := k.DefaultPattern()

	require.Equal(t, k.PatternKey(solved), k.PatternKey(mustApply(t, k, solved, "R U F' F U' R'")))
	require.Equal(t, k.PatternKey(solved), k.PatternKey(mustApply(t, k, solved, "R2 R2'")))

	r, err := k.MoveTransformation(primitives.Move{Family: "R", Amount: 1})
	require.NoError(t, err)
	u, err := k.MoveTransformation(primitives.Move{Family: "U", Amount: 1})
	require.NoError(t, err)
	f, err := k.MoveTransformation(primitives.Move{Family: "F", Amount: 1})
	require.NoError(t, err)

	left := k.ComposeTransformations(k.ComposeTransformations(r, u), f)
	right := k.ComposeTransformations(r, k.ComposeTransformations(u, f))
	require.Equal(t, k.PatternKey(k.ApplyTransformation(solved, left)), k.PatternKey(k.ApplyTransformation(solved, right)))
	require.Equal(t, k.PatternKey(mustApply(t, k, solved, "R U F")), k.PatternKey(k.ApplyTransformation(solved, left)))

	inv := k.InvertTransformation(left)
	require.Equal(t, k.PatternKey(solved), k.PatternKey(k.ApplyTransformation(k.ApplyTransformation(solved, left), inv)))
}

func TestOrientationSumIsInvariant(t *testing.T) {
	k := mustBuiltin(t, "2x2x2")
	p := mustApply(t, k, k.DefaultPattern(), "R U F2 L' B D R'")
	corners, ok := p.Orbit("CORNERS")
	require.True(t, ok)
	sum := 0
	for _, o := range corners.Orientation {
		sum += o
	}
	require.Zero(t, sum%3)
}

func TestUnknownMove(t *testing.T) {
	k := mustBuiltin(t, "rotor4")
	_, err := k.MoveTransformation(primitives.Move{Family: "Z", Amount: 1})
	require.ErrorIs(t, err, ErrUnknownMove)
}

func TestInvalidDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(`{
		"name": "broken",
		"orbits": [{"orbitName": "X", "numPieces": 2, "numOrientations": 1}],
		"defaultPattern": {"X": {"pieces": [0, 1], "orientation": [0, 0]}},
		"moves": {"M": {"X": {"permutation": [0, 0], "orientationDelta": [0, 0]}}}
	}`))
	require.NoError(t, err)
	_, err = New(def)
	require.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestMaskDropsPermutation(t *testing.T) {
	k := mustBuiltin(t, "2x2x2")
	mask, err := k.NewMask(map[string]OrbitMask{"CORNERS": {}})
	require.NoError(t, err)

	// U only permutes corners, so under a permutation-dropping mask it is invisible.
	solvedMasked, err := k.Mask(k.DefaultPattern(), mask)
	require.NoError(t, err)
	uMasked, err := k.Mask(mustApply(t, k, k.DefaultPattern(), "U"), mask)
	require.NoError(t, err)
	require.Equal(t, k.PatternKey(solvedMasked), k.PatternKey(uMasked))

	rMasked, err := k.Mask(mustApply(t, k, k.DefaultPattern(), "R"), mask)
	require.NoError(t, err)
	require.NotEqual(t, k.PatternKey(solvedMasked), k.PatternKey(rMasked))

	corners, _ := solvedMasked.Orbit("CORNERS")
	want := []int{8, 8, 8, 8, 8, 8, 8, 8}
	if diff := cmp.Diff(want, corners.Pieces); diff != "" {
		t.Errorf("masked pieces mismatch (-want +got):\n%s", diff)
	}
}

func TestMaskKeepsSelectedPieces(t *testing.T) {
	k := mustBuiltin(t, "rotor4")
	keep, err := primitives.NewPieceSet(0)
	require.NoError(t, err)
	mask, err := k.NewMask(map[string]OrbitMask{"DISCS": {Keep: keep, IgnoreOrientation: true}})
	require.NoError(t, err)

	masked, err := k.Mask(mustApply(t, k, k.DefaultPattern(), "B"), mask)
	require.NoError(t, err)
	discs, _ := masked.Orbit("DISCS")
	require.Equal(t, []int{4, 4, 4, 0}, discs.Pieces)
}

func TestMaskMismatch(t *testing.T) {
	cube := mustBuiltin(t, "2x2x2")
	rotor := mustBuiltin(t, "rotor4")

	_, err := cube.Mask(cube.DefaultPattern(), rotor.DefaultPattern())
	require.ErrorIs(t, err, ErrMaskMismatch)

	_, err = cube.NewMask(map[string]OrbitMask{"EDGES": {}})
	require.ErrorIs(t, err, ErrMaskMismatch)

	outside, err := primitives.NewPieceSet(1, 5)
	require.NoError(t, err)
	_, err = rotor.NewMask(map[string]OrbitMask{"DISCS": {Keep: outside}})
	require.ErrorIs(t, err, ErrMaskMismatch)
	require.ErrorContains(t, err, "pieces [1, 5]")
}

func TestOrbitParity(t *testing.T) {
	k := mustBuiltin(t, "2x2x2")
	parity := OrbitParityInvariant("CORNERS")

	require.Equal(t, int(ParityEven), parity(k.DefaultPattern()))
	require.Equal(t, int(ParityOdd), parity(mustApply(t, k, k.DefaultPattern(), "U")))
	require.Equal(t, int(ParityEven), parity(mustApply(t, k, k.DefaultPattern(), "U R")))
	require.Equal(t, int(ParityEven), parity(mustApply(t, k, k.DefaultPattern(), "F2")))

	_, err := OrbitParity(k.DefaultPattern(), "EDGES")
	require.Error(t, err)
}

func TestMoveFamiliesAreSorted(t *testing.T) {
	require.Equal(t, []string{"B", "D", "F", "L", "R", "U"}, mustBuiltin(t, "2x2x2").MoveFamilies())
	require.Equal(t, []string{"A", "B"}, mustBuiltin(t, "rotor4").MoveFamilies())
}

func TestFingerprintTracksDefinition(t *testing.T) {
	parse := func(bPermutation string) *KPuzzle {
		def, err := ParseDefinition([]byte(`{
			"name": "toy",
			"orbits": [{"orbitName": "X", "numPieces": 4, "numOrientations": 1}],
			"defaultPattern": {"X": {"pieces": [0, 1, 2, 3], "orientation": [0, 0, 0, 0]}},
			"moves": {
				"A": {"X": {"permutation": [1, 0, 2, 3], "orientationDelta": [0, 0, 0, 0]}},
				"B": {"X": {"permutation": ` + bPermutation + `, "orientationDelta": [0, 0, 0, 0]}}
			}
		}`))
		require.NoError(t, err)
		k, err := New(def)
		require.NoError(t, err)
		return k
	}

	fourCycle, err := parse("[1, 2, 3, 0]").Fingerprint()
	require.NoError(t, err)
	again, err := parse("[1, 2, 3, 0]").Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fourCycle, again)

	threeCycle, err := parse("[1, 2, 0, 3]").Fingerprint()
	require.NoError(t, err)
	require.NotEqual(t, fourCycle, threeCycle, "same name and move names, different move")
}
