package phase

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"crosswarped.com/scramble/pkg/kpuzzle"
	"crosswarped.com/scramble/pkg/primitives"
	"crosswarped.com/scramble/pkg/search"
)

type (
	pattern        = kpuzzle.KPattern
	transformation = kpuzzle.KTransformation
)

var rotorGenerators = search.Generators{Families: []string{"A", "B"}, Metric: search.MetricQuantum}

var cubeGenerators = search.Generators{Families: []string{"U", "R", "F"}, Metric: search.MetricHand}

func mustPuzzle(t *testing.T, name string) *kpuzzle.KPuzzle {
	t.Helper()
	k, err := kpuzzle.Builtin(name)
	require.NoError(t, err)
	return k
}

func mustMask(t *testing.T, k *kpuzzle.KPuzzle, orbits map[string]kpuzzle.OrbitMask) pattern {
	t.Helper()
	m, err := k.NewMask(orbits)
	require.NoError(t, err)
	return m
}

func mustApply(t *testing.T, k *kpuzzle.KPuzzle, p pattern, alg string) pattern {
	t.Helper()
	a, err := primitives.ParseAlg(alg)
	require.NoError(t, err)
	out, err := k.ApplyAlg(p, a)
	require.NoError(t, err)
	return out
}

func fullRotorPhase(k *kpuzzle.KPuzzle) Phase[pattern] {
	return Phase[pattern]{Name: "rotor", Mask: k.DefaultPattern()}
}

func cornerOrientationPhase(t *testing.T, k *kpuzzle.KPuzzle, withParity bool) Phase[pattern] {
	t.Helper()
	ph := Phase[pattern]{
		Name: "corner-orientation",
		Mask: mustMask(t, k, map[string]kpuzzle.OrbitMask{"CORNERS": {}}),
	}
	if withParity {
		ph.Name = "corner-orientation-parity"
		ph.Invariant = kpuzzle.OrbitParityInvariant("CORNERS")
	}
	return ph
}

func build(t *testing.T, k *kpuzzle.KPuzzle, generators search.Generators, ph Phase[pattern], opts ...BuildOption) (*Table, *search.SearchGenerators[transformation]) {
	t.Helper()
	table, gens, err := Build[pattern, transformation](k, generators, ph, opts...)
	require.NoError(t, err)
	return table, gens
}

// reachable enumerates full patterns reachable from the default pattern without leaving ph, in
// BFS order, stopping after limit patterns when limit is positive.
func reachable(t *testing.T, k *kpuzzle.KPuzzle, gens *search.SearchGenerators[transformation], ph Phase[pattern], limit int) []pattern {
	t.Helper()
	all := []pattern{k.DefaultPattern()}
	seen := map[string]bool{k.PatternKey(all[0]): true}
	for i := 0; i < len(all); i++ {
		for _, info := range gens.All() {
			next := k.ApplyTransformation(all[i], info.Transformation)
			if _, ok := TryNewLookupKey[pattern, transformation](k, next, ph); !ok {
				continue
			}
			if seen[k.PatternKey(next)] {
				continue
			}
			seen[k.PatternKey(next)] = true
			all = append(all, next)
			if limit > 0 && len(all) >= limit {
				return all
			}
		}
	}
	return all
}

func TestBuildRotorPermutations(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	table, gens := build(t, k, rotorGenerators, fullRotorPhase(k))

	require.Equal(t, 24, table.Len())
	require.Equal(t, 3, table.MoveCount())
	require.Equal(t, []string{"A", "B", "B'"}, moveStrings(table.Moves()))
	require.Equal(t, gens.Moves(), table.Moves())

	require.Equal(t, search.Depth(0), table.DepthAt(0))
	for m := range table.MoveCount() {
		next, ok := table.ApplyMove(0, search.FlatMoveIndex(m))
		require.True(t, ok)
		require.Equal(t, PatternIndex(m+1), next)
		require.Equal(t, search.Depth(1), table.DepthAt(next))
	}
}

func TestMovesBackToDefaultReuseIndexZero(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	table, _ := build(t, k, rotorGenerators, fullRotorPhase(k))

	zero, ok := table.IndexOf(table.KeyAt(0))
	require.True(t, ok)
	require.Equal(t, PatternIndex(0), zero)

	// A is an involution and B' undoes B.
	a, _ := table.ApplyMove(0, 0)
	back, ok := table.ApplyMove(a, 0)
	require.True(t, ok)
	require.Equal(t, PatternIndex(0), back)

	b, _ := table.ApplyMove(0, 1)
	back, ok = table.ApplyMove(b, 2)
	require.True(t, ok)
	require.Equal(t, PatternIndex(0), back)
}

func TestBuildIsDeterministic(t *testing.T) {
	k := mustPuzzle(t, "2x2x2")
	first, _ := build(t, k, cubeGenerators, cornerOrientationPhase(t, k, true))
	second, _ := build(t, k, cubeGenerators, cornerOrientationPhase(t, k, true))
	if diff := cmp.Diff(first.Snapshot(), second.Snapshot()); diff != "" {
		t.Errorf("rebuilt table differs (-first +second):\n%s", diff)
	}
}

func TestDepthsAreExactAndOrdered(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	ph := fullRotorPhase(k)
	table, gens := build(t, k, rotorGenerators, ph)

	dist := map[string]search.Depth{k.PatternKey(k.DefaultPattern()): 0}
	all := reachable(t, k, gens, ph, 0)
	for _, p := range all {
		for _, info := range gens.All() {
			q := k.ApplyTransformation(p, info.Transformation)
			if _, ok := dist[k.PatternKey(q)]; !ok {
				dist[k.PatternKey(q)] = dist[k.PatternKey(p)] + 1
			}
		}
	}

	for _, p := range all {
		i, ok := IndexOfPattern[pattern, transformation](k, table, ph, p)
		require.True(t, ok)
		require.Equal(t, dist[k.PatternKey(p)], table.DepthAt(i))
	}
	for i := 1; i < table.Len(); i++ {
		require.LessOrEqual(t, table.DepthAt(PatternIndex(i-1)), table.DepthAt(PatternIndex(i)))
	}
}

func TestMaskedDepthsMatchKeyDistances(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	keep, err := primitives.NewPieceSet(0)
	require.NoError(t, err)
	ph := Phase[pattern]{
		Name:      "first-disc-parity",
		Mask:      mustMask(t, k, map[string]kpuzzle.OrbitMask{"DISCS": {Keep: keep}}),
		Invariant: kpuzzle.OrbitParityInvariant("DISCS"),
	}
	table, gens := build(t, k, rotorGenerators, ph)

	// Breadth-first over full patterns; the first time a key shows up is its distance.
	keyDist := make(map[LookupKey]search.Depth)
	frontier := []pattern{k.DefaultPattern()}
	seen := map[string]bool{k.PatternKey(frontier[0]): true}
	for depth := search.Depth(0); len(frontier) > 0; depth++ {
		var next []pattern
		for _, p := range frontier {
			key, ok := TryNewLookupKey[pattern, transformation](k, p, ph)
			require.True(t, ok)
			if _, ok := keyDist[key]; !ok {
				keyDist[key] = depth
			}
			for _, info := range gens.All() {
				q := k.ApplyTransformation(p, info.Transformation)
				if !seen[k.PatternKey(q)] {
					seen[k.PatternKey(q)] = true
					next = append(next, q)
				}
			}
		}
		frontier = next
	}

	require.Len(t, keyDist, table.Len())
	for key, want := range keyDist {
		i, ok := table.IndexOf(key)
		require.True(t, ok)
		require.Equal(t, want, table.DepthAt(i), "key %+v", key)
	}
}

func TestTransitionsMatchPatternMoves(t *testing.T) {
	k := mustPuzzle(t, "2x2x2")
	ph := cornerOrientationPhase(t, k, false)
	table, gens := build(t, k, cubeGenerators, ph)

	for _, p := range reachable(t, k, gens, ph, 200) {
		from, ok := IndexOfPattern[pattern, transformation](k, table, ph, p)
		require.True(t, ok)
		for m, info := range gens.All() {
			want, ok := IndexOfPattern[pattern, transformation](k, table, ph, k.ApplyTransformation(p, info.Transformation))
			require.True(t, ok)
			got, ok := table.ApplyMove(from, m)
			require.True(t, ok)
			require.Equal(t, want, got, "move %s from state %d", info.Move, from)
		}
	}
}

func TestReverseLookup(t *testing.T) {
	k := mustPuzzle(t, "2x2x2")
	table, _ := build(t, k, cubeGenerators, cornerOrientationPhase(t, k, false))
	for i := range table.Len() {
		got, ok := table.IndexOf(table.KeyAt(PatternIndex(i)))
		require.True(t, ok)
		require.Equal(t, PatternIndex(i), got)
	}
	_, ok := table.IndexOf(LookupKey{Masked: "nope"})
	require.False(t, ok)
}

func TestCornerOrientationPhaseSizes(t *testing.T) {
	k := mustPuzzle(t, "2x2x2")

	orientation, _ := build(t, k, cubeGenerators, cornerOrientationPhase(t, k, false))
	require.Equal(t, 729, orientation.Len())

	withParity, _ := build(t, k, cubeGenerators, cornerOrientationPhase(t, k, true))
	require.Equal(t, 1458, withParity.Len())

	// A single quarter turn flips permutation parity without necessarily touching orientation.
	ph := cornerOrientationPhase(t, k, true)
	solved, ok := IndexOfPattern[pattern, transformation](k, withParity, ph, k.DefaultPattern())
	require.True(t, ok)
	require.Equal(t, PatternIndex(0), solved)
	u, ok := IndexOfPattern[pattern, transformation](k, withParity, ph, mustApply(t, k, k.DefaultPattern(), "U"))
	require.True(t, ok)
	require.NotEqual(t, solved, u)
	require.Equal(t, withParity.KeyAt(solved).Masked, withParity.KeyAt(u).Masked)
}

func TestCheckerExcludesStates(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	ph := Phase[pattern]{
		Name: "fixed-last-disc",
		Mask: k.DefaultPattern(),
		Checker: search.ValidityFunc[pattern](func(p pattern) bool {
			discs, _ := p.Orbit("DISCS")
			return discs.Pieces[3] == 3
		}),
	}
	table, gens := build(t, k, rotorGenerators, ph)

	require.Equal(t, 2, table.Len())
	a, ok := table.ApplyMove(0, 0)
	require.True(t, ok)
	require.Equal(t, PatternIndex(1), a)
	_, ok = table.ApplyMove(0, 1)
	require.False(t, ok)
	_, ok = table.ApplyMove(0, 2)
	require.False(t, ok)

	_, ok = IndexOfPattern[pattern, transformation](k, table, ph, mustApply(t, k, k.DefaultPattern(), "B"))
	require.False(t, ok)

	covered := make(map[PatternIndex]bool)
	for _, p := range reachable(t, k, gens, ph, 0) {
		from, ok := IndexOfPattern[pattern, transformation](k, table, ph, p)
		require.True(t, ok)
		covered[from] = true
		for m, info := range gens.All() {
			_, present := table.ApplyMove(from, m)
			_, valid := TryNewLookupKey[pattern, transformation](k, k.ApplyTransformation(p, info.Transformation), ph)
			require.Equal(t, valid, present, "move %s from state %d", info.Move, from)
		}
	}
	require.Len(t, covered, table.Len())
}

func TestMaskReducesStates(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	keep, err := primitives.NewPieceSet(0)
	require.NoError(t, err)
	ph := Phase[pattern]{
		Name: "first-disc",
		Mask: mustMask(t, k, map[string]kpuzzle.OrbitMask{"DISCS": {Keep: keep}}),
	}
	table, _ := build(t, k, rotorGenerators, ph)
	require.Equal(t, 4, table.Len())

	ph.Invariant = kpuzzle.OrbitParityInvariant("DISCS")
	ph.Name = "first-disc-parity"
	withParity, _ := build(t, k, rotorGenerators, ph)
	require.Equal(t, 8, withParity.Len())
}

func TestEmptyPhase(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	ph := Phase[pattern]{
		Name:    "nothing",
		Mask:    k.DefaultPattern(),
		Checker: search.ValidityFunc[pattern](func(pattern) bool { return false }),
	}
	_, _, err := Build[pattern, transformation](k, rotorGenerators, ph)
	require.ErrorIs(t, err, ErrEmptyPhase)
}

func TestMaxStates(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	_, _, err := Build[pattern, transformation](k, rotorGenerators, fullRotorPhase(k), WithMaxStates(10))
	require.ErrorIs(t, err, ErrPhaseTooLarge)

	table, _ := build(t, k, rotorGenerators, fullRotorPhase(k), WithMaxStates(24))
	require.Equal(t, 24, table.Len())
}

func TestMaskFailurePanics(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	other := mustPuzzle(t, "rotor4")
	ph := Phase[pattern]{Name: "foreign", Mask: other.DefaultPattern()}

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		require.True(t, errors.Is(err, kpuzzle.ErrMaskMismatch))
	}()
	_, _, _ = Build[pattern, transformation](k, rotorGenerators, ph)
	t.Fatal("expected panic")
}

func TestInconsistentCheckerPanics(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	gens, err := search.NewSearchGenerators[pattern, transformation](k, rotorGenerators)
	require.NoError(t, err)

	// Accepts the default pattern, rejects each of its neighbours once, then accepts everything,
	// so the second pass meets states the first pass never indexed.
	calls := 0
	ph := Phase[pattern]{
		Name: "flaky",
		Mask: k.DefaultPattern(),
		Checker: search.ValidityFunc[pattern](func(pattern) bool {
			calls++
			return calls == 1 || calls > 1+gens.Len()
		}),
	}
	require.PanicsWithValue(t,
		"phase flaky: inconsistent pattern enumeration: move A from state 0 reaches an unindexed state",
		func() { _, _ = BuildWithSearchGenerators[pattern, transformation](k, gens, ph) })
}

func TestBuildRejectsForeignGenerators(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	cube := mustPuzzle(t, "2x2x2")
	gens, err := search.NewSearchGenerators[pattern, transformation](cube, cubeGenerators)
	require.NoError(t, err)
	_, err = BuildWithSearchGenerators[pattern, transformation](k, gens, fullRotorPhase(k))
	require.ErrorIs(t, err, search.ErrIncompatibleSearchContext)
}

func TestGoalDistanceMatchesDepthForInvertibleMoves(t *testing.T) {
	k := mustPuzzle(t, "2x2x2")
	table, _ := build(t, k, cubeGenerators, cornerOrientationPhase(t, k, true))
	for i := range table.Len() {
		d, ok := table.GoalDistance(PatternIndex(i))
		require.True(t, ok)
		require.Equal(t, table.DepthAt(PatternIndex(i)), d)
	}
	require.Panics(t, func() { table.GoalDistance(PatternIndex(table.Len())) })
}

func moveStrings(moves []primitives.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}
