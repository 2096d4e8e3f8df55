package phase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu    sync.Mutex
	snaps map[string]*Snapshot
	saves int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snaps: make(map[string]*Snapshot)}
}

func (s *memoryStore) Load(_ context.Context, key string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *memoryStore) Save(_ context.Context, key string, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[key] = snap
	s.saves++
	return nil
}

func TestCacheBuildsOnce(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	table, gens := build(t, k, rotorGenerators, fullRotorPhase(k))

	var builds atomic.Int32
	release := make(chan struct{})
	buildFn := func() (*Table, error) {
		builds.Add(1)
		<-release
		return table, nil
	}

	cache := NewCache()
	var wg sync.WaitGroup
	results := make([]*Table, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.GetOrBuild(context.Background(), "rotor", gens.Moves(), buildFn)
			assert.NoError(t, err)
			results[i] = got
		}()
	}
	close(release)
	wg.Wait()

	for _, got := range results {
		require.Same(t, table, got)
	}
	got, err := cache.GetOrBuild(context.Background(), "rotor", gens.Moves(), buildFn)
	require.NoError(t, err)
	require.Same(t, table, got)
	require.Equal(t, int32(1), builds.Load())
	require.Equal(t, int64(1), cache.Stats().Builds)
	require.GreaterOrEqual(t, cache.Stats().Hits, int64(1))
}

func TestCacheUsesSnapshotStore(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	table, gens := build(t, k, rotorGenerators, fullRotorPhase(k))
	store := newMemoryStore()
	buildFn := func() (*Table, error) { return table, nil }

	first := NewCache(WithSnapshotStore(store))
	_, err := first.GetOrBuild(context.Background(), "rotor", gens.Moves(), buildFn)
	require.NoError(t, err)
	require.Equal(t, 1, store.saves)

	second := NewCache(WithSnapshotStore(store))
	loaded, err := second.GetOrBuild(context.Background(), "rotor", gens.Moves(), func() (*Table, error) {
		t.Fatal("table should come from the store")
		return nil, nil
	})
	require.NoError(t, err)
	require.Equal(t, table.Len(), loaded.Len())
	require.Equal(t, CacheStats{Loads: 1}, second.Stats())
}

func TestCacheRebuildsStaleSnapshot(t *testing.T) {
	k := mustPuzzle(t, "rotor4")
	table, gens := build(t, k, rotorGenerators, fullRotorPhase(k))
	store := newMemoryStore()
	stale := table.Snapshot()
	stale.Moves = []string{"A"}
	require.NoError(t, store.Save(context.Background(), "rotor", stale))

	cache := NewCache(WithSnapshotStore(store))
	got, err := cache.GetOrBuild(context.Background(), "rotor", gens.Moves(), func() (*Table, error) { return table, nil })
	require.NoError(t, err)
	require.Same(t, table, got)
	require.Equal(t, CacheStats{Builds: 1}, cache.Stats())
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	cache := NewCache()
	boom := errors.New("boom")
	_, err := cache.GetOrBuild(context.Background(), "x", nil, func() (*Table, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	k := mustPuzzle(t, "rotor4")
	table, gens := build(t, k, rotorGenerators, fullRotorPhase(k))
	got, err := cache.GetOrBuild(context.Background(), "x", gens.Moves(), func() (*Table, error) { return table, nil })
	require.NoError(t, err)
	require.Same(t, table, got)
}
