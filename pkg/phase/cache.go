package phase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"crosswarped.com/scramble/pkg/primitives"
	"crosswarped.com/scramble/pkg/search"
)

// ErrSnapshotNotFound is returned by a SnapshotStore that has nothing under a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists table snapshots between processes.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (*Snapshot, error)
	Save(ctx context.Context, key string, snap *Snapshot) error
}

// CacheStats counts how Cache requests were served.
type CacheStats struct {
	Hits   int64
	Loads  int64
	Builds int64
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithSnapshotStore makes the cache consult and fill store.
func WithSnapshotStore(store SnapshotStore) CacheOption {
	return func(c *Cache) {
		c.store = store
	}
}

// WithCacheLogger sets the cache's logger.
func WithCacheLogger(logger *search.SearchLogger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// Cache shares built tables across callers. Concurrent requests for the same key run a single
// build.
type Cache struct {
	group  singleflight.Group
	logger *search.SearchLogger
	store  SnapshotStore

	mu     sync.RWMutex
	tables map[string]*Table
	stats  CacheStats
}

// NewCache returns an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		logger: search.NopSearchLogger(),
		tables: make(map[string]*Table),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrBuild returns the table cached under key. On a miss it tries the snapshot store and then
// calls build; a freshly built table is saved back to the store. moves are the flat moves the
// table must be indexed by.
func (c *Cache) GetOrBuild(ctx context.Context, key string, moves []primitives.Move, build func() (*Table, error)) (*Table, error) {
	c.mu.RLock()
	t, ok := c.tables[key]
	c.mu.RUnlock()
	if ok {
		c.count(func(s *CacheStats) { s.Hits++ })
		phaseCacheLookups.WithLabelValues("hit").Inc()
		return t, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		t, ok := c.tables[key]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		if t, err := c.load(ctx, key, moves); err != nil {
			return nil, err
		} else if t != nil {
			c.put(key, t)
			c.count(func(s *CacheStats) { s.Loads++ })
			phaseCacheLookups.WithLabelValues("loaded").Inc()
			return t, nil
		}

		t, err := build()
		if err != nil {
			return nil, err
		}
		c.put(key, t)
		c.count(func(s *CacheStats) { s.Builds++ })
		phaseCacheLookups.WithLabelValues("built").Inc()

		if c.store != nil {
			if err := c.store.Save(ctx, key, t.Snapshot()); err != nil {
				c.logger.Warn("failed to save phase table snapshot", zap.String("key", key), zap.Error(err))
			}
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

func (c *Cache) load(ctx context.Context, key string, moves []primitives.Move) (*Table, error) {
	if c.store == nil {
		return nil, nil
	}
	snap, err := c.store.Load(ctx, key)
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	t, err := FromSnapshot(snap, moves)
	if err != nil {
		c.logger.Warn("discarding stale phase table snapshot", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return t, nil
}

func (c *Cache) put(key string, t *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[key] = t
}

func (c *Cache) count(f func(*CacheStats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(&c.stats)
}

// Stats returns a copy of the cache's counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
