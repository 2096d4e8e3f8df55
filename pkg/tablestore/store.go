// Package tablestore persists phase table snapshots in BadgerDB.
//
// Snapshots are stored as JSON under a key derived from a Descriptor, so a table built with a
// different puzzle, generator set or phase definition never collides with an older one.
package tablestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"crosswarped.com/scramble/pkg/phase"
)

const keyPrefix = "phase-table/"

// Config holds configuration for a Store.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory is true.
	Path string
	// InMemory keeps everything in memory.
	InMemory bool
	// SyncWrites makes every write durable before it returns.
	SyncWrites bool
	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *zap.Logger
	// GCInterval is how often value log garbage collection runs. 0 disables it.
	GCInterval time.Duration
	// GCDiscardRatio is the minimum fraction of garbage before a value log file is rewritten.
	GCDiscardRatio float64
}

// DefaultConfig returns the configuration for an on-disk store at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts zap to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Store is a phase.SnapshotStore backed by BadgerDB. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
	stop   chan struct{}
	done   chan struct{}
}

var _ phase.SnapshotStore = (*Store)(nil)

// Open opens or creates a store. The caller must Close it.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("tablestore: path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("tablestore: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
		opts = opts.WithLogger(nil)
	} else {
		opts = opts.WithLogger(&badgerLogger{logger: logger.Named("badger").Sugar()})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("tablestore: open badger: %w", err)
	}
	s := &Store{db: db, logger: logger}
	if !cfg.InMemory && cfg.GCInterval > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for s.db.RunValueLogGC(ratio) == nil {
			}
		}
	}
}

// Close stops background work and closes the database.
func (s *Store) Close() error {
	if s.stop != nil {
		close(s.stop)
		<-s.done
	}
	return s.db.Close()
}

// Load returns the snapshot stored under key, or phase.ErrSnapshotNotFound.
func (s *Store) Load(ctx context.Context, key string) (*phase.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var snap phase.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("tablestore: %s: %w", key, phase.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tablestore: load %s: %w", key, err)
	}
	return &snap, nil
}

// Save stores snap under key, replacing any previous value.
func (s *Store) Save(ctx context.Context, key string, snap *phase.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("tablestore: encode %s: %w", key, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), data)
	}); err != nil {
		return fmt.Errorf("tablestore: save %s: %w", key, err)
	}
	s.logger.Debug("saved phase table snapshot",
		zap.String("key", key),
		zap.Int("states", len(snap.Keys)),
		zap.Int("bytes", len(data)))
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
}

// Keys lists every stored snapshot key.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tablestore: list keys: %w", err)
	}
	return keys, nil
}
