// Package scramble wires puzzles, phase tables and search drivers into an engine driven by
// config.Config, and exposes it as a CLI backend and a Cloud Function.
package scramble

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"crosswarped.com/scramble/pkg/config"
	"crosswarped.com/scramble/pkg/kpuzzle"
	"crosswarped.com/scramble/pkg/phase"
	"crosswarped.com/scramble/pkg/primitives"
	"crosswarped.com/scramble/pkg/search"
	"crosswarped.com/scramble/pkg/tablestore"
)

var (
	// ErrUnknownPhase is returned for a phase name that is not configured.
	ErrUnknownPhase = errors.New("unknown phase")
	// ErrUnknownChecker is returned when a phase names a checker that was never registered.
	ErrUnknownChecker = errors.New("unknown validity checker")
	// ErrOutsidePhase is returned when a pattern fails the phase's validity checker.
	ErrOutsidePhase = errors.New("pattern is outside the phase")
)

type (
	pattern        = kpuzzle.KPattern
	transformation = kpuzzle.KTransformation
)

// CheckerFactory creates a validity checker for one puzzle.
type CheckerFactory func(k *kpuzzle.KPuzzle) search.PatternValidityChecker[kpuzzle.KPattern]

type registeredChecker struct {
	version string
	factory CheckerFactory
}

var (
	checkersMu sync.RWMutex
	checkers   = map[string]registeredChecker{
		"always": {
			version: "1",
			factory: func(*kpuzzle.KPuzzle) search.PatternValidityChecker[kpuzzle.KPattern] {
				return search.AlwaysValid[kpuzzle.KPattern]{}
			},
		},
	}
)

// RegisterChecker makes a validity checker available to phase configurations by name. The
// version is part of the key of every stored table built with the checker and must change
// whenever the checker accepts a different set of patterns.
func RegisterChecker(name, version string, factory CheckerFactory) {
	checkersMu.Lock()
	defer checkersMu.Unlock()
	checkers[name] = registeredChecker{version: version, factory: factory}
}

func lookupChecker(name string) (registeredChecker, bool) {
	checkersMu.RLock()
	defer checkersMu.RUnlock()
	c, ok := checkers[name]
	return c, ok
}

type enginePhase struct {
	phase      phase.Phase[pattern]
	descriptor tablestore.Descriptor
	maxStates  int
}

// Engine builds and caches the phase tables of one configured puzzle and solves with them. It is
// safe for concurrent use.
type Engine struct {
	cfg         config.Config
	puzzle      *kpuzzle.KPuzzle
	fingerprint uint64
	generators  search.Generators
	phases      map[string]enginePhase
	order       []string

	zap    *zap.Logger
	logger *search.SearchLogger
	cache  *phase.Cache
	store  *tablestore.Store
}

// EngineOption configures NewEngine.
type EngineOption func(*Engine)

// WithZapLogger replaces the logger built from the logging configuration.
func WithZapLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.zap = logger
	}
}

// NewEngine loads the configured puzzle and prepares its phases. Tables are built lazily.
func NewEngine(cfg config.Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, phases: make(map[string]enginePhase)}
	for _, opt := range opts {
		opt(e)
	}
	if e.zap == nil {
		var err error
		if cfg.Logging.Development {
			e.zap, err = zap.NewDevelopment()
		} else {
			e.zap, err = zap.NewProduction()
		}
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}
	verbosity, err := search.ParseVerbosity(cfg.Logging.Verbosity)
	if err != nil {
		return nil, err
	}
	e.logger = search.NewSearchLogger(e.zap, verbosity)

	if e.puzzle, err = loadPuzzle(cfg); err != nil {
		return nil, err
	}
	if e.fingerprint, err = e.puzzle.Fingerprint(); err != nil {
		return nil, err
	}
	metric, err := search.ParseMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}
	families := slices.Clone(cfg.Generators)
	if len(families) == 0 {
		families = e.puzzle.MoveFamilies()
	}
	e.generators = search.Generators{Families: families, Metric: metric}

	for _, pc := range cfg.Phases {
		ep, err := e.newPhase(pc)
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", pc.Name, err)
		}
		e.phases[pc.Name] = ep
		e.order = append(e.order, pc.Name)
	}

	cacheOpts := []phase.CacheOption{phase.WithCacheLogger(e.logger)}
	if cfg.Store.Enabled() {
		storeCfg := tablestore.DefaultConfig(cfg.Store.Path)
		if cfg.Store.InMemory {
			storeCfg = tablestore.InMemoryConfig()
		}
		storeCfg.Logger = e.zap
		if e.store, err = tablestore.Open(storeCfg); err != nil {
			return nil, err
		}
		cacheOpts = append(cacheOpts, phase.WithSnapshotStore(e.store))
	}
	e.cache = phase.NewCache(cacheOpts...)
	return e, nil
}

func loadPuzzle(cfg config.Config) (*kpuzzle.KPuzzle, error) {
	if cfg.DefinitionPath == "" {
		return kpuzzle.Builtin(cfg.Puzzle)
	}
	data, err := os.ReadFile(cfg.DefinitionPath)
	if err != nil {
		return nil, fmt.Errorf("read puzzle definition: %w", err)
	}
	def, err := kpuzzle.ParseDefinition(data)
	if err != nil {
		return nil, err
	}
	return kpuzzle.New(def)
}

func (e *Engine) newPhase(pc config.PhaseConfig) (enginePhase, error) {
	orbits := make(map[string]kpuzzle.OrbitMask, len(pc.Masks))
	desc := tablestore.Descriptor{
		Puzzle:      e.puzzle.Name(),
		Definition:  e.fingerprint,
		Families:    e.generators.Families,
		Metric:      e.generators.Metric.String(),
		Phase:       pc.Name,
		Checker:     pc.Checker,
		ParityOrbit: pc.ParityOrbit,
		MaxStates:   pc.MaxStates,
	}
	for _, m := range pc.Masks {
		keep, err := primitives.NewPieceSet(m.Keep...)
		if err != nil {
			return enginePhase{}, fmt.Errorf("orbit %s: %w", m.Orbit, err)
		}
		orbits[m.Orbit] = kpuzzle.OrbitMask{Keep: keep, IgnoreOrientation: m.IgnoreOrientation}
		desc.Masks = append(desc.Masks, tablestore.OrbitMaskDescriptor{
			Orbit:             m.Orbit,
			Keep:              m.Keep,
			IgnoreOrientation: m.IgnoreOrientation,
		})
	}
	mask, err := e.puzzle.NewMask(orbits)
	if err != nil {
		return enginePhase{}, err
	}

	ph := phase.Phase[pattern]{Name: pc.Name, Mask: mask}
	if pc.Checker != "" {
		checker, ok := lookupChecker(pc.Checker)
		if !ok {
			return enginePhase{}, fmt.Errorf("%w: %q", ErrUnknownChecker, pc.Checker)
		}
		ph.Checker = checker.factory(e.puzzle)
		desc.CheckerVersion = checker.version
	}
	if pc.ParityOrbit != "" {
		if _, ok := e.puzzle.OrbitIndex(pc.ParityOrbit); !ok {
			return enginePhase{}, fmt.Errorf("%w: unknown parity orbit %s", kpuzzle.ErrMaskMismatch, pc.ParityOrbit)
		}
		ph.Invariant = kpuzzle.OrbitParityInvariant(pc.ParityOrbit)
	}
	return enginePhase{phase: ph, descriptor: desc, maxStates: pc.MaxStates}, nil
}

// Close releases the table store.
func (e *Engine) Close() error {
	_ = e.zap.Sync()
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Config returns the configuration the engine was created with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Puzzle returns the configured puzzle.
func (e *Engine) Puzzle() *kpuzzle.KPuzzle {
	return e.puzzle
}

// PhaseNames lists the configured phases in configuration order.
func (e *Engine) PhaseNames() []string {
	return slices.Clone(e.order)
}

// CacheStats reports how table requests were served.
func (e *Engine) CacheStats() phase.CacheStats {
	return e.cache.Stats()
}

func (e *Engine) searchGenerators() (*search.SearchGenerators[transformation], error) {
	return search.NewSearchGenerators[pattern, transformation](e.puzzle, e.generators)
}

// Table returns the lookup table of the named phase, building it on first use.
func (e *Engine) Table(ctx context.Context, name string) (*phase.Table, error) {
	t, _, err := e.table(ctx, name)
	return t, err
}

func (e *Engine) table(ctx context.Context, name string) (*phase.Table, BuildStats, error) {
	ep, ok := e.phases[name]
	if !ok {
		return nil, BuildStats{}, fmt.Errorf("%w: %q", ErrUnknownPhase, name)
	}
	key, err := tablestore.KeyFor(ep.descriptor)
	if err != nil {
		return nil, BuildStats{}, err
	}
	gens, err := e.searchGenerators()
	if err != nil {
		return nil, BuildStats{}, err
	}

	stats := BuildStats{Puzzle: e.puzzle.Name(), Phase: name, Source: SourceCache}
	table, err := e.cache.GetOrBuild(ctx, key, gens.Moves(), func() (*phase.Table, error) {
		start := time.Now()
		t, err := phase.BuildWithSearchGenerators[pattern, transformation](
			e.puzzle, gens, ep.phase,
			phase.WithLogger(e.logger),
			phase.WithMaxStates(ep.maxStates),
		)
		stats.Source = SourceBuilt
		stats.Duration = time.Since(start)
		return t, err
	})
	if err != nil {
		return nil, BuildStats{}, err
	}
	stats.fill(table)
	return table, stats, nil
}

// BuildAll builds every configured phase concurrently. Each build runs on one goroutine.
func (e *Engine) BuildAll(ctx context.Context) ([]BuildStats, error) {
	out := make([]BuildStats, len(e.order))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range e.order {
		g.Go(func() error {
			_, stats, err := e.table(ctx, name)
			if err != nil {
				return err
			}
			out[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyScramble applies scramble to the puzzle's default pattern.
func (e *Engine) ApplyScramble(scramble primitives.Alg) (kpuzzle.KPattern, error) {
	return e.puzzle.ApplyAlg(e.puzzle.DefaultPattern(), scramble)
}

// SolvePhase returns a shortest in-phase move sequence taking the scrambled pattern to the
// named phase's goal.
func (e *Engine) SolvePhase(ctx context.Context, name string, scramble primitives.Alg) (primitives.Alg, error) {
	table, err := e.Table(ctx, name)
	if err != nil {
		return primitives.Alg{}, err
	}
	full, err := e.ApplyScramble(scramble)
	if err != nil {
		return primitives.Alg{}, err
	}
	start, ok := phase.IndexOfPattern[pattern, transformation](e.puzzle, table, e.phases[name].phase, full)
	if !ok {
		return primitives.Alg{}, fmt.Errorf("phase %s: %w", name, ErrOutsidePhase)
	}
	flat, err := phase.Solve(table, start)
	if err != nil {
		return primitives.Alg{}, err
	}
	moves := table.Moves()
	solution := primitives.Alg{Moves: make([]primitives.Move, len(flat))}
	for i, m := range flat {
		solution.Moves[i] = moves[m]
	}
	return solution, nil
}

// SolveOptions tunes Solve.
type SolveOptions struct {
	// PruneWithPhase uses the named phase table as the pruning heuristic instead of a hash prune
	// table grown from the solved pattern.
	PruneWithPhase string
	// MaxDepth overrides the configured search depth when positive.
	MaxDepth int
}

// Solve yields full solutions of the scrambled pattern, shortest first, until the configured
// depth is exhausted or ctx is done.
func (e *Engine) Solve(ctx context.Context, scramble primitives.Alg, opts SolveOptions) (iter.Seq[primitives.Alg], error) {
	full, err := e.ApplyScramble(scramble)
	if err != nil {
		return nil, err
	}
	gens, err := e.searchGenerators()
	if err != nil {
		return nil, err
	}
	data, err := search.NewSearchAPIData(e.puzzle, gens, e.puzzle.DefaultPattern())
	if err != nil {
		return nil, err
	}

	var prune search.PruneTable[pattern]
	if opts.PruneWithPhase != "" {
		table, err := e.Table(ctx, opts.PruneWithPhase)
		if err != nil {
			return nil, err
		}
		ph := e.phases[opts.PruneWithPhase].phase
		pt, err := phase.NewPruneTable[pattern, transformation](e.puzzle, table, ph, e.logger)
		if err != nil {
			return nil, err
		}
		if ph.Checker != nil {
			data.Filter = pt.Accepts
		}
		prune = pt
	} else {
		ht, err := search.NewHashPruneTable(e.puzzle, data, e.logger, e.cfg.Search.MinPruneTableSize)
		if err != nil {
			return nil, err
		}
		prune = ht
	}

	idf, err := search.NewIDFSearch(data, prune, e.logger)
	if err != nil {
		return nil, err
	}
	maxDepth := e.cfg.Search.MaxDepth
	if opts.MaxDepth > 0 {
		maxDepth = opts.MaxDepth
	}
	return idf.Search(ctx, full, search.SearchOptions{MaxDepth: search.Depth(maxDepth)}), nil
}
