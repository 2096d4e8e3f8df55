// Package config loads engine configuration from defaults, an optional YAML or JSON file and
// SCRAMBLE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"crosswarped.com/scramble/pkg/search"
)

// Config is the full engine configuration.
type Config struct {
	// Puzzle names a builtin puzzle. Ignored when DefinitionPath is set.
	Puzzle string `json:"puzzle" yaml:"puzzle"`
	// DefinitionPath points at a JSON puzzle definition.
	DefinitionPath string        `json:"definition_path" yaml:"definition_path"`
	Generators     []string      `json:"generators" yaml:"generators"`
	Metric         string        `json:"metric" yaml:"metric"`
	Phases         []PhaseConfig `json:"phases" yaml:"phases"`
	Search         SearchConfig  `json:"search" yaml:"search"`
	Logging        LoggingConfig `json:"logging" yaml:"logging"`
	Store          StoreConfig   `json:"store" yaml:"store"`
	Cloud          CloudConfig   `json:"cloud" yaml:"cloud"`
}

// PhaseConfig describes one phase table.
type PhaseConfig struct {
	Name  string       `json:"name" yaml:"name"`
	Masks []MaskConfig `json:"masks" yaml:"masks"`
	// Checker names a registered validity checker. Empty accepts every masked pattern.
	Checker string `json:"checker" yaml:"checker"`
	// ParityOrbit folds the permutation parity of this orbit into the lookup key.
	ParityOrbit string `json:"parity_orbit" yaml:"parity_orbit"`
	MaxStates   int    `json:"max_states" yaml:"max_states"`
}

// MaskConfig projects one orbit. Orbits without a MaskConfig are kept whole.
type MaskConfig struct {
	Orbit             string `json:"orbit" yaml:"orbit"`
	Keep              []int  `json:"keep" yaml:"keep"`
	IgnoreOrientation bool   `json:"ignore_orientation" yaml:"ignore_orientation"`
}

type SearchConfig struct {
	MaxDepth          int           `json:"max_depth" yaml:"max_depth"`
	MinPruneTableSize int           `json:"min_prune_table_size" yaml:"min_prune_table_size"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout"`
}

type LoggingConfig struct {
	Verbosity   string `json:"verbosity" yaml:"verbosity"`
	Development bool   `json:"development" yaml:"development"`
}

// StoreConfig enables snapshot persistence when Path is set or InMemory is true.
type StoreConfig struct {
	Path     string `json:"path" yaml:"path"`
	InMemory bool   `json:"in_memory" yaml:"in_memory"`
}

// Enabled reports whether a table store should be opened.
func (s StoreConfig) Enabled() bool {
	return s.InMemory || s.Path != ""
}

// CloudConfig locates the BigQuery table that receives build statistics.
type CloudConfig struct {
	ProjectID string `json:"project_id" yaml:"project_id"`
	Dataset   string `json:"dataset" yaml:"dataset"`
	Table     string `json:"table" yaml:"table"`
}

// Enabled reports whether build statistics should be exported.
func (c CloudConfig) Enabled() bool {
	return c.ProjectID != ""
}

// Default returns a configuration that builds a corner orientation table for the 2x2x2.
func Default() Config {
	return Config{
		Puzzle:     "2x2x2",
		Generators: []string{"U", "R", "F"},
		Metric:     search.MetricHand.String(),
		Phases: []PhaseConfig{
			{
				Name:  "corner-orientation",
				Masks: []MaskConfig{{Orbit: "CORNERS"}},
			},
		},
		Search: SearchConfig{
			MaxDepth: 14,
			Timeout:  time.Minute,
		},
		Logging: LoggingConfig{Verbosity: "info"},
		Cloud: CloudConfig{
			Dataset: "scramble",
			Table:   "phase_builds",
		},
	}
}

// Load merges defaults, the file at path (if path is non-empty and exists) and the environment,
// then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse %s (tried YAML and JSON): YAML error: %v, JSON error: %w", path, err, jsonErr)
		}
	}
	return nil
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("SCRAMBLE_PUZZLE"); v != "" {
		cfg.Puzzle = v
	}
	if v := os.Getenv("SCRAMBLE_DEFINITION_PATH"); v != "" {
		cfg.DefinitionPath = v
	}
	if v := os.Getenv("SCRAMBLE_GENERATORS"); v != "" {
		cfg.Generators = splitList(v)
	}
	if v := os.Getenv("SCRAMBLE_METRIC"); v != "" {
		cfg.Metric = v
	}
	if v := os.Getenv("SCRAMBLE_MAX_DEPTH"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCRAMBLE_MAX_DEPTH: %w", err)
		}
		cfg.Search.MaxDepth = i
	}
	if v := os.Getenv("SCRAMBLE_MIN_PRUNE_TABLE_SIZE"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCRAMBLE_MIN_PRUNE_TABLE_SIZE: %w", err)
		}
		cfg.Search.MinPruneTableSize = i
	}
	if v := os.Getenv("SCRAMBLE_SEARCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCRAMBLE_SEARCH_TIMEOUT: %w", err)
		}
		cfg.Search.Timeout = d
	}
	if v := os.Getenv("SCRAMBLE_VERBOSITY"); v != "" {
		cfg.Logging.Verbosity = v
	}
	if v := os.Getenv("SCRAMBLE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SCRAMBLE_STORE_IN_MEMORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SCRAMBLE_STORE_IN_MEMORY: %w", err)
		}
		cfg.Store.InMemory = b
	}
	if v := os.Getenv("SCRAMBLE_GCP_PROJECT"); v != "" {
		cfg.Cloud.ProjectID = v
	}
	if v := os.Getenv("SCRAMBLE_BQ_DATASET"); v != "" {
		cfg.Cloud.Dataset = v
	}
	if v := os.Getenv("SCRAMBLE_BQ_TABLE"); v != "" {
		cfg.Cloud.Table = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Puzzle == "" && c.DefinitionPath == "" {
		return errors.New("puzzle or definition_path is required")
	}
	if _, err := search.ParseMetric(c.Metric); err != nil {
		return err
	}
	if _, err := search.ParseVerbosity(c.Logging.Verbosity); err != nil {
		return err
	}
	if c.Search.MaxDepth < 0 {
		return fmt.Errorf("search.max_depth must be non-negative, got %d", c.Search.MaxDepth)
	}
	if c.Search.MinPruneTableSize < 0 {
		return fmt.Errorf("search.min_prune_table_size must be non-negative, got %d", c.Search.MinPruneTableSize)
	}

	seen := make(map[string]bool, len(c.Phases))
	for i, p := range c.Phases {
		if p.Name == "" {
			return fmt.Errorf("phases[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("phases[%d]: duplicate phase name %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.MaxStates < 0 {
			return fmt.Errorf("phase %s: max_states must be non-negative", p.Name)
		}
		orbits := make(map[string]bool, len(p.Masks))
		for _, m := range p.Masks {
			if m.Orbit == "" {
				return fmt.Errorf("phase %s: mask orbit is required", p.Name)
			}
			if orbits[m.Orbit] {
				return fmt.Errorf("phase %s: orbit %s masked twice", p.Name, m.Orbit)
			}
			orbits[m.Orbit] = true
			for _, piece := range m.Keep {
				if piece < 0 {
					return fmt.Errorf("phase %s: orbit %s: negative piece %d", p.Name, m.Orbit, piece)
				}
			}
		}
	}

	if c.Cloud.Enabled() && (c.Cloud.Dataset == "" || c.Cloud.Table == "") {
		return errors.New("cloud.dataset and cloud.table are required when cloud.project_id is set")
	}
	return nil
}

// Phase returns the phase named name.
func (c Config) Phase(name string) (PhaseConfig, bool) {
	for _, p := range c.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseConfig{}, false
}
