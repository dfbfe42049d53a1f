package config

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Registry is a keyed map of scenario name to validated ScenarioConfig.
// The core only ever consumes a *ScenarioConfig by value after it passes
// Validate; the registry itself is an I/O boundary.
type Registry struct {
	scenarios map[string]*ScenarioConfig
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scenarios: make(map[string]*ScenarioConfig)}
}

// LoadDir reads every *.yaml/*.yml file in dir as a ScenarioConfig,
// validating each before it is added to the registry.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read scenario dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("load %s: %w", e.Name(), err)
		}
	}
	return nil
}

// LoadFile reads a single scenario document and registers it.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scenario file: %w", err)
	}
	var cfg ScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse scenario file: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return fmt.Errorf("invalid scenario %q: %w", cfg.Name, err)
	}
	r.scenarios[cfg.Name] = &cfg
	return nil
}

// Register adds an already-validated config directly, for callers that
// build configs in Go rather than loading YAML (tests, embedded defaults).
func (r *Registry) Register(cfg *ScenarioConfig) error {
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("invalid scenario %q: %w", cfg.Name, err)
	}
	r.scenarios[cfg.Name] = cfg
	return nil
}

// Get looks up a scenario by name.
func (r *Registry) Get(name string) (*ScenarioConfig, error) {
	cfg, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return cfg, nil
}

// Names returns every registered scenario name, sorted for stable CLI
// listing and logging output.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var validSeasonNames = map[string]bool{
	SeasonSpring: true, SeasonSummer: true, SeasonAutumn: true, SeasonWinter: true,
}

// Validate checks that a scenario is well-formed: a missing/malformed
// scenario, or an empty task list, is a fatal construction-time error —
// never surfaced mid-run.
func Validate(cfg *ScenarioConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if cfg.DisplayName == "" {
		return fmt.Errorf("scenario displayName is required")
	}
	if len(cfg.Tasks) == 0 {
		return fmt.Errorf("scenario must declare at least one task")
	}
	if len(cfg.Timeline.DailyMicroInteractions) == 0 {
		return fmt.Errorf("timeline.dailyMicroInteractions must be non-empty")
	}
	for i, s := range cfg.Seasons {
		if !validSeasonNames[s.Name] {
			return fmt.Errorf("seasons[%d].name %q is not one of spring|summer|autumn|winter", i, s.Name)
		}
	}
	return nil
}
