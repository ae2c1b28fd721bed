// Package config provides configuration loading for parity.
//
// Configuration is read from a YAML file inside the migration workspace and
// overridden by PARITY_* environment variables. Every numeric cut point used
// by the comparators lives here so it can be tuned without a rebuild.
package config

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Config holds the complete parity configuration.
type Config struct {
	Workspace  WorkspaceConfig  `koanf:"workspace"`
	Thresholds ThresholdsConfig `koanf:"thresholds"`
	Tuning     TuningConfig     `koanf:"tuning"`
	Integrity  IntegrityConfig  `koanf:"integrity"`
	Logging    LoggingConfig    `koanf:"logging"`
	Watch      WatchConfig      `koanf:"watch"`
	Hooks      HooksConfig      `koanf:"hooks"`
}

// WorkspaceConfig locates the workspace and its observability sinks.
type WorkspaceConfig struct {
	Root        string `koanf:"root"`
	AuditLog    string `koanf:"audit_log"`    // relative to root unless absolute
	MetricsFile string `koanf:"metrics_file"` // empty disables textfile export
}

// ThresholdsConfig holds the acceptance thresholds (percent) per comparator.
type ThresholdsConfig struct {
	Structure int `koanf:"structure"`
	Style     int `koanf:"style"`
	Behavior  int `koanf:"behavior"`
}

// TuningConfig holds the empirically chosen cut points used by the
// comparators. None of these values is derived; they are knobs.
type TuningConfig struct {
	TextSimilarity float64   `koanf:"text_similarity"`
	ColorBuckets   []float64 `koanf:"color_buckets"`
	LengthBuckets  []float64 `koanf:"length_buckets"`
	NoiseFloor     float64   `koanf:"noise_floor"`
	FixFloor       float64   `koanf:"fix_floor"`
}

// IntegrityConfig configures the content-integrity scan of generated code.
type IntegrityConfig struct {
	MaxLiteralLength int      `koanf:"max_literal_length"`
	MaxAbsoluteLinks int      `koanf:"max_absolute_links"`
	CategoryNames    []string `koanf:"category_names"`
	Allowlist        string   `koanf:"allowlist"` // TOML file, relative to root unless absolute
}

// LoggingConfig is the subset of logging options exposed to users.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// WatchConfig configures `gatekeeper watch`.
type WatchConfig struct {
	Debounce Duration `koanf:"debounce"`
}

// HooksConfig maps host hook payloads onto gate events.
type HooksConfig struct {
	WriteTools       []string `koanf:"write_tools"`        // tools whose file_path is gated as a write
	SessionEndEvents []string `koanf:"session_end_events"` // hook names that trigger the end-of-session sweep
}

// Defaults returns a configuration populated with default values.
func Defaults() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = "."
	}
	if cfg.Workspace.AuditLog == "" {
		cfg.Workspace.AuditLog = ".parity/audit.jsonl"
	}

	if cfg.Thresholds.Structure == 0 {
		cfg.Thresholds.Structure = 95
	}
	if cfg.Thresholds.Style == 0 {
		cfg.Thresholds.Style = 95
	}
	if cfg.Thresholds.Behavior == 0 {
		cfg.Thresholds.Behavior = 100
	}

	if cfg.Tuning.TextSimilarity == 0 {
		cfg.Tuning.TextSimilarity = 0.6
	}
	if len(cfg.Tuning.ColorBuckets) == 0 {
		cfg.Tuning.ColorBuckets = []float64{0.05, 0.15, 0.3, 0.5}
	}
	if len(cfg.Tuning.LengthBuckets) == 0 {
		cfg.Tuning.LengthBuckets = []float64{1, 4, 8, 16}
	}
	if cfg.Tuning.NoiseFloor == 0 {
		cfg.Tuning.NoiseFloor = 0.05
	}
	if cfg.Tuning.FixFloor == 0 {
		cfg.Tuning.FixFloor = 0.1
	}

	if cfg.Integrity.MaxLiteralLength == 0 {
		cfg.Integrity.MaxLiteralLength = 200
	}
	if cfg.Integrity.MaxAbsoluteLinks == 0 {
		cfg.Integrity.MaxAbsoluteLinks = 5
	}
	if cfg.Integrity.Allowlist == "" {
		cfg.Integrity.Allowlist = ".parity/allowlist.toml"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = Duration(200 * time.Millisecond)
	}

	if len(cfg.Hooks.WriteTools) == 0 {
		cfg.Hooks.WriteTools = []string{"Write", "Edit", "MultiEdit"}
	}
	if len(cfg.Hooks.SessionEndEvents) == 0 {
		cfg.Hooks.SessionEndEvents = []string{"Stop", "SessionEnd"}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	for name, v := range map[string]int{
		"thresholds.structure": c.Thresholds.Structure,
		"thresholds.style":     c.Thresholds.Style,
		"thresholds.behavior":  c.Thresholds.Behavior,
	} {
		if v < 1 || v > 100 {
			errs = append(errs, fmt.Errorf("%s must be between 1 and 100, got %d", name, v))
		}
	}

	if c.Tuning.TextSimilarity <= 0 || c.Tuning.TextSimilarity > 1 {
		errs = append(errs, fmt.Errorf("tuning.text_similarity must be in (0, 1], got %v", c.Tuning.TextSimilarity))
	}
	if err := validateBuckets("tuning.color_buckets", c.Tuning.ColorBuckets); err != nil {
		errs = append(errs, err)
	}
	if err := validateBuckets("tuning.length_buckets", c.Tuning.LengthBuckets); err != nil {
		errs = append(errs, err)
	}
	if c.Tuning.NoiseFloor < 0 || c.Tuning.NoiseFloor >= 1 {
		errs = append(errs, fmt.Errorf("tuning.noise_floor must be in [0, 1), got %v", c.Tuning.NoiseFloor))
	}
	if c.Tuning.FixFloor < c.Tuning.NoiseFloor {
		errs = append(errs, fmt.Errorf("tuning.fix_floor (%v) must not be below tuning.noise_floor (%v)",
			c.Tuning.FixFloor, c.Tuning.NoiseFloor))
	}

	if c.Integrity.MaxLiteralLength < 1 {
		errs = append(errs, fmt.Errorf("integrity.max_literal_length must be positive, got %d", c.Integrity.MaxLiteralLength))
	}
	if c.Integrity.MaxAbsoluteLinks < 1 {
		errs = append(errs, fmt.Errorf("integrity.max_absolute_links must be positive, got %d", c.Integrity.MaxAbsoluteLinks))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format))
	}

	// map iteration above is unordered; keep error text stable
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return errors.Join(errs...)
}

// validateBuckets requires exactly four strictly increasing positive cuts.
func validateBuckets(name string, cuts []float64) error {
	if len(cuts) != 4 {
		return fmt.Errorf("%s must have exactly 4 cut points, got %d", name, len(cuts))
	}
	for i, c := range cuts {
		if c <= 0 {
			return fmt.Errorf("%s[%d] must be positive, got %v", name, i, c)
		}
		if i > 0 && c <= cuts[i-1] {
			return fmt.Errorf("%s must be strictly increasing", name)
		}
	}
	return nil
}
