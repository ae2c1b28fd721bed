package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, root, content string) string {
	t.Helper()
	dir := filepath.Join(root, ".parity")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, ".", cfg.Workspace.Root)
	assert.Equal(t, ".parity/audit.jsonl", cfg.Workspace.AuditLog)
	assert.Equal(t, 95, cfg.Thresholds.Structure)
	assert.Equal(t, 95, cfg.Thresholds.Style)
	assert.Equal(t, 100, cfg.Thresholds.Behavior)
	assert.Equal(t, 0.6, cfg.Tuning.TextSimilarity)
	assert.Equal(t, []float64{0.05, 0.15, 0.3, 0.5}, cfg.Tuning.ColorBuckets)
	assert.Equal(t, []float64{1, 4, 8, 16}, cfg.Tuning.LengthBuckets)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce.Duration())
	assert.Equal(t, []string{"Write", "Edit", "MultiEdit"}, cfg.Hooks.WriteTools)
	assert.Equal(t, []string{"Stop", "SessionEnd"}, cfg.Hooks.SessionEndEvents)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Workspace.Root)
	assert.Equal(t, 95, cfg.Thresholds.Structure)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "/nonexistent/parity.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_YAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
thresholds:
  structure: 90
tuning:
  text_similarity: 0.7
integrity:
  category_names: [Products, Solutions]
watch:
  debounce: 1s
`)

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Thresholds.Structure)
	assert.Equal(t, 95, cfg.Thresholds.Style, "unset values keep defaults")
	assert.Equal(t, 0.7, cfg.Tuning.TextSimilarity)
	assert.Equal(t, []string{"Products", "Solutions"}, cfg.Integrity.CategoryNames)
	assert.Equal(t, time.Second, cfg.Watch.Debounce.Duration())
}

func TestLoad_EnvOverride(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "thresholds:\n  structure: 90\n")

	t.Setenv("PARITY_THRESHOLDS_STRUCTURE", "80")
	t.Setenv("PARITY_TUNING_NOISE_FLOOR", "0.02")

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Thresholds.Structure)
	assert.Equal(t, 0.02, cfg.Tuning.NoiseFloor)
}

func TestLoad_InvalidYAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "thresholds: [unclosed")

	_, err := Load(root, "")
	require.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "thresholds:\n  style: 150\n")

	_, err := Load(root, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thresholds.style")
}

func TestLoad_FileTooLarge(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, maxConfigFileSize+1)
	for i := range big {
		big[i] = '#'
	}
	writeConfig(t, root, string(big))

	_, err := Load(root, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"text similarity above one", func(c *Config) { c.Tuning.TextSimilarity = 1.5 }, "tuning.text_similarity"},
		{"buckets not increasing", func(c *Config) { c.Tuning.ColorBuckets = []float64{0.1, 0.1, 0.2, 0.3} }, "strictly increasing"},
		{"wrong bucket count", func(c *Config) { c.Tuning.LengthBuckets = []float64{1, 2} }, "exactly 4"},
		{"fix floor below noise floor", func(c *Config) { c.Tuning.FixFloor = 0.01 }, "fix_floor"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative literal length", func(c *Config) { c.Integrity.MaxLiteralLength = -1 }, "max_literal_length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "thresholds.structure", envKey("PARITY_THRESHOLDS_STRUCTURE"))
	assert.Equal(t, "workspace.audit_log", envKey("PARITY_WORKSPACE_AUDIT_LOG"))
	assert.Equal(t, "root", envKey("PARITY_ROOT"))
}

func TestResolvePath(t *testing.T) {
	cfg := Defaults()
	cfg.Workspace.Root = "/work"

	assert.Equal(t, "/work/.parity/audit.jsonl", cfg.ResolvePath(cfg.Workspace.AuditLog))
	assert.Equal(t, "/abs/file", cfg.ResolvePath("/abs/file"))
	assert.Equal(t, "", cfg.ResolvePath(""))
}
