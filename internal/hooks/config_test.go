package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/parity/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	assert.True(t, cfg.IsWriteTool("Write"))
	assert.True(t, cfg.IsWriteTool("MultiEdit"))
	assert.False(t, cfg.IsWriteTool("Bash"))
	assert.True(t, cfg.IsSessionEnd("Stop"))
	assert.False(t, cfg.IsSessionEnd("PreToolUse"))
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(config.Defaults().Hooks)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	app := config.HooksConfig{WriteTools: []string{"Write"}, SessionEndEvents: []string{"SubagentStop"}}
	cfg, err = FromAppConfig(app)
	require.NoError(t, err)
	assert.False(t, cfg.IsWriteTool("Edit"))
	assert.True(t, cfg.IsSessionEnd("SubagentStop"))

	// the returned config does not alias the input
	cfg.WriteTools[0] = "Other"
	assert.Equal(t, "Write", app.WriteTools[0])

	_, err = FromAppConfig(config.HooksConfig{WriteTools: []string{""}})
	assert.Error(t, err)
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"valid config", &Config{WriteTools: []string{"Write"}}, false},
		{"no write tools", &Config{SessionEndEvents: []string{"Stop"}}, true},
		{"empty tool name", &Config{WriteTools: []string{"Write", ""}}, true},
		{"empty hook name", &Config{WriteTools: []string{"Write"}, SessionEndEvents: []string{""}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
