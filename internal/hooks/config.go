package hooks

import (
	"fmt"
	"slices"

	"github.com/fyrsmithlabs/parity/internal/config"
)

// Config decides which host hooks map onto gate events.
type Config struct {
	// WriteTools are the host tools whose file_path is gated as a write.
	WriteTools []string `json:"write_tools"`

	// SessionEndEvents are the hook names that trigger the end-of-session sweep.
	SessionEndEvents []string `json:"session_end_events"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		WriteTools:       []string{"Write", "Edit", "MultiEdit"},
		SessionEndEvents: []string{"Stop", "SessionEnd"},
	}
}

// FromAppConfig converts the hooks section of the application config.
func FromAppConfig(app config.HooksConfig) (*Config, error) {
	cfg := DefaultConfig()
	if len(app.WriteTools) > 0 {
		cfg.WriteTools = slices.Clone(app.WriteTools)
	}
	if len(app.SessionEndEvents) > 0 {
		cfg.SessionEndEvents = slices.Clone(app.SessionEndEvents)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hooks config: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.WriteTools) == 0 {
		return fmt.Errorf("write_tools must name at least one tool")
	}
	for _, name := range append(slices.Clone(c.WriteTools), c.SessionEndEvents...) {
		if name == "" {
			return fmt.Errorf("hook and tool names must not be empty")
		}
	}
	return nil
}

// IsWriteTool reports whether tool is gated as a write.
func (c *Config) IsWriteTool(tool string) bool {
	return slices.Contains(c.WriteTools, tool)
}

// IsSessionEnd reports whether the hook ends the session.
func (c *Config) IsSessionEnd(hook string) bool {
	return slices.Contains(c.SessionEndEvents, hook)
}
