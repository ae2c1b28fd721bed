package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/parity/internal/config"
	"github.com/fyrsmithlabs/parity/internal/logging"
)

// Env is the configuration and logger a command runs with.
type Env struct {
	Config *config.Config
	Log    *logging.Logger
}

// LoadEnv loads the config for root and builds a logger writing to the
// command's stderr. Config problems are usage errors.
func LoadEnv(cmd *cobra.Command, root, configPath string) (*Env, error) {
	cfg, err := config.Load(root, configPath)
	if err != nil {
		return nil, UsageError("load config", err)
	}
	logCfg, err := logging.FromAppConfig(cfg.Logging)
	if err != nil {
		return nil, UsageError("configure logging", err)
	}
	log, err := logging.NewLoggerTo(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, UsageError("create logger", err)
	}
	return &Env{Config: cfg, Log: log}, nil
}
