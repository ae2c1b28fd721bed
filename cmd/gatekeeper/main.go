// Package main implements gatekeeper, the acceptance gate CLI.
//
// The host calls `gatekeeper gate` after every artifact write and at the
// end of a session. The other subcommands inspect or finish a workspace.
package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/audit"
	"github.com/fyrsmithlabs/parity/internal/cmdutil"
	"github.com/fyrsmithlabs/parity/internal/gate"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

var version = "dev"

// rootOptions holds the global flags.
type rootOptions struct {
	root    string
	config  string
	session string
}

func main() {
	os.Exit(cmdutil.Execute(newRootCmd()))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gatekeeper",
		Short: "Acceptance gate for component migrations",
		Long: `gatekeeper decides whether an artifact write in a migration workspace may
stand. It re-reads the workspace on every call, detects the current phase
and runs the gates: placement, schema, ordering, register integrity,
completeness, critique proof and content integrity.

Every decision is appended to the audit trail.`,
		Version: version,
	}

	cmd.PersistentFlags().StringVar(&opts.root, "root", ".", "workspace root")
	cmd.PersistentFlags().StringVar(&opts.config, "config", "", "config file (default <root>/.parity/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.session, "session", "", "session id (default: from the hook payload, else a new uuid)")

	cmd.AddCommand(newGateCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newRollupCmd(opts))
	cmd.AddCommand(newVerifyProofCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	return cmd
}

// app is everything a subcommand needs to evaluate and record decisions.
type app struct {
	env     *cmdutil.Env
	ws      *workspace.Context
	engine  *gate.Engine
	trail   *audit.Logger
	metrics *audit.Metrics
	now     func() time.Time
}

// newApp loads config and opens the workspace.
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	env, err := cmdutil.LoadEnv(cmd, opts.root, opts.config)
	if err != nil {
		return nil, err
	}
	return openApp(env, opts, "")
}

// openApp opens the workspace with an already loaded env. session is used
// only when --session is empty.
func openApp(env *cmdutil.Env, opts *rootOptions, session string) (*app, error) {
	if opts.session != "" {
		session = opts.session
	}
	ws, err := workspace.New(env.Config.Workspace.Root, session, env.Log)
	if err != nil {
		return nil, cmdutil.UsageError("open workspace", err)
	}
	engine, err := gate.NewEngine(env.Config)
	if err != nil {
		return nil, err
	}
	return &app{
		env:     env,
		ws:      ws,
		engine:  engine,
		trail:   audit.NewLogger(ws.Abs(env.Config.Workspace.AuditLog)),
		metrics: audit.NewMetrics(),
		now:     time.Now,
	}, nil
}

// evaluate runs the engine and records the decision.
func (a *app) evaluate(ctx context.Context, ev gate.Event) gate.Decision {
	start := a.now()
	d := a.engine.Evaluate(ctx, a.ws, ev)
	a.record(ctx, d, a.now().Sub(start))
	return d
}

// handle adapts evaluate to a hook handler.
func (a *app) handle(ctx context.Context, ev gate.Event) (gate.Decision, error) {
	return a.evaluate(ctx, ev), nil
}

// record appends d to the trail and updates metrics. Failures are logged;
// they never change the decision.
func (a *app) record(ctx context.Context, d gate.Decision, elapsed time.Duration) {
	ctx = a.ws.Attach(ctx)
	if err := a.trail.Append(audit.NewEntry(a.ws.SessionID, d, a.now(), elapsed)); err != nil {
		a.ws.Log.Error(ctx, "audit append failed", zap.String("path", a.trail.Path()), zap.Error(err))
	}
	a.metrics.Observe(d, elapsed)
	if path := a.env.Config.Workspace.MetricsFile; path != "" {
		if err := a.metrics.WriteTextfile(a.ws.Abs(path)); err != nil {
			a.ws.Log.Warn(ctx, "metrics export failed", zap.String("path", path), zap.Error(err))
		}
	}
}

func (a *app) close() {
	_ = a.env.Log.Sync()
}
