package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/cmdutil"
	"github.com/fyrsmithlabs/parity/internal/gate"
	"github.com/fyrsmithlabs/parity/internal/hooks"
)

func newGateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gate",
		Short: "Evaluate one event read from stdin",
		Long: `Read one event from stdin, evaluate it and print the decision as JSON.

Two payload shapes are accepted:

  native: {"event_type": "write", "target_path": "...", "content": "...", "session_id": "..."}
  host:   {"hook_event_name": "PreToolUse", "tool_name": "Write",
           "tool_input": {"file_path": "...", "content": "..."}, "session_id": "..."}

When content is omitted the target is read from disk. event_type
"session-end" (or a configured end-of-session hook such as Stop) runs the
end-of-session sweep.

Exit codes:
  0  allow or warn
  2  block (the reason and remediation go to stderr) or a malformed payload`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGate(cmd, opts)
		},
	}
}

func runGate(cmd *cobra.Command, opts *rootOptions) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return cmdutil.UsageError("read stdin", err)
	}

	// parse with the configured hook names before the session is known
	env, err := cmdutil.LoadEnv(cmd, opts.root, opts.config)
	if err != nil {
		return err
	}
	hookCfg, err := hooks.FromAppConfig(env.Config.Hooks)
	if err != nil {
		return cmdutil.UsageError("configure hooks", err)
	}
	req, err := hooks.Parse(data, hookCfg)
	if err != nil {
		return cmdutil.UsageError("parse event", err)
	}

	a, err := openApp(env, opts, req.SessionID)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := a.ws.Attach(cmd.Context())
	if err := req.Resolve(a.ws); err != nil {
		a.ws.Log.Warn(ctx, "cannot apply proposed edits, evaluating the file on disk", zap.Error(err))
	}

	mgr := hooks.NewManager(hookCfg)
	mgr.RegisterHandler(gate.EventWrite, a.handle)
	mgr.RegisterHandler(gate.EventSessionEnd, a.handle)
	mgr.RegisterDefault(a.handle)

	d, err := mgr.Execute(ctx, req)
	if err != nil {
		return err
	}
	if err := cmdutil.WriteDocument(cmd.OutOrStdout(), "", d); err != nil {
		return err
	}
	if !d.Blocked() {
		return nil
	}

	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "blocked: %s\n", d.Reason)
	for _, r := range d.Remediation {
		fmt.Fprintf(w, "  - %s\n", r)
	}
	return &cmdutil.ExitError{Code: cmdutil.ExitUsage, Message: "blocked", Silent: true}
}
