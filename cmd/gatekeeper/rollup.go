package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/cmdutil"
	"github.com/fyrsmithlabs/parity/internal/gate"
	"github.com/fyrsmithlabs/parity/internal/phase"
	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// rollupResult is what `gatekeeper rollup` prints.
type rollupResult struct {
	Phase      phase.State   `json:"phase"`
	Rollup     gate.Decision `json:"rollup"`
	Milestones gate.Decision `json:"milestones"`
}

func newRollupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollup",
		Short: "Write the register rollup and the milestones document",
		Long: `Aggregate the three validation registers into registers/rollup.json and
write the phase milestone checklist to milestones.json.

Each document is proposed to the gate first and written only when the gate
does not block it. The rollup is blocked until every register is
all-validated; the milestones document is always written.

Exit codes:
  0  both documents written
  2  a document was blocked (the reasons go to stderr)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollup(cmd, opts)
		},
	}
}

func runRollup(cmd *cobra.Command, opts *rootOptions) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := a.ws.Attach(cmd.Context())

	regs := map[workspace.Category]*register.Register{}
	for _, cat := range workspace.Registers() {
		r, err := register.Load(a.ws.Abs(workspace.MustLookup(cat).Canonical))
		switch {
		case err == nil:
			regs[cat] = r
		case errors.Is(err, workspace.ErrNotFound):
		default:
			a.ws.Log.Warn(ctx, "register unreadable, left out of the rollup", zap.String("category", string(cat)), zap.Error(err))
		}
	}

	var res rollupResult
	res.Rollup, err = a.propose(ctx, workspace.Rollup, register.BuildRollup(a.ws.SessionID, a.now(), regs))
	if err != nil {
		return err
	}

	// detect after the rollup landed so the milestones reflect it
	snap, _ := gate.Scan(ctx, a.ws, a.engine.Checker())
	detected := phase.Detect(snap)
	res.Phase = detected.Phase
	res.Milestones, err = a.propose(ctx, workspace.Milestones, detected.Document(a.ws.SessionID, a.now()))
	if err != nil {
		return err
	}

	if err := cmdutil.WriteDocument(cmd.OutOrStdout(), "", res); err != nil {
		return err
	}

	blocked := false
	for _, d := range []gate.Decision{res.Rollup, res.Milestones} {
		if !d.Blocked() {
			continue
		}
		blocked = true
		fmt.Fprintf(cmd.ErrOrStderr(), "%s blocked: %s\n", d.Target, d.Reason)
		for _, r := range d.Remediation {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", r)
		}
	}
	if blocked {
		return &cmdutil.ExitError{Code: cmdutil.ExitUsage, Message: "blocked", Silent: true}
	}
	return nil
}

// propose evaluates doc as a write to the canonical path of cat and writes
// it unless blocked.
func (a *app) propose(ctx context.Context, cat workspace.Category, doc any) (gate.Decision, error) {
	rel := workspace.MustLookup(cat).Canonical
	data, err := register.MarshalDocument(doc)
	if err != nil {
		return gate.Decision{}, fmt.Errorf("encode %s: %w", rel, err)
	}
	d := a.evaluate(ctx, gate.Event{Type: gate.EventWrite, TargetPath: rel, Content: data})
	if d.Blocked() {
		return d, nil
	}
	if err := register.WriteFileAtomic(a.ws.Abs(rel), data); err != nil {
		return d, fmt.Errorf("write %s: %w", rel, err)
	}
	return d, nil
}
