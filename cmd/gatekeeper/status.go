package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/parity/internal/audit"
	"github.com/fyrsmithlabs/parity/internal/cmdutil"
)

type statusOptions struct {
	json bool
	yaml bool
	tail int
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	so := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the phase checklist, registers and recent decisions",
		Long: `Show the workspace dashboard: the phase milestone checklist, a summary of
each validation register and the most recent gate decisions from the audit
trail.

Examples:
  # Styled dashboard
  gatekeeper status

  # Machine-readable snapshot with the last 50 decisions
  gatekeeper status --json --tail 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts, so)
		},
	}
	cmd.Flags().BoolVar(&so.json, "json", false, "print the snapshot as JSON")
	cmd.Flags().BoolVar(&so.yaml, "yaml", false, "print the snapshot as YAML")
	cmd.Flags().IntVar(&so.tail, "tail", 10, "number of recent decisions to show")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
	return cmd
}

func runStatus(cmd *cobra.Command, opts *rootOptions, so *statusOptions) error {
	if so.tail < 0 {
		return cmdutil.Usagef("--tail must not be negative, got %d", so.tail)
	}
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := a.ws.Attach(cmd.Context())
	snap, err := audit.Collect(ctx, a.ws, a.engine.Checker(), a.trail.Path(), so.tail, a.now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case so.json:
		return cmdutil.WriteDocument(out, "", snap)
	case so.yaml:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		return enc.Close()
	default:
		fmt.Fprintln(out, audit.Render(snap))
		return nil
	}
}
