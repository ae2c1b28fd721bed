package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/parity/internal/cmdutil"
	"github.com/fyrsmithlabs/parity/internal/proof"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// proofResult is what `gatekeeper verify-proof` prints.
type proofResult struct {
	Register string          `json:"register"`
	Verified bool            `json:"verified"`
	Findings []proof.Finding `json:"findings"`
}

func newVerifyProofCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-proof [register]",
		Short: "Check the critique evidence behind validated style items",
		Long: `Check that every validated item of a style register carries evidence: a
critique report and both reference screenshots present on disk, and at least
one critique iteration. The claimed similarity is never trusted.

The register defaults to registers/style-register.json.

Exit codes:
  0  all evidence present
  1  findings were reported
  2  the register cannot be read`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := workspace.MustLookup(workspace.StyleRegister).Canonical
			if len(args) == 1 {
				path = args[0]
			}
			return runVerifyProof(cmd, opts, path)
		},
	}
}

func runVerifyProof(cmd *cobra.Command, opts *rootOptions, path string) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	findings, err := proof.NewVerifier(a.ws).VerifyFile(a.ws.Attach(cmd.Context()), path)
	if err != nil {
		return cmdutil.UsageError("verify proof", err)
	}
	if findings == nil {
		findings = []proof.Finding{}
	}

	res := proofResult{Register: path, Verified: len(findings) == 0, Findings: findings}
	if err := cmdutil.WriteDocument(cmd.OutOrStdout(), "", res); err != nil {
		return err
	}
	for _, f := range findings {
		fmt.Fprintln(cmd.ErrOrStderr(), f.String())
	}
	return cmdutil.Verdict(res.Verified, "%d proof findings", len(findings))
}
