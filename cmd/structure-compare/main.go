// Package main implements structure-compare, the positional structural
// comparator.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/cmdutil"
	"github.com/fyrsmithlabs/parity/internal/compare/structure"
)

func main() {
	os.Exit(cmdutil.Execute(newRootCmd()))
}

func newRootCmd() *cobra.Command {
	var flags cmdutil.CompareFlags

	cmd := &cobra.Command{
		Use:   "structure-compare <source.json> <migrated.json>",
		Short: "Compare two structural summaries",
		Long: `Compare the structural summary of a source component with its migration.

Rows, the megamenu and its columns are aligned by position and their image
flags compared. The similarity is the share of matching checks.

Exit codes:
  0  similarity at or above the threshold
  1  similarity below the threshold
  2  usage or parse error (nothing is written)

Examples:
  # Print the report
  structure-compare capture/source/structure.json capture/migrated/structure.json

  # Record the result for the gate
  structure-compare src.json mig.json --component-id header \
    --output-register registers/structure-register.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, &flags, args[0], args[1])
		},
	}
	flags.AddFlags(cmd, structure.DefaultThreshold)
	return cmd
}

func runCompare(cmd *cobra.Command, flags *cmdutil.CompareFlags, sourcePath, migratedPath string) error {
	env, err := cmdutil.LoadEnv(cmd, ".", flags.Config)
	if err != nil {
		return err
	}
	defer env.Log.Sync()

	if err := flags.ResolveThreshold(cmd, env.Config.Thresholds.Structure); err != nil {
		return err
	}
	source, migrated, err := cmdutil.LoadInputs(structure.Load, sourcePath, migratedPath)
	if err != nil {
		return err
	}

	report := structure.Compare(source, migrated, flags.Threshold)
	if flags.ComponentID != "" {
		report.Component = flags.ComponentID
	}

	if err := cmdutil.WriteDocument(cmd.OutOrStdout(), flags.Output, report); err != nil {
		return err
	}
	if flags.OutputRegister != "" {
		reg := report.Register(report.Component)
		if err := reg.Save(flags.OutputRegister); err != nil {
			return err
		}
	}

	env.Log.Info(cmd.Context(), "structure compared",
		zap.Int("similarity", report.Similarity),
		zap.Int("threshold", report.Threshold),
		zap.Int("mismatches", len(report.Mismatches)),
		zap.Bool("passed", report.Passed))

	return cmdutil.Verdict(report.Passed, "similarity %d%% below threshold %d%%", report.Similarity, report.Threshold)
}
