// Package main implements behavior-compare, the interaction tree comparator.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/cmdutil"
	"github.com/fyrsmithlabs/parity/internal/compare/behavior"
)

func main() {
	os.Exit(cmdutil.Execute(newRootCmd()))
}

func newRootCmd() *cobra.Command {
	var flags cmdutil.CompareFlags

	cmd := &cobra.Command{
		Use:   "behavior-compare <source.json> <migrated.json>",
		Short: "Compare two behavior trees",
		Long: `Compare the interaction tree of a source component with its migration.

Nodes are paired by normalized label, then by position. Each pair is checked
on its hover, click and styling facets; a node validates only when all three
match. Migrated nodes with no source counterpart are listed as extras.

The threshold is the percentage of nodes that must validate for the report
to pass (default 100). Any failed node still exits 1.

Exit codes:
  0  every node validated and the threshold is met
  1  a node failed or the validated share is below the threshold
  2  usage or parse error (nothing is written)`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, &flags, args[0], args[1])
		},
	}
	flags.AddFlags(cmd, behavior.DefaultThreshold)
	return cmd
}

func runCompare(cmd *cobra.Command, flags *cmdutil.CompareFlags, sourcePath, migratedPath string) error {
	env, err := cmdutil.LoadEnv(cmd, ".", flags.Config)
	if err != nil {
		return err
	}
	defer env.Log.Sync()

	if err := flags.ResolveThreshold(cmd, env.Config.Thresholds.Behavior); err != nil {
		return err
	}
	source, migrated, err := cmdutil.LoadInputs(behavior.Load, sourcePath, migratedPath)
	if err != nil {
		return err
	}

	report := behavior.Compare(source, migrated, behavior.Options{
		Threshold:      flags.Threshold,
		TextSimilarity: env.Config.Tuning.TextSimilarity,
	})
	if flags.ComponentID != "" {
		report.Component = flags.ComponentID
	}

	for _, it := range report.Items {
		env.Log.Trace(cmd.Context(), "item compared",
			zap.String("id", it.ID),
			zap.String("kind", string(it.Kind)),
			zap.String("status", string(it.Status)),
			zap.String("remediation", it.Remediation))
	}

	if err := cmdutil.WriteDocument(cmd.OutOrStdout(), flags.Output, report); err != nil {
		return err
	}
	if flags.OutputRegister != "" {
		if err := report.Register(report.Component).Save(flags.OutputRegister); err != nil {
			return err
		}
	}

	env.Log.Info(cmd.Context(), "behavior compared",
		zap.Int("validated", report.Validated),
		zap.Int("total", report.Total),
		zap.Int("extras", len(report.Extras)),
		zap.Bool("passed", report.Passed))

	return cmdutil.Verdict(report.Passed && report.Failed == 0, "%d of %d nodes failed", report.Failed, report.Total)
}
