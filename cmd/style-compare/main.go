// Package main implements style-compare, the weighted computed-style
// comparator.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/cmdutil"
	"github.com/fyrsmithlabs/parity/internal/compare/style"
	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// evidenceFlags describe the critique artifacts recorded on the register item.
type evidenceFlags struct {
	sourceRef   string
	migratedRef string
	iteration   int
}

func main() {
	os.Exit(cmdutil.Execute(newRootCmd()))
}

func newRootCmd() *cobra.Command {
	var (
		flags cmdutil.CompareFlags
		ev    evidenceFlags
	)

	cmd := &cobra.Command{
		Use:   "style-compare <source.json> <migrated.json>",
		Short: "Compare two computed-style snapshots",
		Long: `Compare the computed styles of a source component with its migration.

Every property is scored by kind (color distance, length delta or keyword
match), weighted by category and folded into one similarity percentage.
Differences above the noise floor are listed; those above the fix floor
get a prioritized fix.

With --output-register the result is upserted as a style-target item keyed
by the component id. The item's evidence is the --output report path plus
the reference screenshots, which the gate checks exist on disk.

Exit codes:
  0  similarity at or above the threshold
  1  similarity below the threshold
  2  usage or parse error (nothing is written)

Examples:
  style-compare capture/source/styles/hero.json capture/migrated/styles/hero.json \
    --component-id hero --output critique/hero/report.json \
    --output-register registers/style-register.json \
    --source-ref critique/hero/source.png --migrated-ref critique/hero/migrated.png \
    --iteration 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, &flags, ev, args[0], args[1])
		},
	}
	flags.AddFlags(cmd, style.DefaultThreshold)
	cmd.Flags().StringVar(&ev.sourceRef, "source-ref", "", "source reference screenshot recorded as evidence")
	cmd.Flags().StringVar(&ev.migratedRef, "migrated-ref", "", "migrated reference screenshot recorded as evidence")
	cmd.Flags().IntVar(&ev.iteration, "iteration", 0, "critique iteration recorded as evidence (the gate requires at least 1)")
	return cmd
}

func runCompare(cmd *cobra.Command, flags *cmdutil.CompareFlags, ev evidenceFlags, sourcePath, migratedPath string) error {
	env, err := cmdutil.LoadEnv(cmd, ".", flags.Config)
	if err != nil {
		return err
	}
	defer env.Log.Sync()

	if err := flags.ResolveThreshold(cmd, env.Config.Thresholds.Style); err != nil {
		return err
	}
	if ev.iteration < 0 {
		return cmdutil.Usagef("--iteration must not be negative, got %d", ev.iteration)
	}
	source, migrated, err := cmdutil.LoadInputs(style.Load, sourcePath, migratedPath)
	if err != nil {
		return err
	}

	report := style.Compare(source, migrated, flags.Threshold, style.TuningFrom(env.Config.Tuning))
	componentID := flags.ComponentID
	if componentID == "" {
		componentID = report.Component
	}

	// load the register before writing anything so a bad register leaves no
	// partial output
	var reg *register.Register
	if flags.OutputRegister != "" {
		if componentID == "" {
			return cmdutil.Usagef("--component-id is required with --output-register when the snapshots name no component")
		}
		reg, err = register.LoadOrNew(flags.OutputRegister, workspace.StyleRegister, "")
		if err != nil {
			return cmdutil.UsageError("read register", err)
		}
	}

	for _, d := range report.Differences {
		env.Log.Trace(cmd.Context(), "property differs",
			zap.String("property", d.Property),
			zap.String("source", d.Source),
			zap.String("migrated", d.Migrated),
			zap.Float64("score", d.Score))
	}

	if err := cmdutil.WriteDocument(cmd.OutOrStdout(), flags.Output, report); err != nil {
		return err
	}
	if reg != nil {
		reg.Upsert(report.Item(componentID, register.Evidence{
			ReportPath:      flags.Output,
			SourceRefPath:   ev.sourceRef,
			MigratedRefPath: ev.migratedRef,
			IterationCount:  ev.iteration,
		}))
		if err := reg.Save(flags.OutputRegister); err != nil {
			return err
		}
	}

	env.Log.Info(cmd.Context(), "style compared",
		zap.String("component", componentID),
		zap.Float64("similarity", report.Similarity),
		zap.String("grade", report.Grade),
		zap.Int("fixes", len(report.Fixes)),
		zap.Bool("passed", report.Passed))

	return cmdutil.Verdict(report.Passed, "similarity %.2f below threshold %d", report.Similarity, report.Threshold)
}
