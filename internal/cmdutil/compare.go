package cmdutil

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/parity/internal/register"
)

// CompareFlags are the flags every comparator accepts.
type CompareFlags struct {
	Threshold      int
	Output         string
	OutputRegister string
	ComponentID    string
	Config         string
}

// AddFlags registers the comparator flags on cmd.
func (f *CompareFlags) AddFlags(cmd *cobra.Command, defaultThreshold int) {
	cmd.Flags().IntVar(&f.Threshold, "threshold", defaultThreshold, "acceptance threshold in percent (1-100)")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "write the report to this path instead of stdout")
	cmd.Flags().StringVar(&f.OutputRegister, "output-register", "", "write or update the validation register at this path")
	cmd.Flags().StringVar(&f.ComponentID, "component-id", "", "component id recorded in the register")
	cmd.Flags().StringVar(&f.Config, "config", "", "config file (default .parity/config.yaml)")
}

// ResolveThreshold applies the configured threshold unless --threshold was
// given explicitly, then checks the range.
func (f *CompareFlags) ResolveThreshold(cmd *cobra.Command, configured int) error {
	if !cmd.Flags().Changed("threshold") {
		f.Threshold = configured
	}
	if f.Threshold < 1 || f.Threshold > 100 {
		return Usagef("--threshold must be between 1 and 100, got %d", f.Threshold)
	}
	return nil
}

// LoadInputs reads both comparator inputs. Any failure is a usage error and
// nothing is written.
func LoadInputs[T any](load func(path string) (T, error), sourcePath, migratedPath string) (source, migrated T, err error) {
	source, err = load(sourcePath)
	if err != nil {
		return source, migrated, UsageError("read source", err)
	}
	migrated, err = load(migratedPath)
	if err != nil {
		return source, migrated, UsageError("read migrated", err)
	}
	return source, migrated, nil
}

// WriteDocument writes v as indented JSON to path, or to w when path is empty.
func WriteDocument(w io.Writer, path string, v any) error {
	data, err := register.MarshalDocument(v)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	return register.WriteFileAtomic(path, data)
}

// Verdict turns a pass/fail result into the comparator exit status.
func Verdict(passed bool, format string, args ...any) error {
	if passed {
		return nil
	}
	return Failure(fmt.Sprintf(format, args...))
}
