// Package cmdutil holds the plumbing shared by the parity command line tools:
// exit codes, config and logger setup, comparator flags and document output.
package cmdutil

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit codes shared by every tool.
const (
	ExitOK      = 0 // matched, validated or allowed
	ExitFailure = 1 // below threshold or items failed
	ExitUsage   = 2 // usage or parse error; also a blocked gate decision
)

// ExitError carries an exit code out of a cobra RunE.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Silent errors have already reported themselves.
	Silent bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// UsageError reports bad arguments or unreadable inputs.
func UsageError(message string, err error) *ExitError {
	return &ExitError{Code: ExitUsage, Message: message, Err: err}
}

// Usagef is UsageError with formatting and no cause.
func Usagef(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// Failure reports a completed run whose result did not pass. The result has
// already been written, so nothing more is printed.
func Failure(message string) *ExitError {
	return &ExitError{Code: ExitFailure, Message: message, Silent: true}
}

// ExitCode maps an error returned by a command to a process exit code.
// Errors that are not ExitErrors come from cobra's own argument and flag
// parsing, so they are usage errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsage
}

// Execute runs cmd, reports its error on stderr and returns the exit code.
func Execute(cmd *cobra.Command) int {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	err := cmd.Execute()
	report(cmd.ErrOrStderr(), err)
	return ExitCode(err)
}

func report(w io.Writer, err error) {
	if err == nil {
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Silent {
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
