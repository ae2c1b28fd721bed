// Package gate decides whether a workspace write or session end may proceed.
//
// The Engine re-reads the workspace on every call, detects the phase and
// runs an ordered list of gates. Each gate returns violations; the worst
// severity decides the outcome.
package gate

import (
	"context"

	"github.com/fyrsmithlabs/parity/internal/phase"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// Outcome is the verdict of one evaluation.
type Outcome string

const (
	OutcomeAllow Outcome = "allow"
	OutcomeWarn  Outcome = "warn"
	OutcomeBlock Outcome = "block"
)

// Severity indicates how serious a violation is
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

// ViolationType categorizes violations.
type ViolationType string

const (
	ViolationPrerequisite     ViolationType = "prerequisite_missing"
	ViolationMisplaced        ViolationType = "misplaced_artifact"
	ViolationSchema           ViolationType = "schema_invalid"
	ViolationInconsistent     ViolationType = "register_inconsistent"
	ViolationRegression       ViolationType = "item_regressed"
	ViolationMissingReference ViolationType = "missing_reference"
	ViolationUnproven         ViolationType = "unproven_claim"
	ViolationInlineContent    ViolationType = "inline_content"
	ViolationIncomplete       ViolationType = "session_incomplete"
	ViolationGateError        ViolationType = "gate_error"
)

// Violation is one problem found by a gate.
type Violation struct {
	Gate        string             `json:"gate"`
	Type        ViolationType      `json:"type"`
	Severity    Severity           `json:"severity"`
	Category    workspace.Category `json:"category,omitempty"`
	Path        string             `json:"path,omitempty"`
	Description string             `json:"description"`
	Remediation []string           `json:"remediation,omitempty"`
}

// EventType distinguishes artifact writes from session termination.
type EventType string

const (
	EventWrite      EventType = "write"
	EventSessionEnd EventType = "session-end"
)

// Event is one gate invocation.
type Event struct {
	Type EventType

	// TargetPath is absolute or root-relative. Unused for session-end.
	TargetPath string

	// Content is the proposed file content. Nil means read the target
	// from disk.
	Content []byte
}

// Decision is the transient result of one evaluation.
type Decision struct {
	Outcome     Outcome            `json:"outcome"`
	Severity    Severity           `json:"severity,omitempty"`
	Reason      string             `json:"reason"`
	Remediation []string           `json:"remediation"`
	Violations  []Violation        `json:"violations,omitempty"`
	Phase       phase.State        `json:"phase"`
	Event       EventType          `json:"event"`
	Target      string             `json:"target,omitempty"`
	Category    workspace.Category `json:"category,omitempty"`
}

// Blocked reports whether the decision stops the workflow.
func (d Decision) Blocked() bool {
	return d.Outcome == OutcomeBlock
}

// Gate is one check run during evaluation.
type Gate interface {
	// Name returns the gate identifier
	Name() string

	// Check returns violations for the evaluated target, if any
	Check(ctx context.Context, state *EvalState) ([]Violation, error)
}
