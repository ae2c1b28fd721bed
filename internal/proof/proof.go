// Package proof verifies that validated style items are backed by evidence
// on disk. A claimed similarity never substitutes for the files.
package proof

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// Problem classifies a finding.
type Problem string

const (
	ProblemNoEvidence     Problem = "no-evidence"
	ProblemMissingFile    Problem = "missing-file"
	ProblemIterationCount Problem = "iteration-count"
)

// Finding is one unproven claim.
type Finding struct {
	ItemID  string  `json:"itemId"`
	Problem Problem `json:"problem"`
	Field   string  `json:"field,omitempty"`
	Path    string  `json:"path,omitempty"`
	Detail  string  `json:"detail"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.ItemID, f.Detail)
}

// Verifier checks evidence relative to a workspace root.
type Verifier struct {
	ws *workspace.Context
}

// NewVerifier creates a verifier for ws.
func NewVerifier(ws *workspace.Context) *Verifier {
	return &Verifier{ws: ws}
}

// Verify returns one finding per missing piece of evidence on every
// validated item, whatever its kind. Items that are not validated are not
// checked.
func (v *Verifier) Verify(ctx context.Context, reg *register.Register) []Finding {
	var findings []Finding
	for _, it := range reg.Items {
		if it.Status != register.StatusValidated {
			continue
		}
		findings = append(findings, v.verifyItem(it)...)
	}

	v.ws.Log.Debug(ctx, "proof verified",
		zap.Int("items", len(reg.Items)),
		zap.Int("findings", len(findings)))
	return findings
}

func (v *Verifier) verifyItem(it register.Item) []Finding {
	ev := it.Evidence
	if ev == nil {
		return []Finding{{
			ItemID: it.ID, Problem: ProblemNoEvidence,
			Detail: "validated without an evidence bundle",
		}}
	}

	var out []Finding
	for _, f := range []struct{ field, path string }{
		{"reportPath", ev.ReportPath},
		{"sourceRefPath", ev.SourceRefPath},
		{"migratedRefPath", ev.MigratedRefPath},
	} {
		if f.path == "" {
			out = append(out, Finding{
				ItemID: it.ID, Problem: ProblemMissingFile, Field: f.field,
				Detail: fmt.Sprintf("evidence %s is empty", f.field),
			})
			continue
		}
		if !workspace.RegularFile(v.ws.Abs(f.path)) {
			out = append(out, Finding{
				ItemID: it.ID, Problem: ProblemMissingFile, Field: f.field, Path: f.path,
				Detail: fmt.Sprintf("evidence %s does not exist: %s", f.field, f.path),
			})
		}
	}
	if ev.IterationCount < 1 {
		out = append(out, Finding{
			ItemID: it.ID, Problem: ProblemIterationCount, Field: "iterationCount",
			Detail: fmt.Sprintf("iterationCount is %d, need at least 1", ev.IterationCount),
		})
	}
	return out
}

// VerifyFile loads a style register and verifies it. A register that
// declares another category is an error.
func (v *Verifier) VerifyFile(ctx context.Context, path string) ([]Finding, error) {
	reg, err := register.Load(v.ws.Abs(path))
	if err != nil {
		return nil, fmt.Errorf("load register: %w", err)
	}
	if reg.Category != "" && reg.Category != workspace.StyleRegister {
		return nil, fmt.Errorf("%s is a %s, not a %s", path, reg.Category, workspace.StyleRegister)
	}
	return v.Verify(ctx, reg), nil
}
