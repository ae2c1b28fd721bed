package gate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/config"
	"github.com/fyrsmithlabs/parity/internal/logging"
	"github.com/fyrsmithlabs/parity/internal/phase"
	"github.com/fyrsmithlabs/parity/internal/schema"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// Engine evaluates events against an ordered list of gates. It holds no
// workspace state between calls.
type Engine struct {
	cfg     *config.Config
	checker *schema.Checker
	gates   []Gate
}

// NewEngine creates an engine with the default gates registered.
func NewEngine(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	checker, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("init schema checker: %w", err)
	}
	e := &Engine{cfg: cfg, checker: checker}
	e.RegisterGate(NewPlacementGate())
	e.RegisterGate(NewSchemaGate())
	e.RegisterGate(NewOrderingGate())
	e.RegisterGate(NewRegisterIntegrityGate())
	e.RegisterGate(NewCompletenessGate())
	e.RegisterGate(NewProofGate())
	e.RegisterGate(NewIntegrityGate())
	return e, nil
}

// RegisterGate appends a gate to the write pipeline.
func (e *Engine) RegisterGate(g Gate) {
	e.gates = append(e.gates, g)
}

// Gates returns the registered gate names in run order.
func (e *Engine) Gates() []string {
	names := make([]string, len(e.gates))
	for i, g := range e.gates {
		names[i] = g.Name()
	}
	return names
}

// Checker exposes the schema checker for callers that write artifacts.
func (e *Engine) Checker() *schema.Checker {
	return e.checker
}

// Evaluate returns the decision for ev. It never fails: unreadable
// artifacts degrade to absent or invalid, and gate errors become blocks.
func (e *Engine) Evaluate(ctx context.Context, ws *workspace.Context, ev Event) Decision {
	start := time.Now()
	ctx = ws.Attach(ctx)
	if ev.TargetPath != "" {
		ctx = logging.WithTarget(ctx, ev.TargetPath)
	}

	st := newState(ctx, ws, e.cfg, e.checker, ev)

	var violations []Violation
	switch ev.Type {
	case EventWrite:
		violations = e.checkGates(ctx, st)
	case EventSessionEnd:
		violations = e.sweep(ctx, st)
	default:
		violations = []Violation{{
			Gate:        "engine",
			Type:        ViolationGateError,
			Severity:    SeverityError,
			Description: fmt.Sprintf("unknown event type %q", ev.Type),
			Remediation: []string{fmt.Sprintf("send event type %q or %q", EventWrite, EventSessionEnd)},
		}}
	}

	d := decide(violations)
	d.Phase = st.Phase.Phase
	d.Event = ev.Type
	d.Target = st.Target
	if st.Classified {
		d.Category = st.Info().Name
	}
	if d.Outcome == OutcomeAllow && ev.Type == EventWrite && !st.Classified {
		d.Reason = "unclassified path"
	}

	ws.Log.Info(ctx, "gate decision",
		zap.String("outcome", string(d.Outcome)),
		zap.String("phase", string(d.Phase)),
		zap.Int("violations", len(d.Violations)),
		zap.Duration("elapsed", time.Since(start)))
	return d
}

// checkGates runs all gates for the state and returns violations
func (e *Engine) checkGates(ctx context.Context, st *EvalState) []Violation {
	var all []Violation
	for _, g := range e.gates {
		violations, err := runGate(ctx, g, st)
		if err != nil {
			st.WS.Log.Warn(ctx, "gate check failed", zap.String("gate", g.Name()), zap.Error(err))
			all = append(all, Violation{
				Gate:        g.Name(),
				Type:        ViolationGateError,
				Severity:    SeverityError,
				Category:    st.Placement.Info.Name,
				Path:        st.Target,
				Description: fmt.Sprintf("gate %s check failed: %v", g.Name(), err),
			})
			continue
		}
		st.WS.Log.Debug(ctx, "gate checked", zap.String("gate", g.Name()), zap.Int("violations", len(violations)))
		all = append(all, violations...)
	}
	return all
}

// runGate converts a panicking gate into an error.
func runGate(ctx context.Context, g Gate, st *EvalState) (v []Violation, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return g.Check(ctx, st)
}

// sweep re-runs the write gates for every artifact on disk, then checks that
// the workflow is finished.
func (e *Engine) sweep(ctx context.Context, st *EvalState) []Violation {
	var all []Violation

	for _, a := range st.Artifacts {
		all = append(all, e.checkGates(ctx, st.forTarget(a.Path))...)
	}

	for _, cat := range workspace.Registers() {
		info := workspace.MustLookup(cat)
		req := workspace.Requirement{Category: cat, Need: workspace.NeedAllValidated}
		if st.Snapshot.Satisfies(req) {
			continue
		}
		all = append(all, Violation{
			Gate:        "end-of-session",
			Type:        ViolationIncomplete,
			Severity:    SeverityError,
			Category:    cat,
			Path:        info.Canonical,
			Description: fmt.Sprintf("%s is %s", cat, prerequisiteProblem(st, req)),
			Remediation: []string{prerequisiteRemediation(info, req)},
		})
	}
	for _, cat := range []workspace.Category{workspace.Rollup, workspace.Milestones} {
		info := workspace.MustLookup(cat)
		req := workspace.Requirement{Category: cat, Need: workspace.NeedValid}
		if st.Snapshot.Satisfies(req) {
			continue
		}
		all = append(all, Violation{
			Gate:        "end-of-session",
			Type:        ViolationIncomplete,
			Severity:    SeverityError,
			Category:    cat,
			Path:        info.Canonical,
			Description: fmt.Sprintf("%s is %s", cat, prerequisiteProblem(st, req)),
			Remediation: []string{prerequisiteRemediation(info, req)},
		})
	}
	if st.Phase.Phase != phase.Complete {
		all = append(all, Violation{
			Gate:        "end-of-session",
			Type:        ViolationIncomplete,
			Severity:    SeverityError,
			Category:    workspace.Rollup,
			Description: fmt.Sprintf("workflow reached %s, not %s", st.Phase.Phase, phase.Complete),
		})
	}
	return all
}

// decide folds violations into a decision. Remediation is ordered by the
// workflow stage of the violating category and de-duplicated.
func decide(violations []Violation) Decision {
	ordered := append([]Violation(nil), violations...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return stageOf(ordered[i].Category) < stageOf(ordered[j].Category)
	})

	d := Decision{Outcome: OutcomeAllow, Remediation: []string{}, Violations: ordered}
	seen := map[string]bool{}
	for _, v := range ordered {
		if v.Severity.rank() > d.Severity.rank() {
			d.Severity = v.Severity
		}
		for _, r := range v.Remediation {
			if !seen[r] {
				seen[r] = true
				d.Remediation = append(d.Remediation, r)
			}
		}
	}

	switch {
	case hasBlockingViolation(ordered):
		d.Outcome = OutcomeBlock
		d.Reason = describeViolations(filter(ordered, SeverityError, SeverityCritical))
	case len(ordered) > 0:
		d.Outcome = OutcomeWarn
		d.Reason = describeViolations(ordered)
	default:
		d.Reason = "all gates passed"
	}
	return d
}

func stageOf(c workspace.Category) int {
	if info, ok := workspace.Lookup(c); ok {
		return info.Stage
	}
	return 0
}

func filter(violations []Violation, severities ...Severity) []Violation {
	var out []Violation
	for _, v := range violations {
		for _, s := range severities {
			if v.Severity == s {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// hasBlockingViolation checks if any violation should block execution
func hasBlockingViolation(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityError || v.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// describeViolations creates a summary of violations
func describeViolations(violations []Violation) string {
	if len(violations) == 0 {
		return ""
	}
	parts := make([]string, 0, len(violations))
	seen := map[string]bool{}
	for _, v := range violations {
		p := fmt.Sprintf("[%s] %s", v.Type, v.Description)
		if !seen[p] {
			seen[p] = true
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "; ")
}
