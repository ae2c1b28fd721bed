package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/parity/internal/proof"
	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/schema"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// OrderingGate blocks writes whose prerequisite artifacts are not in the
// required state.
type OrderingGate struct{}

// NewOrderingGate creates a new ordering gate
func NewOrderingGate() *OrderingGate {
	return &OrderingGate{}
}

// Name returns the gate identifier
func (g *OrderingGate) Name() string {
	return "ordering"
}

// Check validates the whole prerequisite chain of the target category,
// including prerequisites of prerequisites
func (g *OrderingGate) Check(ctx context.Context, state *EvalState) ([]Violation, error) {
	if !state.Canonical() {
		return nil, nil
	}

	var violations []Violation
	for _, req := range workspace.Requirements(state.Info().Name) {
		if state.Snapshot.Satisfies(req) {
			continue
		}
		pre, ok := workspace.Lookup(req.Category)
		if !ok {
			return nil, fmt.Errorf("unknown prerequisite %s", req.Category)
		}
		violations = append(violations, Violation{
			Gate:        g.Name(),
			Type:        ViolationPrerequisite,
			Severity:    SeverityError,
			Category:    req.Category,
			Path:        pre.Canonical,
			Description: fmt.Sprintf("%s requires %s: %s", state.Info().Name, req, prerequisiteProblem(state, req)),
			Remediation: []string{prerequisiteRemediation(pre, req)},
		})
	}
	return violations, nil
}

func prerequisiteProblem(state *EvalState, req workspace.Requirement) string {
	f, ok := state.Snapshot[req.Category]
	switch {
	case !ok || f.State == workspace.StateAbsent:
		return "prerequisite missing"
	case f.State == workspace.StateInvalid:
		return "prerequisite invalid"
	default:
		return "not all items are validated"
	}
}

func prerequisiteRemediation(pre workspace.CategoryInfo, req workspace.Requirement) string {
	if pre.Register {
		return fmt.Sprintf("run `%s` until %s is all-validated", pre.Producer, pre.Name)
	}
	return fmt.Sprintf("%s to produce %s", pre.Producer, pre.Canonical)
}

// PlacementGate blocks artifacts written outside their canonical location.
type PlacementGate struct{}

// NewPlacementGate creates a new placement gate
func NewPlacementGate() *PlacementGate {
	return &PlacementGate{}
}

// Name returns the gate identifier
func (g *PlacementGate) Name() string {
	return "placement"
}

// Check validates the target location
func (g *PlacementGate) Check(ctx context.Context, state *EvalState) ([]Violation, error) {
	if !state.Classified || !state.Placement.Misplaced {
		return nil, nil
	}
	info := state.Info()
	return []Violation{{
		Gate:        g.Name(),
		Type:        ViolationMisplaced,
		Severity:    SeverityError,
		Category:    info.Name,
		Path:        state.Target,
		Description: fmt.Sprintf("%s looks like %s but is not at its canonical location %s", state.Target, info.Name, info.Canonical),
		Remediation: []string{fmt.Sprintf("write %s to %s instead of %s", info.Name, info.Canonical, state.Target)},
	}}, nil
}

// SchemaGate blocks JSON artifacts that do not conform to their schema.
type SchemaGate struct{}

// NewSchemaGate creates a new schema gate
func NewSchemaGate() *SchemaGate {
	return &SchemaGate{}
}

// Name returns the gate identifier
func (g *SchemaGate) Name() string {
	return "schema"
}

// Check validates the target document against its category schema
func (g *SchemaGate) Check(ctx context.Context, state *EvalState) ([]Violation, error) {
	if !state.Canonical() || state.Info().Schema == "" {
		return nil, nil
	}

	v := Violation{
		Gate:     g.Name(),
		Type:     ViolationSchema,
		Severity: SeverityError,
		Category: state.Info().Name,
		Path:     state.Target,
	}
	if state.ContentErr != nil {
		v.Description = fmt.Sprintf("cannot read %s: %v", state.Target, state.ContentErr)
		v.Remediation = []string{fmt.Sprintf("%s to produce %s", state.Info().Producer, state.Target)}
		return []Violation{v}, nil
	}

	err := state.checker.CheckCategory(state.Info(), state.Target, state.Content)
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, workspace.ErrInvalid) {
		return nil, err
	}

	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		v.Description = fmt.Sprintf("%s does not conform to %s (%d issues)", state.Target, ve.Definition, len(ve.Issues))
		for _, issue := range ve.Issues {
			v.Remediation = append(v.Remediation, fmt.Sprintf("fix %s: %s", state.Target, issue))
		}
	} else {
		v.Description = fmt.Sprintf("%s is not valid JSON", state.Target)
		v.Remediation = []string{fmt.Sprintf("rewrite %s as a JSON document: %v", state.Target, err)}
	}
	return []Violation{v}, nil
}

// RegisterIntegrityGate checks register invariants and forward-only status.
type RegisterIntegrityGate struct{}

// NewRegisterIntegrityGate creates a new register integrity gate
func NewRegisterIntegrityGate() *RegisterIntegrityGate {
	return &RegisterIntegrityGate{}
}

// Name returns the gate identifier
func (g *RegisterIntegrityGate) Name() string {
	return "register-integrity"
}

// Check validates item payloads, register membership, the allValidated
// rollup and regressions
func (g *RegisterIntegrityGate) Check(ctx context.Context, state *EvalState) ([]Violation, error) {
	if !state.Canonical() || !state.Info().Register || state.ContentErr != nil {
		return nil, nil
	}
	reg, err := state.Register()
	if err != nil {
		// surfaced by the schema gate
		return nil, nil
	}

	base := Violation{
		Gate:     g.Name(),
		Category: state.Info().Name,
		Path:     state.Target,
	}
	var violations []Violation

	if err := reg.Validate(); err != nil {
		v := base
		v.Type = ViolationInconsistent
		v.Severity = SeverityError
		v.Description = fmt.Sprintf("%s has invalid items", state.Target)
		for _, line := range strings.Split(err.Error(), "\n") {
			v.Remediation = append(v.Remediation, fmt.Sprintf("fix %s: %s", state.Target, line))
		}
		violations = append(violations, v)
	}

	if err := reg.Belongs(state.Info().Name); err != nil {
		v := base
		v.Type = ViolationInconsistent
		v.Severity = SeverityError
		v.Description = fmt.Sprintf("%s holds items of another register", state.Target)
		for _, line := range strings.Split(err.Error(), "\n") {
			v.Remediation = append(v.Remediation, fmt.Sprintf("fix %s: %s", state.Target, line))
		}
		violations = append(violations, v)
	}

	if err := reg.Consistent(); err != nil {
		v := base
		v.Type = ViolationInconsistent
		v.Severity = SeverityError
		v.Description = fmt.Sprintf("%s: %v", state.Target, err)
		v.Remediation = []string{fmt.Sprintf("re-run `%s` instead of editing allValidated by hand", state.Info().Producer)}
		violations = append(violations, v)
	}

	if state.Proposed {
		prev, err := register.Load(state.WS.Abs(state.Target))
		if err == nil {
			if ids := reg.Regressions(prev); len(ids) > 0 {
				v := base
				v.Type = ViolationRegression
				v.Severity = SeverityWarning
				v.Description = fmt.Sprintf("%d previously validated items regressed: %s", len(ids), strings.Join(ids, ", "))
				v.Remediation = []string{fmt.Sprintf("check why %s no longer validate", strings.Join(ids, ", "))}
				violations = append(violations, v)
			}
		}
	}
	return violations, nil
}

// Reference is a sub-resource flag and the field that must back it.
type Reference struct {
	Flag  string
	Field string
}

// DefaultReferences are the flags checked by the completeness gate.
var DefaultReferences = []Reference{
	{Flag: "hasImages", Field: "images"},
	{Flag: "hasImage", Field: "image"},
}

// CompletenessGate blocks capture documents that claim a sub-resource
// without referencing it.
type CompletenessGate struct {
	refs []Reference
}

// NewCompletenessGate creates a new completeness gate
func NewCompletenessGate() *CompletenessGate {
	return &CompletenessGate{refs: DefaultReferences}
}

// Name returns the gate identifier
func (g *CompletenessGate) Name() string {
	return "completeness"
}

// Check walks the target document for unbacked sub-resource flags
func (g *CompletenessGate) Check(ctx context.Context, state *EvalState) ([]Violation, error) {
	if !state.Canonical() || !isCapture(state.Info().Name) || state.ContentErr != nil {
		return nil, nil
	}
	var doc any
	if err := json.Unmarshal(state.Content, &doc); err != nil {
		// surfaced by the schema gate
		return nil, nil
	}

	missing := g.MissingReferences(doc)
	if len(missing) == 0 {
		return nil, nil
	}
	v := Violation{
		Gate:        g.Name(),
		Type:        ViolationMissingReference,
		Severity:    SeverityError,
		Category:    state.Info().Name,
		Path:        state.Target,
		Description: fmt.Sprintf("%s declares %d sub-resources without a reference", state.Target, len(missing)),
	}
	for _, m := range missing {
		v.Remediation = append(v.Remediation, fmt.Sprintf("add a reference at %s in %s", m, state.Target))
	}
	return []Violation{v}, nil
}

// MissingReferences returns the JSON paths of missing references in
// document order.
func (g *CompletenessGate) MissingReferences(doc any) []string {
	var out []string
	g.walk(doc, "", &out)
	return out
}

func (g *CompletenessGate) walk(node any, path string, out *[]string) {
	switch n := node.(type) {
	case map[string]any:
		for _, ref := range g.refs {
			if flag, ok := n[ref.Flag].(bool); ok && flag && empty(n[ref.Field]) {
				*out = append(*out, join(path, ref.Field))
			}
		}
		if media, ok := n["media"].(map[string]any); ok {
			if typ, ok := media["type"].(string); ok && typ != "" && typ != "none" && empty(media["src"]) {
				*out = append(*out, join(join(path, "media"), "src"))
			}
		}
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			g.walk(n[k], join(path, k), out)
		}
	case []any:
		for i, v := range n {
			g.walk(v, fmt.Sprintf("%s[%d]", path, i), out)
		}
	}
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func isCapture(c workspace.Category) bool {
	switch c {
	case workspace.SourceStructure, workspace.MigratedStructure,
		workspace.SourceBehavior, workspace.MigratedBehavior,
		workspace.SourceStyle, workspace.MigratedStyle:
		return true
	}
	return false
}

// ProofGate runs the critique proof verifier over style register writes.
type ProofGate struct{}

// NewProofGate creates a new proof gate
func NewProofGate() *ProofGate {
	return &ProofGate{}
}

// Name returns the gate identifier
func (g *ProofGate) Name() string {
	return "proof"
}

// Check validates evidence behind every validated style item
func (g *ProofGate) Check(ctx context.Context, state *EvalState) ([]Violation, error) {
	if !state.Canonical() || state.Info().Name != workspace.StyleRegister || state.ContentErr != nil {
		return nil, nil
	}
	reg, err := state.Register()
	if err != nil {
		return nil, nil
	}

	var violations []Violation
	for _, f := range proof.NewVerifier(state.WS).Verify(ctx, reg) {
		violations = append(violations, Violation{
			Gate:        g.Name(),
			Type:        ViolationUnproven,
			Severity:    SeverityCritical,
			Category:    workspace.StyleRegister,
			Path:        state.Target,
			Description: f.String(),
			Remediation: []string{proofRemediation(f)},
		})
	}
	return violations, nil
}

func proofRemediation(f proof.Finding) string {
	switch f.Problem {
	case proof.ProblemIterationCount:
		return fmt.Sprintf("re-run style-compare for %s with --iteration=<n> (n >= 1)", f.ItemID)
	case proof.ProblemMissingFile:
		if f.Path != "" {
			return fmt.Sprintf("create %s (%s of %s) or mark %s pending", f.Path, f.Field, f.ItemID, f.ItemID)
		}
		return fmt.Sprintf("re-run style-compare for %s with --output, --source-ref and --migrated-ref", f.ItemID)
	default:
		return fmt.Sprintf("re-run style-compare for %s with --output-register so evidence is recorded", f.ItemID)
	}
}
