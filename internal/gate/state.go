package gate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/config"
	"github.com/fyrsmithlabs/parity/internal/phase"
	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/schema"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// EvalState is everything a gate may look at. It is built fresh for every
// evaluation and discarded afterwards.
type EvalState struct {
	WS     *workspace.Context
	Config *config.Config
	Event  Event

	// Target is the root-relative slash path of a write, empty otherwise.
	Target string

	// Placement is valid when Classified is true.
	Placement  workspace.Placement
	Classified bool

	// Content is the target document; ContentErr is set when it could not
	// be obtained.
	Content    []byte
	ContentErr error

	// Proposed is true when Content came with the event rather than from disk.
	Proposed bool

	Snapshot  phase.Snapshot
	Artifacts []workspace.Artifact
	Phase     phase.Result

	checker *schema.Checker
}

// Info is shorthand for the target category.
func (s *EvalState) Info() workspace.CategoryInfo {
	return s.Placement.Info
}

// Canonical reports whether the target is a known artifact at its
// canonical location.
func (s *EvalState) Canonical() bool {
	return s.Classified && !s.Placement.Misplaced
}

// Register decodes the target content as a register.
func (s *EvalState) Register() (*register.Register, error) {
	if s.ContentErr != nil {
		return nil, s.ContentErr
	}
	return register.Parse(s.Target, s.Content)
}

// Scan reads every artifact under the workspace and reduces each category
// to a single fact. Multi-file categories are valid only when every file is.
func Scan(ctx context.Context, ws *workspace.Context, checker *schema.Checker) (phase.Snapshot, []workspace.Artifact) {
	snap := phase.Snapshot{}
	var artifacts []workspace.Artifact

	for _, info := range workspace.Categories() {
		files, err := ws.Files(info.Name)
		if err != nil {
			ws.Log.Warn(ctx, "scan category failed",
				zap.String("category", string(info.Name)), zap.Error(err))
			artifacts = append(artifacts, workspace.Artifact{
				Path: info.Canonical, Category: info.Name, State: workspace.StateInvalid, Detail: err.Error(),
			})
			snap[info.Name] = phase.Fact{State: workspace.StateInvalid}
			continue
		}
		if len(files) == 0 {
			snap[info.Name] = phase.Fact{State: workspace.StateAbsent}
			continue
		}

		fact := phase.Fact{State: workspace.StateValid, AllValidated: info.Register}
		for _, rel := range files {
			a, complete := inspect(ws, checker, info, rel)
			artifacts = append(artifacts, a)
			if a.State != workspace.StateValid {
				fact.State = workspace.StateInvalid
			}
			if !complete {
				fact.AllValidated = false
			}
		}
		if fact.State != workspace.StateValid {
			fact.AllValidated = false
		}
		snap[info.Name] = fact
	}
	return snap, artifacts
}

// inspect reads one artifact. The boolean reports a complete register.
func inspect(ws *workspace.Context, checker *schema.Checker, info workspace.CategoryInfo, rel string) (workspace.Artifact, bool) {
	a := workspace.Artifact{Path: rel, Category: info.Name, State: workspace.StateValid}
	path := ws.Abs(rel)

	if info.Schema == "" {
		if !workspace.RegularFile(path) {
			a.State = workspace.StateInvalid
			a.Detail = "not a regular file"
		}
		return a, false
	}

	data, err := workspace.ReadFile(path)
	if err == nil {
		err = checker.CheckCategory(info, rel, data)
	}
	if err != nil {
		a.State = workspace.StateOf(err)
		a.Detail = err.Error()
		return a, false
	}
	if !info.Register {
		return a, false
	}

	reg, err := register.Parse(rel, data)
	if err != nil {
		a.State = workspace.StateInvalid
		a.Detail = err.Error()
		return a, false
	}
	if err := errors.Join(reg.Validate(), reg.Belongs(info.Name), reg.Consistent()); err != nil {
		a.State = workspace.StateInvalid
		a.Detail = err.Error()
		return a, false
	}
	return a, reg.Complete()
}

// newState builds the evaluation state for ev.
func newState(ctx context.Context, ws *workspace.Context, cfg *config.Config, checker *schema.Checker, ev Event) *EvalState {
	st := &EvalState{WS: ws, Config: cfg, Event: ev, checker: checker}
	st.Snapshot, st.Artifacts = Scan(ctx, ws, checker)
	st.Phase = phase.Detect(st.Snapshot)

	if ev.Type != EventWrite || ev.TargetPath == "" {
		return st
	}
	st.Target = ws.Rel(ws.Abs(ev.TargetPath))
	if workspace.Outside(st.Target) {
		return st
	}
	st.Placement, st.Classified = workspace.Classify(st.Target)

	if ev.Content != nil {
		st.Content = ev.Content
		st.Proposed = true
	} else {
		st.Content, st.ContentErr = workspace.ReadFile(ws.Abs(st.Target))
	}
	return st
}

// forTarget clones s for a different on-disk target.
func (s *EvalState) forTarget(rel string) *EvalState {
	st := &EvalState{
		WS: s.WS, Config: s.Config, checker: s.checker,
		Event:    Event{Type: EventWrite, TargetPath: rel},
		Snapshot: s.Snapshot, Artifacts: s.Artifacts, Phase: s.Phase,
		Target: rel,
	}
	st.Placement, st.Classified = workspace.Classify(rel)
	st.Content, st.ContentErr = workspace.ReadFile(s.WS.Abs(rel))
	return st
}

func (s *EvalState) String() string {
	return fmt.Sprintf("%s %s (phase %s)", s.Event.Type, s.Target, s.Phase.Phase)
}
