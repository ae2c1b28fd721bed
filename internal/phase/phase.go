// Package phase infers how far a migration workflow has progressed from the
// artifacts present in the workspace.
//
// Detection is a pure function over a Snapshot. The states form a fixed
// list; each state names the (artifact, required state) pairs that must
// hold. States are tried latest first and the first satisfied one wins.
package phase

import (
	"time"

	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// State is a named workflow phase.
type State string

const (
	Init               State = "init"
	Captured           State = "captured"
	BehaviorValidated  State = "behavior-validated"
	StructureValidated State = "structure-validated"
	StyleValidated     State = "style-validated"
	Complete           State = "complete"
)

// Transition is one FSM state together with its entry requirements.
type Transition struct {
	State    State                   `json:"state"`
	Requires []workspace.Requirement `json:"requires"`
}

var transitions = []Transition{
	{State: Complete, Requires: []workspace.Requirement{
		{Category: workspace.Rollup, Need: workspace.NeedValid},
		{Category: workspace.BehaviorRegister, Need: workspace.NeedAllValidated},
		{Category: workspace.StructureRegister, Need: workspace.NeedAllValidated},
		{Category: workspace.StyleRegister, Need: workspace.NeedAllValidated},
	}},
	{State: StyleValidated, Requires: []workspace.Requirement{
		{Category: workspace.StyleRegister, Need: workspace.NeedAllValidated},
	}},
	{State: StructureValidated, Requires: []workspace.Requirement{
		{Category: workspace.StructureRegister, Need: workspace.NeedAllValidated},
	}},
	{State: BehaviorValidated, Requires: []workspace.Requirement{
		{Category: workspace.BehaviorRegister, Need: workspace.NeedAllValidated},
	}},
	{State: Captured, Requires: []workspace.Requirement{
		{Category: workspace.SourceStructure, Need: workspace.NeedValid},
		{Category: workspace.SourceBehavior, Need: workspace.NeedValid},
	}},
	{State: Init},
}

// States returns the transitions latest first, the order Detect tries them.
func States() []Transition {
	out := make([]Transition, len(transitions))
	for i, t := range transitions {
		out[i] = Transition{State: t.State, Requires: append([]workspace.Requirement(nil), t.Requires...)}
	}
	return out
}

// Rank orders states along the workflow; init is 0.
func Rank(s State) int {
	for i, t := range transitions {
		if t.State == s {
			return len(transitions) - 1 - i
		}
	}
	return -1
}

// Fact is what the detector knows about one artifact category.
type Fact struct {
	State        workspace.State `json:"state"`
	AllValidated bool            `json:"allValidated,omitempty"`
}

// Snapshot maps categories to facts. Missing categories are absent.
type Snapshot map[workspace.Category]Fact

// Satisfies reports whether the snapshot meets r.
func (s Snapshot) Satisfies(r workspace.Requirement) bool {
	f, ok := s[r.Category]
	if !ok || f.State != workspace.StateValid {
		return false
	}
	if r.Need == workspace.NeedAllValidated {
		return f.AllValidated
	}
	return true
}

// Unmet lists the requirements of reqs that s does not meet, in order.
func (s Snapshot) Unmet(reqs []workspace.Requirement) []workspace.Requirement {
	var out []workspace.Requirement
	for _, r := range reqs {
		if !s.Satisfies(r) {
			out = append(out, r)
		}
	}
	return out
}

// Milestone is one entry of the per-state checklist.
type Milestone struct {
	State   State    `json:"state"`
	Reached bool     `json:"reached"`
	Unmet   []string `json:"unmet,omitempty"`
}

// Result is the detected phase and the checklist, earliest state first.
type Result struct {
	Phase      State       `json:"phase"`
	Milestones []Milestone `json:"milestones"`
}

// Detect returns the furthest state whose requirements all hold.
func Detect(s Snapshot) Result {
	res := Result{Phase: Init}
	found := false
	milestones := make([]Milestone, len(transitions))
	for i, t := range transitions {
		unmet := s.Unmet(t.Requires)
		m := Milestone{State: t.State, Reached: len(unmet) == 0}
		for _, r := range unmet {
			m.Unmet = append(m.Unmet, r.String())
		}
		if m.Reached && !found {
			res.Phase = t.State
			found = true
		}
		milestones[len(transitions)-1-i] = m
	}
	res.Milestones = milestones
	return res
}

// Reached reports whether the detected phase is at or past s.
func (r Result) Reached(s State) bool {
	return Rank(r.Phase) >= Rank(s)
}

// Document is the on-disk milestones artifact.
type Document struct {
	Session     string      `json:"session,omitempty"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Phase       State       `json:"phase"`
	Milestones  []Milestone `json:"milestones"`
}

// Document stamps r for writing to the milestones artifact.
func (r Result) Document(session string, now time.Time) Document {
	return Document{
		Session:     session,
		GeneratedAt: now.UTC(),
		Phase:       r.Phase,
		Milestones:  r.Milestones,
	}
}
