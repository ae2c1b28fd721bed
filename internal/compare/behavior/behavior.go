// Package behavior compares two trees of interactive elements.
//
// Nodes are correlated slot by slot: first by normalized label, then by
// position among the nodes still unmatched. Each matched pair is checked on
// three facets (hover, click, styling) and every visited node becomes one
// register item with a path-like id such as trigger-0/item-2/tab-1.
package behavior

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// DefaultThreshold is the percentage of nodes that must validate.
const DefaultThreshold = 100

// Options tunes the comparison.
type Options struct {
	Threshold      int
	TextSimilarity float64
}

// DefaultOptions returns the defaults.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, TextSimilarity: DefaultTextSimilarity}
}

// Report is the comparison result.
type Report struct {
	Component string               `json:"component,omitempty"`
	Percent   int                  `json:"percent"`
	Threshold int                  `json:"threshold"`
	Passed    bool                 `json:"passed"`
	Total     int                  `json:"total"`
	Validated int                  `json:"validated"`
	Failed    int                  `json:"failed"`
	Facets    register.FacetCounts `json:"facets"`
	Failures  []string             `json:"failures"`
	Extras    []string             `json:"extras"`
	Items     []register.Item      `json:"items"`
}

type slot struct {
	name   string // json slot name, used in extras
	prefix string // id segment prefix
	kind   func(parent register.Kind) register.Kind
	nodes  func(n *Node) []Node
}

var childSlots = []slot{
	{"items", "item", itemKind, func(n *Node) []Node { return n.Items }},
	{"tabs", "tab", fixed(register.KindTab), func(n *Node) []Node { return n.Tabs }},
	{"featured", "featured", fixed(register.KindFeaturedArea), func(n *Node) []Node { return n.Featured }},
	{"specs", "spec", fixed(register.KindSpecBlock), func(n *Node) []Node { return n.Specs }},
}

func itemKind(parent register.Kind) register.Kind {
	if parent == register.KindTrigger {
		return register.KindPanelItem
	}
	return register.KindSubItem
}

func fixed(k register.Kind) func(register.Kind) register.Kind {
	return func(register.Kind) register.Kind { return k }
}

type comparer struct {
	opts   Options
	items  []register.Item
	extras []string
}

// Compare diffs source against migrated.
func Compare(source, migrated Tree, opts Options) Report {
	c := &comparer{opts: opts}
	c.slot("", "trigger", register.KindTrigger, "triggers", source.Triggers, migrated.Triggers)

	component := source.Component
	if component == "" {
		component = migrated.Component
	}
	r := Report{
		Component: component,
		Threshold: opts.Threshold,
		Total:     len(c.items),
		Failures:  []string{},
		Extras:    c.extras,
		Items:     c.items,
	}
	if r.Extras == nil {
		r.Extras = []string{}
	}
	if r.Items == nil {
		r.Items = []register.Item{}
	}

	for _, it := range c.items {
		if it.Status == register.StatusValidated {
			r.Validated++
		} else {
			r.Failed++
			r.Failures = append(r.Failures, fmt.Sprintf("%s (%s): %s", it.ID, it.Label, it.Remediation))
		}
		tally(&r.Facets.Hover, it.Behavior.Hover)
		tally(&r.Facets.Click, it.Behavior.Click)
		tally(&r.Facets.Styling, it.Behavior.Styling)
	}
	if r.Total > 0 {
		r.Percent = r.Validated * 100 / r.Total
		r.Passed = r.Validated*100 >= opts.Threshold*r.Total
	}
	return r
}

func tally(c *register.FacetCount, ok bool) {
	if ok {
		c.Matched++
	} else {
		c.Mismatched++
	}
}

// slot correlates one list of sibling nodes and recurses into matches.
func (c *comparer) slot(parentID, prefix string, kind register.Kind, name string, src, mig []Node) {
	pairs, extras := correlate(src, mig)

	for i := range src {
		id := fmt.Sprintf("%s-%d", prefix, i)
		if parentID != "" {
			id = parentID + "/" + id
		}
		var m *Node
		if j := pairs[i]; j >= 0 {
			m = &mig[j]
		}
		c.node(id, kind, &src[i], m)
	}

	for _, j := range extras {
		where := name
		if parentID != "" {
			where = parentID + "/" + name
		}
		c.extras = append(c.extras, fmt.Sprintf("%s: %q", where, mig[j].Label))
	}
}

func (c *comparer) node(id string, kind register.Kind, src, mig *Node) {
	it := register.Item{ID: id, Label: src.Label, Kind: kind, Behavior: &register.Facets{}}

	if mig == nil {
		it.Status = register.StatusFailed
		it.Remediation = "missing in migrated"
		c.items = append(c.items, it)
		for _, s := range childSlots {
			c.slot(id, s.prefix, s.kind(kind), s.name, s.nodes(src), nil)
		}
		return
	}

	var deltas []string
	it.Behavior.Hover, deltas = c.hover(src.Hover, mig.Hover, deltas)
	it.Behavior.Click, deltas = c.click(src.Click, mig.Click, deltas)
	it.Behavior.Styling, deltas = styling(src.effectiveStyling(), mig.effectiveStyling(), deltas)

	if len(deltas) == 0 {
		it.Status = register.StatusValidated
	} else {
		it.Status = register.StatusFailed
		it.Remediation = strings.Join(deltas, "; ")
	}
	c.items = append(c.items, it)

	for _, s := range childSlots {
		c.slot(id, s.prefix, s.kind(kind), s.name, s.nodes(src), s.nodes(mig))
	}
}

func (c *comparer) hover(a, b Hover, deltas []string) (bool, []string) {
	if !a.HasEffect && !b.HasEffect {
		return true, deltas
	}
	before := len(deltas)
	if a.HasEffect != b.HasEffect {
		deltas = append(deltas, fmt.Sprintf("hover: hasEffect %t → %t", a.HasEffect, b.HasEffect))
	}
	if a.AffectsOther != b.AffectsOther {
		deltas = append(deltas, fmt.Sprintf("hover: affectsOther %t → %t", a.AffectsOther, b.AffectsOther))
	}
	if !TextMatch(a.Description, b.Description, c.opts.TextSimilarity) {
		deltas = append(deltas, fmt.Sprintf("hover: description %q → %q", a.Description, b.Description))
	}
	return len(deltas) == before, deltas
}

func (c *comparer) click(a, b Click, deltas []string) (bool, []string) {
	before := len(deltas)
	if a.Navigates != b.Navigates {
		deltas = append(deltas, fmt.Sprintf("click: navigates %t → %t", a.Navigates, b.Navigates))
	} else if a.Navigates {
		if ta, tb := NormalizeTarget(a.Target), NormalizeTarget(b.Target); ta != tb {
			deltas = append(deltas, fmt.Sprintf("click: target %s → %s", ta, tb))
		}
	}
	if !TextMatch(a.Description, b.Description, c.opts.TextSimilarity) {
		deltas = append(deltas, fmt.Sprintf("click: description %q → %q", a.Description, b.Description))
	}
	return len(deltas) == before, deltas
}

func styling(a, b Styling, deltas []string) (bool, []string) {
	before := len(deltas)
	if ma, mb := media(a.Media), media(b.Media); ma != mb {
		deltas = append(deltas, fmt.Sprintf("styling: media %s → %s", ma, mb))
	}
	if !strings.EqualFold(strings.TrimSpace(a.ElementType), strings.TrimSpace(b.ElementType)) {
		deltas = append(deltas, fmt.Sprintf("styling: elementType %s → %s", a.ElementType, b.ElementType))
	}
	return len(deltas) == before, deltas
}

// effectiveStyling returns the node's styling, taking the element type from
// the node itself when the styling block leaves it empty.
func (n *Node) effectiveStyling() Styling {
	st := n.Styling
	if strings.TrimSpace(st.ElementType) == "" {
		st.ElementType = n.ElementType
	}
	return st
}

func media(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "" {
		return "none"
	}
	return m
}

// correlate pairs each source node with a migrated index (-1 when unmatched)
// and returns the unmatched migrated indexes.
func correlate(src, mig []Node) ([]int, []int) {
	pairs := make([]int, len(src))
	used := make([]bool, len(mig))

	for i := range src {
		pairs[i] = -1
		label := NormalizeLabel(src[i].Label)
		if label == "" {
			continue
		}
		for j := range mig {
			if !used[j] && NormalizeLabel(mig[j].Label) == label {
				pairs[i], used[j] = j, true
				break
			}
		}
	}

	var free []int
	for j := range mig {
		if !used[j] {
			free = append(free, j)
		}
	}
	k := 0
	for i := range src {
		if pairs[i] >= 0 || k >= len(free) {
			continue
		}
		pairs[i] = free[k]
		used[free[k]] = true
		k++
	}

	var extras []int
	for j := range mig {
		if !used[j] {
			extras = append(extras, j)
		}
	}
	return pairs, extras
}

// Register projects the report onto a behavior register.
func (r Report) Register(componentID string) *register.Register {
	if componentID == "" {
		componentID = r.Component
	}
	reg := register.New(workspace.BehaviorRegister, componentID)
	reg.Items = append(reg.Items, r.Items...)
	if len(r.Extras) > 0 {
		reg.Summary.Extras = append([]string(nil), r.Extras...)
	}
	reg.Recompute()
	return reg
}
