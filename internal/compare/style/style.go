// Package style compares two computed-style snapshots of one UI component.
//
// Each property in either snapshot is scored for dissimilarity in [0,1]:
// colors by RGBA distance, lengths by pixel difference against a
// per-category ceiling, everything else as keywords. The overall similarity
// is the category-weighted mean. Differences above the noise floor are
// reported; those above the fix floor become prioritized fixes.
package style

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/fyrsmithlabs/parity/internal/config"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// DefaultThreshold is the acceptance threshold in percent.
const DefaultThreshold = 95

// Snapshot is the computed style of one component.
type Snapshot struct {
	Component  string            `json:"component,omitempty"`
	Properties map[string]string `json:"properties"`
}

// Parse decodes a snapshot in wrapped or bare flat-map form.
func Parse(path string, data []byte) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := workspace.DecodeJSON(path, data, &raw); err != nil {
		return Snapshot{}, err
	}

	if props, ok := raw["properties"]; ok && len(props) > 0 && props[0] == '{' {
		var s Snapshot
		if err := workspace.DecodeJSON(path, data, &s); err != nil {
			return Snapshot{}, err
		}
		if s.Properties == nil {
			s.Properties = map[string]string{}
		}
		return s, nil
	}

	flat := make(map[string]string, len(raw))
	if err := workspace.DecodeJSON(path, data, &flat); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Properties: flat}, nil
}

// Load reads a snapshot from disk.
func Load(path string) (Snapshot, error) {
	data, err := workspace.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	return Parse(path, data)
}

// Tuning holds the empirically chosen cut points.
type Tuning struct {
	ColorBuckets  []float64
	LengthBuckets []float64
	NoiseFloor    float64
	FixFloor      float64
}

// TuningFrom adapts the configuration section.
func TuningFrom(c config.TuningConfig) Tuning {
	return Tuning{
		ColorBuckets:  c.ColorBuckets,
		LengthBuckets: c.LengthBuckets,
		NoiseFloor:    c.NoiseFloor,
		FixFloor:      c.FixFloor,
	}
}

// DefaultTuning returns the configuration defaults.
func DefaultTuning() Tuning {
	return TuningFrom(config.Defaults().Tuning)
}

// Priority ranks a fix.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

// PriorityFor assigns the fix priority for a combined score.
func PriorityFor(cat Category, combined float64) Priority {
	switch {
	case combined >= 0.6 || cat == Layout || cat == Sizing:
		return PriorityHigh
	case combined >= 0.3:
		return PriorityMedium
	}
	return PriorityLow
}

// Grade buckets an overall similarity.
func Grade(similarity float64) string {
	switch {
	case similarity >= 95:
		return "Excellent"
	case similarity >= 85:
		return "Good"
	case similarity >= 70:
		return "Fair"
	}
	return "Poor"
}

// Difference is one property that differs above the noise floor.
type Difference struct {
	Property      string   `json:"property"`
	Category      Category `json:"category"`
	Source        string   `json:"source"`
	Migrated      string   `json:"migrated"`
	Dissimilarity float64  `json:"dissimilarity"`
	Noticeability float64  `json:"noticeability"`
	Score         float64  `json:"score"`
}

// Fix is a suggested change to the migrated styles.
type Fix struct {
	Property   string   `json:"property"`
	Category   Category `json:"category"`
	Priority   Priority `json:"priority"`
	Current    string   `json:"current"`
	Expected   string   `json:"expected"`
	Score      float64  `json:"score"`
	Suggestion string   `json:"suggestion"`
}

// CategoryScore is the similarity within one category.
type CategoryScore struct {
	Properties int     `json:"properties"`
	Similarity float64 `json:"similarity"`
}

// Report is the comparison result.
type Report struct {
	Component   string                     `json:"component,omitempty"`
	Similarity  float64                    `json:"similarity"`
	Grade       string                     `json:"grade"`
	Threshold   int                        `json:"threshold"`
	Passed      bool                       `json:"passed"`
	Compared    int                        `json:"compared"`
	Categories  map[Category]CategoryScore `json:"categories"`
	Differences []Difference               `json:"differences"`
	Fixes       []Fix                      `json:"fixes"`
}

// Compare diffs source against migrated.
func Compare(source, migrated Snapshot, threshold int, t Tuning) Report {
	component := source.Component
	if component == "" {
		component = migrated.Component
	}

	r := Report{
		Component:   component,
		Threshold:   threshold,
		Categories:  map[Category]CategoryScore{},
		Differences: []Difference{},
		Fixes:       []Fix{},
	}

	type acc struct {
		weighted, weight float64
		n                int
	}
	perCategory := map[Category]*acc{}
	var total acc

	for _, prop := range union(source.Properties, migrated.Properties) {
		src, mig := source.Properties[prop], migrated.Properties[prop]
		cat := Categorize(prop)
		w := Weight[cat]
		s := compareValues(prop, cat, src, mig, t)

		total.weighted += s.dissimilarity * w
		total.weight += w
		a := perCategory[cat]
		if a == nil {
			a = &acc{}
			perCategory[cat] = a
		}
		a.weighted += s.dissimilarity * w
		a.weight += w
		a.n++
		r.Compared++

		if s.dissimilarity <= t.NoiseFloor {
			continue
		}
		combined := (s.dissimilarity + s.noticeability) / 2
		r.Differences = append(r.Differences, Difference{
			Property: prop, Category: cat, Source: src, Migrated: mig,
			Dissimilarity: round(s.dissimilarity, 4),
			Noticeability: s.noticeability,
			Score:         round(combined, 4),
		})
		if s.dissimilarity > t.FixFloor {
			r.Fixes = append(r.Fixes, Fix{
				Property: prop, Category: cat,
				Priority:   PriorityFor(cat, combined),
				Current:    mig,
				Expected:   src,
				Score:      round(combined, 4),
				Suggestion: suggest(prop, src, mig),
			})
		}
	}

	r.Similarity = similarity(total.weighted, total.weight)
	for cat, a := range perCategory {
		r.Categories[cat] = CategoryScore{Properties: a.n, Similarity: similarity(a.weighted, a.weight)}
	}
	r.Grade = Grade(r.Similarity)
	r.Passed = r.Similarity >= float64(threshold)

	sort.SliceStable(r.Differences, func(i, j int) bool {
		if r.Differences[i].Score != r.Differences[j].Score {
			return r.Differences[i].Score > r.Differences[j].Score
		}
		return r.Differences[i].Property < r.Differences[j].Property
	})
	sort.SliceStable(r.Fixes, func(i, j int) bool {
		a, b := r.Fixes[i], r.Fixes[j]
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() < b.Priority.rank()
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Property < b.Property
	})
	return r
}

func similarity(weighted, weight float64) float64 {
	if weight == 0 {
		return 100
	}
	return round((1-weighted/weight)*100, 2)
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func union(a, b map[string]string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, m := range []map[string]string{a, b} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

func suggest(prop, src, mig string) string {
	switch {
	case mig == "":
		return fmt.Sprintf("add %s: %s", prop, src)
	case src == "":
		return fmt.Sprintf("remove %s (source has no value)", prop)
	}
	return fmt.Sprintf("change %s from %s to %s", prop, mig, src)
}
