// Package structure compares two structural summaries of a page component.
//
// Both summaries are flattened into positional leaf checks: the row count,
// each row's image flag, megamenu presence and, when either side has a
// megamenu, its column count and each column's image flag. Similarity is
// the rounded percentage of matching checks.
package structure

import (
	"fmt"
	"math"

	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// DefaultThreshold is the acceptance threshold in percent.
const DefaultThreshold = 95

// Block is a row or megamenu column. Only the image flag is compared.
type Block struct {
	HasImages bool `json:"hasImages"`
}

// Megamenu is the nested menu of a component.
type Megamenu struct {
	Columns []Block `json:"columns"`
}

// Summary is the structural summary of one side.
type Summary struct {
	Rows     []Block   `json:"rows"`
	Megamenu *Megamenu `json:"megamenu,omitempty"`
}

// Check is one positional leaf comparison.
type Check struct {
	ID       string        `json:"id"`
	Kind     register.Kind `json:"kind"`
	Label    string        `json:"label"`
	Source   any           `json:"source"`
	Migrated any           `json:"migrated"`
	Match    bool          `json:"match"`
}

// Report is the comparison result.
type Report struct {
	Component  string   `json:"component,omitempty"`
	Similarity int      `json:"similarity"`
	Threshold  int      `json:"threshold"`
	Passed     bool     `json:"passed"`
	Matched    int      `json:"matched"`
	Total      int      `json:"total"`
	Mismatches []string `json:"mismatches"`
	Checks     []Check  `json:"checks"`
}

// Compare diffs source against migrated.
func Compare(source, migrated Summary, threshold int) Report {
	var checks []Check
	add := func(id string, kind register.Kind, label string, src, mig any) {
		checks = append(checks, Check{
			ID: id, Kind: kind, Label: label,
			Source: src, Migrated: mig,
			Match: src != nil && mig != nil && src == mig,
		})
	}

	add("row-count", register.KindRowCount, "row count", len(source.Rows), len(migrated.Rows))
	for i := 0; i < max(len(source.Rows), len(migrated.Rows)); i++ {
		add(fmt.Sprintf("row-%d", i), register.KindRow, fmt.Sprintf("row %d has images", i),
			flagAt(source.Rows, i), flagAt(migrated.Rows, i))
	}

	add("megamenu", register.KindMegamenu, "megamenu present", source.Megamenu != nil, migrated.Megamenu != nil)
	if source.Megamenu != nil || migrated.Megamenu != nil {
		srcCols, migCols := columns(source.Megamenu), columns(migrated.Megamenu)
		add("megamenu-column-count", register.KindMegamenuColumnCount, "megamenu column count", len(srcCols), len(migCols))
		for i := 0; i < max(len(srcCols), len(migCols)); i++ {
			add(fmt.Sprintf("megamenu-column-%d", i), register.KindMegamenuColumn,
				fmt.Sprintf("megamenu column %d has images", i), flagAt(srcCols, i), flagAt(migCols, i))
		}
	}

	r := Report{Threshold: threshold, Total: len(checks), Checks: checks, Mismatches: []string{}}
	for _, c := range checks {
		if c.Match {
			r.Matched++
			continue
		}
		r.Mismatches = append(r.Mismatches, describe(c))
	}
	r.Similarity = int(math.Round(float64(r.Matched) / float64(r.Total) * 100))
	r.Passed = r.Similarity >= threshold
	return r
}

func columns(m *Megamenu) []Block {
	if m == nil {
		return nil
	}
	return m.Columns
}

// flagAt returns nil when the side has no block at i.
func flagAt(blocks []Block, i int) any {
	if i >= len(blocks) {
		return nil
	}
	return blocks[i].HasImages
}

func describe(c Check) string {
	switch {
	case c.Source == nil:
		return fmt.Sprintf("%s: missing in source (migrated=%v)", c.Label, c.Migrated)
	case c.Migrated == nil:
		return fmt.Sprintf("%s: missing in migrated (source=%v)", c.Label, c.Source)
	default:
		return fmt.Sprintf("%s: source=%v migrated=%v", c.Label, c.Source, c.Migrated)
	}
}

// Register projects the report onto a structure register, one item per check.
func (r Report) Register(componentID string) *register.Register {
	reg := register.New(workspace.StructureRegister, componentID)
	for _, c := range r.Checks {
		it := register.Item{
			ID:     c.ID,
			Label:  c.Label,
			Kind:   c.Kind,
			Status: register.StatusValidated,
			Structure: &register.StructureDetail{
				Match: c.Match, Source: c.Source, Migrated: c.Migrated,
			},
		}
		if !c.Match {
			it.Status = register.StatusFailed
			it.Remediation = describe(c)
		}
		reg.Items = append(reg.Items, it)
	}
	reg.Recompute()
	return reg
}

// Parse decodes a structural summary.
func Parse(path string, data []byte) (Summary, error) {
	var s Summary
	if err := workspace.DecodeJSON(path, data, &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// Load reads a structural summary from disk.
func Load(path string) (Summary, error) {
	data, err := workspace.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	return Parse(path, data)
}
