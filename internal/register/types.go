// Package register holds the validation registers written by the
// comparators and read by the gate.
//
// A register is an ordered list of items plus an allValidated rollup. Items
// are a tagged variant: the kind selects which detail payload is present.
package register

import (
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// Status is an item's validation status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusFailed    Status = "failed"
)

// Kind tags an item with the sub-component it describes.
type Kind string

// Behavior kinds.
const (
	KindTrigger      Kind = "trigger"
	KindPanelItem    Kind = "panel-item"
	KindSubItem      Kind = "sub-item"
	KindTab          Kind = "tab"
	KindFeaturedArea Kind = "featured-area"
	KindSpecBlock    Kind = "spec-block"
)

// Structure kinds.
const (
	KindRowCount            Kind = "row-count"
	KindRow                 Kind = "row"
	KindMegamenu            Kind = "megamenu"
	KindMegamenuColumnCount Kind = "megamenu-column-count"
	KindMegamenuColumn      Kind = "megamenu-column"
)

// KindStyleTarget is the only style kind.
const KindStyleTarget Kind = "style-target"

// Family groups kinds by the payload they carry.
type Family string

const (
	FamilyBehavior  Family = "behavior"
	FamilyStructure Family = "structure"
	FamilyStyle     Family = "style"
)

var families = map[Kind]Family{
	KindTrigger:             FamilyBehavior,
	KindPanelItem:           FamilyBehavior,
	KindSubItem:             FamilyBehavior,
	KindTab:                 FamilyBehavior,
	KindFeaturedArea:        FamilyBehavior,
	KindSpecBlock:           FamilyBehavior,
	KindRowCount:            FamilyStructure,
	KindRow:                 FamilyStructure,
	KindMegamenu:            FamilyStructure,
	KindMegamenuColumnCount: FamilyStructure,
	KindMegamenuColumn:      FamilyStructure,
	KindStyleTarget:         FamilyStyle,
}

// FamilyOf returns the payload family of a kind.
func FamilyOf(k Kind) (Family, bool) {
	f, ok := families[k]
	return f, ok
}

var registerFamilies = map[workspace.Category]Family{
	workspace.BehaviorRegister:  FamilyBehavior,
	workspace.StructureRegister: FamilyStructure,
	workspace.StyleRegister:     FamilyStyle,
}

// FamilyFor returns the item family a register category holds.
func FamilyFor(c workspace.Category) (Family, bool) {
	f, ok := registerFamilies[c]
	return f, ok
}

// Facets records which behavior facets matched.
type Facets struct {
	Hover   bool `json:"hover"`
	Click   bool `json:"click"`
	Styling bool `json:"styling"`
}

// StructureDetail records one positional structure check.
type StructureDetail struct {
	Match    bool `json:"match"`
	Source   any  `json:"source"`
	Migrated any  `json:"migrated"`
}

// StyleDetail records the style comparison result for one target.
type StyleDetail struct {
	Similarity float64 `json:"similarity"`
	Threshold  int     `json:"threshold"`
	Grade      string  `json:"grade"`
}

// Evidence is the on-disk proof behind a validated style item.
type Evidence struct {
	ReportPath      string `json:"reportPath"`
	SourceRefPath   string `json:"sourceRefPath"`
	MigratedRefPath string `json:"migratedRefPath"`
	IterationCount  int    `json:"iterationCount"`
}

// Item is one sub-component under comparison.
type Item struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Kind        Kind   `json:"kind"`
	Status      Status `json:"status"`
	Remediation string `json:"remediation,omitempty"`

	Behavior  *Facets          `json:"behavior,omitempty"`
	Structure *StructureDetail `json:"structure,omitempty"`
	Style     *StyleDetail     `json:"style,omitempty"`
	Evidence  *Evidence        `json:"evidence,omitempty"`
}

// FacetCount tallies one behavior facet across items.
type FacetCount struct {
	Matched    int `json:"matched"`
	Mismatched int `json:"mismatched"`
}

// FacetCounts holds per-facet tallies for behavior registers.
type FacetCounts struct {
	Hover   FacetCount `json:"hover"`
	Click   FacetCount `json:"click"`
	Styling FacetCount `json:"styling"`
}

// Summary holds item counts.
type Summary struct {
	Total     int          `json:"total"`
	Validated int          `json:"validated"`
	Failed    int          `json:"failed"`
	Pending   int          `json:"pending"`
	Facets    *FacetCounts `json:"facets,omitempty"`
	Extras    []string     `json:"extras,omitempty"`
}

// Register is an ordered list of items with an allValidated rollup.
type Register struct {
	Category     workspace.Category `json:"category"`
	ComponentID  string             `json:"componentId,omitempty"`
	Items        []Item             `json:"items"`
	AllValidated bool               `json:"allValidated"`
	Summary      Summary            `json:"summary"`
}
