package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Category names an artifact kind.
type Category string

const (
	SourceStructure   Category = "source-structure"
	MigratedStructure Category = "migrated-structure"
	SourceBehavior    Category = "source-behavior"
	MigratedBehavior  Category = "migrated-behavior"
	SourceStyle       Category = "source-style"
	MigratedStyle     Category = "migrated-style"
	BehaviorRegister  Category = "behavior-register"
	StructureRegister Category = "structure-register"
	StyleRegister     Category = "style-register"
	CritiqueReport    Category = "critique-report"
	CritiqueImage     Category = "critique-image"
	Rollup            Category = "rollup"
	Milestones        Category = "milestones"
	IntegrationCode   Category = "integration-code"
)

// Need is the state a prerequisite artifact must be in.
type Need string

const (
	// NeedValid requires the artifact to be present and valid.
	NeedValid Need = "valid"

	// NeedAllValidated requires a valid register whose items are all validated.
	NeedAllValidated Need = "all-validated"
)

// Requirement pairs an artifact category with the state it must reach.
type Requirement struct {
	Category Category `json:"category"`
	Need     Need     `json:"need"`
}

func (r Requirement) String() string {
	return fmt.Sprintf("%s %s", r.Category, r.Need)
}

// CategoryInfo describes one artifact category.
type CategoryInfo struct {
	Name Category

	// Canonical is the doublestar glob of allowed locations.
	Canonical string

	// Recognition matches the category anywhere, so misplaced writes can
	// be told apart from unrelated files.
	Recognition string

	// Schema is the CUE definition artifacts must conform to; empty means
	// no schema (binary or source files).
	Schema string

	// Register marks item registers.
	Register bool

	// Stage orders categories along the workflow. Lower runs earlier.
	Stage int

	Prerequisites []Requirement

	// Producer tells the operator how to create the artifact.
	Producer string
}

// Multi reports whether the canonical glob names more than one file.
func (c CategoryInfo) Multi() bool {
	return c.Canonical != doublestarLiteral(c.Canonical)
}

func doublestarLiteral(p string) string {
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '*', '?', '[', '{':
			return ""
		}
	}
	return p
}

var catalog = []CategoryInfo{
	{
		Name: SourceStructure, Canonical: "capture/source/structure.json",
		Recognition: "**/source/structure.json", Schema: "#StructureSummary", Stage: 1,
		Producer: "capture the source page structure",
	},
	{
		Name: SourceBehavior, Canonical: "capture/source/behavior.json",
		Recognition: "**/source/behavior.json", Schema: "#BehaviorTree", Stage: 1,
		Producer: "capture the source page behavior",
	},
	{
		Name: SourceStyle, Canonical: "capture/source/styles/*.json",
		Recognition: "**/source/styles/*.json", Schema: "#StyleSnapshot", Stage: 1,
		Producer: "capture the source computed styles",
	},
	{
		Name: MigratedBehavior, Canonical: "capture/migrated/behavior.json",
		Recognition: "**/migrated/behavior.json", Schema: "#BehaviorTree", Stage: 2,
		Prerequisites: []Requirement{{SourceBehavior, NeedValid}},
		Producer:      "capture the migrated page behavior",
	},
	{
		Name: BehaviorRegister, Canonical: "registers/behavior-register.json",
		Recognition: "**/behavior-register.json", Schema: "#Register", Register: true, Stage: 2,
		Prerequisites: []Requirement{{SourceBehavior, NeedValid}, {MigratedBehavior, NeedValid}},
		Producer: "behavior-compare capture/source/behavior.json capture/migrated/behavior.json " +
			"--output-register=registers/behavior-register.json",
	},
	{
		Name: MigratedStructure, Canonical: "capture/migrated/structure.json",
		Recognition: "**/migrated/structure.json", Schema: "#StructureSummary", Stage: 3,
		Prerequisites: []Requirement{{SourceStructure, NeedValid}},
		Producer:      "capture the migrated page structure",
	},
	{
		Name: StructureRegister, Canonical: "registers/structure-register.json",
		Recognition: "**/structure-register.json", Schema: "#Register", Register: true, Stage: 3,
		Prerequisites: []Requirement{
			{BehaviorRegister, NeedAllValidated},
			{SourceStructure, NeedValid},
			{MigratedStructure, NeedValid},
		},
		Producer: "structure-compare capture/source/structure.json capture/migrated/structure.json " +
			"--output-register=registers/structure-register.json",
	},
	{
		Name: MigratedStyle, Canonical: "capture/migrated/styles/*.json",
		Recognition: "**/migrated/styles/*.json", Schema: "#StyleSnapshot", Stage: 4,
		Prerequisites: []Requirement{{SourceStyle, NeedValid}},
		Producer:      "capture the migrated computed styles",
	},
	{
		Name: CritiqueReport, Canonical: "critique/*/report.json",
		Recognition: "**/critique/**/report.json", Schema: "#StyleReport", Stage: 4,
		Prerequisites: []Requirement{{StructureRegister, NeedAllValidated}},
		Producer:      "style-compare <source> <migrated> --output=critique/<component>/report.json",
	},
	{
		Name: CritiqueImage, Canonical: "critique/*/*.png",
		Recognition: "**/critique/**/*.png", Stage: 4,
		Producer: "capture the critique reference screenshots",
	},
	{
		Name: StyleRegister, Canonical: "registers/style-register.json",
		Recognition: "**/style-register.json", Schema: "#Register", Register: true, Stage: 4,
		Prerequisites: []Requirement{{StructureRegister, NeedAllValidated}},
		Producer: "style-compare <source> <migrated> --output-register=registers/style-register.json " +
			"--source-ref=<png> --migrated-ref=<png> --iteration=<n>",
	},
	{
		Name: IntegrationCode, Canonical: "blocks/**/*.{js,css}",
		Recognition: "**/blocks/**/*.{js,css}", Stage: 4,
		Producer: "the generation subsystem",
	},
	{
		Name: Rollup, Canonical: "registers/rollup.json",
		Recognition: "**/rollup.json", Schema: "#Rollup", Stage: 5,
		Prerequisites: []Requirement{
			{BehaviorRegister, NeedAllValidated},
			{StructureRegister, NeedAllValidated},
			{StyleRegister, NeedAllValidated},
		},
		Producer: "run `gatekeeper rollup`",
	},
	{
		Name: Milestones, Canonical: "milestones.json",
		Recognition: "**/milestones.json", Schema: "#Milestones", Stage: 5,
		Producer: "run `gatekeeper rollup`",
	},
}

var byName = func() map[Category]CategoryInfo {
	m := make(map[Category]CategoryInfo, len(catalog))
	for _, c := range catalog {
		m[c.Name] = c
	}
	return m
}()

// Categories returns the catalog ordered by stage, then declaration order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(catalog))
	copy(out, catalog)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}

// Registers returns the register categories in workflow order.
func Registers() []Category {
	return []Category{BehaviorRegister, StructureRegister, StyleRegister}
}

// Lookup returns the info for a category.
func Lookup(c Category) (CategoryInfo, bool) {
	info, ok := byName[c]
	return info, ok
}

// MustLookup is Lookup for categories known at compile time.
func MustLookup(c Category) CategoryInfo {
	info, ok := byName[c]
	if !ok {
		panic(fmt.Sprintf("workspace: unknown category %q", c))
	}
	return info
}

// Requirements returns every prerequisite of c, direct ones first and then
// their own prerequisites, each category once. A category reached both as
// valid and as all-validated keeps the stricter need.
func Requirements(c Category) []Requirement {
	var out []Requirement
	index := map[Category]int{}
	queue := []Category{c}
	for len(queue) > 0 {
		info, ok := byName[queue[0]]
		queue = queue[1:]
		if !ok {
			continue
		}
		for _, req := range info.Prerequisites {
			if req.Category == c {
				continue
			}
			if i, seen := index[req.Category]; seen {
				if req.Need == NeedAllValidated {
					out[i].Need = NeedAllValidated
				}
				continue
			}
			index[req.Category] = len(out)
			out = append(out, req)
			queue = append(queue, req.Category)
		}
	}
	return out
}

// Placement is the result of classifying a path.
type Placement struct {
	Info CategoryInfo
	// Misplaced is set when the path looks like the category but is not at
	// its canonical location.
	Misplaced bool
}

// Classify maps a slash-form, root-relative path to its category. The
// boolean is false when the path belongs to no category.
func Classify(rel string) (Placement, bool) {
	for _, c := range catalog {
		if match(c.Canonical, rel) {
			return Placement{Info: c}, true
		}
	}
	for _, c := range catalog {
		if match(c.Recognition, rel) {
			return Placement{Info: c, Misplaced: true}, true
		}
	}
	return Placement{}, false
}

func match(pattern, rel string) bool {
	ok, err := doublestar.Match(pattern, rel)
	return err == nil && ok
}

// Files lists the on-disk files for a category, sorted, as root-relative
// slash paths.
func (w *Context) Files(c Category) ([]string, error) {
	info, ok := Lookup(c)
	if !ok {
		return nil, fmt.Errorf("unknown category %q", c)
	}
	if !info.Multi() {
		if _, err := os.Stat(w.Abs(info.Canonical)); err != nil {
			return nil, nil
		}
		return []string{info.Canonical}, nil
	}
	matches, err := doublestar.Glob(os.DirFS(w.Root), info.Canonical, doublestar.WithFilesOnly())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("glob %s: %w", info.Canonical, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Walk visits every file under the root that belongs to a category at its
// canonical location. Hidden directories are skipped.
func (w *Context) Walk(fn func(rel string, info CategoryInfo) error) error {
	return filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.Root && len(d.Name()) > 0 && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		rel := w.Rel(path)
		p, ok := Classify(rel)
		if !ok || p.Misplaced {
			return nil
		}
		return fn(rel, p.Info)
	})
}
