package register

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// New returns an empty register for category.
func New(category workspace.Category, componentID string) *Register {
	r := &Register{Category: category, ComponentID: componentID, Items: []Item{}}
	r.Recompute()
	return r
}

// Validate checks the kind/payload pairing of an item.
func (it Item) Validate() error {
	if it.ID == "" {
		return errors.New("item id is empty")
	}
	switch it.Status {
	case StatusPending, StatusValidated, StatusFailed:
	default:
		return fmt.Errorf("item %s: unknown status %q", it.ID, it.Status)
	}

	fam, ok := FamilyOf(it.Kind)
	if !ok {
		return fmt.Errorf("item %s: unknown kind %q", it.ID, it.Kind)
	}

	payloads := []struct {
		family  Family
		present bool
	}{
		{FamilyBehavior, it.Behavior != nil},
		{FamilyStructure, it.Structure != nil},
		{FamilyStyle, it.Style != nil},
	}
	hasOwn := false
	for _, p := range payloads {
		if !p.present {
			continue
		}
		if p.family != fam {
			return fmt.Errorf("item %s: kind %s carries a %s payload", it.ID, it.Kind, p.family)
		}
		hasOwn = true
	}
	if !hasOwn {
		return fmt.Errorf("item %s: kind %s is missing its %s payload", it.ID, it.Kind, fam)
	}
	if it.Evidence != nil && fam != FamilyStyle {
		return fmt.Errorf("item %s: evidence is only valid on style items", it.ID)
	}
	return nil
}

// Validate checks every item and that ids are unique.
func (r *Register) Validate() error {
	seen := make(map[string]bool, len(r.Items))
	var errs []error
	for _, it := range r.Items {
		if err := it.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[it.ID] {
			errs = append(errs, fmt.Errorf("duplicate item id %s", it.ID))
		}
		seen[it.ID] = true
	}
	return errors.Join(errs...)
}

// Belongs reports an error when r cannot be the register stored as
// category c: a different declared category, or items of another family.
// Items with an unknown kind are left to Validate.
func (r *Register) Belongs(c workspace.Category) error {
	fam, ok := FamilyFor(c)
	if !ok {
		return fmt.Errorf("%s is not a register category", c)
	}
	var errs []error
	if r.Category != "" && r.Category != c {
		errs = append(errs, fmt.Errorf("category is %s but the file is the %s", r.Category, c))
	}
	for _, it := range r.Items {
		if f, ok := FamilyOf(it.Kind); ok && f != fam {
			errs = append(errs, fmt.Errorf("item %s: %s items do not belong in the %s", it.ID, it.Kind, c))
		}
	}
	return errors.Join(errs...)
}

// ComputeAllValidated derives the rollup from the items. An empty register
// is never validated.
func (r *Register) ComputeAllValidated() bool {
	if len(r.Items) == 0 {
		return false
	}
	for _, it := range r.Items {
		if it.Status != StatusValidated {
			return false
		}
	}
	return true
}

// Consistent reports an error when the stored flag disagrees with the items.
func (r *Register) Consistent() error {
	if got, want := r.AllValidated, r.ComputeAllValidated(); got != want {
		return fmt.Errorf("allValidated is %t but items say %t (%d/%d validated)",
			got, want, countStatus(r.Items, StatusValidated), len(r.Items))
	}
	return nil
}

// Complete reports whether the register is consistent and fully validated.
func (r *Register) Complete() bool {
	return r.AllValidated && r.ComputeAllValidated()
}

// Recompute restores the allValidated invariant and rebuilds the summary.
// Extras are preserved.
func (r *Register) Recompute() {
	extras := r.Summary.Extras
	s := Summary{Total: len(r.Items), Extras: extras}

	var facets FacetCounts
	hasBehavior := false
	for _, it := range r.Items {
		switch it.Status {
		case StatusValidated:
			s.Validated++
		case StatusFailed:
			s.Failed++
		default:
			s.Pending++
		}
		if it.Behavior != nil {
			hasBehavior = true
			tally(&facets.Hover, it.Behavior.Hover)
			tally(&facets.Click, it.Behavior.Click)
			tally(&facets.Styling, it.Behavior.Styling)
		}
	}
	if hasBehavior {
		s.Facets = &facets
	}

	r.Summary = s
	r.AllValidated = r.ComputeAllValidated()
}

func tally(c *FacetCount, matched bool) {
	if matched {
		c.Matched++
	} else {
		c.Mismatched++
	}
}

func countStatus(items []Item, st Status) int {
	n := 0
	for _, it := range items {
		if it.Status == st {
			n++
		}
	}
	return n
}

// Upsert replaces the item with the same id or appends it, then recomputes.
func (r *Register) Upsert(it Item) {
	for i := range r.Items {
		if r.Items[i].ID == it.ID {
			r.Items[i] = it
			r.Recompute()
			return
		}
	}
	r.Items = append(r.Items, it)
	r.Recompute()
}

// Find returns the item with id.
func (r *Register) Find(id string) (Item, bool) {
	for _, it := range r.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Regressions lists ids validated in prev that are no longer validated in r.
func (r *Register) Regressions(prev *Register) []string {
	if prev == nil {
		return nil
	}
	var out []string
	for _, old := range prev.Items {
		if old.Status != StatusValidated {
			continue
		}
		cur, ok := r.Find(old.ID)
		if ok && cur.Status != StatusValidated {
			out = append(out, old.ID)
		}
	}
	return out
}

// Parse decodes a register document.
func Parse(path string, data []byte) (*Register, error) {
	var r Register
	if err := workspace.DecodeJSON(path, data, &r); err != nil {
		return nil, err
	}
	if r.Items == nil {
		r.Items = []Item{}
	}
	return &r, nil
}

// Load reads a register from disk.
func Load(path string) (*Register, error) {
	data, err := workspace.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// LoadOrNew reads a register, returning an empty one when the file is absent.
func LoadOrNew(path string, category workspace.Category, componentID string) (*Register, error) {
	r, err := Load(path)
	if errors.Is(err, workspace.ErrNotFound) {
		return New(category, componentID), nil
	}
	return r, err
}

// Marshal encodes r as indented JSON with a trailing newline.
func (r *Register) Marshal() ([]byte, error) {
	return MarshalDocument(r)
}

// Save recomputes r and writes it atomically to path.
func (r *Register) Save(path string) error {
	r.Recompute()
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("encode register: %w", err)
	}
	return WriteFileAtomic(path, data)
}

// MarshalDocument encodes v as indented JSON without HTML escaping.
func MarshalDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFileAtomic writes data through a temp file in the target directory.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
