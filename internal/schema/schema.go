// Package schema validates workspace artifacts against declarative CUE
// definitions.
//
// Every JSON artifact with a schema identity is decoded strictly as JSON,
// unified with its definition and validated for concreteness. Field-level
// errors come back as a single ValidationError.
package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/fyrsmithlabs/parity/internal/workspace"
)

//go:embed parity.cue
var source string

// ValidationError lists the field-level schema violations of one document.
type ValidationError struct {
	Definition string
	Issues     []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("does not conform to %s: %s", e.Definition, strings.Join(e.Issues, "; "))
}

// Checker validates documents. It is not safe for concurrent use.
type Checker struct {
	ctx  *cue.Context
	root cue.Value
}

// New compiles the embedded definitions.
func New() (*Checker, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(source, cue.Filename("parity.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile schemas: %w", err)
	}
	return &Checker{ctx: ctx, root: root}, nil
}

// Definitions lists the available definition names.
func (c *Checker) Definitions() []string {
	var out []string
	iter, err := c.root.Fields(cue.Definitions(true))
	if err != nil {
		return nil
	}
	for iter.Next() {
		if iter.Selector().IsDefinition() {
			out = append(out, iter.Selector().String())
		}
	}
	sort.Strings(out)
	return out
}

// Check validates data against definition. Failures are returned as a
// *workspace.DataError of kind ErrInvalid wrapping a *ValidationError or
// the JSON syntax error.
func (c *Checker) Check(definition, path string, data []byte) error {
	def := c.root.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("unknown schema definition %s", definition)
	}

	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return &workspace.DataError{Path: path, Kind: workspace.ErrInvalid, Err: err}
	}
	doc := c.ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return &workspace.DataError{Path: path, Kind: workspace.ErrInvalid, Err: err}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &workspace.DataError{Path: path, Kind: workspace.ErrInvalid, Err: &ValidationError{
			Definition: definition,
			Issues:     issues(err),
		}}
	}
	return nil
}

// CheckCategory validates data against the schema of a workspace category.
// Categories without a schema always pass.
func (c *Checker) CheckCategory(info workspace.CategoryInfo, path string, data []byte) error {
	if info.Schema == "" {
		return nil
	}
	return c.Check(info.Schema, path, data)
}

func issues(err error) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if p := strings.Join(e.Path(), "."); p != "" {
			msg = p + ": " + msg
		}
		if !seen[msg] {
			seen[msg] = true
			out = append(out, msg)
		}
	}
	sort.Strings(out)
	if len(out) == 0 {
		out = []string{err.Error()}
	}
	return out
}
