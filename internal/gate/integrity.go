package gate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/compare/behavior"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// Allowlist suppresses accepted content-integrity findings.
type Allowlist struct {
	// Patterns are regexes matched against the offending text.
	Patterns []string `toml:"patterns"`
	// Paths are doublestar globs of files that are never scanned.
	Paths []string `toml:"paths"`

	compiled []*regexp.Regexp
}

// LoadAllowlist reads a TOML allowlist. A missing file yields an empty list.
func LoadAllowlist(path string) (*Allowlist, error) {
	al := &Allowlist{}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return al, nil
		}
		return nil, fmt.Errorf("stat allowlist: %w", err)
	}
	if _, err := toml.DecodeFile(path, al); err != nil {
		return nil, fmt.Errorf("invalid allowlist %s: %w", path, err)
	}
	for _, p := range al.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid allowlist pattern %q in %s: %w", p, path, err)
		}
		al.compiled = append(al.compiled, re)
	}
	for _, p := range al.Paths {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid allowlist path %q in %s", p, path)
		}
	}
	return al, nil
}

// SkipsPath reports whether rel is exempt from scanning.
func (a *Allowlist) SkipsPath(rel string) bool {
	for _, p := range a.Paths {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Allows reports whether text matches an accepted pattern.
func (a *Allowlist) Allows(text string) bool {
	for _, re := range a.compiled {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Finding is one content-integrity signal.
type Finding struct {
	Kind string `json:"kind"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

const (
	FindingLongLiteral   = "long-literal"
	FindingAbsoluteLinks = "absolute-links"
	FindingCategoryName  = "category-name"
)

var (
	literalPattern = regexp.MustCompile("\"(?:[^\"\\\\\\n]|\\\\.)*\"|'(?:[^'\\\\\\n]|\\\\.)*'|`[^`]*`")
	linkPattern    = regexp.MustCompile("https?://[^\\s\"'`<>()]+")
	identPattern   = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$-]*`)
)

// Scanner looks for content that was embedded instead of sourced.
type Scanner struct {
	MaxLiteralLength int
	MaxAbsoluteLinks int
	CategoryNames    []string
}

// Scan returns findings in line order.
func (s Scanner) Scan(content string) []Finding {
	var out []Finding

	for _, loc := range literalPattern.FindAllStringIndex(content, -1) {
		lit := content[loc[0]:loc[1]]
		if n := len([]rune(lit)) - 2; n > s.MaxLiteralLength {
			out = append(out, Finding{
				Kind: FindingLongLiteral,
				Line: lineOf(content, loc[0]),
				Text: fmt.Sprintf("%d-character string literal %s", n, abbreviate(lit, 40)),
			})
		}
	}

	links := linkPattern.FindAllStringIndex(content, -1)
	if len(links) > s.MaxAbsoluteLinks {
		samples := make([]string, 0, 3)
		for _, loc := range links[:min(3, len(links))] {
			samples = append(samples, content[loc[0]:loc[1]])
		}
		out = append(out, Finding{
			Kind: FindingAbsoluteLinks,
			Line: lineOf(content, links[0][0]),
			Text: fmt.Sprintf("%d absolute links (max %d), e.g. %s", len(links), s.MaxAbsoluteLinks, strings.Join(samples, ", ")),
		})
	}

	out = append(out, s.scanNames(content)...)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// scanNames flags string comparisons against a category name and
// identifiers that contain one.
func (s Scanner) scanNames(content string) []Finding {
	var out []Finding
	seen := map[string]bool{}
	add := func(pos int, text string) {
		if seen[text] {
			return
		}
		seen[text] = true
		out = append(out, Finding{Kind: FindingCategoryName, Line: lineOf(content, pos), Text: text})
	}

	for _, name := range s.CategoryNames {
		key := squash(name)
		if len(key) < 4 {
			continue
		}
		cmp := regexp.MustCompile(`(?i)(?:[!=]==?|\bcase)\s*['"` + "`" + `]\s*` + regexp.QuoteMeta(strings.TrimSpace(name)) + `\s*['"` + "`" + `]`)
		for _, loc := range cmp.FindAllStringIndex(content, -1) {
			add(loc[0], fmt.Sprintf("comparison against category %q: %s", name, content[loc[0]:loc[1]]))
		}
		rev := regexp.MustCompile(`(?i)['"` + "`" + `]\s*` + regexp.QuoteMeta(strings.TrimSpace(name)) + `\s*['"` + "`" + `]\s*[!=]==?`)
		for _, loc := range rev.FindAllStringIndex(content, -1) {
			add(loc[0], fmt.Sprintf("comparison against category %q: %s", name, content[loc[0]:loc[1]]))
		}
	}

	// identifiers outside string literals
	code := literalPattern.ReplaceAllStringFunc(content, func(lit string) string {
		return strings.Map(func(r rune) rune {
			if r == '\n' {
				return r
			}
			return ' '
		}, lit)
	})
	for _, loc := range identPattern.FindAllStringIndex(code, -1) {
		ident := code[loc[0]:loc[1]]
		sq := squash(ident)
		for _, name := range s.CategoryNames {
			key := squash(name)
			if len(key) >= 4 && sq != key && strings.Contains(sq, key) {
				add(loc[0], fmt.Sprintf("identifier %s bakes in category %q", ident, name))
			}
		}
	}
	return out
}

// squash lowercases and keeps letters and digits.
func squash(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func lineOf(s string, pos int) int {
	return strings.Count(s[:pos], "\n") + 1
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// IntegrityGate warns about generated integration code that embeds
// canonical content inline.
type IntegrityGate struct{}

// NewIntegrityGate creates a new content-integrity gate
func NewIntegrityGate() *IntegrityGate {
	return &IntegrityGate{}
}

// Name returns the gate identifier
func (g *IntegrityGate) Name() string {
	return "content-integrity"
}

// Check scans integration code. Findings never block.
func (g *IntegrityGate) Check(ctx context.Context, state *EvalState) ([]Violation, error) {
	if !state.Canonical() || state.Info().Name != workspace.IntegrationCode || state.ContentErr != nil {
		return nil, nil
	}

	cfg := state.Config.Integrity
	allow, err := LoadAllowlist(state.WS.Abs(cfg.Allowlist))
	if err != nil {
		return nil, err
	}
	if allow.SkipsPath(state.Target) {
		return nil, nil
	}

	scanner := Scanner{
		MaxLiteralLength: cfg.MaxLiteralLength,
		MaxAbsoluteLinks: cfg.MaxAbsoluteLinks,
		CategoryNames:    categoryNames(ctx, state),
	}

	var violations []Violation
	for _, f := range scanner.Scan(string(state.Content)) {
		if allow.Allows(f.Text) {
			continue
		}
		violations = append(violations, Violation{
			Gate:        g.Name(),
			Type:        ViolationInlineContent,
			Severity:    SeverityWarning,
			Category:    workspace.IntegrationCode,
			Path:        state.Target,
			Description: fmt.Sprintf("%s:%d: %s", state.Target, f.Line, f.Text),
			Remediation: []string{fmt.Sprintf("source %s content from its canonical artifact instead of embedding it (%s:%d)", f.Kind, state.Target, f.Line)},
		})
	}
	return violations, nil
}

// categoryNames merges configured names with the top-level trigger labels
// of the source behavior capture.
func categoryNames(ctx context.Context, state *EvalState) []string {
	names := append([]string(nil), state.Config.Integrity.CategoryNames...)
	tree, err := behavior.Load(state.WS.Abs(workspace.MustLookup(workspace.SourceBehavior).Canonical))
	if err != nil {
		if !errors.Is(err, workspace.ErrNotFound) {
			state.WS.Log.Debug(ctx, "source behavior unreadable for category names", zap.Error(err))
		}
		return names
	}
	for _, t := range tree.Triggers {
		if l := strings.TrimSpace(t.Label); l != "" {
			names = append(names, l)
		}
	}
	return names
}
