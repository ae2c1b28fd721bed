package gate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/parity/internal/config"
	"github.com/fyrsmithlabs/parity/internal/logging"
	"github.com/fyrsmithlabs/parity/internal/phase"
	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

const (
	structureCapture = `{"rows":[{"hasImages":false},{"hasImages":true,"images":["hero.png"]}]}`
	behaviorCapture  = `{"component":"header","triggers":[{"label":"Products","click":{"navigates":true,"target":"/products"}}]}`
	styleCapture     = `{"color":"#333333","display":"flex"}`
	critiqueReport   = `{"component":"hero","similarity":100,"grade":"Excellent","differences":[],"fixes":[]}`
)

func newWorkspace(t *testing.T) *workspace.Context {
	t.Helper()
	ws, err := workspace.New(t.TempDir(), "test-session", logging.NewNop())
	require.NoError(t, err)
	return ws
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(config.Defaults())
	require.NoError(t, err)
	return e
}

func writeFile(t *testing.T, ws *workspace.Context, rel, content string) {
	t.Helper()
	path := ws.Abs(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := register.MarshalDocument(v)
	require.NoError(t, err)
	return data
}

func writeDoc(t *testing.T, ws *workspace.Context, rel string, v any) {
	t.Helper()
	writeFile(t, ws, rel, string(encode(t, v)))
}

func behaviorRegister(status register.Status) *register.Register {
	r := register.New(workspace.BehaviorRegister, "header")
	ok := status == register.StatusValidated
	r.Upsert(register.Item{
		ID: "trigger-0", Label: "Products", Kind: register.KindTrigger, Status: status,
		Behavior: &register.Facets{Hover: true, Click: ok, Styling: true},
	})
	return r
}

func structureRegister(status register.Status) *register.Register {
	r := register.New(workspace.StructureRegister, "hero")
	r.Upsert(register.Item{
		ID: "row-count", Label: "row count", Kind: register.KindRowCount, Status: status,
		Structure: &register.StructureDetail{Match: status == register.StatusValidated, Source: 2, Migrated: 2},
	})
	return r
}

func styleRegister(ev *register.Evidence) *register.Register {
	r := register.New(workspace.StyleRegister, "")
	r.Upsert(register.Item{
		ID: "hero", Label: "hero", Kind: register.KindStyleTarget, Status: register.StatusValidated,
		Style:    &register.StyleDetail{Similarity: 98.5, Threshold: 95, Grade: "Excellent"},
		Evidence: ev,
	})
	return r
}

func goodEvidence() *register.Evidence {
	return &register.Evidence{
		ReportPath:      "critique/hero/report.json",
		SourceRefPath:   "critique/hero/source.png",
		MigratedRefPath: "critique/hero/migrated.png",
		IterationCount:  2,
	}
}

// seedCaptures writes valid source and migrated captures.
func seedCaptures(t *testing.T, ws *workspace.Context) {
	t.Helper()
	writeFile(t, ws, "capture/source/structure.json", structureCapture)
	writeFile(t, ws, "capture/migrated/structure.json", structureCapture)
	writeFile(t, ws, "capture/source/behavior.json", behaviorCapture)
	writeFile(t, ws, "capture/migrated/behavior.json", behaviorCapture)
	writeFile(t, ws, "capture/source/styles/hero.json", styleCapture)
	writeFile(t, ws, "capture/migrated/styles/hero.json", styleCapture)
}

// seedComplete builds a workspace that passes the end-of-session sweep.
func seedComplete(t *testing.T, ws *workspace.Context) {
	t.Helper()
	seedCaptures(t, ws)

	regs := map[workspace.Category]*register.Register{
		workspace.BehaviorRegister:  behaviorRegister(register.StatusValidated),
		workspace.StructureRegister: structureRegister(register.StatusValidated),
		workspace.StyleRegister:     styleRegister(goodEvidence()),
	}
	for cat, r := range regs {
		writeDoc(t, ws, workspace.MustLookup(cat).Canonical, r)
	}

	writeFile(t, ws, "critique/hero/report.json", critiqueReport)
	writeFile(t, ws, "critique/hero/source.png", "png")
	writeFile(t, ws, "critique/hero/migrated.png", "png")

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	writeDoc(t, ws, "registers/rollup.json", register.BuildRollup(ws.SessionID, now, regs))

	snap, _ := Scan(t.Context(), ws, newEngine(t).Checker())
	writeDoc(t, ws, "milestones.json", phase.Detect(snap).Document(ws.SessionID, now))
}
