package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNew_GeneratesSession(t *testing.T) {
	ws, err := New(t.TempDir(), "", nil)
	require.NoError(t, err)
	assert.Len(t, ws.SessionID, 36)
	assert.NotNil(t, ws.Log)
}

func TestNew_RejectsBadSession(t *testing.T) {
	_, err := New(t.TempDir(), "bad session", nil)
	require.Error(t, err)
}

func TestContext_AbsRel(t *testing.T) {
	root := t.TempDir()
	ws, err := New(root, "s1", nil)
	require.NoError(t, err)

	abs := ws.Abs("registers/style-register.json")
	assert.Equal(t, filepath.Join(root, "registers", "style-register.json"), abs)
	assert.Equal(t, "registers/style-register.json", ws.Rel(abs))
	assert.Equal(t, "a/b.json", ws.Rel("a/./b.json"))
	assert.True(t, Outside(ws.Rel(filepath.Dir(root))))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path      string
		category  Category
		misplaced bool
		known     bool
	}{
		{"capture/source/structure.json", SourceStructure, false, true},
		{"capture/migrated/behavior.json", MigratedBehavior, false, true},
		{"capture/source/styles/header.json", SourceStyle, false, true},
		{"registers/style-register.json", StyleRegister, false, true},
		{"tmp/style-register.json", StyleRegister, true, true},
		{"style-register.json", StyleRegister, true, true},
		{"critique/header/report.json", CritiqueReport, false, true},
		{"critique/header/source.png", CritiqueImage, false, true},
		{"registers/rollup.json", Rollup, false, true},
		{"out/rollup.json", Rollup, true, true},
		{"milestones.json", Milestones, false, true},
		{"blocks/header/header.js", IntegrationCode, false, true},
		{"blocks/header/header.css", IntegrationCode, false, true},
		{"scripts/blocks/header/header.js", IntegrationCode, true, true},
		{"README.md", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, ok := Classify(tt.path)
			require.Equal(t, tt.known, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.category, p.Info.Name)
			assert.Equal(t, tt.misplaced, p.Misplaced)
		})
	}
}

func TestCategories_StageOrdered(t *testing.T) {
	cats := Categories()
	require.NotEmpty(t, cats)
	for i := 1; i < len(cats); i++ {
		assert.LessOrEqual(t, cats[i-1].Stage, cats[i].Stage)
	}
}

func TestPrerequisiteChain(t *testing.T) {
	assert.Equal(t, []Requirement{{SourceBehavior, NeedValid}}, MustLookup(MigratedBehavior).Prerequisites)
	assert.Contains(t, MustLookup(StructureRegister).Prerequisites, Requirement{BehaviorRegister, NeedAllValidated})
	assert.Contains(t, MustLookup(StyleRegister).Prerequisites, Requirement{StructureRegister, NeedAllValidated})
	assert.Len(t, MustLookup(Rollup).Prerequisites, 3)
	assert.Panics(t, func() { MustLookup("nope") })
}

func TestRequirements_Transitive(t *testing.T) {
	assert.Equal(t, []Requirement{
		{StructureRegister, NeedAllValidated},
		{BehaviorRegister, NeedAllValidated},
		{SourceStructure, NeedValid},
		{MigratedStructure, NeedValid},
		{SourceBehavior, NeedValid},
		{MigratedBehavior, NeedValid},
	}, Requirements(StyleRegister))

	assert.Equal(t, []Requirement{{SourceBehavior, NeedValid}}, Requirements(MigratedBehavior))
	assert.Empty(t, Requirements(SourceStructure))
	assert.Empty(t, Requirements("nope"))

	for _, req := range Requirements(Rollup)[:3] {
		assert.Equal(t, NeedAllValidated, req.Need, req.Category)
	}
}

func TestMulti(t *testing.T) {
	assert.False(t, MustLookup(StyleRegister).Multi())
	assert.True(t, MustLookup(SourceStyle).Multi())
	assert.True(t, MustLookup(IntegrationCode).Multi())
}

func TestReadJSON_Errors(t *testing.T) {
	root := t.TempDir()
	var v map[string]any

	err := ReadJSON(filepath.Join(root, "missing.json"), &v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, StateAbsent, StateOf(err))

	writeFile(t, root, "bad.json", "{nope")
	err = ReadJSON(filepath.Join(root, "bad.json"), &v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Equal(t, StateInvalid, StateOf(err))

	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Error(), "bad.json")

	err = ReadJSON(root, &v)
	assert.True(t, errors.Is(err, ErrInvalid), "directory is invalid")

	writeFile(t, root, "ok.json", `{"a":1}`)
	require.NoError(t, ReadJSON(filepath.Join(root, "ok.json"), &v))
	assert.Equal(t, StateValid, StateOf(nil))
}

func TestFiles(t *testing.T) {
	root := t.TempDir()
	ws, err := New(root, "s1", nil)
	require.NoError(t, err)

	files, err := ws.Files(SourceStyle)
	require.NoError(t, err)
	assert.Empty(t, files)

	writeFile(t, root, "capture/source/styles/nav.json", "{}")
	writeFile(t, root, "capture/source/styles/header.json", "{}")
	writeFile(t, root, "capture/source/structure.json", "{}")

	files, err = ws.Files(SourceStyle)
	require.NoError(t, err)
	assert.Equal(t, []string{"capture/source/styles/header.json", "capture/source/styles/nav.json"}, files)

	files, err = ws.Files(SourceStructure)
	require.NoError(t, err)
	assert.Equal(t, []string{"capture/source/structure.json"}, files)

	files, err = ws.Files(Rollup)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalk_SkipsMisplacedAndHidden(t *testing.T) {
	root := t.TempDir()
	ws, err := New(root, "s1", nil)
	require.NoError(t, err)

	writeFile(t, root, "registers/behavior-register.json", "{}")
	writeFile(t, root, "tmp/behavior-register.json", "{}")
	writeFile(t, root, ".parity/audit.jsonl", "")
	writeFile(t, root, "notes.txt", "")

	var seen []string
	require.NoError(t, ws.Walk(func(rel string, info CategoryInfo) error {
		seen = append(seen, rel)
		return nil
	}))
	assert.Equal(t, []string{"registers/behavior-register.json"}, seen)
}
