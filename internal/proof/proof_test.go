package proof

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

func setup(t *testing.T, files ...string) *workspace.Context {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	ws, err := workspace.New(root, "proof-test", nil)
	require.NoError(t, err)
	return ws
}

func styleItem(id string, st register.Status, ev *register.Evidence, similarity float64) register.Item {
	return register.Item{
		ID: id, Label: id, Kind: register.KindStyleTarget, Status: st,
		Style:    &register.StyleDetail{Similarity: similarity, Threshold: 95, Grade: "Excellent"},
		Evidence: ev,
	}
}

func goodEvidence() *register.Evidence {
	return &register.Evidence{
		ReportPath:      "critique/hero/report.json",
		SourceRefPath:   "critique/hero/source.png",
		MigratedRefPath: "critique/hero/migrated.png",
		IterationCount:  1,
	}
}

var evidenceFiles = []string{"critique/hero/report.json", "critique/hero/source.png", "critique/hero/migrated.png"}

func TestVerify_AllPresent(t *testing.T) {
	ws := setup(t, evidenceFiles...)
	reg := register.New(workspace.StyleRegister, "")
	reg.Upsert(styleItem("hero", register.StatusValidated, goodEvidence(), 99))

	assert.Empty(t, NewVerifier(ws).Verify(context.Background(), reg))
}

func TestVerify_MissingPathBlocksRegardlessOfScore(t *testing.T) {
	ws := setup(t, "critique/hero/report.json", "critique/hero/source.png")
	reg := register.New(workspace.StyleRegister, "")
	reg.Upsert(styleItem("hero", register.StatusValidated, goodEvidence(), 100))

	findings := NewVerifier(ws).Verify(context.Background(), reg)

	require.Len(t, findings, 1)
	assert.Equal(t, ProblemMissingFile, findings[0].Problem)
	assert.Equal(t, "critique/hero/migrated.png", findings[0].Path)
	assert.Contains(t, findings[0].String(), "migratedRefPath does not exist: critique/hero/migrated.png")
}

func TestVerify_IterationCount(t *testing.T) {
	ws := setup(t, evidenceFiles...)
	ev := goodEvidence()
	ev.IterationCount = 0
	reg := register.New(workspace.StyleRegister, "")
	reg.Upsert(styleItem("hero", register.StatusValidated, ev, 100))

	findings := NewVerifier(ws).Verify(context.Background(), reg)

	require.Len(t, findings, 1)
	assert.Equal(t, ProblemIterationCount, findings[0].Problem)
}

func TestVerify_NoEvidenceAndEmptyFields(t *testing.T) {
	ws := setup(t)
	reg := register.New(workspace.StyleRegister, "")
	reg.Upsert(styleItem("a", register.StatusValidated, nil, 100))
	reg.Upsert(styleItem("b", register.StatusValidated, &register.Evidence{IterationCount: 3}, 100))

	findings := NewVerifier(ws).Verify(context.Background(), reg)

	require.Len(t, findings, 4)
	assert.Equal(t, ProblemNoEvidence, findings[0].Problem)
	for _, f := range findings[1:] {
		assert.Equal(t, "b", f.ItemID)
		assert.Contains(t, f.Detail, "is empty")
	}
}

func TestVerify_SkipsUnvalidated(t *testing.T) {
	ws := setup(t)
	reg := register.New(workspace.StyleRegister, "")
	reg.Upsert(styleItem("hero", register.StatusFailed, nil, 40))

	assert.Empty(t, NewVerifier(ws).Verify(context.Background(), reg))
}

func TestVerify_ChecksEveryValidatedItem(t *testing.T) {
	ws := setup(t, evidenceFiles...)
	reg := register.New(workspace.StyleRegister, "")
	reg.Upsert(styleItem("hero", register.StatusValidated, goodEvidence(), 100))
	reg.Upsert(register.Item{
		ID: "row-0", Label: "row 0", Kind: register.KindRow, Status: register.StatusValidated,
		Structure: &register.StructureDetail{Match: true, Source: true, Migrated: true},
	})

	findings := NewVerifier(ws).Verify(context.Background(), reg)

	require.Len(t, findings, 1)
	assert.Equal(t, "row-0", findings[0].ItemID)
	assert.Equal(t, ProblemNoEvidence, findings[0].Problem)
}

func TestVerify_DirectoryIsNotEvidence(t *testing.T) {
	ws := setup(t, "critique/hero/source.png", "critique/hero/migrated.png")
	require.NoError(t, os.MkdirAll(ws.Abs("critique/hero/report.json"), 0o755))
	reg := register.New(workspace.StyleRegister, "")
	reg.Upsert(styleItem("hero", register.StatusValidated, goodEvidence(), 100))

	findings := NewVerifier(ws).Verify(context.Background(), reg)
	require.Len(t, findings, 1)
	assert.Equal(t, "reportPath", findings[0].Field)
}

func TestVerifyFile(t *testing.T) {
	ws := setup(t, evidenceFiles...)
	reg := register.New(workspace.StyleRegister, "")
	reg.Upsert(styleItem("hero", register.StatusValidated, goodEvidence(), 100))
	require.NoError(t, reg.Save(ws.Abs("registers/style-register.json")))

	findings, err := NewVerifier(ws).VerifyFile(context.Background(), "registers/style-register.json")
	require.NoError(t, err)
	assert.Empty(t, findings)

	_, err = NewVerifier(ws).VerifyFile(context.Background(), "registers/missing.json")
	assert.True(t, errors.Is(err, workspace.ErrNotFound))
}

func TestVerifyFile_OtherRegister(t *testing.T) {
	ws := setup(t)
	reg := register.New(workspace.BehaviorRegister, "header")
	require.NoError(t, reg.Save(ws.Abs("registers/behavior-register.json")))

	_, err := NewVerifier(ws).VerifyFile(context.Background(), "registers/behavior-register.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a style-register")
}
