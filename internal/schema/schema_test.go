package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/parity/internal/workspace"
)

func newChecker(t *testing.T) *Checker {
	t.Helper()
	c, err := New()
	require.NoError(t, err)
	return c
}

func TestDefinitions(t *testing.T) {
	defs := newChecker(t).Definitions()
	for _, want := range []string{"#Register", "#StructureSummary", "#StyleSnapshot", "#BehaviorTree", "#StyleReport", "#Rollup", "#Milestones"} {
		assert.Contains(t, defs, want)
	}
}

func TestCatalogSchemasExist(t *testing.T) {
	defs := newChecker(t).Definitions()
	for _, info := range workspace.Categories() {
		if info.Schema != "" {
			assert.Contains(t, defs, info.Schema, "category %s", info.Name)
		}
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		def   string
		doc   string
		valid bool
	}{
		{"structure", "#StructureSummary", `{"rows":[{"hasImages":true,"images":["a.png"]},{"hasImages":false}]}`, true},
		{"structure with megamenu", "#StructureSummary", `{"rows":[],"megamenu":{"columns":[{"hasImages":false}]}}`, true},
		{"structure null megamenu", "#StructureSummary", `{"rows":[],"megamenu":null}`, true},
		{"structure missing rows", "#StructureSummary", `{"megamenu":null}`, false},
		{"structure bad flag", "#StructureSummary", `{"rows":[{"hasImages":"yes"}]}`, false},

		{"style flat", "#StyleSnapshot", `{"color":"#fff","display":"flex"}`, true},
		{"style wrapped", "#StyleSnapshot", `{"component":"hero","properties":{"color":"#fff"}}`, true},
		{"style non-string value", "#StyleSnapshot", `{"color":3}`, false},

		{"behavior", "#BehaviorTree", `{"triggers":[{"label":"Products","hover":{"hasEffect":true},"items":[{"label":"A","styling":{"media":"image"}}]}]}`, true},
		{"behavior bad media", "#BehaviorTree", `{"triggers":[{"label":"P","styling":{"media":"gif"}}]}`, false},
		{"behavior missing label", "#BehaviorTree", `{"triggers":[{"elementType":"a"}]}`, false},

		{"register", "#Register", `{"category":"structure-register","items":[{"id":"row-0","label":"row 0","kind":"row","status":"validated","structure":{"match":true,"source":true,"migrated":true}}],"allValidated":true,"summary":{"total":1,"validated":1,"failed":0,"pending":0}}`, true},
		{"register bad status", "#Register", `{"items":[{"id":"a","label":"a","kind":"row","status":"done"}],"allValidated":false,"summary":{"total":1,"validated":0,"failed":0,"pending":1}}`, false},
		{"register unknown field", "#Register", `{"items":[],"allValidated":false,"summary":{"total":0,"validated":0,"failed":0,"pending":0},"score":3}`, false},
		{"register missing flag", "#Register", `{"items":[],"summary":{"total":0,"validated":0,"failed":0,"pending":0}}`, false},

		{"not json", "#Register", `{items: []}`, false},
	}

	c := newChecker(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Check(tt.def, "doc.json", []byte(tt.doc))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, workspace.ErrInvalid))
		})
	}
}

func TestCheck_ReportsFieldPaths(t *testing.T) {
	err := newChecker(t).Check("#StructureSummary", "s.json", []byte(`{"rows":[{"hasImages":1}]}`))
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "#StructureSummary", ve.Definition)
	require.NotEmpty(t, ve.Issues)
	assert.Contains(t, ve.Error(), "rows.0.hasImages")
}

func TestCheck_UnknownDefinition(t *testing.T) {
	err := newChecker(t).Check("#Nope", "x.json", []byte(`{}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, workspace.ErrInvalid))
}

func TestCheckCategory_NoSchema(t *testing.T) {
	c := newChecker(t)
	assert.NoError(t, c.CheckCategory(workspace.MustLookup(workspace.IntegrationCode), "blocks/a.js", []byte("not json")))
}
