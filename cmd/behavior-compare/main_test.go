package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/parity/internal/cmdutil"
	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

const sourceTree = `{
  "component": "header",
  "triggers": [
    {"label": "Products", "click": {"navigates": true, "target": "https://example.com/products/"}, "styling": {"media": "none", "elementType": "a"}},
    {"label": "Support", "click": {"navigates": true, "target": "/support"}, "styling": {"media": "none", "elementType": "a"}}
  ]
}`

const migratedTree = `{
  "component": "header",
  "triggers": [
    {"label": "products", "click": {"navigates": true, "target": "/products"}, "styling": {"media": "none", "elementType": "A"}},
    {"label": "Support", "click": {"navigates": true, "target": "/help"}, "styling": {"media": "none", "elementType": "a"}},
    {"label": "Blog", "click": {"navigates": true, "target": "/blog"}, "styling": {"media": "none", "elementType": "a"}}
  ]
}`

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return runWithConfig(t, "logging:\n  level: error\n", args...)
}

func runWithConfig(t *testing.T, config string, args ...string) (int, string, string) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(config), 0o644))

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--config", cfg))
	return cmdutil.Execute(cmd), stdout.String(), stderr.String()
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCmd_DefaultThreshold(t *testing.T) {
	assert.Equal(t, "100", newRootCmd().Flags().Lookup("threshold").DefValue)
}

func TestCompare_Identical(t *testing.T) {
	dir := t.TempDir()
	src := write(t, dir, "src.json", sourceTree)

	code, stdout, _ := run(t, src, src)
	assert.Equal(t, cmdutil.ExitOK, code)

	var report struct {
		Percent   int  `json:"percent"`
		Passed    bool `json:"passed"`
		Validated int  `json:"validated"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 100, report.Percent)
	assert.True(t, report.Passed)
	assert.Equal(t, 2, report.Validated)
}

func TestCompare_TraceLogsEachItem(t *testing.T) {
	dir := t.TempDir()
	src := write(t, dir, "src.json", sourceTree)

	code, _, stderr := runWithConfig(t, "logging:\n  level: trace\n  format: json\n", src, src)
	require.Equal(t, cmdutil.ExitOK, code)
	assert.Contains(t, stderr, `"msg":"item compared"`)
	assert.Contains(t, stderr, `"id":"trigger-0"`)

	_, _, stderr = run(t, src, src)
	assert.NotContains(t, stderr, "item compared")
}

func TestCompare_FailedNodeWritesRegister(t *testing.T) {
	dir := t.TempDir()
	src := write(t, dir, "src.json", sourceTree)
	mig := write(t, dir, "mig.json", migratedTree)
	regPath := filepath.Join(dir, "registers", "behavior-register.json")

	code, stdout, _ := run(t, src, mig, "--output-register", regPath)
	assert.Equal(t, cmdutil.ExitFailure, code)
	assert.Contains(t, stdout, `"extras"`)

	reg, err := register.Load(regPath)
	require.NoError(t, err)
	assert.Equal(t, workspace.BehaviorRegister, reg.Category)
	assert.Equal(t, "header", reg.ComponentID)
	require.Len(t, reg.Items, 2)

	products, ok := reg.Find("trigger-0")
	require.True(t, ok)
	assert.Equal(t, register.StatusValidated, products.Status)

	support, ok := reg.Find("trigger-1")
	require.True(t, ok)
	assert.Equal(t, register.StatusFailed, support.Status)
	assert.False(t, support.Behavior.Click)
	assert.False(t, reg.AllValidated)
	assert.Len(t, reg.Summary.Extras, 1)
}

func TestCompare_FailedNodeExitsOneBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	src := write(t, dir, "src.json", sourceTree)
	mig := write(t, dir, "mig.json", migratedTree)

	code, stdout, _ := run(t, src, mig, "--threshold", "50")
	assert.Equal(t, cmdutil.ExitFailure, code)
	assert.Contains(t, stdout, `"passed": true`)
	assert.Contains(t, stdout, `"failed": 1`)
}

func TestCompare_UsageError(t *testing.T) {
	dir := t.TempDir()
	src := write(t, dir, "src.json", sourceTree)
	regPath := filepath.Join(dir, "register.json")

	code, stdout, stderr := run(t, src, filepath.Join(dir, "missing.json"), "--output-register", regPath)
	assert.Equal(t, cmdutil.ExitUsage, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "read migrated")
	assert.NoFileExists(t, regPath)
}
