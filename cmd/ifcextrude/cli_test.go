package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const coarseConfig = `
kernel:
  mesh_cells: 32
  samples: 12
logging:
  level: error
  format: json
`

// runCLI executes the root command with fresh flag state and returns its
// standard output and error streams.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "ifcextrude.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(coarseConfig), 0644))

	verbose, configuration = false, ""
	outputPath, reportPath, dxfPath, svgPath = "", "", "", ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "office.ifc")
	report := filepath.Join(dir, "office.yaml")

	stdout, _, err := runCLI(t, "export", officeScript, "-o", out, "--report", report)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 4 products to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "ISO-10303-21;"))
	assert.Contains(t, string(data), "IFCPROJECT(")

	raw, err := os.ReadFile(report)
	require.NoError(t, err)
	var rep struct {
		Products []struct {
			Name   string `yaml:"name"`
			Entity string `yaml:"entity"`
		} `yaml:"products"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &rep))
	assert.Len(t, rep.Products, 4)
}

func TestExportCommandConfiguration(t *testing.T) {
	out := filepath.Join(t.TempDir(), "office.ifc")

	_, _, err := runCLI(t, "export", officeScript, "-o", out, "--configuration", "Default 2x2")
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FILE_SCHEMA(('IFC2X2_FINAL'));")

	_, _, err = runCLI(t, "export", officeScript, "-o", out, "--configuration", "nope")
	assert.ErrorContains(t, err, "unknown export configuration")
}

func TestExportCommandScriptErrors(t *testing.T) {
	script := filepath.Join(t.TempDir(), "bad.zy")
	require.NoError(t, os.WriteFile(script, []byte(`(element (solid :depth -5 (polyloop (pt 0 0) (pt 1 0) (pt 1 1))))`), 0644))

	_, stderr, err := runCLI(t, "export", script)
	assert.ErrorIs(t, err, errEvaluation)
	assert.Contains(t, stderr, "depth -5")
	_, statErr := os.Stat(strings.TrimSuffix(script, ".zy") + ".ifc")
	assert.True(t, os.IsNotExist(statErr), "no IFC file is written for a broken script")
}

func TestMeshCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "meshes.json")

	stdout, _, err := runCLI(t, "mesh", officeScript, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 4 meshes")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result EvalResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Meshes, 4)
}

func TestProfilesCommand(t *testing.T) {
	dir := t.TempDir()
	dxfFile := filepath.Join(dir, "profiles.dxf")
	svgFile := filepath.Join(dir, "profiles.svg")

	stdout, _, err := runCLI(t, "profiles", officeScript, "--dxf", dxfFile, "--svg", svgFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "c1")
	assert.Contains(t, stdout, "circle")

	svgData, err := os.ReadFile(svgFile)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(svgData), "<path"))

	dxfData, err := os.ReadFile(dxfFile)
	require.NoError(t, err)
	assert.Contains(t, string(dxfData), "PROFILE_RECTANGLE")
	assert.Contains(t, string(dxfData), "PROFILE_CIRCLE")

	_, _, err = runCLI(t, "profiles", officeScript)
	assert.ErrorContains(t, err, "nothing to draw")
}

func TestConfigurationsCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "configurations")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "  Coordination View 2.0"))
	assert.Contains(t, lines[0], "+quantities")
	assert.True(t, strings.HasPrefix(lines[2], "* Default 2x3"))
}

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		script, ext, want string
	}{
		{"office.zy", ".ifc", "office.ifc"},
		{"dir.v2/model", ".ifc", "dir.v2/model.ifc"},
		{"a/b.c.zy", ".json", "a/b.c.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultOutput(tt.script, tt.ext), tt.script)
	}
}
