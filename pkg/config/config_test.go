package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	sel, err := cfg.Selected()
	require.NoError(t, err)
	assert.Equal(t, "IFC2X3", sel.Schema)
	assert.False(t, sel.BaseQuantities)
	assert.InDelta(t, math.Pi/18, cfg.Geometry.ArcStep(), 1e-12)
}

func TestBuiltInConfigurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"Coordination View 2.0", "Default 2x2", "Default 2x3"}, cfg.ConfigurationNames())

	cfg.Export.Configuration = "Coordination View 2.0"
	sel, err := cfg.Selected()
	require.NoError(t, err)
	assert.Equal(t, "CoordinationView_V2.0", sel.ViewDefinition)
	assert.True(t, sel.BaseQuantities)

	cfg.Export.Configuration = "Default 2x2"
	sel, err = cfg.Selected()
	require.NoError(t, err)
	assert.Equal(t, "IFC2X2_FINAL", sel.Schema)
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ifcextrude.yaml")
	data := `
export:
  configuration: site
  scale: 0.001
  configurations:
    site:
      schema: IFC2X3
      view_definition: SiteView
      base_quantities: true
geometry:
  arc_step_degrees: 5
resolver:
  workers: 4
logging:
  level: debug
engine:
  timeout: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.001, cfg.Export.Scale)
	assert.Equal(t, 4, cfg.Resolver.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.Timeout)
	// Untouched sections keep their defaults.
	assert.Equal(t, 200, cfg.Kernel.MeshCells)
	assert.Equal(t, "Project", cfg.Export.ProjectName)

	sel, err := cfg.Selected()
	require.NoError(t, err)
	assert.Equal(t, "SiteView", sel.ViewDefinition)
	assert.Contains(t, cfg.ConfigurationNames(), "site")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "export: [unclosed"},
		{"unknown configuration", "export:\n  configuration: nope\n"},
		{"zero scale", "export:\n  scale: 0\n"},
		{"arc step too large", "geometry:\n  arc_step_degrees: 120\n"},
		{"few mesh cells", "kernel:\n  mesh_cells: 2\n"},
		{"negative workers", "resolver:\n  workers: -1\n"},
		{"palette out of range", "export:\n  palette:\n    red: [2, 0, 0]\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"negative timeout", "engine:\n  timeout: -1s\n"},
		{"unparsable timeout", "engine:\n  timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "c.yaml")
	cfg := DefaultConfig()
	cfg.Export.ProjectName = "Tower"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Tower", loaded.Export.ProjectName)
}
