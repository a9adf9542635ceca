// Package config loads export settings from YAML.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all ifcextrude configuration.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Export   ExportConfig   `yaml:"export"`
	Geometry GeometryConfig `yaml:"geometry"`
	Kernel   KernelConfig   `yaml:"kernel"`
	Resolver ResolverConfig `yaml:"resolver"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ExportConfig selects what is written.
type ExportConfig struct {
	// Configuration names the export configuration in use.
	Configuration string `yaml:"configuration"`
	ProjectName   string `yaml:"project_name"`
	// Scale multiplies model lengths (millimetres) into file units.
	Scale float64 `yaml:"scale"`
	// Configurations adds to or overrides the built-in configurations.
	Configurations map[string]Configuration `yaml:"configurations,omitempty"`
	// Palette maps material names to RGB surface colours in [0,1].
	Palette map[string][3]float64 `yaml:"palette,omitempty"`
}

// Configuration is a named export preset.
type Configuration struct {
	Schema         string `yaml:"schema"`
	ViewDefinition string `yaml:"view_definition"`
	BaseQuantities bool   `yaml:"base_quantities"`
}

// EngineConfig holds script evaluation settings.
type EngineConfig struct {
	Timeout time.Duration `yaml:"timeout"` // per evaluation, e.g. "5s"
}

// GeometryConfig controls curve approximation.
type GeometryConfig struct {
	// ArcStepDegrees is the largest angle one chord of an approximated
	// arc may span.
	ArcStepDegrees float64 `yaml:"arc_step_degrees"`
}

// ArcStep returns the arc step in radians.
func (g GeometryConfig) ArcStep() float64 {
	return g.ArcStepDegrees * math.Pi / 180
}

// KernelConfig configures the volumetric kernel.
type KernelConfig struct {
	MeshCells int `yaml:"mesh_cells"` // marching cubes resolution
	Samples   int `yaml:"samples"`    // sampling grid for emptiness tests
}

// ResolverConfig configures solid resolution.
type ResolverConfig struct {
	Workers int `yaml:"workers"` // solids of one element prepared concurrently
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfiguration is the export configuration used when none is
// named.
const DefaultConfiguration = "Default 2x3"

// builtIns are the preset export configurations.
var builtIns = map[string]Configuration{
	"Default 2x3":           {Schema: "IFC2X3", ViewDefinition: "CoordinationView"},
	"Default 2x2":           {Schema: "IFC2X2_FINAL", ViewDefinition: "CoordinationView"},
	"Coordination View 2.0": {Schema: "IFC2X3", ViewDefinition: "CoordinationView_V2.0", BaseQuantities: true},
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			Configuration: DefaultConfiguration,
			ProjectName:   "Project",
			Scale:         1,
			Palette: map[string][3]float64{
				"concrete": {0.75, 0.75, 0.75},
				"steel":    {0.45, 0.5, 0.55},
				"timber":   {0.8, 0.6, 0.4},
			},
		},
		Engine:   EngineConfig{Timeout: 5 * time.Second},
		Geometry: GeometryConfig{ArcStepDegrees: 10},
		Kernel:   KernelConfig{MeshCells: 200, Samples: 24},
		Resolver: ResolverConfig{Workers: 1},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads a YAML configuration over the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.Selected(); err != nil {
		return err
	}
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("config: engine.timeout must not be negative, got %s", c.Engine.Timeout)
	}
	if c.Export.Scale <= 0 || math.IsInf(c.Export.Scale, 0) || math.IsNaN(c.Export.Scale) {
		return fmt.Errorf("config: export.scale must be positive, got %g", c.Export.Scale)
	}
	if c.Geometry.ArcStepDegrees <= 0 || c.Geometry.ArcStepDegrees > 90 {
		return fmt.Errorf("config: geometry.arc_step_degrees must be in (0, 90], got %g", c.Geometry.ArcStepDegrees)
	}
	if c.Kernel.MeshCells < 8 {
		return fmt.Errorf("config: kernel.mesh_cells must be at least 8, got %d", c.Kernel.MeshCells)
	}
	if c.Kernel.Samples < 4 {
		return fmt.Errorf("config: kernel.samples must be at least 4, got %d", c.Kernel.Samples)
	}
	if c.Resolver.Workers < 0 {
		return fmt.Errorf("config: resolver.workers must not be negative, got %d", c.Resolver.Workers)
	}
	for name, rgb := range c.Export.Palette {
		for _, ch := range rgb {
			if ch < 0 || ch > 1 {
				return fmt.Errorf("config: palette %q: channels must be in [0, 1]", name)
			}
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
	return nil
}

// Configurations returns every export configuration by name: the
// built-ins overlaid with the configured ones.
func (c *Config) Configurations() map[string]Configuration {
	out := make(map[string]Configuration, len(builtIns)+len(c.Export.Configurations))
	for k, v := range builtIns {
		out[k] = v
	}
	for k, v := range c.Export.Configurations {
		out[k] = v
	}
	return out
}

// ConfigurationNames lists the export configurations alphabetically.
func (c *Config) ConfigurationNames() []string {
	all := c.Configurations()
	names := make([]string, 0, len(all))
	for k := range all {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Selected returns the export configuration named by
// Export.Configuration.
func (c *Config) Selected() (Configuration, error) {
	name := c.Export.Configuration
	if name == "" {
		name = DefaultConfiguration
	}
	cfg, ok := c.Configurations()[name]
	if !ok {
		return Configuration{}, fmt.Errorf("config: unknown export configuration %q", name)
	}
	if cfg.Schema == "" {
		return Configuration{}, fmt.Errorf("config: export configuration %q has no schema", name)
	}
	return cfg, nil
}
