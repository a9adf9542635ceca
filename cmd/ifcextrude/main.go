// Command ifcextrude evaluates model scripts and writes their building
// elements as IFC, triangle meshes, or 2D profile previews.
package main

import (
	"fmt"
	"os"

	"github.com/chazu/ifcextrude/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose       bool
	configPath    string
	configuration string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ifcextrude",
	Short: "Turn extrusion models into IFC building elements",
	Long: `ifcextrude evaluates a model script describing building elements as
extruded profiles, recognizes each profile (rectangle, circle, I/H shape or
arbitrary outline), clips the bodies against their cutters and writes the
result as an IFC (STEP) file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if configuration != "" {
			cfg.Export.Configuration = configuration
			if _, err := cfg.Selected(); err != nil {
				return err
			}
		}
		logger, err = newLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ifcextrude.yaml", "path to the YAML configuration")
	rootCmd.PersistentFlags().StringVar(&configuration, "configuration", "", "export configuration to use (overrides the config file)")

	rootCmd.AddCommand(exportCmd, meshCmd, profilesCmd, configurationsCmd)
}

// newLogger builds the process logger from the logging section.
func newLogger(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Format == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	level := zapcore.InfoLevel
	if lc.Level != "" {
		if err := level.Set(lc.Level); err != nil {
			return nil, err
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
