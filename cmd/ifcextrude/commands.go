package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chazu/ifcextrude/pkg/config"
	"github.com/chazu/ifcextrude/pkg/preview"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	outputPath string
	reportPath string
	dxfPath    string
	svgPath    string
)

var exportCmd = &cobra.Command{
	Use:   "export <script>",
	Short: "Write the elements of a model script to an IFC file",
	Long: `Evaluates the script, resolves every body against its clipping planes
and openings and writes the result as an IFC (STEP) file.

Example:
  ifcextrude export examples/office.zy -o office.ifc --report office.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var meshCmd = &cobra.Command{
	Use:   "mesh <script>",
	Short: "Tessellate the bodies of a model script to JSON meshes",
	Args:  cobra.ExactArgs(1),
	RunE:  runMesh,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles <script>",
	Short: "Draw the recognized profiles of a model script",
	Long: `Recognizes the profile of every solid and draws the outlines side by
side as DXF and/or SVG.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfiles,
}

var configurationsCmd = &cobra.Command{
	Use:   "configurations",
	Short: "List the available export configurations",
	Args:  cobra.NoArgs,
	RunE:  runConfigurations,
}

func init() {
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "IFC file to write (default: script name with .ifc)")
	exportCmd.Flags().StringVar(&reportPath, "report", "", "write the export report as YAML")

	meshCmd.Flags().StringVarP(&outputPath, "output", "o", "", "JSON file to write (default: stdout)")

	profilesCmd.Flags().StringVar(&dxfPath, "dxf", "", "DXF file to write")
	profilesCmd.Flags().StringVar(&svgPath, "svg", "", "SVG file to write")
}

// signalContext is cancelled on interrupt.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func readScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}

// printEvalErrors lists script errors on the command's error stream.
func printEvalErrors(cmd *cobra.Command, script string, errs []EvalErrorData) {
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d:%d: %s\n", script, e.Line, e.Col, e.Message)
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", script, e.Message)
	}
}

func defaultOutput(script, ext string) string {
	return strings.TrimSuffix(script, filepath.Ext(script)) + ext
}

func runExport(cmd *cobra.Command, args []string) error {
	source, err := readScript(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	app := NewApp(cfg, logger)
	rep, errs, err := app.Export(ctx, source)
	if errors.Is(err, errEvaluation) {
		printEvalErrors(cmd, args[0], errs)
		return err
	}
	if err != nil {
		return err
	}

	out := outputPath
	if out == "" {
		out = defaultOutput(args[0], ".ifc")
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if _, err := rep.File.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	for _, w := range rep.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", displayName(w.Name, string(w.Element)), w.Message)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d products to %s (%d clipped away, %d warnings)\n",
		len(rep.Products), out, len(rep.Clipped), len(rep.Warnings))

	if reportPath != "" {
		data, err := yaml.Marshal(rep)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		if err := os.WriteFile(reportPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Debug("report written", zap.String("path", reportPath))
	}
	return nil
}

func runMesh(cmd *cobra.Command, args []string) error {
	source, err := readScript(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	result := NewApp(cfg, logger).Evaluate(ctx, source)
	if len(result.Errors) > 0 {
		printEvalErrors(cmd, args[0], result.Errors)
		return errEvaluation
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal meshes: %w", err)
	}
	if outputPath == "" {
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write meshes: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d meshes to %s\n", len(result.Meshes), outputPath)
	return nil
}

func runProfiles(cmd *cobra.Command, args []string) error {
	if dxfPath == "" && svgPath == "" {
		return errors.New("nothing to draw: pass --dxf and/or --svg")
	}
	source, err := readScript(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	app := NewApp(cfg, logger)
	entries, errs, err := app.Profiles(ctx, source)
	if errors.Is(err, errEvaluation) {
		printEvalErrors(cmd, args[0], errs)
		return err
	}
	if err != nil {
		return err
	}

	opts := app.previewOptions()
	if dxfPath != "" {
		if err := preview.SaveDXF(dxfPath, entries, opts); err != nil {
			return err
		}
	}
	if svgPath != "" {
		f, err := os.Create(svgPath)
		if err != nil {
			return fmt.Errorf("failed to create svg: %w", err)
		}
		if err := preview.WriteSVG(f, entries, opts); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write svg: %w", err)
		}
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", e.Name, e.Profile.Kind())
	}
	return nil
}

func runConfigurations(cmd *cobra.Command, args []string) error {
	selected := cfg.Export.Configuration
	if selected == "" {
		selected = config.DefaultConfiguration
	}
	all := cfg.Configurations()
	for _, name := range cfg.ConfigurationNames() {
		c := all[name]
		mark := " "
		if name == selected {
			mark = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-24s %-14s %s", mark, name, c.Schema, c.ViewDefinition)
		if c.BaseQuantities {
			fmt.Fprint(cmd.OutOrStdout(), " +quantities")
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
