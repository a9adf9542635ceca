package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/ifcextrude/pkg/config"
	"github.com/chazu/ifcextrude/pkg/engine"
	"github.com/chazu/ifcextrude/pkg/export"
	"github.com/chazu/ifcextrude/pkg/ifc"
	"github.com/chazu/ifcextrude/pkg/kernel"
	"github.com/chazu/ifcextrude/pkg/kernel/sdfx"
	"github.com/chazu/ifcextrude/pkg/model"
	"github.com/chazu/ifcextrude/pkg/preview"
	"github.com/chazu/ifcextrude/pkg/tessellate"
	"go.uber.org/zap"
)

// colorPalette assigns distinct colors to element meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// errEvaluation is returned when a script has evaluation or validation
// errors. The errors themselves are in the result.
var errEvaluation = errors.New("model script has errors")

// App ties the engine, the geometry kernel and the exporters together.
type App struct {
	cfg    *config.Config
	engine *engine.Engine
	kernel kernel.Kernel
	logger *zap.Logger
}

// MeshData is the JSON-serializable mesh format of the mesh command.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Element  string    `json:"element"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable evaluation message.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Element string `json:"element,omitempty"`
	Message string `json:"message"`
}

// EvalResult is the outcome of evaluating and meshing a script.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Skipped  []EvalErrorData `json:"skipped"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates an App using the sdfx kernel configured from cfg.
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:    cfg,
		engine: engine.NewEngine(engine.WithTimeout(cfg.Engine.Timeout)),
		kernel: sdfx.New(
			sdfx.WithMeshCells(cfg.Kernel.MeshCells),
			sdfx.WithSamples(cfg.Kernel.Samples),
			sdfx.WithArcStep(cfg.Geometry.ArcStep()),
		),
		logger: logger,
	}
}

// evaluate runs the script and converts its messages. The model is nil
// when there were errors.
func (a *App) evaluate(ctx context.Context, source string) (*model.Model, []EvalErrorData, []EvalErrorData, error) {
	errs := []EvalErrorData{}
	warnings := []EvalErrorData{}

	res, err := a.engine.EvaluateAll(ctx, source)
	if err != nil {
		a.logger.Error("evaluation failed", zap.Error(err))
		return nil, errs, warnings, err
	}
	for _, e := range res.Errors {
		errs = append(errs, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	for _, w := range res.Warnings {
		a.logger.Warn(w.Message, zap.String("element", string(w.Element)))
		warnings = append(warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Element: w.Element.Short(),
			Message: w.Message,
		})
	}
	if len(errs) > 0 {
		return nil, errs, warnings, nil
	}
	return res.Model, errs, warnings, nil
}

// Evaluate turns a script into colored meshes. Failures are reported in
// the result rather than returned.
func (a *App) Evaluate(ctx context.Context, source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Skipped:  []EvalErrorData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	m, errs, warnings, err := a.evaluate(ctx, source)
	result.Warnings = warnings
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if m == nil {
		result.Errors = errs
		return result
	}

	meshes, skipped, err := tessellate.Tessellate(ctx, m, a.kernel, tessellate.Options{
		Scale:   a.cfg.Export.Scale,
		ArcStep: a.cfg.Geometry.ArcStep(),
		Logger:  a.logger,
	})
	if err != nil {
		a.logger.Error("tessellation failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	for _, s := range skipped {
		result.Skipped = append(result.Skipped, EvalErrorData{Element: s.Element.Short(), Message: s.Err.Error()})
	}
	for i, mesh := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: mesh.Vertices,
			Normals:  mesh.Normals,
			Indices:  mesh.Indices,
			Element:  mesh.Element,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return result
}

// exportOptions maps the selected export configuration onto exporter
// options.
func (a *App) exportOptions() (export.Options, error) {
	sel, err := a.cfg.Selected()
	if err != nil {
		return export.Options{}, err
	}
	return export.Options{
		Scale:          a.cfg.Export.Scale,
		Schema:         sel.Schema,
		ViewDefinition: sel.ViewDefinition,
		BaseQuantities: sel.BaseQuantities,
		ProjectName:    a.cfg.Export.ProjectName,
		Workers:        a.cfg.Resolver.Workers,
		ArcStep:        a.cfg.Geometry.ArcStep(),
		Palette:        ifc.Palette(a.cfg.Export.Palette),
		Logger:         a.logger,
	}, nil
}

// Export evaluates source and writes its elements to an IFC file held in
// the report. Script errors are returned alongside errEvaluation.
func (a *App) Export(ctx context.Context, source string) (*export.Report, []EvalErrorData, error) {
	m, errs, _, err := a.evaluate(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, errs, errEvaluation
	}
	opts, err := a.exportOptions()
	if err != nil {
		return nil, nil, err
	}
	rep, err := export.New(a.kernel, opts).Export(ctx, m)
	if err != nil {
		return rep, nil, err
	}
	a.logger.Info("export finished",
		zap.Int("products", len(rep.Products)),
		zap.Int("clipped", len(rep.Clipped)),
		zap.Int("warnings", len(rep.Warnings)),
		zap.Int("entities", rep.File.Len()),
	)
	return rep, nil, nil
}

// Profiles evaluates source and recognizes the profile of every solid.
// Solids whose profile cannot be built are logged and left out.
func (a *App) Profiles(ctx context.Context, source string) ([]preview.Entry, []EvalErrorData, error) {
	m, errs, _, err := a.evaluate(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, errs, errEvaluation
	}
	entries, failures := preview.Collect(m, a.previewOptions())
	for _, f := range failures {
		a.logger.Warn("profile skipped", zap.Error(f))
	}
	if len(entries) == 0 && len(failures) > 0 {
		return nil, nil, fmt.Errorf("no profile could be built: %w", failures[0])
	}
	return entries, nil, nil
}

func (a *App) previewOptions() preview.Options {
	return preview.Options{ArcStep: a.cfg.Geometry.ArcStep(), Logger: a.logger}
}
