// Package export writes a model as an IFC file. Each element is
// dispatched to a handler from a Registry and exported inside its own
// transaction: a failing element is rolled back and reported as a
// warning while the export moves on, unless the failure is fatal.
package export

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/ifcextrude/pkg/extrusion"
	"github.com/chazu/ifcextrude/pkg/fault"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/ifc"
	"github.com/chazu/ifcextrude/pkg/kernel"
	"github.com/chazu/ifcextrude/pkg/model"
	"github.com/chazu/ifcextrude/pkg/resolver"
	"github.com/chazu/ifcextrude/pkg/session"
	"github.com/chazu/ifcextrude/pkg/step"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ErrNoHandler is reported for elements no handler accepts.
var ErrNoHandler = errors.New("export: no handler for element")

// Options configure an Exporter.
type Options struct {
	// Scale multiplies every model length before export. Zero means 1.
	Scale float64
	// Schema is the STEP file schema, IFC2X3 by default.
	Schema string
	// ViewDefinition is written to the file description when set.
	ViewDefinition string
	// BaseQuantities writes an IfcElementQuantity for every product.
	BaseQuantities bool
	ProjectName    string
	Workers        int
	ArcStep        float64
	Palette        ifc.Palette
	Logger         *zap.Logger
}

// Context is what a handler needs to export one element.
type Context struct {
	Writer   *ifc.Writer
	Resolver *resolver.Resolver
	Scope    *session.ElementScope
	// Cutters are the openings that cut the element.
	Cutters  []*model.Element
	Defaults model.Defaults
	Scale    float64
	// BaseQuantities asks handlers to write element quantities.
	BaseQuantities bool
	Logger         *zap.Logger
}

// SolidReport describes one solid of an exported element.
type SolidReport struct {
	Name       string               `json:"name" yaml:"name"`
	State      string               `json:"state" yaml:"state"`
	Profile    string               `json:"profile,omitempty" yaml:"profile,omitempty"`
	Material   string               `json:"material,omitempty" yaml:"material,omitempty"`
	Quantities extrusion.Quantities `json:"quantities" yaml:"quantities"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// Product is an exported element.
type Product struct {
	Element        model.ElementID `json:"element" yaml:"element"`
	Name           string          `json:"name,omitempty" yaml:"name,omitempty"`
	Entity         string          `json:"entity" yaml:"entity"`
	GlobalID       string          `json:"globalId,omitempty" yaml:"global_id,omitempty"`
	Representation string          `json:"representation,omitempty" yaml:"representation,omitempty"`
	Solids         []SolidReport   `json:"solids,omitempty" yaml:"solids,omitempty"`
	Materials      []string        `json:"materials,omitempty" yaml:"materials,omitempty"`

	Handle step.Handle `json:"-" yaml:"-"`
}

// Warning is a non-fatal failure keyed by element.
type Warning struct {
	Element model.ElementID `json:"element" yaml:"element"`
	Name    string          `json:"name,omitempty" yaml:"name,omitempty"`
	Message string          `json:"message" yaml:"message"`
	Err     error           `json:"-" yaml:"-"`
}

// Report is the outcome of an export.
type Report struct {
	File     *step.File        `json:"-" yaml:"-"`
	Products []Product         `json:"products" yaml:"products"`
	Clipped  []model.ElementID `json:"clipped,omitempty" yaml:"clipped,omitempty"`
	Warnings []Warning         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Exporter writes models through a kernel.
type Exporter struct {
	kernel   kernel.Kernel
	registry *Registry
	opts     Options
	logger   *zap.Logger
}

// New returns an exporter using the default registry.
func New(k kernel.Kernel, opts Options) *Exporter {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	if opts.Schema == "" {
		opts.Schema = "IFC2X3"
	}
	if opts.ArcStep <= 0 {
		opts.ArcStep = geom.DefaultArcStep
	}
	return &Exporter{kernel: k, registry: DefaultRegistry(), opts: opts, logger: opts.Logger}
}

// WithRegistry replaces the handler registry.
func (x *Exporter) WithRegistry(r *Registry) *Exporter {
	x.registry = r
	return x
}

// Export writes m. Non-fatal element failures are collected in the
// report; a fatal one stops the export and is returned with the partial
// report.
func (x *Exporter) Export(ctx context.Context, m *model.Model) (*Report, error) {
	f := step.NewFile(x.opts.Schema)
	f.Header.Name = x.opts.ProjectName
	f.Header.Preprocessor = "ifcextrude"
	if x.opts.ViewDefinition != "" {
		f.Header.Description = []string{"ViewDefinition [" + x.opts.ViewDefinition + "]"}
	}

	w := ifc.NewWriter(f)
	sink := ifc.NewSink(w, x.opts.Palette)
	sess := session.New(x.logger)
	res := resolver.New(x.kernel, sink, resolver.Options{
		Workers: x.opts.Workers,
		ArcStep: x.opts.ArcStep,
		Logger:  x.logger,
	})
	_, site := w.Project(x.opts.ProjectName)
	cutters := CutterMap(m, x.opts.ArcStep)

	report := &Report{File: f}
	for _, e := range m.All() {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("export: %w", err)
		}
		log := x.logger.With(zap.String("element", string(e.ID)), zap.String("name", e.Name))

		h, ok := x.registry.Select(e)
		if !ok {
			report.warn(e, ErrNoHandler)
			log.Warn("no handler", zap.Stringer("kind", e.Kind))
			continue
		}
		xc := &Context{
			Writer:         w,
			Resolver:       res,
			Cutters:        cutters[e.ID],
			Defaults:       m.Defaults,
			Scale:          x.opts.Scale,
			BaseQuantities: x.opts.BaseQuantities,
			Logger:         log,
		}
		p, err := x.exportElement(ctx, h, xc, sess, e)
		switch {
		case fault.IsFatal(err):
			log.Error("export aborted", zap.Error(err))
			return report, fmt.Errorf("export: element %s: %w", e.ID.Short(), err)
		case err != nil:
			report.warn(e, err)
			log.Warn("element skipped", zap.Error(err))
		case p == nil:
		case p.Handle.IsNull():
			report.Clipped = append(report.Clipped, e.ID)
			log.Debug("element completely clipped")
		default:
			report.Products = append(report.Products, *p)
		}
	}

	x.finish(w, sess, site, report)
	return report, nil
}

// exportElement runs h inside a transaction and a session scope. Nothing
// an element writes survives unless it yields a product.
func (x *Exporter) exportElement(ctx context.Context, h Handler, xc *Context, sess *session.Session, e *model.Element) (p *Product, err error) {
	tx := xc.Writer.Begin()
	xc.Scope = sess.Begin()
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fault.FromPanic(r)
		}
		if err != nil || p == nil || p.Handle.IsNull() {
			tx.Rollback()
			xc.Scope.Rollback()
			return
		}
		tx.Commit()
		xc.Scope.Commit()
	}()
	return h.Export(ctx, xc, e)
}

// finish writes the relationships that span elements: spatial
// containment, material associations and presentation layers.
func (x *Exporter) finish(w *ifc.Writer, sess *session.Session, site step.Handle, report *Report) {
	if len(report.Products) == 0 {
		return
	}
	w.ContainInSite(site, lo.Map(report.Products, func(p Product, _ int) step.Handle { return p.Handle }))

	byMaterial := make(map[string][]step.Handle)
	for _, p := range report.Products {
		for _, name := range p.Materials {
			byMaterial[name] = append(byMaterial[name], p.Handle)
		}
	}
	names := lo.Keys(byMaterial)
	slices.Sort(names)
	for _, name := range names {
		w.AssociateMaterial(w.Material(name), byMaterial[name]...)
	}

	layers := sess.Layers.Keys()
	slices.Sort(layers)
	for _, name := range layers {
		reps, _ := sess.Layers.Get(name)
		w.PresentationLayer(name, reps)
	}
}

func (r *Report) warn(e *model.Element, err error) {
	r.Warnings = append(r.Warnings, Warning{Element: e.ID, Name: e.Name, Message: err.Error(), Err: err})
}
