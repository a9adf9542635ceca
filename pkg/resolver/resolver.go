// Package resolver turns the solids of one building element into IFC
// representation items. Each solid is extruded, clipped by half spaces
// where a cutting element allows it, and otherwise opened with a boolean
// subtraction. Solids fail independently; the element is rolled back
// only when none of them produces geometry.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/ifcextrude/pkg/extrusion"
	"github.com/chazu/ifcextrude/pkg/fault"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/kernel"
	"github.com/chazu/ifcextrude/pkg/session"
	"github.com/chazu/ifcextrude/pkg/step"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrComplexBoundary marks a solid whose base boundary is not made of
	// simple loops. Such boundaries are refused, never approximated.
	ErrComplexBoundary = errors.New("resolver: complex boundary")
	// ErrUnresolved is returned when no solid of an element produced a
	// representation and at least one of them failed.
	ErrUnresolved = errors.New("resolver: no solid resolved")
)

// State is the stage a solid reached.
type State int

const (
	Start State = iota
	BaseExtruded
	Clipped
	BooleanApplied
	CompletelyClipped
	Failed
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case BaseExtruded:
		return "base-extruded"
	case Clipped:
		return "clipped"
	case BooleanApplied:
		return "boolean-applied"
	case CompletelyClipped:
		return "completely-clipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Boundary is the extrusion base of a solid.
type Boundary struct {
	Loops   []geom.CurveLoop
	Complex bool
}

// Solid is one extruded solid of an element. Depth is measured along the
// normal of the base plane.
type Solid struct {
	Name      string
	Boundary  Boundary
	Direction r3.Vector
	Depth     float64
	Material  string
}

// CuttingElement is an element whose volume is removed from the solids
// it touches.
type CuttingElement struct {
	ID       string
	FaceSets []geom.FaceSet
}

// Element is the input to Resolve. Range, when set, is the valid extent
// along each solid's direction; solids entirely outside it are dropped.
type Element struct {
	ID      string
	Solids  []Solid
	Cutters []CuttingElement
	Range   *r1.Interval
}

// Outcome is the result for one solid.
type Outcome struct {
	Name        string
	State       State
	Handle      step.Handle
	Solid       kernel.Solid
	Description extrusion.Description
	Quantities  extrusion.Quantities
	Err         error
}

// Result is the representation of a resolved element. Items is empty
// when every solid was clipped away or failed.
type Result struct {
	Items  []step.Handle
	Bucket Bucket
	Solids []Outcome
}

// Sink receives the entities of resolved solids.
type Sink interface {
	Begin() *step.Tx
	Extrusion(d extrusion.Description) (step.Handle, error)
	Clip(base step.Handle, planes []geom.Plane) step.Handle
	Subtract(base step.Handle, fs geom.FaceSet) step.Handle
	Union(a, b step.Handle) step.Handle
	Style(material string) step.Handle
	StyleItem(item, style step.Handle)
}

// Options configure a Resolver.
type Options struct {
	// Workers bounds how many solids of one element are prepared
	// concurrently. Values below 2 prepare sequentially.
	Workers int
	// ArcStep is the chord angle used when arcs are approximated.
	ArcStep float64
	Logger  *zap.Logger
}

// Resolver resolves elements against a kernel and a sink.
type Resolver struct {
	kernel  kernel.Kernel
	sink    Sink
	cutter  Cutter
	builder *extrusion.Builder
	workers int
	logger  *zap.Logger
}

// New returns a resolver using a KernelCutter over k and sink.
func New(k kernel.Kernel, sink Sink, opts Options) *Resolver {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Resolver{
		kernel:  k,
		sink:    sink,
		cutter:  NewKernelCutter(k, sink),
		builder: extrusion.NewBuilder(opts.Logger, opts.ArcStep),
		workers: opts.Workers,
		logger:  opts.Logger,
	}
}

// WithCutter replaces the cutter.
func (r *Resolver) WithCutter(c Cutter) *Resolver {
	r.cutter = c
	return r
}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

// prepared is a solid after range check and extrusion, before anything
// is written.
type prepared struct {
	out      Outcome
	desc     extrusion.Description
	body     kernel.Solid
	material string
}

// Resolve processes every solid of el and aggregates the results. Entities
// and session writes of an element without any representation are rolled
// back. The caller owns scope and commits it once the element is final.
func (r *Resolver) Resolve(ctx context.Context, el Element, scope *session.ElementScope) (Result, error) {
	log := r.logger.With(zap.String("element", el.ID))
	tx := r.sink.Begin()

	preps, err := r.prepareAll(ctx, el)
	if err != nil {
		tx.Rollback()
		scope.Rollback()
		return Result{}, err
	}

	res := Result{Solids: make([]Outcome, len(preps))}
	for i := range preps {
		out, err := r.emit(el, preps[i], scope)
		if err != nil {
			tx.Rollback()
			scope.Rollback()
			return Result{}, err
		}
		if out.State == Failed {
			log.Debug("solid failed", zap.String("solid", out.Name), zap.Error(out.Err))
		}
		res.Solids[i] = out
	}

	res.Items, res.Bucket = r.aggregate(res.Solids)
	if len(res.Items) > 0 {
		tx.Commit()
		return res, nil
	}

	tx.Rollback()
	scope.Rollback()
	var errs []error
	for _, o := range res.Solids {
		if o.State == Failed {
			errs = append(errs, o.Err)
		}
	}
	if len(errs) > 0 {
		return res, fmt.Errorf("resolver: element %s: %w", el.ID, errors.Join(append([]error{ErrUnresolved}, errs...)...))
	}
	log.Debug("element completely clipped")
	return res, nil
}

func (r *Resolver) prepareAll(ctx context.Context, el Element) ([]prepared, error) {
	preps := make([]prepared, len(el.Solids))
	if r.workers < 2 || len(el.Solids) < 2 {
		for i, s := range el.Solids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			preps[i] = r.prepare(el, s)
			if fault.IsFatal(preps[i].out.Err) {
				return nil, preps[i].out.Err
			}
		}
		return preps, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, s := range el.Solids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			preps[i] = r.prepare(el, s)
			if fault.IsFatal(preps[i].out.Err) {
				return preps[i].out.Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return preps, nil
}

// prepare runs the range check and builds the extrusion and its kernel
// solid. It writes nothing.
func (r *Resolver) prepare(el Element, s Solid) (p prepared) {
	p.out = Outcome{Name: s.Name, State: Start}
	p.material = s.Material
	defer func() {
		if v := recover(); v != nil {
			p.out.State = Failed
			p.out.Err = fault.FromPanic(v)
		}
	}()
	fail := func(err error) prepared {
		p.out.State = Failed
		p.out.Err = fmt.Errorf("resolver: solid %s: %w", s.Name, err)
		return p
	}

	if s.Boundary.Complex {
		return fail(ErrComplexBoundary)
	}
	if el.Range != nil {
		if ext, ok := extent(s); ok && outside(ext, *el.Range) {
			p.out.State = CompletelyClipped
			return p
		}
	}

	desc, err := r.builder.FromLoops(s.Name, s.Boundary.Loops, s.Direction, s.Depth)
	if err != nil {
		return fail(err)
	}
	body, err := r.kernel.Extrusion(desc)
	if err != nil {
		return fail(err)
	}
	p.desc, p.body = desc, body
	p.out.Description = desc
	p.out.Quantities = extrusion.ComputeQuantities(s.Boundary.Loops, desc.Direction, desc)
	return p
}

// extent is the interval the solid covers along its unit direction.
func extent(s Solid) (r1.Interval, bool) {
	dir, ok := geom.Unit(s.Direction)
	if !ok || len(s.Boundary.Loops) == 0 {
		return r1.Interval{}, false
	}
	pl, err := s.Boundary.Loops[0].Plane()
	if err != nil {
		return r1.Interval{}, false
	}
	slant := pl.Normal.Dot(dir)
	if geom.IsAlmostZero(slant) {
		return r1.Interval{}, false
	}
	ext := r1.EmptyInterval()
	for _, l := range s.Boundary.Loops {
		for _, v := range l.Tessellate(geom.DefaultArcStep) {
			ext = ext.AddPoint(v.Dot(dir))
		}
	}
	if ext.IsEmpty() {
		return ext, false
	}
	length := s.Depth / abs(slant)
	return r1.Interval{Lo: ext.Lo, Hi: ext.Hi + length}, true
}

func outside(ext, valid r1.Interval) bool {
	ov := ext.Intersection(valid)
	return ov.IsEmpty() || ov.Length() <= geom.Eps
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

type deferredCut struct {
	cutter string
	fs     geom.FaceSet
}

// emit writes one prepared solid inside its own transaction. A returned
// error is fatal for the whole element.
func (r *Resolver) emit(el Element, p prepared, scope *session.ElementScope) (out Outcome, err error) {
	out = p.out
	if out.State != Start {
		return out, nil
	}

	stx := r.sink.Begin()
	defer func() {
		if v := recover(); v != nil {
			stx.Rollback()
			perr := fault.FromPanic(v)
			if fault.IsFatal(perr) {
				err = perr
				return
			}
			out.State, out.Handle, out.Solid = Failed, 0, nil
			out.Err = fmt.Errorf("resolver: solid %s: %w", out.Name, perr)
		}
	}()

	h, berr := r.sink.Extrusion(p.desc)
	if berr != nil {
		stx.Rollback()
		out.State = Failed
		out.Err = fmt.Errorf("resolver: solid %s: %w", out.Name, berr)
		return out, nil
	}
	body := Body{Handle: h, Solid: p.body, Direction: p.desc.Direction}
	out.State = BaseExtruded

	var deferred []deferredCut
	for _, c := range el.Cutters {
		for _, fs := range c.FaceSets {
			next, ok, cerr := r.guard(func() (Body, bool, error) { return r.cutter.Clip(body, fs) })
			if cerr != nil || !ok {
				r.logger.Debug("clip deferred to opening",
					zap.String("element", el.ID), zap.String("cutter", c.ID), zap.Error(cerr))
				deferred = append(deferred, deferredCut{cutter: c.ID, fs: fs})
				continue
			}
			if next.Handle != body.Handle {
				out.State = Clipped
			}
			body = next
		}
	}

	for _, d := range deferred {
		next, ok, oerr := r.guard(func() (Body, bool, error) { return r.cutter.Open(body, d.fs) })
		if oerr != nil {
			r.logger.Debug("opening failed, keeping applied cuts",
				zap.String("element", el.ID), zap.String("cutter", d.cutter), zap.Error(oerr))
			continue
		}
		if !ok {
			stx.Rollback()
			out.State, out.Handle, out.Solid = CompletelyClipped, 0, nil
			return out, nil
		}
		if next.Handle != body.Handle {
			out.State = BooleanApplied
		}
		body = next
	}

	stx.Commit()
	out.Handle, out.Solid = body.Handle, body.Solid

	if mat := p.material; mat != "" {
		style, _ := scope.Materials.GetOrCreate(mat, func() step.Handle { return r.sink.Style(mat) })
		r.sink.StyleItem(body.Handle, style)
	}
	return out, nil
}

// guard runs one cut inside its own savepoint. A panic discards what the
// cut wrote and comes back as its error, so the solid keeps the cuts
// applied before it. Fatal panics propagate.
func (r *Resolver) guard(cut func() (Body, bool, error)) (body Body, ok bool, err error) {
	tx := r.sink.Begin()
	defer func() {
		v := recover()
		if v == nil {
			tx.Commit()
			return
		}
		tx.Rollback()
		perr := fault.FromPanic(v)
		if fault.IsFatal(perr) {
			panic(perr)
		}
		body, ok, err = Body{}, false, perr
	}()
	return cut()
}
