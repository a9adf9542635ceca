// Package tessellate resolves each element of a model against its
// openings and produces triangle meshes using a geometry kernel. One mesh
// is produced per element that keeps any volume.
package tessellate

import (
	"context"
	"fmt"

	"github.com/chazu/ifcextrude/pkg/export"
	"github.com/chazu/ifcextrude/pkg/fault"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/ifc"
	"github.com/chazu/ifcextrude/pkg/kernel"
	"github.com/chazu/ifcextrude/pkg/model"
	"github.com/chazu/ifcextrude/pkg/resolver"
	"github.com/chazu/ifcextrude/pkg/session"
	"github.com/chazu/ifcextrude/pkg/step"
	"go.uber.org/zap"
)

// Options configure Tessellate.
type Options struct {
	Scale   float64
	ArcStep float64
	Logger  *zap.Logger
}

// Skipped records an element that produced no mesh because it failed.
type Skipped struct {
	Element model.ElementID
	Err     error
}

// Tessellate meshes every body of m. Solids are resolved exactly as the
// exporter resolves them, so the meshes show clipped and opened bodies.
// Elements that fail are reported in skipped; a fatal failure stops the
// walk. The tessellator never mutates the model.
func Tessellate(ctx context.Context, m *model.Model, k kernel.Kernel, opts Options) (meshes []*kernel.Mesh, skipped []Skipped, err error) {
	if m == nil {
		return nil, nil, nil
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	if opts.ArcStep <= 0 {
		opts.ArcStep = geom.DefaultArcStep
	}

	// The resolver writes entities as it goes; they land in a scratch file.
	sink := ifc.NewSink(ifc.NewWriter(step.NewFile("IFC2X3")), nil)
	r := resolver.New(k, sink, resolver.Options{ArcStep: opts.ArcStep, Logger: opts.Logger})
	sess := session.New(opts.Logger)
	cutters := export.CutterMap(m, opts.ArcStep)

	for _, e := range m.Bodies() {
		mesh, err := tessellateElement(ctx, k, r, sess, e, cutters[e.ID], m.Defaults, opts.Scale)
		switch {
		case fault.IsFatal(err):
			return nil, nil, fmt.Errorf("tessellate: element %s: %w", e.ID.Short(), err)
		case err != nil:
			opts.Logger.Warn("element not meshed", zap.String("element", string(e.ID)), zap.Error(err))
			skipped = append(skipped, Skipped{Element: e.ID, Err: err})
		case mesh != nil:
			meshes = append(meshes, mesh)
		}
	}
	return meshes, skipped, nil
}

// tessellateElement unions the resolved solids of one element and meshes
// the result. It returns nil when nothing of the element remains.
func tessellateElement(
	ctx context.Context,
	k kernel.Kernel,
	r *resolver.Resolver,
	sess *session.Session,
	e *model.Element,
	cutters []*model.Element,
	defaults model.Defaults,
	scale float64,
) (mesh *kernel.Mesh, err error) {
	defer func() {
		if v := recover(); v != nil {
			mesh, err = nil, fault.FromPanic(v)
		}
	}()

	el := export.ResolverElement(e.ID, e.Data.(model.BodyData), cutters, defaults, scale)
	scope := sess.Begin()
	res, err := r.Resolve(ctx, el, scope)
	if err != nil {
		return nil, err
	}
	scope.Commit()

	var solid kernel.Solid
	for _, o := range res.Solids {
		if o.Solid == nil || o.State == resolver.Failed || o.State == resolver.CompletelyClipped {
			continue
		}
		if solid == nil {
			solid = o.Solid
			continue
		}
		solid = k.Union(solid, o.Solid)
	}
	if solid == nil {
		return nil, nil
	}

	mesh, err = k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for element %s: %w", e.ID.Short(), err)
	}
	if mesh.IsEmpty() {
		return nil, nil
	}

	// Prefer the element name, fall back to the short ID.
	if e.Name != "" {
		mesh.Element = e.Name
	} else {
		mesh.Element = e.ID.Short()
	}
	return mesh, nil
}
