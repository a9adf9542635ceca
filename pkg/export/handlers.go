package export

import (
	"context"
	"fmt"

	"github.com/chazu/ifcextrude/pkg/extrusion"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/ifc"
	"github.com/chazu/ifcextrude/pkg/model"
	"github.com/chazu/ifcextrude/pkg/resolver"
	"github.com/golang/geo/r1"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// BodyHandler exports elements with extruded bodies: the element's
// solids are resolved against the openings that cut it and written as
// one shape representation of a product.
type BodyHandler struct{}

func (BodyHandler) Name() string  { return "body" }
func (BodyHandler) Priority() int { return 0 }

func (BodyHandler) CanHandle(e *model.Element) bool {
	_, ok := e.Data.(model.BodyData)
	return ok
}

func (BodyHandler) Export(ctx context.Context, x *Context, e *model.Element) (*Product, error) {
	bd, ok := e.Data.(model.BodyData)
	if !ok {
		return nil, fmt.Errorf("export: body handler: unexpected %T", e.Data)
	}

	el := ResolverElement(e.ID, bd, x.Cutters, x.Defaults, x.Scale)
	res, err := x.Resolver.Resolve(ctx, el, x.Scope)
	if err != nil {
		return nil, err
	}

	p := &Product{
		Element: e.ID,
		Name:    e.Name,
		Entity:  e.Kind.Entity(),
		Solids:  solidReports(el, res),
	}
	if len(res.Items) == 0 {
		return p, nil
	}

	w := x.Writer
	rep := w.ShapeRepresentation(res.Bucket.RepresentationType(), res.Items)
	p.Representation = res.Bucket.RepresentationType()
	p.GlobalID = ifc.NewGlobalID()
	p.Handle = w.Product(p.Entity, p.GlobalID, e.Name, e.TypeName, w.ProductDefinitionShape(rep))
	if e.Layer != "" {
		x.Scope.AddToLayer(e.Layer, rep)
	}
	if x.BaseQuantities {
		w.ElementQuantity(p.Handle, baseQuantities(p.Solids))
	}
	p.Materials = lo.Uniq(lo.FilterMap(p.Solids, func(s SolidReport, _ int) (string, bool) {
		return s.Material, s.Material != "" && s.Error == "" && s.State != resolver.CompletelyClipped.String()
	}))
	x.Logger.Debug("element exported",
		zap.String("representation", p.Representation), zap.Int("items", len(res.Items)))
	return p, nil
}

// OpeningHandler accepts opening elements. Their volumes are applied to
// the hosts by BodyHandler, so they write nothing themselves.
type OpeningHandler struct{}

func (OpeningHandler) Name() string  { return "opening" }
func (OpeningHandler) Priority() int { return 0 }

func (OpeningHandler) CanHandle(e *model.Element) bool {
	_, ok := e.Data.(model.OpeningData)
	return ok
}

func (OpeningHandler) Export(ctx context.Context, x *Context, e *model.Element) (*Product, error) {
	return nil, nil
}

// ResolverElement converts a model body to resolver input, scaling every
// length by scale. Solids without a material take the model default.
func ResolverElement(id model.ElementID, bd model.BodyData, cutters []*model.Element, defaults model.Defaults, scale float64) resolver.Element {
	el := resolver.Element{ID: string(id)}
	for i, s := range bd.Solids {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("%s/%d", id.Short(), i)
		}
		mat := s.Material
		if mat == "" {
			mat = defaults.Material
		}
		el.Solids = append(el.Solids, resolver.Solid{
			Name:      name,
			Boundary:  resolver.Boundary{Loops: scaleLoops(s.Loops, scale), Complex: s.Complex},
			Direction: s.Direction,
			Depth:     s.Depth * scale,
			Material:  mat,
		})
	}
	if bd.Range != nil {
		el.Range = &r1.Interval{Lo: bd.Range.Lo * scale, Hi: bd.Range.Hi * scale}
	}
	for _, c := range cutters {
		op, ok := c.Data.(model.OpeningData)
		if !ok {
			continue
		}
		el.Cutters = append(el.Cutters, resolver.CuttingElement{
			ID: string(c.ID),
			FaceSets: lo.Map(op.FaceSets, func(fs geom.FaceSet, _ int) geom.FaceSet {
				return fs.Scaled(scale)
			}),
		})
	}
	return el
}

// baseQuantities combines the quantities of the solids that kept volume.
// A lone solid reports its own; several add up their areas and
// perimeters and take the longest length.
func baseQuantities(solids []SolidReport) extrusion.Quantities {
	kept := lo.Filter(solids, func(s SolidReport, _ int) bool {
		return s.Error == "" && s.State != resolver.CompletelyClipped.String()
	})
	if len(kept) == 1 {
		return kept[0].Quantities
	}
	var q extrusion.Quantities
	for _, s := range kept {
		q.Length = max(q.Length, s.Quantities.Length)
		q.Area += s.Quantities.Area
		q.OuterPerimeter += s.Quantities.OuterPerimeter
		q.InnerPerimeter += s.Quantities.InnerPerimeter
	}
	return q
}

func scaleLoops(loops []geom.CurveLoop, scale float64) []geom.CurveLoop {
	out := make([]geom.CurveLoop, len(loops))
	for i, l := range loops {
		out[i] = l.Scaled(scale)
	}
	return out
}

func solidReports(el resolver.Element, res resolver.Result) []SolidReport {
	out := make([]SolidReport, len(res.Solids))
	for i, o := range res.Solids {
		r := SolidReport{Name: o.Name, State: o.State.String(), Quantities: o.Quantities}
		if i < len(el.Solids) {
			r.Material = el.Solids[i].Material
		}
		if o.Description.Profile != nil {
			r.Profile = o.Description.Profile.Kind().String()
		}
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
		out[i] = r
	}
	return out
}
