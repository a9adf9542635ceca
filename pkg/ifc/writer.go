// Package ifc emits the IFC2x3 entities used for extruded building
// element bodies: profile definitions, extruded area solids, clipping and
// boolean results, representations, styles and products.
package ifc

import (
	"fmt"

	"github.com/chazu/ifcextrude/pkg/extrusion"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/profile"
	"github.com/chazu/ifcextrude/pkg/step"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// BooleanOp is an IfcBooleanOperator.
type BooleanOp string

const (
	Union        BooleanOp = "UNION"
	Difference   BooleanOp = "DIFFERENCE"
	Intersection BooleanOp = "INTERSECTION"
)

// Representation types written in IfcShapeRepresentation.RepresentationType.
const (
	RepSweptSolid = "SweptSolid"
	RepClipping   = "Clipping"
	RepCSG        = "CSG"
	RepBrep       = "Brep"
)

const contextEntity = "IFCGEOMETRICREPRESENTATIONCONTEXT"

// Writer creates IFC entities in a STEP file. The representation context
// is created lazily on first use.
type Writer struct {
	f       *step.File
	context step.Handle
}

// NewWriter wraps f.
func NewWriter(f *step.File) *Writer {
	return &Writer{f: f}
}

// File returns the underlying STEP file.
func (w *Writer) File() *step.File { return w.f }

// Begin opens a transaction on the underlying file.
func (w *Writer) Begin() *step.Tx { return w.f.Begin() }

// ---------------------------------------------------------------------------
// Geometry resources
// ---------------------------------------------------------------------------

func (w *Writer) CartesianPoint(coords ...float64) step.Handle {
	return w.f.Add("IFCCARTESIANPOINT", coords)
}

func (w *Writer) Direction(ratios ...float64) step.Handle {
	return w.f.Add("IFCDIRECTION", ratios)
}

func (w *Writer) point3(v r3.Vector) step.Handle { return w.CartesianPoint(v.X, v.Y, v.Z) }
func (w *Writer) dir3(v r3.Vector) step.Handle   { return w.Direction(v.X, v.Y, v.Z) }

// Axis2Placement2D writes a 2D placement.
func (w *Writer) Axis2Placement2D(origin, ref r2.Point) step.Handle {
	return w.f.Add("IFCAXIS2PLACEMENT2D", w.CartesianPoint(origin.X, origin.Y), w.Direction(ref.X, ref.Y))
}

// Axis2Placement3D writes a 3D placement with axis (local Z) and
// reference direction (local X).
func (w *Writer) Axis2Placement3D(origin, axis, ref r3.Vector) step.Handle {
	return w.f.Add("IFCAXIS2PLACEMENT3D", w.point3(origin), w.dir3(axis), w.dir3(ref))
}

// PlanePlacement writes the placement of plane pl.
func (w *Writer) PlanePlacement(pl geom.Plane) step.Handle {
	return w.Axis2Placement3D(pl.Origin, pl.Normal, pl.XVec)
}

// Polyline writes a closed 2D polyline; the first point is repeated at
// the end.
func (w *Writer) Polyline(pts profile.Polyline) step.Handle {
	hs := make([]step.Handle, 0, len(pts)+1)
	for _, p := range pts {
		hs = append(hs, w.CartesianPoint(p.X, p.Y))
	}
	if len(hs) > 0 {
		hs = append(hs, hs[0])
	}
	return w.f.Add("IFCPOLYLINE", hs)
}

// ---------------------------------------------------------------------------
// Profiles and solids
// ---------------------------------------------------------------------------

// Profile writes the profile definition for p.
func (w *Writer) Profile(name string, p profile.Profile) (step.Handle, error) {
	var label any
	if name != "" {
		label = name
	}
	area := step.Enum("AREA")

	switch p := p.(type) {
	case profile.RectangleProfile:
		pos := w.Axis2Placement2D(p.Position.Origin, p.Position.RefDirection)
		return w.f.Add("IFCRECTANGLEPROFILEDEF", area, label, pos, p.XDim, p.YDim), nil
	case profile.CircleProfile:
		pos := w.Axis2Placement2D(p.Position.Origin, p.Position.RefDirection)
		if p.IsHollow() {
			return w.f.Add("IFCCIRCLEHOLLOWPROFILEDEF", area, label, pos, p.Radius, p.WallThickness()), nil
		}
		return w.f.Add("IFCCIRCLEPROFILEDEF", area, label, pos, p.Radius), nil
	case profile.IShapeProfile:
		pos := w.Axis2Placement2D(p.Position.Origin, p.Position.RefDirection)
		var fillet any
		if p.FilletRadius != nil {
			fillet = *p.FilletRadius
		}
		return w.f.Add("IFCISHAPEPROFILEDEF", area, label, pos,
			p.OverallWidth, p.OverallDepth, p.WebThickness, p.FlangeThickness, fillet), nil
	case profile.ArbitraryProfile:
		if len(p.Outer) < 3 {
			return 0, fmt.Errorf("ifc: arbitrary profile with %d points", len(p.Outer))
		}
		outer := w.Polyline(p.Outer)
		if len(p.Inner) == 0 {
			return w.f.Add("IFCARBITRARYCLOSEDPROFILEDEF", area, label, outer), nil
		}
		inner := make([]step.Handle, len(p.Inner))
		for i, h := range p.Inner {
			inner[i] = w.Polyline(h)
		}
		return w.f.Add("IFCARBITRARYPROFILEDEFWITHVOIDS", area, label, outer, inner), nil
	}
	return 0, fmt.Errorf("ifc: unsupported profile %T", p)
}

// ExtrudedAreaSolid writes the solid for d using an existing profile.
func (w *Writer) ExtrudedAreaSolid(prof step.Handle, d extrusion.Description) step.Handle {
	pos := w.PlanePlacement(d.Plane)
	l := d.LocalDirection
	return w.f.Add("IFCEXTRUDEDAREASOLID", prof, pos, w.Direction(l.X, l.Y, l.Z), d.Depth)
}

// HalfSpaceSolid writes the half space behind pl (opposite its normal).
func (w *Writer) HalfSpaceSolid(pl geom.Plane) step.Handle {
	surface := w.f.Add("IFCPLANE", w.PlanePlacement(pl))
	return w.f.Add("IFCHALFSPACESOLID", surface, true)
}

// BooleanClippingResult writes first minus second, second a half space.
func (w *Writer) BooleanClippingResult(first, second step.Handle) step.Handle {
	return w.f.Add("IFCBOOLEANCLIPPINGRESULT", step.Enum(Difference), first, second)
}

// BooleanResult writes first op second.
func (w *Writer) BooleanResult(op BooleanOp, first, second step.Handle) step.Handle {
	return w.f.Add("IFCBOOLEANRESULT", step.Enum(op), first, second)
}

// FacetedBrep writes a closed shell with one face per entry of fs.
func (w *Writer) FacetedBrep(fs geom.FaceSet) step.Handle {
	faces := make([]step.Handle, 0, len(fs))
	for _, f := range fs {
		bounds := make([]step.Handle, 0, len(f.Loops))
		for i, l := range f.Loops {
			pts := l.Tessellate(geom.DefaultArcStep)
			hs := make([]step.Handle, len(pts))
			for j, p := range pts {
				hs[j] = w.point3(p)
			}
			loop := w.f.Add("IFCPOLYLOOP", hs)
			if i == 0 {
				bounds = append(bounds, w.f.Add("IFCFACEOUTERBOUND", loop, true))
			} else {
				bounds = append(bounds, w.f.Add("IFCFACEBOUND", loop, true))
			}
		}
		faces = append(faces, w.f.Add("IFCFACE", bounds))
	}
	shell := w.f.Add("IFCCLOSEDSHELL", faces)
	return w.f.Add("IFCFACETEDBREP", shell)
}

// ---------------------------------------------------------------------------
// Representations, styles and products
// ---------------------------------------------------------------------------

// Context returns the model representation context. It is recreated if a
// rollback discarded it.
func (w *Writer) Context() step.Handle {
	if e, _, ok := w.f.Entity(w.context); !ok || e != contextEntity {
		origin := w.Axis2Placement3D(r3.Vector{}, r3.Vector{Z: 1}, r3.Vector{X: 1})
		w.context = w.f.Add(contextEntity, nil, "Model", 3, 1e-5, origin, nil)
	}
	return w.context
}

// ShapeRepresentation writes a Body representation of the given type.
func (w *Writer) ShapeRepresentation(repType string, items []step.Handle) step.Handle {
	return w.f.Add("IFCSHAPEREPRESENTATION", w.Context(), "Body", repType, items)
}

// ProductDefinitionShape wraps representations for a product.
func (w *Writer) ProductDefinitionShape(reps ...step.Handle) step.Handle {
	return w.f.Add("IFCPRODUCTDEFINITIONSHAPE", nil, nil, reps)
}

// SurfaceStyle writes a named shaded surface style and returns its
// presentation style assignment.
func (w *Writer) SurfaceStyle(name string, rgb [3]float64) step.Handle {
	colour := w.f.Add("IFCCOLOURRGB", nil, rgb[0], rgb[1], rgb[2])
	shading := w.f.Add("IFCSURFACESTYLESHADING", colour)
	style := w.f.Add("IFCSURFACESTYLE", name, step.Enum("BOTH"), []step.Handle{shading})
	return w.f.Add("IFCPRESENTATIONSTYLEASSIGNMENT", []step.Handle{style})
}

// StyledItem attaches a presentation style assignment to a solid.
func (w *Writer) StyledItem(item, style step.Handle) step.Handle {
	return w.f.Add("IFCSTYLEDITEM", item, []step.Handle{style}, nil)
}

// Material writes an IfcMaterial.
func (w *Writer) Material(name string) step.Handle {
	return w.f.Add("IFCMATERIAL", name)
}

// AssociateMaterial relates products to a material.
func (w *Writer) AssociateMaterial(material step.Handle, products ...step.Handle) step.Handle {
	return w.f.Add("IFCRELASSOCIATESMATERIAL", NewGlobalID(), nil, nil, nil, products, material)
}

// LocalPlacement writes an absolute placement at the model origin.
func (w *Writer) LocalPlacement() step.Handle {
	rel := w.Axis2Placement3D(r3.Vector{}, r3.Vector{Z: 1}, r3.Vector{X: 1})
	return w.f.Add("IFCLOCALPLACEMENT", nil, rel)
}

// Product writes a building element of the given entity type, e.g.
// IFCWALL.
func (w *Writer) Product(entity, globalID, name, typeName string, shape step.Handle) step.Handle {
	var objType any
	if typeName != "" {
		objType = typeName
	}
	return w.f.Add(entity, globalID, nil, name, nil, objType, w.LocalPlacement(), shape, nil)
}

// ---------------------------------------------------------------------------
// Project structure and layers
// ---------------------------------------------------------------------------

// Project writes an IfcProject in millimetres and an IfcSite aggregated
// under it, and returns the site that products are contained in.
func (w *Writer) Project(name string) (project, site step.Handle) {
	length := w.f.Add("IFCSIUNIT", step.Derived{}, step.Enum("LENGTHUNIT"), step.Enum("MILLI"), step.Enum("METRE"))
	area := w.f.Add("IFCSIUNIT", step.Derived{}, step.Enum("AREAUNIT"), nil, step.Enum("SQUARE_METRE"))
	volume := w.f.Add("IFCSIUNIT", step.Derived{}, step.Enum("VOLUMEUNIT"), nil, step.Enum("CUBIC_METRE"))
	angle := w.f.Add("IFCSIUNIT", step.Derived{}, step.Enum("PLANEANGLEUNIT"), nil, step.Enum("RADIAN"))
	units := w.f.Add("IFCUNITASSIGNMENT", []step.Handle{length, area, volume, angle})

	project = w.f.Add("IFCPROJECT", NewGlobalID(), nil, name, nil, nil, nil, nil, []step.Handle{w.Context()}, units)
	site = w.f.Add("IFCSITE", NewGlobalID(), nil, "Default Site", nil, nil, w.LocalPlacement(), nil, nil,
		step.Enum("ELEMENT"), nil, nil, nil, nil, nil)
	w.f.Add("IFCRELAGGREGATES", NewGlobalID(), nil, nil, nil, project, []step.Handle{site})
	return project, site
}

// ContainInSite relates products to the spatial structure element.
func (w *Writer) ContainInSite(site step.Handle, products []step.Handle) step.Handle {
	return w.f.Add("IFCRELCONTAINEDINSPATIALSTRUCTURE", NewGlobalID(), nil, nil, nil, products, site)
}

// PresentationLayer assigns representations to a named layer.
func (w *Writer) PresentationLayer(name string, items []step.Handle) step.Handle {
	return w.f.Add("IFCPRESENTATIONLAYERASSIGNMENT", name, nil, items, nil)
}

// ElementQuantity writes the base quantities of an extruded element and
// relates them to product. Zero height and width are omitted; the slope
// has no IFC2x3 quantity type and is not written.
func (w *Writer) ElementQuantity(product step.Handle, q extrusion.Quantities) step.Handle {
	length := func(name string, v float64) step.Handle {
		return w.f.Add("IFCQUANTITYLENGTH", name, nil, nil, v)
	}
	qs := []step.Handle{
		length("Length", q.Length),
		w.f.Add("IFCQUANTITYAREA", "CrossSectionArea", nil, nil, q.Area),
		length("OuterPerimeter", q.OuterPerimeter),
	}
	if q.InnerPerimeter > 0 {
		qs = append(qs, length("InnerPerimeter", q.InnerPerimeter))
	}
	if q.Height > 0 {
		qs = append(qs, length("Height", q.Height))
	}
	if q.Width > 0 {
		qs = append(qs, length("Width", q.Width))
	}

	eq := w.f.Add("IFCELEMENTQUANTITY", NewGlobalID(), nil, "BaseQuantities", nil, nil, qs)
	w.f.Add("IFCRELDEFINESBYPROPERTIES", NewGlobalID(), nil, nil, nil, []step.Handle{product}, eq)
	return eq
}
