package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/ifcextrude/pkg/extrusion"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/profile"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/golang/geo/r3"
)

// farAway bounds half spaces so they stay usable in booleans.
const farAway = 1e6

// ErrNonConvex is returned by Polyhedron for face sets that do not bound
// a convex solid.
var ErrNonConvex = errors.New("sdfx: face set is not convex")

func vec(v r3.Vector) v3.Vec   { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
func unvec(v v3.Vec) r3.Vector { return r3.Vector{X: v.X, Y: v.Y, Z: v.Z} }

// ---------------------------------------------------------------------------
// Prism
// ---------------------------------------------------------------------------

// prism is a profile swept along an oblique direction. The profile lives
// in the placement plane; a point at height z above the plane is mapped
// back along the direction onto the plane before the profile is queried.
type prism struct {
	area   sdf.SDF2
	plane  geom.Plane
	shear  v2.Vec // in-plane offset per unit height
	height float64
	scale  float64
	bb     sdf.Box3
}

func newPrism(d extrusion.Description, step float64) (*prism, error) {
	outer, inner := profile.Outline(d.Profile, step)
	if len(outer) < 3 {
		return nil, fmt.Errorf("sdfx: %s profile has no area", d.Profile.Kind())
	}
	area, err := polygon(outer)
	if err != nil {
		return nil, err
	}
	for _, h := range inner {
		hole, err := polygon(h)
		if err != nil {
			return nil, err
		}
		area = sdf.Difference2D(area, hole)
	}

	l := d.LocalDirection
	if l.Z <= geom.Eps {
		return nil, extrusion.ErrParallelDirection
	}
	height := d.Depth * l.Z
	p := &prism{
		area:   area,
		plane:  d.Plane,
		shear:  v2.Vec{X: l.X / l.Z, Y: l.Y / l.Z},
		height: height,
		scale:  l.Z,
	}

	top := d.Direction.Mul(d.Depth)
	lo := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := lo.Mul(-1)
	for _, uv := range outer {
		base := d.Plane.Point(uv)
		for _, q := range []r3.Vector{base, base.Add(top)} {
			lo = r3.Vector{X: math.Min(lo.X, q.X), Y: math.Min(lo.Y, q.Y), Z: math.Min(lo.Z, q.Z)}
			hi = r3.Vector{X: math.Max(hi.X, q.X), Y: math.Max(hi.Y, q.Y), Z: math.Max(hi.Z, q.Z)}
		}
	}
	p.bb = sdf.Box3{Min: vec(lo), Max: vec(hi)}
	return p, nil
}

func polygon(pts profile.Polyline) (sdf.SDF2, error) {
	vs := make([]v2.Vec, len(pts))
	for i, p := range pts {
		vs[i] = v2.Vec{X: p.X, Y: p.Y}
	}
	s, err := sdf.Polygon2D(vs)
	if err != nil {
		return nil, fmt.Errorf("sdfx: polygon: %w", err)
	}
	return s, nil
}

func (p *prism) Evaluate(q v3.Vec) float64 {
	l := p.plane.Local(unvec(q).Sub(p.plane.Origin))
	uv := v2.Vec{X: l.X - l.Z*p.shear.X, Y: l.Y - l.Z*p.shear.Y}
	side := p.area.Evaluate(uv) * p.scale
	ends := math.Max(-l.Z, l.Z-p.height)
	return math.Max(side, ends)
}

func (p *prism) BoundingBox() sdf.Box3 { return p.bb }

// ---------------------------------------------------------------------------
// Half space
// ---------------------------------------------------------------------------

// halfSpace is the material behind a plane.
type halfSpace struct {
	origin, normal r3.Vector
}

func (h *halfSpace) Evaluate(q v3.Vec) float64 {
	return unvec(q).Sub(h.origin).Dot(h.normal)
}

func (h *halfSpace) BoundingBox() sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{X: -farAway, Y: -farAway, Z: -farAway},
		Max: v3.Vec{X: farAway, Y: farAway, Z: farAway},
	}
}

// ---------------------------------------------------------------------------
// Convex polyhedron
// ---------------------------------------------------------------------------

// polyhedron is the intersection of the half spaces behind its face
// planes.
type polyhedron struct {
	faces []halfSpace
	bb    sdf.Box3
}

func newPolyhedron(fs geom.FaceSet) (*polyhedron, error) {
	planes, err := fs.OutwardPlanes()
	if err != nil {
		return nil, fmt.Errorf("sdfx: polyhedron: %w", err)
	}
	if len(planes) < 4 {
		return nil, fmt.Errorf("sdfx: %d faces: %w", len(planes), geom.ErrDegenerate)
	}
	lo, hi, _ := fs.Bounds()
	verts := fs.Vertices()

	p := &polyhedron{bb: sdf.Box3{Min: vec(lo), Max: vec(hi)}}
	for _, pl := range planes {
		h := halfSpace{origin: pl.Origin, normal: pl.Normal}
		for _, v := range verts {
			if h.Evaluate(vec(v)) > geom.VertexEps {
				return nil, ErrNonConvex
			}
		}
		p.faces = append(p.faces, h)
	}
	return p, nil
}

func (p *polyhedron) Evaluate(q v3.Vec) float64 {
	d := math.Inf(-1)
	for i := range p.faces {
		d = math.Max(d, p.faces[i].Evaluate(q))
	}
	return d
}

func (p *polyhedron) BoundingBox() sdf.Box3 { return p.bb }

// ---------------------------------------------------------------------------
// Bounds override
// ---------------------------------------------------------------------------

// boxed reports a tighter bounding box than its wrapped SDF.
type boxed struct {
	sdf.SDF3
	bb sdf.Box3
}

func (b boxed) BoundingBox() sdf.Box3 { return b.bb }
