// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Emptiness and
// equivalence are decided by sampling the distance fields on a grid;
// emptiness refines the grid where the sampled distances leave it open.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/ifcextrude/pkg/extrusion"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	"github.com/golang/geo/r3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

const (
	// defaultMeshCells controls marching cubes tessellation resolution.
	defaultMeshCells = 200
	// defaultSamples is the grid size per axis for emptiness and
	// equivalence queries.
	defaultSamples = 24
	// maxExtent is the largest box considered bounded.
	maxExtent = farAway / 10
)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s      sdf.SDF3
	lo, hi r3.Vector
}

func (s *sdfxSolid) BoundingBox() (min, max r3.Vector) {
	return s.lo, s.hi
}

func (s *sdfxSolid) bounded() bool {
	d := s.hi.Sub(s.lo)
	return d.X <= maxExtent && d.Y <= maxExtent && d.Z <= maxExtent
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	meshCells int
	samples   int
	arcStep   float64
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n > 0 {
			k.meshCells = n
		}
	}
}

// WithSamples sets the sampling grid size used by IsEmpty and Equivalent.
func WithSamples(n int) Option {
	return func(k *SdfxKernel) {
		if n > 1 {
			k.samples = n
		}
	}
}

// WithArcStep sets the chord angle used to polygonize circular profiles.
func WithArcStep(step float64) Option {
	return func(k *SdfxKernel) {
		if step > 0 {
			k.arcStep = step
		}
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{
		meshCells: defaultMeshCells,
		samples:   defaultSamples,
		arcStep:   geom.DefaultArcStep,
	}
	for _, o := range opts {
		o(k)
	}
	return k
}

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	return s.(*sdfxSolid)
}

func wrap(s sdf.SDF3) *sdfxSolid {
	bb := s.BoundingBox()
	return &sdfxSolid{s: s, lo: unvec(bb.Min), hi: unvec(bb.Max)}
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Extrusion builds the swept solid of d.
func (k *SdfxKernel) Extrusion(d extrusion.Description) (kernel.Solid, error) {
	p, err := newPrism(d, k.arcStep)
	if err != nil {
		return nil, err
	}
	return wrap(p), nil
}

// HalfSpace returns the material behind pl.
func (k *SdfxKernel) HalfSpace(pl geom.Plane) kernel.Solid {
	return wrap(&halfSpace{origin: pl.Origin, normal: pl.Normal})
}

// Polyhedron returns the convex solid bounded by fs.
func (k *SdfxKernel) Polyhedron(fs geom.FaceSet) (kernel.Solid, error) {
	p, err := newPolyhedron(fs)
	if err != nil {
		return nil, err
	}
	return wrap(p), nil
}

// ---------------------------------------------------------------------------
// Boolean operations
// ---------------------------------------------------------------------------

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	return &sdfxSolid{
		s:  sdf.Union3D(sa.s, sb.s),
		lo: minVec(sa.lo, sb.lo),
		hi: maxVec(sa.hi, sb.hi),
	}
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	return &sdfxSolid{s: sdf.Difference3D(sa.s, sb.s), lo: sa.lo, hi: sa.hi}
}

// Intersection returns the intersection of two solids. An empty box
// intersection yields a solid with lo > hi on some axis.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	return &sdfxSolid{
		s:  sdf.Intersect3D(sa.s, sb.s),
		lo: maxVec(sa.lo, sb.lo),
		hi: minVec(sa.hi, sb.hi),
	}
}

func minVec(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func maxVec(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// IsEmpty reports whether s has no interior point. Unbounded solids are
// never empty.
//
// The distance fields built here never change faster than the distance
// itself, so a grid cell whose centre lies further outside than half its
// diagonal holds no material. Cells that are not settled this way are
// halved until a point inside turns up or they shrink below the
// resolution floor. Material thinner than the floor is ignored.
func (k *SdfxKernel) IsEmpty(s kernel.Solid) bool {
	ss := unwrap(s)
	if !ss.bounded() {
		return false
	}
	if ss.lo.X >= ss.hi.X || ss.lo.Y >= ss.hi.Y || ss.lo.Z >= ss.hi.Z {
		return true
	}
	size := ss.hi.Sub(ss.lo)
	floor := math.Max(math.Max(size.X, math.Max(size.Y, size.Z))/float64(k.samples<<refineLevels), geom.VertexEps)
	half := size.Mul(0.5 / float64(k.samples))

	var open []cell
	inside := false
	k.sample(ss.lo, ss.hi, func(q r3.Vector) bool {
		c := cell{lo: q.Sub(half), hi: q.Add(half)}
		switch v := ss.s.Evaluate(vec(q)); {
		case v < -geom.Eps:
			inside = true
		case v <= c.radius():
			open = append(open, c)
		}
		return !inside
	})
	if inside {
		return false
	}
	for _, c := range open {
		if findInside(ss.s, c, floor) {
			return false
		}
	}
	return true
}

// refineLevels bounds how far below the sampling grid IsEmpty refines.
const refineLevels = 4

// cell is an axis-aligned box of the emptiness search.
type cell struct {
	lo, hi r3.Vector
}

func (c cell) centre() r3.Vector { return c.lo.Add(c.hi).Mul(0.5) }
func (c cell) radius() float64   { return c.hi.Sub(c.lo).Norm() / 2 }

// split halves c across its longest side.
func (c cell) split() (cell, cell) {
	a, b := c, c
	mid := c.centre()
	d := c.hi.Sub(c.lo)
	switch {
	case d.X >= d.Y && d.X >= d.Z:
		a.hi.X, b.lo.X = mid.X, mid.X
	case d.Y >= d.Z:
		a.hi.Y, b.lo.Y = mid.Y, mid.Y
	default:
		a.hi.Z, b.lo.Z = mid.Z, mid.Z
	}
	return a, b
}

// findInside reports whether some point of c lies inside s, halving c
// down to cells with a radius of floor.
func findInside(s sdf.SDF3, c cell, floor float64) bool {
	a, b := c.split()
	for _, h := range [2]cell{a, b} {
		v, r := s.Evaluate(vec(h.centre())), h.radius()
		if v < -geom.Eps {
			return true
		}
		if v > r || r <= floor {
			continue
		}
		if findInside(s, h, floor) {
			return true
		}
	}
	return false
}

// Equivalent reports whether a and b contain the same sample points,
// ignoring points within one grid cell of either surface. At least one
// solid must be bounded.
func (k *SdfxKernel) Equivalent(a, b kernel.Solid) bool {
	sa, sb := unwrap(a), unwrap(b)
	var lo, hi r3.Vector
	switch {
	case sa.bounded() && sb.bounded():
		lo, hi = minVec(sa.lo, sb.lo), maxVec(sa.hi, sb.hi)
	case sa.bounded():
		lo, hi = sa.lo, sa.hi
	case sb.bounded():
		lo, hi = sb.lo, sb.hi
	default:
		return false
	}
	size := hi.Sub(lo)
	band := math.Max(size.X, math.Max(size.Y, size.Z)) / float64(k.samples)

	same := true
	k.sample(lo, hi, func(q r3.Vector) bool {
		va, vb := sa.s.Evaluate(vec(q)), sb.s.Evaluate(vec(q))
		if (va < 0) != (vb < 0) && math.Abs(va) > band && math.Abs(vb) > band {
			same = false
		}
		return same
	})
	return same
}

// sample visits the cell centres of a samples^3 grid over [lo, hi] until
// visit returns false.
func (k *SdfxKernel) sample(lo, hi r3.Vector, visit func(r3.Vector) bool) {
	n := k.samples
	step := hi.Sub(lo).Mul(1 / float64(n))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for l := 0; l < n; l++ {
				q := r3.Vector{
					X: lo.X + (float64(i)+0.5)*step.X,
					Y: lo.Y + (float64(j)+0.5)*step.Y,
					Z: lo.Z + (float64(l)+0.5)*step.Z,
				}
				if !visit(q) {
					return
				}
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Mesh output
// ---------------------------------------------------------------------------

// ToMesh converts a bounded solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ss := unwrap(s)
	if !ss.bounded() {
		return nil, kernel.ErrUnbounded
	}
	if k.IsEmpty(s) {
		return &kernel.Mesh{}, nil
	}
	// Pad so the surface never coincides with the grid boundary.
	pad := ss.hi.Sub(ss.lo).Mul(0.02).Add(r3.Vector{X: geom.VertexEps, Y: geom.VertexEps, Z: geom.VertexEps})
	sdf3 := boxed{SDF3: ss.s, bb: sdf.Box3{Min: vec(ss.lo.Sub(pad)), Max: vec(ss.hi.Add(pad))}}

	renderer := render.NewMarchingCubesUniform(k.meshCells)
	triangles := render.ToTriangles(sdf3, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: mesh: no triangles for non-empty solid")
	}

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
