// Package kernel defines the solid modelling interface used to evaluate
// clipping and opening booleans. Implementations (sdfx) build solids from
// extrusion descriptions, half spaces and cutter face sets, and answer
// the emptiness and equivalence questions the resolver asks before it
// commits a representation.
package kernel

import (
	"errors"

	"github.com/chazu/ifcextrude/pkg/extrusion"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r3"
)

// ErrUnbounded is returned when an operation needs a finite solid.
var ErrUnbounded = errors.New("kernel: solid is unbounded")

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box. Half spaces and
	// solids derived from them report a very large box.
	BoundingBox() (min, max r3.Vector)
}

// Kernel is the abstract geometry kernel.
type Kernel interface {
	// Primitives
	Extrusion(d extrusion.Description) (Solid, error)
	HalfSpace(pl geom.Plane) Solid // material behind pl, opposite its normal
	Polyhedron(fs geom.FaceSet) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Queries
	IsEmpty(s Solid) bool
	Equivalent(a, b Solid) bool

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Bounded reports whether s has a finite bounding box no larger than
// limit along any axis.
func Bounded(s Solid, limit float64) bool {
	lo, hi := s.BoundingBox()
	d := hi.Sub(lo)
	return d.X <= limit && d.Y <= limit && d.Z <= limit
}
