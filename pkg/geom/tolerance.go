// Package geom holds the planar geometry shared by the profile recognizers
// and the extrusion builder: tolerance predicates, planes, line and arc
// segments, curve loops and cutting faces.
//
// Points and directions are r3.Vector values. Parameter-space (UV) points
// are r2.Point values. All comparisons go through the predicates in this
// file; nothing else in the module compares floats directly.
package geom

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// Eps is the absolute tolerance for lengths, dot products and parameters.
	Eps = 1e-9

	// VertexEps is the distance below which two vertices are the same point.
	VertexEps = 1e-6

	// AngleEps is the angular tolerance in radians (a tenth of a degree).
	AngleEps = math.Pi / 1800

	// DefaultArcStep is the maximum angle subtended by one chord when an
	// arc is approximated by a polyline.
	DefaultArcStep = math.Pi / 18
)

var (
	ErrEmptyLoop  = errors.New("geom: empty curve loop")
	ErrOpenLoop   = errors.New("geom: curve loop is open")
	ErrDegenerate = errors.New("geom: degenerate geometry")
	ErrNonPlanar  = errors.New("geom: curve loop is not planar")
)

// IsAlmostZero reports whether |v| < Eps.
func IsAlmostZero(v float64) bool {
	return scalar.EqualWithinAbs(v, 0, Eps)
}

// IsAlmostEqual reports whether |a-b| < Eps.
func IsAlmostEqual(a, b float64) bool {
	return scalar.EqualWithinAbs(a, b, Eps)
}

// IsAlmostEqualPoints reports whether a and b are within VertexEps.
func IsAlmostEqualPoints(a, b r3.Vector) bool {
	return a.Sub(b).Norm() < VertexEps
}

// IsAlmostParallel reports whether unit vectors a and b are parallel or
// anti-parallel.
func IsAlmostParallel(a, b r3.Vector) bool {
	return IsAlmostEqual(math.Abs(a.Dot(b)), 1)
}

// IsAlmostPerpendicular reports whether unit vectors a and b are orthogonal.
func IsAlmostPerpendicular(a, b r3.Vector) bool {
	return IsAlmostZero(a.Dot(b))
}

// Unit returns v normalized. It reports false for a near-zero vector.
func Unit(v r3.Vector) (r3.Vector, bool) {
	n := v.Norm()
	if IsAlmostZero(n) {
		return r3.Vector{}, false
	}
	return v.Mul(1 / n), true
}

// ArbitraryAxis returns a unit X axis for a plane with the given unit
// normal. World-aligned normals get world-aligned axes: a +Z normal yields
// +X.
func ArbitraryAxis(normal r3.Vector) r3.Vector {
	const limit = 1.0 / 64
	var ax r3.Vector
	if math.Abs(normal.X) < limit && math.Abs(normal.Y) < limit {
		ax = r3.Vector{Y: 1}.Cross(normal)
	} else {
		ax = r3.Vector{Z: 1}.Cross(normal)
	}
	return ax.Normalize()
}
