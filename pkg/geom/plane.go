package geom

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Plane is an oriented plane with an orthonormal in-plane frame.
// XVec x YVec == Normal always holds for planes built by this package.
type Plane struct {
	Origin r3.Vector
	XVec   r3.Vector
	YVec   r3.Vector
	Normal r3.Vector
}

// NewPlane builds a plane from an origin and two in-plane directions. The
// frame is orthonormalized: X keeps its direction, Y is recomputed as
// Normal x X.
func NewPlane(origin, x, y r3.Vector) (Plane, error) {
	xu, ok := Unit(x)
	if !ok {
		return Plane{}, fmt.Errorf("plane x axis: %w", ErrDegenerate)
	}
	n, ok := Unit(x.Cross(y))
	if !ok {
		return Plane{}, fmt.Errorf("plane axes are parallel: %w", ErrDegenerate)
	}
	return Plane{Origin: origin, XVec: xu, YVec: n.Cross(xu), Normal: n}, nil
}

// NewPlaneFromNormal builds a plane through origin with the given normal
// and an X axis chosen by ArbitraryAxis.
func NewPlaneFromNormal(origin, normal r3.Vector) (Plane, error) {
	n, ok := Unit(normal)
	if !ok {
		return Plane{}, fmt.Errorf("plane normal: %w", ErrDegenerate)
	}
	x := ArbitraryAxis(n)
	return Plane{Origin: origin, XVec: x, YVec: n.Cross(x), Normal: n}, nil
}

// Project returns the orthogonal projection of p in plane coordinates.
func (pl Plane) Project(p r3.Vector) r2.Point {
	d := p.Sub(pl.Origin)
	return r2.Point{X: d.Dot(pl.XVec), Y: d.Dot(pl.YVec)}
}

// ProjectAlong projects p onto the plane along dir and returns the result
// in plane coordinates. It reports false when dir lies in the plane.
func (pl Plane) ProjectAlong(p, dir r3.Vector) (r2.Point, bool) {
	denom := dir.Dot(pl.Normal)
	if IsAlmostZero(denom) {
		return r2.Point{}, false
	}
	t := pl.Origin.Sub(p).Dot(pl.Normal) / denom
	return pl.Project(p.Add(dir.Mul(t))), true
}

// Point maps plane coordinates back to model space.
func (pl Plane) Point(uv r2.Point) r3.Vector {
	return pl.Origin.Add(pl.XVec.Mul(uv.X)).Add(pl.YVec.Mul(uv.Y))
}

// Local expresses a direction in the plane frame (X, Y, Normal).
func (pl Plane) Local(v r3.Vector) r3.Vector {
	return r3.Vector{X: v.Dot(pl.XVec), Y: v.Dot(pl.YVec), Z: v.Dot(pl.Normal)}
}

// World is the inverse of Local.
func (pl Plane) World(v r3.Vector) r3.Vector {
	return pl.XVec.Mul(v.X).Add(pl.YVec.Mul(v.Y)).Add(pl.Normal.Mul(v.Z))
}

// SignedDistance returns the distance of p above the plane along Normal.
func (pl Plane) SignedDistance(p r3.Vector) float64 {
	return p.Sub(pl.Origin).Dot(pl.Normal)
}

// Scaled returns the plane with its origin scaled about the model origin.
func (pl Plane) Scaled(f float64) Plane {
	pl.Origin = pl.Origin.Mul(f)
	return pl
}
