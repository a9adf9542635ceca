// Package extrusion turns planar curve loops plus a direction and depth
// into an extrusion description: a recognized profile, its placement
// plane, the extrusion direction relative to that plane and the depth.
package extrusion

import (
	"errors"
	"fmt"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r3"
)

var (
	ErrNoLoops           = errors.New("extrusion: no curve loops")
	ErrNonPositiveDepth  = errors.New("extrusion: depth is not positive")
	ErrParallelDirection = errors.New("extrusion: direction lies in the profile plane")
	ErrNoValidLoops      = errors.New("extrusion: no loop survived validation")
)

// Normalized is the result of Normalize.
type Normalized struct {
	Loops []geom.CurveLoop
	// Plane is the plane of the first loop after orientation; its normal
	// faces along the extrusion direction.
	Plane geom.Plane
	// Flipped counts the loops that had to be reversed.
	Flipped int
}

// Normalize orients loops for extrusion along dir: the first loop runs
// counterclockwise about dir and every later loop clockwise. Loops are
// flipped in place. Running Normalize on its own output flips nothing.
//
// A full circle is left as it is. When it is the first loop the plane is
// the circle's own frame, turned about its X axis if needed so the normal
// faces along dir.
func Normalize(loops []geom.CurveLoop, dir r3.Vector) (Normalized, error) {
	if len(loops) == 0 {
		return Normalized{}, ErrNoLoops
	}
	out := Normalized{Loops: loops}
	for i, l := range loops {
		if len(l) == 0 {
			return Normalized{}, fmt.Errorf("extrusion: loop %d: %w", i, geom.ErrEmptyLoop)
		}
		if c, ok := l.IsFullCircle(); ok {
			if i == 0 {
				pl, err := circlePlane(c, dir)
				if err != nil {
					return Normalized{}, err
				}
				out.Plane = pl
			}
			continue
		}
		ccw, err := l.IsCounterclockwise(dir)
		if err != nil {
			return Normalized{}, fmt.Errorf("extrusion: winding of loop %d: %w", i, err)
		}
		if ccw != (i == 0) {
			l.Flip()
			out.Flipped++
		}
		if i == 0 {
			pl, err := l.Plane()
			if err != nil {
				return Normalized{}, fmt.Errorf("extrusion: plane of outer loop: %w", err)
			}
			out.Plane = pl
		}
	}
	return out, nil
}

func circlePlane(c geom.Arc, dir r3.Vector) (geom.Plane, error) {
	pl := geom.Plane{Origin: c.Center, XVec: c.XAxis, YVec: c.YAxis(), Normal: c.Normal}
	switch cos := pl.Normal.Dot(dir); {
	case geom.IsAlmostZero(cos):
		return geom.Plane{}, fmt.Errorf("extrusion: plane of outer circle: %w", ErrParallelDirection)
	case cos < 0:
		pl.YVec, pl.Normal = pl.YVec.Mul(-1), pl.Normal.Mul(-1)
	}
	return pl, nil
}
