package profile

import (
	"errors"
	"fmt"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r3"
)

// ErrNoOuterLoop is returned when the outer boundary of a generic profile
// cannot be oriented or converted.
var ErrNoOuterLoop = errors.New("profile: no usable outer loop")

// CurveConverter turns a loop into the boundary representation stored in
// an ArbitraryProfile.
type CurveConverter interface {
	Convert(loop geom.CurveLoop, plane geom.Plane, dir r3.Vector) (Polyline, error)
}

// PolylineConverter projects loop vertices onto the plane along the
// extrusion direction. Arcs are approximated with chords no wider than
// Step radians (geom.DefaultArcStep when zero).
type PolylineConverter struct {
	Step float64
}

func (c PolylineConverter) Convert(loop geom.CurveLoop, plane geom.Plane, dir r3.Vector) (Polyline, error) {
	pts := loop.Tessellate(c.Step)
	if len(pts) < 3 {
		return nil, fmt.Errorf("profile: loop has %d vertices: %w", len(pts), geom.ErrDegenerate)
	}
	out := make(Polyline, 0, len(pts))
	for _, p := range pts {
		uv, ok := plane.ProjectAlong(p, dir)
		if !ok {
			return nil, fmt.Errorf("profile: direction lies in the profile plane: %w", geom.ErrDegenerate)
		}
		out = append(out, uv)
	}
	return out, nil
}

// Arbitrary builds the generic polygon profile. The first loop is the
// outer boundary and is flipped counterclockwise about the plane normal;
// later loops are voids and are flipped clockwise. Loops are flipped in
// place. A void that cannot be oriented or converted is skipped; an outer
// loop that cannot be is an error.
func Arbitrary(loops []geom.CurveLoop, plane geom.Plane, dir r3.Vector, conv CurveConverter) (ArbitraryProfile, error) {
	var out ArbitraryProfile
	haveOuter := false
	for i, l := range loops {
		ccw, err := l.IsCounterclockwise(plane.Normal)
		if err != nil {
			if !haveOuter {
				return ArbitraryProfile{}, fmt.Errorf("%w: loop %d: %v", ErrNoOuterLoop, i, err)
			}
			continue
		}
		if !haveOuter {
			if !ccw {
				l.Flip()
			}
			pl, err := conv.Convert(l, plane, dir)
			if err != nil {
				return ArbitraryProfile{}, fmt.Errorf("%w: %v", ErrNoOuterLoop, err)
			}
			out.Outer = pl
			haveOuter = true
			continue
		}
		if ccw {
			l.Flip()
		}
		pl, err := conv.Convert(l, plane, dir)
		if err != nil {
			continue
		}
		out.Inner = append(out.Inner, pl)
	}
	if !haveOuter {
		return ArbitraryProfile{}, ErrNoOuterLoop
	}
	return out, nil
}
