package profile

import (
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

type circleLoop struct {
	center r3.Vector
	radius float64
}

// circleOf reports the common center and radius of a loop made only of
// arcs.
func circleOf(loop geom.CurveLoop) (circleLoop, bool) {
	var c circleLoop
	for i, s := range loop {
		a, ok := s.(geom.Arc)
		if !ok {
			return circleLoop{}, false
		}
		if i == 0 {
			c = circleLoop{center: a.Center, radius: a.Radius}
			continue
		}
		if !geom.IsAlmostEqualPoints(a.Center, c.center) || !geom.IsAlmostEqual(a.Radius, c.radius) {
			return circleLoop{}, false
		}
	}
	return c, len(loop) > 0 && !geom.IsAlmostZero(c.radius)
}

// Circle recognizes one closed loop of co-centric arcs (a disc) or two such
// loops sharing a center (an annulus). The smaller circle is the void
// regardless of loop order. Both loops must lie parallel to plane.
func Circle(loops []geom.CurveLoop, plane geom.Plane, dir r3.Vector) (CircleProfile, bool) {
	if len(loops) == 0 || len(loops) > 2 {
		return CircleProfile{}, false
	}

	circles := make([]circleLoop, 0, len(loops))
	for _, l := range loops {
		if l.IsOpen() {
			return CircleProfile{}, false
		}
		lp, err := l.Plane()
		if err != nil || !geom.IsAlmostParallel(lp.Normal, plane.Normal) {
			return CircleProfile{}, false
		}
		c, ok := circleOf(l)
		if !ok {
			return CircleProfile{}, false
		}
		circles = append(circles, c)
	}

	outer := circles[0]
	var inner float64
	if len(circles) == 2 {
		hole := circles[1]
		if !geom.IsAlmostEqualPoints(outer.center, hole.center) {
			return CircleProfile{}, false
		}
		if hole.radius > outer.radius {
			outer, hole = hole, outer
		}
		if geom.IsAlmostEqual(outer.radius, hole.radius) {
			return CircleProfile{}, false
		}
		inner = hole.radius
	}

	return CircleProfile{
		Position: Placement2D{
			Origin:       plane.Project(outer.center),
			RefDirection: r2.Point{X: 1},
		},
		Radius:      outer.radius,
		InnerRadius: inner,
	}, true
}
