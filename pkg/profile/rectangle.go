package profile

import (
	"math"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// lines returns the loop as lines, or false if any segment is not a line.
func lines(loop geom.CurveLoop) ([]geom.Line, bool) {
	out := make([]geom.Line, 0, len(loop))
	for _, s := range loop {
		l, ok := s.(geom.Line)
		if !ok {
			return nil, false
		}
		out = append(out, l)
	}
	return out, true
}

// rectangleCorners returns the indices of the lines that end at one of
// the four right-angle corners. Every other junction must continue
// straight on from a coincident endpoint.
func rectangleCorners(ls []geom.Line) ([]int, bool) {
	if len(ls) < 4 {
		return nil, false
	}
	corners := make([]int, 0, 4)
	for i, l := range ls {
		next := ls[(i+1)%len(ls)]
		dot := l.Direction().Dot(next.Direction())
		switch {
		case geom.IsAlmostZero(dot):
			if len(corners) == 4 {
				return nil, false
			}
			corners = append(corners, i)
		case geom.IsAlmostEqual(dot, 1):
			if !geom.IsAlmostEqualPoints(l.To, next.From) {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return corners, len(corners) == 4
}

// Rectangle recognizes a single loop of lines with exactly four right-angle
// corners. Corner points are projected onto plane along dir.
//
// The profile's X dimension normally runs from the last corner to the
// first. On planes that are not horizontal, the side more closely aligned
// with world Z becomes the X dimension.
func Rectangle(loop geom.CurveLoop, plane geom.Plane, dir r3.Vector) (RectangleProfile, bool) {
	if loop.IsOpen() {
		return RectangleProfile{}, false
	}
	ls, ok := lines(loop)
	if !ok {
		return RectangleProfile{}, false
	}
	corners, ok := rectangleCorners(ls)
	if !ok {
		return RectangleProfile{}, false
	}

	var pts [4]r2.Point
	for i, c := range corners {
		uv, ok := plane.ProjectAlong(ls[c].To, dir)
		if !ok {
			return RectangleProfile{}, false
		}
		pts[(i+1)%4] = uv
	}

	xVec := pts[1].Sub(pts[0])
	yVec := pts[3].Sub(pts[0])
	if !geom.IsAlmostEqual(math.Abs(plane.Normal.Z), 1) &&
		math.Abs(plane.XVec.Z) < math.Abs(plane.YVec.Z) {
		xVec, yVec = yVec, xVec
	}

	xLen, yLen := xVec.Norm(), yVec.Norm()
	if geom.IsAlmostZero(xLen) || geom.IsAlmostZero(yLen) {
		return RectangleProfile{}, false
	}

	return RectangleProfile{
		Position: Placement2D{
			Origin:       pts[0].Add(pts[2]).Mul(0.5),
			RefDirection: xVec.Mul(1 / xLen),
		},
		XDim: xLen,
		YDim: yLen,
	}, true
}
