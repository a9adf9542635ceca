package profile

import (
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

const (
	iShapeEdges   = 12
	iShapeFillets = 4
)

// flatEdge is a loop line projected into plane coordinates.
type flatEdge struct {
	from, to   r2.Point
	horizontal bool
}

// filletArc is an arc found between two lines. corner is the index of the
// line it follows.
type filletArc struct {
	arc    geom.Arc
	corner int
}

// IShape recognizes a symmetric I-section: twelve axis-aligned lines in
// plane coordinates, optionally with four equal fillets at the web/flange
// junctions (sixteen segments).
//
// Walking the sharp outline, an I-section turns the same way at eight
// corners and the other way at four. The four reflex corners come as two
// adjacent pairs opposite each other, at k, k+1, k+6 and k+7. Anchoring on
// k instead of on a particular start vertex makes the result independent
// of where the loop starts and which way it runs.
func IShape(loop geom.CurveLoop, plane geom.Plane, dir r3.Vector) (IShapeProfile, bool) {
	if n := len(loop); n != iShapeEdges && n != iShapeEdges+iShapeFillets {
		return IShapeProfile{}, false
	}
	if loop.IsOpen() {
		return IShapeProfile{}, false
	}

	edges := make([]flatEdge, 0, iShapeEdges)
	var fillets []filletArc
	for _, s := range loop {
		switch seg := s.(type) {
		case geom.Line:
			e, ok := flatten(seg, plane, dir)
			if !ok {
				return IShapeProfile{}, false
			}
			edges = append(edges, e)
		case geom.Arc:
			fillets = append(fillets, filletArc{arc: seg, corner: len(edges) - 1})
		default:
			return IShapeProfile{}, false
		}
	}
	if len(edges) != iShapeEdges {
		return IShapeProfile{}, false
	}
	for i := range fillets {
		fillets[i].corner = mod(fillets[i].corner, iShapeEdges)
	}

	for i, e := range edges {
		if e.horizontal == edges[mod(i+1, iShapeEdges)].horizontal {
			return IShapeProfile{}, false
		}
	}

	corners, left := sharpCorners(edges)
	var leftTurns int
	for _, l := range left {
		if l {
			leftTurns++
		}
	}
	if leftTurns != 8 && leftTurns != 4 {
		return IShapeProfile{}, false
	}
	turnsLeft := leftTurns == 8

	reflex := make([]bool, iShapeEdges)
	for i, l := range left {
		reflex[i] = l != turnsLeft
	}
	k := -1
	for i := 0; i < iShapeEdges/2; i++ {
		if reflex[i] && reflex[mod(i+1, iShapeEdges)] && reflex[i+6] && reflex[mod(i+7, iShapeEdges)] {
			k = i
			break
		}
	}
	if k < 0 {
		return IShapeProfile{}, false
	}

	edgeLen := func(i int) float64 {
		i = mod(i, iShapeEdges)
		return corners[i].Sub(corners[mod(i-1, iShapeEdges)]).Norm()
	}
	same := func(idx ...int) (float64, bool) {
		v := edgeLen(idx[0])
		for _, i := range idx[1:] {
			if !geom.IsAlmostEqual(edgeLen(i), v) {
				return 0, false
			}
		}
		return v, true
	}

	webSide, ok1 := same(k+1, k+7)
	innerFlange, ok2 := same(k, k+2, k+6, k+8)
	tip, ok3 := same(k-1, k+3, k+5, k+9)
	outer, ok4 := same(k+4, k+10)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return IShapeProfile{}, false
	}

	p := IShapeProfile{
		OverallWidth:    outer,
		OverallDepth:    webSide + 2*tip,
		WebThickness:    outer - 2*innerFlange,
		FlangeThickness: tip,
		Orientation:     OrientationI,
	}
	if p.WebThickness <= geom.Eps || p.FlangeThickness <= geom.Eps || webSide <= geom.Eps {
		return IShapeProfile{}, false
	}

	if len(fillets) > 0 {
		r, ok := filletRadius(fillets, reflex, !turnsLeft, plane)
		if !ok {
			return IShapeProfile{}, false
		}
		if !geom.IsAlmostZero(r) {
			p.FilletRadius = &r
		}
	}

	ref := r2.Point{X: 1}
	if edges[mod(k+1, iShapeEdges)].horizontal {
		p.Orientation = OrientationH
		ref = r2.Point{Y: 1}
	}
	p.Position = Placement2D{
		Origin:       corners[0].Add(corners[6]).Mul(0.5),
		RefDirection: ref,
	}
	return p, true
}

// flatten projects a line and requires it to be parallel to exactly one
// plane axis.
func flatten(l geom.Line, plane geom.Plane, dir r3.Vector) (flatEdge, bool) {
	from, ok := plane.ProjectAlong(l.From, dir)
	if !ok {
		return flatEdge{}, false
	}
	to, ok := plane.ProjectAlong(l.To, dir)
	if !ok {
		return flatEdge{}, false
	}
	d := to.Sub(from)
	zeroU, zeroV := geom.IsAlmostZero(d.X), geom.IsAlmostZero(d.Y)
	if zeroU == zeroV {
		return flatEdge{}, false
	}
	return flatEdge{from: from, to: to, horizontal: zeroV}, true
}

// sharpCorners intersects consecutive edges. corners[i] is where edge i
// meets edge i+1 with any fillet removed; left[i] reports a
// counterclockwise turn there.
func sharpCorners(edges []flatEdge) ([]r2.Point, []bool) {
	n := len(edges)
	corners := make([]r2.Point, n)
	left := make([]bool, n)
	for i, e := range edges {
		next := edges[mod(i+1, n)]
		if e.horizontal {
			corners[i] = r2.Point{X: next.from.X, Y: e.from.Y}
		} else {
			corners[i] = r2.Point{X: e.from.X, Y: next.from.Y}
		}
		left[i] = e.to.Sub(e.from).Cross(next.to.Sub(next.from)) > 0
	}
	return corners, left
}

// filletRadius checks that there is one fillet at each reflex corner, that
// all radii match, and that every fillet turns the way the reflex corners
// do.
func filletRadius(fillets []filletArc, reflex []bool, reflexLeft bool, plane geom.Plane) (float64, bool) {
	if len(fillets) != iShapeFillets {
		return 0, false
	}
	seen := make(map[int]bool, iShapeFillets)
	r := fillets[0].arc.Radius
	for _, f := range fillets {
		if !reflex[f.corner] || seen[f.corner] {
			return 0, false
		}
		seen[f.corner] = true
		if !geom.IsAlmostEqual(f.arc.Radius, r) {
			return 0, false
		}
		if (f.arc.Normal.Dot(plane.Normal) > geom.Eps) != reflexLeft {
			return 0, false
		}
	}
	return r, true
}

func mod(i, n int) int {
	return ((i % n) + n) % n
}
