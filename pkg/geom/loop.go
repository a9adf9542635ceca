package geom

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// CurveLoop is an ordered sequence of segments, each starting where the
// previous one ends. Loops are mutable: Flip works in place.
type CurveLoop []Segment

// IsOpen reports whether the loop fails to close on itself or has a gap
// between consecutive segments. An empty loop is open.
func (l CurveLoop) IsOpen() bool {
	if len(l) == 0 {
		return true
	}
	if len(l) == 1 && !l[0].IsBound() {
		return false
	}
	for i := range l {
		next := l[(i+1)%len(l)]
		if !IsAlmostEqualPoints(l[i].End(), next.Start()) {
			return true
		}
	}
	return false
}

// IsFullCircle reports whether the loop is a single unbound arc.
func (l CurveLoop) IsFullCircle() (Arc, bool) {
	if len(l) != 1 || l[0].IsBound() {
		return Arc{}, false
	}
	a, ok := l[0].(Arc)
	return a, ok
}

// Flip reverses the loop in place.
func (l CurveLoop) Flip() {
	for i, j := 0, len(l)-1; i < j; i, j = i+1, j-1 {
		l[i], l[j] = l[j], l[i]
	}
	for i := range l {
		l[i] = l[i].Reversed()
	}
}

// Clone returns a copy that can be flipped independently.
func (l CurveLoop) Clone() CurveLoop {
	out := make(CurveLoop, len(l))
	copy(out, l)
	return out
}

// Scaled returns the loop scaled about the model origin.
func (l CurveLoop) Scaled(f float64) CurveLoop {
	out := make(CurveLoop, len(l))
	for i, s := range l {
		out[i] = s.Scaled(f)
	}
	return out
}

// Length is the total length of all segments.
func (l CurveLoop) Length() float64 {
	var sum float64
	for _, s := range l {
		sum += s.Length()
	}
	return sum
}

// Tessellate returns the loop as a closed polygon, one vertex per segment
// start plus the interior points of each arc. The first vertex is not
// repeated at the end.
func (l CurveLoop) Tessellate(step float64) []r3.Vector {
	var pts []r3.Vector
	for _, s := range l {
		sp := s.Points(step)
		pts = append(pts, sp[:len(sp)-1]...)
	}
	return pts
}

// newell returns the Newell normal of a polygon. Its length is twice the
// enclosed area and it points the way a counterclockwise traversal faces.
func newell(pts []r3.Vector) r3.Vector {
	var n r3.Vector
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	return n
}

// AreaNormal returns the Newell normal of the tessellated loop.
func (l CurveLoop) AreaNormal() r3.Vector {
	return newell(l.Tessellate(DefaultArcStep))
}

// Plane returns the plane of the loop. The normal is oriented so that the
// loop runs counterclockwise about it; the origin is the first vertex and
// the X axis follows the first straight segment, or the first chord when
// the loop has none.
func (l CurveLoop) Plane() (Plane, error) {
	if len(l) == 0 {
		return Plane{}, ErrEmptyLoop
	}
	if a, ok := l.IsFullCircle(); ok {
		return Plane{Origin: a.Center, XVec: a.XAxis, YVec: a.YAxis(), Normal: a.Normal}, nil
	}
	pts := l.Tessellate(DefaultArcStep)
	if len(pts) < 3 {
		return Plane{}, fmt.Errorf("loop has %d vertices: %w", len(pts), ErrDegenerate)
	}
	n, ok := Unit(newell(pts))
	if !ok {
		return Plane{}, fmt.Errorf("loop encloses no area: %w", ErrDegenerate)
	}
	for _, p := range pts[1:] {
		if d := p.Sub(pts[0]).Dot(n); d > VertexEps || d < -VertexEps {
			return Plane{}, ErrNonPlanar
		}
	}
	x := pts[1].Sub(pts[0])
	for _, seg := range l {
		if ln, ok := seg.(Line); ok && !IsAlmostEqualPoints(ln.From, ln.To) {
			x = ln.To.Sub(ln.From)
			break
		}
	}
	x = x.Sub(n.Mul(x.Dot(n)))
	xu, ok := Unit(x)
	if !ok {
		xu = ArbitraryAxis(n)
	}
	return Plane{Origin: pts[0], XVec: xu, YVec: n.Cross(xu), Normal: n}, nil
}

// IsCounterclockwise reports whether the loop winds counterclockwise when
// viewed looking down dir (dir pointing at the viewer). It fails for open
// loops and for loops seen edge-on.
func (l CurveLoop) IsCounterclockwise(dir r3.Vector) (bool, error) {
	if l.IsOpen() {
		return false, ErrOpenLoop
	}
	n := l.AreaNormal()
	if IsAlmostZero(n.Norm()) {
		return false, fmt.Errorf("loop encloses no area: %w", ErrDegenerate)
	}
	d, ok := Unit(dir)
	if !ok {
		return false, fmt.Errorf("winding direction: %w", ErrDegenerate)
	}
	c := n.Normalize().Dot(d)
	if IsAlmostZero(c) {
		return false, fmt.Errorf("loop is edge-on to the winding direction: %w", ErrDegenerate)
	}
	return c > 0, nil
}

// Polygon returns the closed loop of lines through pts.
func Polygon(pts ...r3.Vector) CurveLoop {
	l := make(CurveLoop, 0, len(pts))
	for i, p := range pts {
		l = append(l, Line{From: p, To: pts[(i+1)%len(pts)]})
	}
	return l
}
