package geom

import (
	"math"

	"github.com/golang/geo/r3"
)

// Segment is one bounded curve of a CurveLoop. The set of implementations
// is closed: Line and Arc.
type Segment interface {
	Start() r3.Vector
	End() r3.Vector
	Length() float64
	// IsBound is false only for full circles.
	IsBound() bool
	Reversed() Segment
	Scaled(f float64) Segment
	// Points returns the segment approximated by chords no wider than step
	// radians, start and end included.
	Points(step float64) []r3.Vector

	segment()
}

// ---------------------------------------------------------------------------
// Line
// ---------------------------------------------------------------------------

// Line is a straight segment from From to To.
type Line struct {
	From r3.Vector
	To   r3.Vector
}

func (Line) segment() {}

func (l Line) Start() r3.Vector { return l.From }
func (l Line) End() r3.Vector   { return l.To }
func (l Line) Length() float64  { return l.To.Sub(l.From).Norm() }
func (l Line) IsBound() bool    { return true }

// Direction returns the unit direction from From to To.
func (l Line) Direction() r3.Vector {
	d, _ := Unit(l.To.Sub(l.From))
	return d
}

func (l Line) Reversed() Segment { return Line{From: l.To, To: l.From} }

func (l Line) Scaled(f float64) Segment {
	return Line{From: l.From.Mul(f), To: l.To.Mul(f)}
}

func (l Line) Points(float64) []r3.Vector { return []r3.Vector{l.From, l.To} }

// ---------------------------------------------------------------------------
// Arc
// ---------------------------------------------------------------------------

// Arc is a circular arc. Angles are in radians, measured from XAxis toward
// Normal x XAxis, and the arc runs counterclockwise about Normal from
// StartAngle to EndAngle.
type Arc struct {
	Center     r3.Vector
	Radius     float64
	StartAngle float64
	EndAngle   float64
	XAxis      r3.Vector
	Normal     r3.Vector
}

// NewArc builds an arc about normal. The angle reference axis comes from
// ArbitraryAxis, so a +Z normal measures angles from +X.
func NewArc(center r3.Vector, radius, start, end float64, normal r3.Vector) Arc {
	n := normal.Normalize()
	return Arc{
		Center:     center,
		Radius:     radius,
		StartAngle: start,
		EndAngle:   end,
		XAxis:      ArbitraryAxis(n),
		Normal:     n,
	}
}

// NewCircle builds a full (unbound) circle.
func NewCircle(center r3.Vector, radius float64, normal r3.Vector) Arc {
	return NewArc(center, radius, 0, 2*math.Pi, normal)
}

func (Arc) segment() {}

// YAxis completes the right-handed arc frame.
func (a Arc) YAxis() r3.Vector { return a.Normal.Cross(a.XAxis) }

// Span is the swept angle.
func (a Arc) Span() float64 { return a.EndAngle - a.StartAngle }

// PointAt returns the point at angle theta.
func (a Arc) PointAt(theta float64) r3.Vector {
	return a.Center.
		Add(a.XAxis.Mul(a.Radius * math.Cos(theta))).
		Add(a.YAxis().Mul(a.Radius * math.Sin(theta)))
}

func (a Arc) Start() r3.Vector { return a.PointAt(a.StartAngle) }
func (a Arc) End() r3.Vector   { return a.PointAt(a.EndAngle) }
func (a Arc) Length() float64  { return a.Radius * math.Abs(a.Span()) }
func (a Arc) IsBound() bool    { return math.Abs(a.Span()) < 2*math.Pi-AngleEps }

// Reversed flips the normal; the arc covers the same points in the
// opposite order.
func (a Arc) Reversed() Segment {
	return Arc{
		Center:     a.Center,
		Radius:     a.Radius,
		StartAngle: -a.EndAngle,
		EndAngle:   -a.StartAngle,
		XAxis:      a.XAxis,
		Normal:     a.Normal.Mul(-1),
	}
}

func (a Arc) Scaled(f float64) Segment {
	a.Center = a.Center.Mul(f)
	a.Radius *= f
	return a
}

func (a Arc) Points(step float64) []r3.Vector {
	if step <= 0 {
		step = DefaultArcStep
	}
	n := int(math.Ceil(math.Abs(a.Span())/step - Eps))
	if n < 1 {
		n = 1
	}
	pts := make([]r3.Vector, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, a.PointAt(a.StartAngle+a.Span()*float64(i)/float64(n)))
	}
	return pts
}
