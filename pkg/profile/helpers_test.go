package profile_test

import (
	"math"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

var up = r3.Vector{Z: 1}

func xyPlane() geom.Plane {
	pl, _ := geom.NewPlaneFromNormal(r3.Vector{}, up)
	return pl
}

func p3(p r2.Point) r3.Vector { return r3.Vector{X: p.X, Y: p.Y} }

func pt(x, y float64) r2.Point { return r2.Point{X: x, Y: y} }

func rect(x0, y0, x1, y1 float64) geom.CurveLoop {
	return geom.Polygon(
		r3.Vector{X: x0, Y: y0}, r3.Vector{X: x1, Y: y0},
		r3.Vector{X: x1, Y: y1}, r3.Vector{X: x0, Y: y1},
	)
}

// vertex is one corner of a polygon, optionally rounded.
type vertex struct {
	p      r2.Point
	fillet bool
}

// iBeam returns the sharp outline of an I-section centred on the origin,
// counterclockwise from the top right corner, with the four web/flange
// corners marked for filleting.
func iBeam(w, d, tw, tf float64) []vertex {
	hw, hd, ht := w/2, d/2, tw/2
	return []vertex{
		{pt(hw, hd), false}, {pt(-hw, hd), false}, {pt(-hw, hd-tf), false}, {pt(-ht, hd-tf), true},
		{pt(-ht, -hd+tf), true}, {pt(-hw, -hd+tf), false}, {pt(-hw, -hd), false}, {pt(hw, -hd), false},
		{pt(hw, -hd+tf), false}, {pt(ht, -hd+tf), true}, {pt(ht, hd-tf), true}, {pt(hw, hd-tf), false},
	}
}

func shifted(vs []vertex, n int) []vertex {
	out := make([]vertex, len(vs))
	for i := range vs {
		out[i] = vs[(i+n)%len(vs)]
	}
	return out
}

func reversed(vs []vertex) []vertex {
	out := make([]vertex, len(vs))
	for i := range vs {
		out[i] = vs[len(vs)-1-i]
	}
	return out
}

func transformed(vs []vertex, f func(r2.Point) r2.Point) []vertex {
	out := make([]vertex, len(vs))
	for i, v := range vs {
		out[i] = vertex{f(v.p), v.fillet}
	}
	return out
}

func quarterTurn(p r2.Point) r2.Point { return r2.Point{X: -p.Y, Y: p.X} }

// roundedLoop builds a loop through vs, replacing marked corners with
// tangent arcs of radius r when r > 0.
func roundedLoop(vs []vertex, r float64) geom.CurveLoop {
	n := len(vs)
	var loop geom.CurveLoop
	for i := 0; i < n; i++ {
		a, b, c := vs[i], vs[(i+1)%n], vs[(i+2)%n]
		d := b.p.Sub(a.p).Normalize()
		from, to := a.p, b.p
		if r > 0 && a.fillet {
			from = from.Add(d.Mul(r))
		}
		if r > 0 && b.fillet {
			to = to.Sub(d.Mul(r))
		}
		loop = append(loop, geom.Line{From: p3(from), To: p3(to)})
		if r > 0 && b.fillet {
			dout := c.p.Sub(b.p).Normalize()
			center := b.p.Sub(d.Mul(r)).Add(dout.Mul(r))
			normal := up
			if d.Cross(dout) < 0 {
				normal = up.Mul(-1)
			}
			arc := geom.NewArc(p3(center), r, 0, 0, normal)
			t := p3(to).Sub(arc.Center)
			arc.StartAngle = math.Atan2(t.Dot(arc.YAxis()), t.Dot(arc.XAxis))
			arc.EndAngle = arc.StartAngle + math.Pi/2
			loop = append(loop, arc)
		}
	}
	return loop
}

// dropFillet removes the first arc of a loop and joins its neighbours with
// a sharp corner, leaving an outline with one fillet missing.
func dropFillet(loop geom.CurveLoop) geom.CurveLoop {
	for i, s := range loop {
		if _, ok := s.(geom.Arc); !ok {
			continue
		}
		out := loop.Clone()
		n := len(out)
		prev := out[(i-1+n)%n].(geom.Line)
		next := out[(i+1)%n].(geom.Line)
		var corner r3.Vector
		if geom.IsAlmostZero(prev.To.Y - prev.From.Y) {
			corner = r3.Vector{X: next.From.X, Y: prev.From.Y}
		} else {
			corner = r3.Vector{X: prev.From.X, Y: next.From.Y}
		}
		out[(i-1+n)%n] = geom.Line{From: prev.From, To: corner}
		out[(i+1)%n] = geom.Line{From: corner, To: next.To}
		return append(out[:i], out[i+1:]...)
	}
	return loop
}

// signedArea is the shoelace area of a closed polyline.
func signedArea(p []r2.Point) float64 {
	var s float64
	for i, a := range p {
		b := p[(i+1)%len(p)]
		s += a.X*b.Y - b.X*a.Y
	}
	return s / 2
}
