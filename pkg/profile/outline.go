package profile

import (
	"math"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Outline returns the boundary of p in plane coordinates: the outer ring
// counterclockwise and any voids clockwise. Circles are approximated with
// chords no wider than step radians. I-section fillets are not drawn.
func Outline(p Profile, step float64) (Polyline, []Polyline) {
	if step <= 0 {
		step = geom.DefaultArcStep
	}
	switch p := p.(type) {
	case RectangleProfile:
		hx, hy := p.XDim/2, p.YDim/2
		return Polyline{
			p.Position.Local(-hx, -hy),
			p.Position.Local(hx, -hy),
			p.Position.Local(hx, hy),
			p.Position.Local(-hx, hy),
		}, nil
	case CircleProfile:
		outer := ring(p.Position.Origin, p.Radius, step)
		if !p.IsHollow() {
			return outer, nil
		}
		inner := ring(p.Position.Origin, p.InnerRadius, step)
		reverse(inner)
		return outer, []Polyline{inner}
	case IShapeProfile:
		hw, hd := p.OverallWidth/2, p.OverallDepth/2
		tw, tf := p.WebThickness/2, p.FlangeThickness
		local := [][2]float64{
			{hw, hd}, {-hw, hd}, {-hw, hd - tf}, {-tw, hd - tf},
			{-tw, -hd + tf}, {-hw, -hd + tf}, {-hw, -hd}, {hw, -hd},
			{hw, -hd + tf}, {tw, -hd + tf}, {tw, hd - tf}, {hw, hd - tf},
		}
		// Local Y is the depth axis for both orientations; the placement
		// turns it onto plane X for an H.
		out := make(Polyline, len(local))
		for i, q := range local {
			out[i] = p.Position.Local(q[0], q[1])
		}
		return out, nil
	case ArbitraryProfile:
		return p.Outer, p.Inner
	}
	return nil, nil
}

func ring(c r2.Point, r, step float64) Polyline {
	n := int(math.Ceil(2 * math.Pi / step))
	out := make(Polyline, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = r2.Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return out
}

func reverse(p Polyline) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

// Area is the net enclosed area of the outline (outer minus voids).
func Area(p Profile, step float64) float64 {
	outer, inner := Outline(p, step)
	if len(outer) < 3 {
		return 0
	}
	poly := orb.Polygon{p2r(outer)}
	for _, h := range inner {
		if len(h) >= 3 {
			poly = append(poly, p2r(h))
		}
	}
	return planar.Area(poly)
}

// p2r converts a polyline to a closed orb ring.
func p2r(p Polyline) orb.Ring {
	r := make(orb.Ring, 0, len(p)+1)
	for _, q := range p {
		r = append(r, orb.Point{q.X, q.Y})
	}
	return append(r, r[0])
}
