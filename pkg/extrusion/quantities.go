package extrusion

import (
	"math"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/profile"
	"github.com/golang/geo/r3"
)

// Quantities are the base quantities reported for an extruded element.
// Height and Width are only set when the base is rectangular.
type Quantities struct {
	Slope          float64 `json:"slope" yaml:"slope"` // degrees
	Length         float64 `json:"length" yaml:"length"`
	Height         float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Width          float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Area           float64 `json:"area" yaml:"area"`
	OuterPerimeter float64 `json:"outerPerimeter" yaml:"outer_perimeter"`
	InnerPerimeter float64 `json:"innerPerimeter,omitempty" yaml:"inner_perimeter,omitempty"`
}

// ComputeQuantities measures the base loops of an extrusion. projDir is
// the projection direction the element was analyzed along; the slope is
// measured from the horizontal for vertical projections and from the
// vertical otherwise.
func ComputeQuantities(loops []geom.CurveLoop, projDir r3.Vector, d Description) Quantities {
	q := Quantities{Length: d.Depth}

	zOff := math.Abs(d.Direction.Z)
	if geom.IsAlmostEqual(math.Abs(projDir.Z), 1) {
		zOff = 1 - zOff
	}
	q.Slope = math.Asin(math.Min(zOff, 1)) * 180 / math.Pi

	if len(loops) == 0 {
		return q
	}
	q.Height, q.Width = HeightWidth(loops[0])
	q.OuterPerimeter = OuterPerimeter(loops)
	q.InnerPerimeter = InnerPerimeter(loops)

	if pl, err := loops[0].Plane(); err == nil {
		conv := profile.PolylineConverter{}
		if arb, err := profile.Arbitrary(cloneAll(loops), pl, pl.Normal, conv); err == nil {
			q.Area = profile.Area(arb, 0)
		}
	}
	return q
}

// HeightWidth returns the sides of a rectangular loop measured in its own
// plane, height along plane Y. Both are zero for other loops.
func HeightWidth(loop geom.CurveLoop) (height, width float64) {
	pl, err := loop.Plane()
	if err != nil {
		return 0, 0
	}
	r, ok := profile.Rectangle(loop, pl, pl.Normal)
	if !ok {
		return 0, 0
	}
	if math.Abs(r.Position.RefDirection.X) >= math.Abs(r.Position.RefDirection.Y) {
		return r.YDim, r.XDim
	}
	return r.XDim, r.YDim
}

// OuterPerimeter is the length of the first loop, or zero if it is open.
func OuterPerimeter(loops []geom.CurveLoop) float64 {
	if len(loops) == 0 || loops[0].IsOpen() {
		return 0
	}
	return loops[0].Length()
}

// InnerPerimeter is the summed length of every closed loop after the first.
func InnerPerimeter(loops []geom.CurveLoop) float64 {
	var sum float64
	if len(loops) < 2 {
		return 0
	}
	for _, l := range loops[1:] {
		if !l.IsOpen() {
			sum += l.Length()
		}
	}
	return sum
}

func cloneAll(loops []geom.CurveLoop) []geom.CurveLoop {
	out := make([]geom.CurveLoop, len(loops))
	for i, l := range loops {
		out[i] = l.Clone()
	}
	return out
}
