package profile

import (
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r3"
)

// Classify tries the parametric recognizers in order. A single loop is
// tried as a rectangle, then a circle, then an I-section; two loops only
// as an annulus. It reports false when none matches.
func Classify(loops []geom.CurveLoop, plane geom.Plane, dir r3.Vector) (Profile, bool) {
	switch len(loops) {
	case 1:
		if p, ok := Rectangle(loops[0], plane, dir); ok {
			return p, true
		}
		if p, ok := Circle(loops, plane, dir); ok {
			return p, true
		}
		if p, ok := IShape(loops[0], plane, dir); ok {
			return p, true
		}
	case 2:
		if p, ok := Circle(loops, plane, dir); ok {
			return p, true
		}
	}
	return nil, false
}

// Describe classifies loops and falls back to an ArbitraryProfile built
// with conv when no parametric profile matches.
func Describe(loops []geom.CurveLoop, plane geom.Plane, dir r3.Vector, conv CurveConverter) (Profile, error) {
	if p, ok := Classify(loops, plane, dir); ok {
		return p, nil
	}
	p, err := Arbitrary(loops, plane, dir, conv)
	if err != nil {
		return nil, err
	}
	return p, nil
}
