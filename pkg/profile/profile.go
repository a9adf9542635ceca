// Package profile recognizes the parametric profile a set of planar curve
// loops represents. Each recognizer either fully accepts its loops and
// returns the profile parameters, or reports a mismatch; mismatch is not an
// error and the caller moves on to the next recognizer.
package profile

import (
	"github.com/golang/geo/r2"
)

// Kind identifies a profile variant.
type Kind int

const (
	KindRectangle Kind = iota
	KindCircle
	KindIShape
	KindArbitrary
)

func (k Kind) String() string {
	switch k {
	case KindRectangle:
		return "rectangle"
	case KindCircle:
		return "circle"
	case KindIShape:
		return "ishape"
	case KindArbitrary:
		return "arbitrary"
	}
	return "unknown"
}

// Placement2D positions a profile in the coordinates of its extrusion
// plane. RefDirection is the unit local X axis; local Y is RefDirection
// rotated a quarter turn counterclockwise.
type Placement2D struct {
	Origin       r2.Point
	RefDirection r2.Point
}

// Local maps profile-local coordinates into plane coordinates.
func (p Placement2D) Local(x, y float64) r2.Point {
	ref := p.RefDirection
	return p.Origin.Add(ref.Mul(x)).Add(ref.Ortho().Mul(y))
}

// Profile is the tagged union of recognized profiles. The implementations
// are RectangleProfile, CircleProfile, IShapeProfile and ArbitraryProfile.
type Profile interface {
	Kind() Kind
	profile()
}

// RectangleProfile is a solid rectangle centred on its position.
type RectangleProfile struct {
	Position Placement2D
	XDim     float64
	YDim     float64
}

// CircleProfile is a disc, or an annulus when InnerRadius is positive.
type CircleProfile struct {
	Position    Placement2D
	Radius      float64
	InnerRadius float64
}

// IsHollow reports whether the profile is an annulus.
func (c CircleProfile) IsHollow() bool { return c.InnerRadius > 0 }

// WallThickness is the annulus wall; zero for a solid disc.
func (c CircleProfile) WallThickness() float64 {
	if !c.IsHollow() {
		return 0
	}
	return c.Radius - c.InnerRadius
}

// Orientation distinguishes an I (web along plane Y) from an H (web along
// plane X).
type Orientation int

const (
	OrientationI Orientation = iota
	OrientationH
)

func (o Orientation) String() string {
	if o == OrientationH {
		return "H"
	}
	return "I"
}

// IShapeProfile is a symmetric I-section. OverallDepth runs along the web,
// OverallWidth along the flanges.
type IShapeProfile struct {
	Position        Placement2D
	OverallWidth    float64
	OverallDepth    float64
	WebThickness    float64
	FlangeThickness float64
	FilletRadius    *float64
	Orientation     Orientation
}

// Polyline is a closed 2D boundary in plane coordinates; the first point is
// not repeated.
type Polyline []r2.Point

// ArbitraryProfile is a polygonal boundary with optional voids. Outer runs
// counterclockwise, voids clockwise.
type ArbitraryProfile struct {
	Outer Polyline
	Inner []Polyline
}

func (RectangleProfile) Kind() Kind { return KindRectangle }
func (CircleProfile) Kind() Kind    { return KindCircle }
func (IShapeProfile) Kind() Kind    { return KindIShape }
func (ArbitraryProfile) Kind() Kind { return KindArbitrary }

func (RectangleProfile) profile() {}
func (CircleProfile) profile()    {}
func (IShapeProfile) profile()    {}
func (ArbitraryProfile) profile() {}
