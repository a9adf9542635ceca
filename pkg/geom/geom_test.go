package geom_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r3"
)

func v(x, y, z float64) r3.Vector { return r3.Vector{X: x, Y: y, Z: z} }

func square(size float64) geom.CurveLoop {
	return geom.Polygon(v(0, 0, 0), v(size, 0, 0), v(size, size, 0), v(0, size, 0))
}

func TestTolerancePredicates(t *testing.T) {
	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"zero", geom.IsAlmostZero(0), true},
		{"tiny", geom.IsAlmostZero(1e-12), true},
		{"small", geom.IsAlmostZero(1e-6), false},
		{"equal", geom.IsAlmostEqual(1, 1+1e-12), true},
		{"not equal", geom.IsAlmostEqual(1, 1.001), false},
		{"points", geom.IsAlmostEqualPoints(v(1, 2, 3), v(1, 2, 3+1e-9)), true},
		{"parallel", geom.IsAlmostParallel(v(0, 0, 1), v(0, 0, -1)), true},
		{"perpendicular", geom.IsAlmostPerpendicular(v(1, 0, 0), v(0, 1, 0)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestArbitraryAxisWorldAligned(t *testing.T) {
	if got := geom.ArbitraryAxis(v(0, 0, 1)); !geom.IsAlmostEqualPoints(got, v(1, 0, 0)) {
		t.Errorf("ArbitraryAxis(+Z) = %v, want +X", got)
	}
	n := v(1, 1, 0).Normalize()
	if got := geom.ArbitraryAxis(n); !geom.IsAlmostZero(got.Dot(n)) {
		t.Errorf("ArbitraryAxis(%v) = %v is not perpendicular", n, got)
	}
}

func TestNewPlaneOrthonormal(t *testing.T) {
	pl, err := geom.NewPlane(v(1, 2, 3), v(2, 0, 0), v(1, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !geom.IsAlmostEqualPoints(pl.XVec.Cross(pl.YVec), pl.Normal) {
		t.Errorf("X x Y = %v, want %v", pl.XVec.Cross(pl.YVec), pl.Normal)
	}
	if !geom.IsAlmostEqualPoints(pl.Normal, v(0, 0, 1)) {
		t.Errorf("normal = %v, want +Z", pl.Normal)
	}

	if _, err := geom.NewPlane(v(0, 0, 0), v(1, 0, 0), v(2, 0, 0)); !errors.Is(err, geom.ErrDegenerate) {
		t.Errorf("parallel axes: err = %v, want ErrDegenerate", err)
	}
}

func TestProjectAlong(t *testing.T) {
	pl, _ := geom.NewPlaneFromNormal(v(0, 0, 0), v(0, 0, 1))

	uv, ok := pl.ProjectAlong(v(3, 4, 10), v(0, 0, 1))
	if !ok || !geom.IsAlmostEqual(uv.X, 3) || !geom.IsAlmostEqual(uv.Y, 4) {
		t.Errorf("straight projection = %v, %v", uv, ok)
	}

	uv, ok = pl.ProjectAlong(v(0, 0, 2), v(1, 0, 1).Normalize())
	if !ok || !geom.IsAlmostEqual(uv.X, -2) || !geom.IsAlmostZero(uv.Y) {
		t.Errorf("oblique projection = %v, %v", uv, ok)
	}

	if _, ok := pl.ProjectAlong(v(0, 0, 2), v(1, 0, 0)); ok {
		t.Error("projection along an in-plane direction should fail")
	}
}

func TestArcReversedCoversSamePoints(t *testing.T) {
	a := geom.NewArc(v(1, 1, 0), 2, 0, math.Pi/2, v(0, 0, 1))
	r := a.Reversed()
	if !geom.IsAlmostEqualPoints(r.Start(), a.End()) || !geom.IsAlmostEqualPoints(r.End(), a.Start()) {
		t.Errorf("reversed endpoints %v -> %v, want %v -> %v", r.Start(), r.End(), a.End(), a.Start())
	}
	mid := a.PointAt(math.Pi / 4)
	rm := r.(geom.Arc).PointAt(-math.Pi / 4)
	if !geom.IsAlmostEqualPoints(mid, rm) {
		t.Errorf("midpoints differ: %v vs %v", mid, rm)
	}
	if !geom.IsAlmostEqual(a.Length(), math.Pi) {
		t.Errorf("length = %v, want pi", a.Length())
	}
}

func TestCircleIsUnbound(t *testing.T) {
	c := geom.NewCircle(v(0, 0, 0), 1, v(0, 0, 1))
	if c.IsBound() {
		t.Error("full circle should be unbound")
	}
	loop := geom.CurveLoop{c}
	if loop.IsOpen() {
		t.Error("single full circle loop should be closed")
	}
	pl, err := loop.Plane()
	if err != nil {
		t.Fatal(err)
	}
	if !geom.IsAlmostEqualPoints(pl.Origin, v(0, 0, 0)) {
		t.Errorf("circle plane origin = %v, want center", pl.Origin)
	}
}

func TestCurveLoopIsOpen(t *testing.T) {
	closed := square(1)
	if closed.IsOpen() {
		t.Error("square should be closed")
	}
	open := geom.CurveLoop{
		geom.Line{From: v(0, 0, 0), To: v(1, 0, 0)},
		geom.Line{From: v(1, 0, 0), To: v(1, 1, 0)},
	}
	if !open.IsOpen() {
		t.Error("two-line chain should be open")
	}
	if !(geom.CurveLoop{}).IsOpen() {
		t.Error("empty loop should be open")
	}
}

func TestCurveLoopFlip(t *testing.T) {
	loop := square(2)
	ccw, err := loop.IsCounterclockwise(v(0, 0, 1))
	if err != nil || !ccw {
		t.Fatalf("square should be CCW about +Z: %v, %v", ccw, err)
	}

	loop.Flip()
	ccw, err = loop.IsCounterclockwise(v(0, 0, 1))
	if err != nil || ccw {
		t.Fatalf("flipped square should be CW about +Z: %v, %v", ccw, err)
	}
	if loop.IsOpen() {
		t.Error("flipped loop should still be closed")
	}
	if !geom.IsAlmostEqual(loop.Length(), 8) {
		t.Errorf("length = %v, want 8", loop.Length())
	}
}

func TestCurveLoopPlane(t *testing.T) {
	pl, err := square(3).Plane()
	if err != nil {
		t.Fatal(err)
	}
	if !geom.IsAlmostEqualPoints(pl.Normal, v(0, 0, 1)) {
		t.Errorf("normal = %v, want +Z", pl.Normal)
	}
	if !geom.IsAlmostEqualPoints(pl.XVec, v(1, 0, 0)) {
		t.Errorf("x = %v, want +X", pl.XVec)
	}

	// A loop opening with a corner arc still takes X from its first line.
	rounded := geom.CurveLoop{
		geom.NewArc(v(1, 1, 0), 1, math.Pi, 1.5*math.Pi, v(0, 0, 1)),
		geom.Line{From: v(1, 0, 0), To: v(4, 0, 0)},
		geom.Line{From: v(4, 0, 0), To: v(4, 4, 0)},
		geom.Line{From: v(4, 4, 0), To: v(0, 4, 0)},
		geom.Line{From: v(0, 4, 0), To: v(0, 1, 0)},
	}
	pl, err = rounded.Plane()
	if err != nil {
		t.Fatal(err)
	}
	if !geom.IsAlmostEqualPoints(pl.XVec, v(1, 0, 0)) {
		t.Errorf("rounded loop x = %v, want +X", pl.XVec)
	}

	skew := geom.Polygon(v(0, 0, 0), v(1, 0, 0), v(1, 1, 1), v(0, 1, 0))
	if _, err := skew.Plane(); !errors.Is(err, geom.ErrNonPlanar) {
		t.Errorf("skew loop: err = %v, want ErrNonPlanar", err)
	}
	if _, err := (geom.CurveLoop{}).Plane(); !errors.Is(err, geom.ErrEmptyLoop) {
		t.Errorf("empty loop: err = %v, want ErrEmptyLoop", err)
	}
}

func TestIsCounterclockwiseEdgeOn(t *testing.T) {
	if _, err := square(1).IsCounterclockwise(v(1, 0, 0)); !errors.Is(err, geom.ErrDegenerate) {
		t.Errorf("edge-on winding: err = %v, want ErrDegenerate", err)
	}
}

func TestBoxFacesPointOutward(t *testing.T) {
	min, max := v(0, 0, 0), v(2, 3, 4)
	center := v(1, 1.5, 2)
	faces := geom.BoxFaces(min, max)
	if len(faces) != 6 {
		t.Fatalf("got %d faces, want 6", len(faces))
	}
	for i, f := range faces {
		pl, err := f.Plane()
		if err != nil {
			t.Fatalf("face %d: %v", i, err)
		}
		if pl.SignedDistance(center) >= 0 {
			t.Errorf("face %d normal %v points inward", i, pl.Normal)
		}
	}
	lo, hi, ok := faces.Bounds()
	if !ok || !geom.IsAlmostEqualPoints(lo, min) || !geom.IsAlmostEqualPoints(hi, max) {
		t.Errorf("bounds = %v %v %v", lo, hi, ok)
	}
}

func TestOutwardPlanesIgnoreWinding(t *testing.T) {
	faces := geom.BoxFaces(v(0, 0, 0), v(2, 2, 2))
	for _, f := range faces[:3] {
		f.Loops[0].Flip()
	}
	planes, err := faces.OutwardPlanes()
	if err != nil {
		t.Fatal(err)
	}
	center := v(1, 1, 1)
	for i, pl := range planes {
		if pl.SignedDistance(center) >= 0 {
			t.Errorf("plane %d normal %v points inward", i, pl.Normal)
		}
		if !geom.IsAlmostEqualPoints(pl.XVec.Cross(pl.YVec), pl.Normal) {
			t.Errorf("plane %d frame is left-handed", i)
		}
	}
	if _, err := (geom.FaceSet{}).OutwardPlanes(); !errors.Is(err, geom.ErrEmptyLoop) {
		t.Errorf("empty set: err = %v", err)
	}
}
