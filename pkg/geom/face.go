package geom

import (
	"math"

	"github.com/golang/geo/r3"
)

// Face is a planar face of a cutting solid: an outer loop followed by
// optional inner loops. The outer loop runs counterclockwise about the
// outward normal.
type Face struct {
	Loops []CurveLoop
}

// Plane returns the face plane with Normal pointing out of the solid.
func (f Face) Plane() (Plane, error) {
	if len(f.Loops) == 0 {
		return Plane{}, ErrEmptyLoop
	}
	return f.Loops[0].Plane()
}

// Scaled returns the face scaled about the model origin.
func (f Face) Scaled(s float64) Face {
	out := Face{Loops: make([]CurveLoop, len(f.Loops))}
	for i, l := range f.Loops {
		out.Loops[i] = l.Scaled(s)
	}
	return out
}

// FaceSet is the closed shell of one cutting solid.
type FaceSet []Face

// Vertices returns the tessellated vertices of every loop of every face.
func (fs FaceSet) Vertices() []r3.Vector {
	var pts []r3.Vector
	for _, f := range fs {
		for _, l := range f.Loops {
			pts = append(pts, l.Tessellate(DefaultArcStep)...)
		}
	}
	return pts
}

// Bounds returns the axis-aligned bounding box of the face set. It reports
// false for an empty set.
func (fs FaceSet) Bounds() (min, max r3.Vector, ok bool) {
	pts := fs.Vertices()
	if len(pts) == 0 {
		return min, max, false
	}
	min = r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range pts {
		min = r3.Vector{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = r3.Vector{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
	}
	return min, max, true
}

// OutwardPlanes returns one plane per face with the normal pointing away
// from the centroid of the vertices, whatever the winding of the face.
func (fs FaceSet) OutwardPlanes() ([]Plane, error) {
	verts := fs.Vertices()
	if len(verts) == 0 {
		return nil, ErrEmptyLoop
	}
	var centroid r3.Vector
	for _, v := range verts {
		centroid = centroid.Add(v)
	}
	centroid = centroid.Mul(1 / float64(len(verts)))

	planes := make([]Plane, len(fs))
	for i, f := range fs {
		pl, err := f.Plane()
		if err != nil {
			return nil, err
		}
		if pl.SignedDistance(centroid) > 0 {
			pl.YVec = pl.YVec.Mul(-1)
			pl.Normal = pl.Normal.Mul(-1)
		}
		planes[i] = pl
	}
	return planes, nil
}

// Scaled returns the face set scaled about the model origin.
func (fs FaceSet) Scaled(s float64) FaceSet {
	out := make(FaceSet, len(fs))
	for i, f := range fs {
		out[i] = f.Scaled(s)
	}
	return out
}

// BoxFaces returns the six outward-facing faces of the axis-aligned box
// spanning min and max.
func BoxFaces(min, max r3.Vector) FaceSet {
	d := max.Sub(min)
	dx, dy, dz := r3.Vector{X: d.X}, r3.Vector{Y: d.Y}, r3.Vector{Z: d.Z}
	quad := func(p, u, v r3.Vector) Face {
		return Face{Loops: []CurveLoop{Polygon(p, p.Add(u), p.Add(u).Add(v), p.Add(v))}}
	}
	return FaceSet{
		quad(min, dy, dx),
		quad(min.Add(dz), dx, dy),
		quad(min, dx, dz),
		quad(min.Add(dy), dz, dx),
		quad(min, dz, dy),
		quad(min.Add(dx), dy, dz),
	}
}
