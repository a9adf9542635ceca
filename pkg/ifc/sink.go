package ifc

import (
	"github.com/chazu/ifcextrude/pkg/extrusion"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/step"
)

// Palette maps material names to surface colours. Materials not listed
// get DefaultColour.
type Palette map[string][3]float64

// DefaultColour is a neutral grey.
var DefaultColour = [3]float64{0.75, 0.75, 0.75}

// Sink writes resolved solids: profiles and extrusions, clipping chains,
// opening subtractions, unions and material styles.
type Sink struct {
	w       *Writer
	palette Palette
}

// NewSink returns a sink writing through w.
func NewSink(w *Writer, palette Palette) *Sink {
	return &Sink{w: w, palette: palette}
}

// Writer returns the underlying writer.
func (s *Sink) Writer() *Writer { return s.w }

// Begin opens a transaction on the output file.
func (s *Sink) Begin() *step.Tx { return s.w.Begin() }

// Extrusion writes the profile and the extruded area solid of d.
func (s *Sink) Extrusion(d extrusion.Description) (step.Handle, error) {
	prof, err := s.w.Profile(d.ProfileName, d.Profile)
	if err != nil {
		return 0, err
	}
	return s.w.ExtrudedAreaSolid(prof, d), nil
}

// Clip subtracts the half space behind each plane in turn.
func (s *Sink) Clip(base step.Handle, planes []geom.Plane) step.Handle {
	h := base
	for _, pl := range planes {
		h = s.w.BooleanClippingResult(h, s.w.HalfSpaceSolid(pl))
	}
	return h
}

// Subtract removes the solid bounded by fs from base.
func (s *Sink) Subtract(base step.Handle, fs geom.FaceSet) step.Handle {
	return s.w.BooleanResult(Difference, base, s.w.FacetedBrep(fs))
}

// Union joins two solids.
func (s *Sink) Union(a, b step.Handle) step.Handle {
	return s.w.BooleanResult(Union, a, b)
}

// Style writes the presentation style of a material.
func (s *Sink) Style(material string) step.Handle {
	rgb, ok := s.palette[material]
	if !ok {
		rgb = DefaultColour
	}
	return s.w.SurfaceStyle(material, rgb)
}

// StyleItem attaches a style to a solid.
func (s *Sink) StyleItem(item, style step.Handle) {
	s.w.StyledItem(item, style)
}
