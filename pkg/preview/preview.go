// Package preview draws the recognized profiles of a model as flat
// sketches, one outline per solid laid out in a row, as DXF or SVG.
package preview

import (
	"fmt"

	"github.com/chazu/ifcextrude/pkg/extrusion"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/model"
	"github.com/chazu/ifcextrude/pkg/profile"
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// Entry is one profile to draw.
type Entry struct {
	Element model.ElementID
	Name    string
	Profile profile.Profile
}

// Options configure Collect and the writers.
type Options struct {
	ArcStep float64
	// Gap separates neighbouring outlines, in model units. Zero picks a
	// tenth of the tallest outline.
	Gap    float64
	Logger *zap.Logger
}

func (o Options) arcStep() float64 {
	if o.ArcStep <= 0 {
		return geom.DefaultArcStep
	}
	return o.ArcStep
}

// Collect classifies the base of every solid of m. Solids whose base
// cannot be described are returned as errors and left out.
func Collect(m *model.Model, opts Options) ([]Entry, []error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	b := extrusion.NewBuilder(logger, opts.arcStep())

	var entries []Entry
	var errs []error
	for _, e := range m.Bodies() {
		for i, s := range e.Data.(model.BodyData).Solids {
			name := s.Name
			if name == "" {
				name = e.Name
			}
			if name == "" {
				name = e.ID.Short()
			}
			if len(e.Data.(model.BodyData).Solids) > 1 && s.Name == "" {
				name = fmt.Sprintf("%s/%d", name, i)
			}
			if s.Complex {
				errs = append(errs, fmt.Errorf("preview: %s: complex boundary", name))
				continue
			}
			d, err := b.FromLoops(name, s.Loops, s.Direction, s.Depth)
			if err != nil {
				errs = append(errs, fmt.Errorf("preview: %s: %w", name, err))
				continue
			}
			entries = append(entries, Entry{Element: e.ID, Name: name, Profile: d.Profile})
		}
	}
	return entries, errs
}

// shape is an entry's outline moved to its place in the row.
type shape struct {
	entry Entry
	outer profile.Polyline
	inner []profile.Polyline
	bound orb.Bound
}

// layout outlines every entry and places them left to right on a common
// baseline. It returns the shapes and the bound of the whole sheet.
func layout(entries []Entry, opts Options) ([]shape, orb.Bound) {
	shapes := make([]shape, 0, len(entries))
	tallest := 0.0
	for _, e := range entries {
		outer, inner := profile.Outline(e.Profile, opts.arcStep())
		if len(outer) < 3 {
			continue
		}
		b := ringOf(outer).Bound()
		tallest = max(tallest, b.Top()-b.Bottom())
		shapes = append(shapes, shape{entry: e, outer: outer, inner: inner, bound: b})
	}

	gap := opts.Gap
	if gap <= 0 {
		gap = tallest / 10
	}
	sheet := orb.Bound{}
	x := 0.0
	for i := range shapes {
		s := &shapes[i]
		off := r2.Point{X: x - s.bound.Left(), Y: -s.bound.Bottom()}
		s.outer = shift(s.outer, off)
		for j := range s.inner {
			s.inner[j] = shift(s.inner[j], off)
		}
		s.bound = ringOf(s.outer).Bound()
		if i == 0 {
			sheet = s.bound
		} else {
			sheet = sheet.Union(s.bound)
		}
		x = s.bound.Right() + gap
	}
	return shapes, sheet
}

func shift(p profile.Polyline, off r2.Point) profile.Polyline {
	out := make(profile.Polyline, len(p))
	for i, q := range p {
		out[i] = q.Add(off)
	}
	return out
}

func ringOf(p profile.Polyline) orb.Ring {
	r := make(orb.Ring, 0, len(p)+1)
	for _, q := range p {
		r = append(r, orb.Point{q.X, q.Y})
	}
	return append(r, r[0])
}
