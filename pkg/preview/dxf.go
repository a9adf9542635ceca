package preview

import (
	"fmt"
	"strings"

	"github.com/chazu/ifcextrude/pkg/profile"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/entity"
)

var kindColours = map[profile.Kind]color.ColorNumber{
	profile.KindRectangle: color.Cyan,
	profile.KindCircle:    color.Green,
	profile.KindIShape:    color.Yellow,
	profile.KindArbitrary: color.Red,
}

// layerName is the DXF layer an outline of kind k is drawn on.
func layerName(k profile.Kind) string {
	return "PROFILE_" + strings.ToUpper(k.String())
}

// SaveDXF writes the outlines of entries to a DXF file at path. Each
// profile kind gets its own layer.
func SaveDXF(path string, entries []Entry, opts Options) error {
	d := dxf.NewDrawing()
	d.Header().LtScale = 1.0

	shapes, _ := layout(entries, opts)
	layers := make(map[profile.Kind]bool)
	for _, s := range shapes {
		k := s.entry.Profile.Kind()
		name := layerName(k)
		if !layers[k] {
			if _, err := d.AddLayer(name, kindColours[k], dxf.DefaultLineType, false); err != nil {
				return fmt.Errorf("preview: dxf layer %s: %w", name, err)
			}
			layers[k] = true
		}
		if err := d.ChangeLayer(name); err != nil {
			return fmt.Errorf("preview: dxf layer %s: %w", name, err)
		}
		d.AddEntity(lwPolyline(s.outer))
		for _, h := range s.inner {
			d.AddEntity(lwPolyline(h))
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("preview: save dxf: %w", err)
	}
	return nil
}

// lwPolyline returns the closed polyline through p. The first vertex is
// repeated to close it.
func lwPolyline(p profile.Polyline) *entity.LwPolyline {
	lwp := entity.NewLwPolyline(len(p) + 1)
	for i, q := range p {
		lwp.Vertices[i] = []float64{q.X, q.Y}
	}
	lwp.Vertices[len(p)] = []float64{p[0].X, p[0].Y}
	return lwp
}
