package preview

import (
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/chazu/ifcextrude/pkg/profile"
)

// svgWidth is the pixel width the sheet is scaled to.
const svgWidth = 1200

var kindFills = map[profile.Kind]string{
	profile.KindRectangle: "#9ecae1",
	profile.KindCircle:    "#a1d99b",
	profile.KindIShape:    "#fdd0a2",
	profile.KindArbitrary: "#fc9272",
}

// WriteSVG draws the outlines of entries with their names underneath.
// Voids are cut out with the even-odd fill rule.
func WriteSVG(w io.Writer, entries []Entry, opts Options) error {
	shapes, sheet := layout(entries, opts)
	margin := 20
	label := 16

	scale := 1.0
	if width := sheet.Right() - sheet.Left(); width > 0 {
		scale = (svgWidth - 2*float64(margin)) / width
	}
	height := int(math.Ceil((sheet.Top()-sheet.Bottom())*scale)) + 2*margin + label

	px := func(x float64) float64 { return float64(margin) + (x-sheet.Left())*scale }
	py := func(y float64) float64 { return float64(margin) + (sheet.Top()-y)*scale }

	canvas := svg.New(w)
	canvas.Start(svgWidth, height)
	canvas.Rect(0, 0, svgWidth, height, "fill:white")
	for _, s := range shapes {
		var d strings.Builder
		for _, ring := range append([]profile.Polyline{s.outer}, s.inner...) {
			for i, q := range ring {
				op := "L"
				if i == 0 {
					op = "M"
				}
				fmt.Fprintf(&d, "%s%.2f %.2f ", op, px(q.X), py(q.Y))
			}
			d.WriteString("Z ")
		}
		fill := kindFills[s.entry.Profile.Kind()]
		canvas.Path(strings.TrimSpace(d.String()),
			fmt.Sprintf("fill:%s;fill-rule:evenodd;stroke:black;stroke-width:1", fill))

		cx := int(math.Round(px((s.bound.Left() + s.bound.Right()) / 2)))
		canvas.Text(cx, height-margin/2, s.entry.Name,
			"text-anchor:middle;font-size:12px;font-family:sans-serif")
	}
	canvas.End()
	return nil
}
