package export

import (
	"math"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/model"
	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/r3"
	"github.com/samber/lo"
)

// minSide keeps R-tree rectangles of flat bounds valid.
const minSide = 1e-6

type hostEntry struct {
	id   model.ElementID
	rect rtreego.Rect
}

func (h *hostEntry) Bounds() rtreego.Rect { return h.rect }

func toRect(min, max r3.Vector) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{min.X, min.Y, min.Z},
		[]float64{
			math.Max(max.X-min.X, minSide),
			math.Max(max.Y-min.Y, minSide),
			math.Max(max.Z-min.Z, minSide),
		},
	)
}

// bodyBounds bounds every solid of a body: the tessellated base loops and
// the same points swept to the top of the extrusion.
func bodyBounds(bd model.BodyData, arcStep float64) (min, max r3.Vector, ok bool) {
	inf := math.Inf(1)
	min = r3.Vector{X: inf, Y: inf, Z: inf}
	max = min.Mul(-1)
	grow := func(p r3.Vector) {
		min = r3.Vector{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = r3.Vector{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
		ok = true
	}
	for _, s := range bd.Solids {
		dir, dok := geom.Unit(s.Direction)
		if !dok || len(s.Loops) == 0 {
			continue
		}
		pl, err := s.Loops[0].Plane()
		if err != nil {
			continue
		}
		cos := dir.Dot(pl.Normal)
		if geom.IsAlmostZero(cos) {
			continue
		}
		top := dir.Mul(s.Depth / cos)
		for _, l := range s.Loops {
			for _, p := range l.Tessellate(arcStep) {
				grow(p)
				grow(p.Add(top))
			}
		}
	}
	return min, max, ok
}

// hostIndex finds the bodies an opening without explicit hosts cuts.
type hostIndex struct {
	tree *rtreego.Rtree
}

func newHostIndex(m *model.Model, arcStep float64) *hostIndex {
	tree := rtreego.NewTree(3, 8, 32)
	for _, e := range m.Bodies() {
		min, max, ok := bodyBounds(e.Data.(model.BodyData), arcStep)
		if !ok {
			continue
		}
		rect, err := toRect(min, max)
		if err != nil {
			continue
		}
		tree.Insert(&hostEntry{id: e.ID, rect: rect})
	}
	return &hostIndex{tree: tree}
}

// hostsOf returns the bodies whose bounds overlap any face set of op.
func (x *hostIndex) hostsOf(op model.OpeningData) []model.ElementID {
	var ids []model.ElementID
	for _, fs := range op.FaceSets {
		min, max, ok := fs.Bounds()
		if !ok {
			continue
		}
		rect, err := toRect(min, max)
		if err != nil {
			continue
		}
		for _, s := range x.tree.SearchIntersect(rect) {
			ids = append(ids, s.(*hostEntry).id)
		}
	}
	return lo.Uniq(ids)
}

// CutterMap assigns every opening to the bodies it cuts: its explicit
// hosts, or else every body whose bounds overlap it. Openings keep model
// order.
func CutterMap(m *model.Model, arcStep float64) map[model.ElementID][]*model.Element {
	out := make(map[model.ElementID][]*model.Element)
	var index *hostIndex
	for _, e := range m.Openings() {
		op := e.Data.(model.OpeningData)
		hosts := op.Hosts
		if len(hosts) == 0 {
			if index == nil {
				index = newHostIndex(m, arcStep)
			}
			hosts = index.hostsOf(op)
		}
		for _, h := range lo.Uniq(hosts) {
			out[h] = append(out[h], e)
		}
	}
	return out
}
