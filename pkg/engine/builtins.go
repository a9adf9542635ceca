package engine

import (
	"fmt"
	"math"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/model"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r3"
)

// builder carries the model being populated by one evaluation.
type builder struct {
	m *model.Model
	// occurrences counts forms per kind and name so repeated names get
	// distinct, stable IDs. Validation reports the duplicates.
	occurrences map[string]int
}

func (b *builder) nextID(kind model.Kind, name string) model.ElementID {
	key := kind.String() + "/" + name
	n := b.occurrences[key]
	b.occurrences[key] = n + 1
	return model.NewElementID(fmt.Sprintf("%s#%d", key, n))
}

// registerBuiltins installs the model DSL into env. The builtins populate
// m during evaluation.
//
// Source must go through preprocessSource first so :keyword tokens arrive
// as recognizable strings.
func registerBuiltins(env *zygo.Zlisp, m *model.Model) {
	b := &builder{m: m, occurrences: make(map[string]int)}

	env.AddFunction("pt", builtinPoint)
	env.AddFunction("line", builtinLine)
	env.AddFunction("arc", builtinArc)
	env.AddFunction("circle", builtinCircle)
	env.AddFunction("polyloop", builtinPolyloop)
	env.AddFunction("curve_loop", builtinCurveLoop)
	env.AddFunction("face", builtinFace)
	env.AddFunction("faceset", builtinFaceSet)
	env.AddFunction("box_cutter", builtinBoxCutter)
	env.AddFunction("solid", builtinSolid)
	env.AddFunction("element", b.element)
	env.AddFunction("opening", b.opening)
	env.AddFunction("element_ref", b.elementRef)
	env.AddFunction("defaults", b.defaults)
}

// ---------------------------------------------------------------------------
// Geometry
// ---------------------------------------------------------------------------

// (pt x y) or (pt x y z)
func builtinPoint(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 && len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("pt requires 2 or 3 arguments, got %d", len(args))
	}
	var c [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: %c: %w", "xyz"[i], err)
		}
		c[i] = f
	}
	return &sexpPoint{v: r3.Vector{X: c[0], Y: c[1], Z: c[2]}}, nil
}

// (line from to)
func builtinLine(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("line requires 2 points, got %d arguments", len(args))
	}
	from, err := toPoint(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("line: from: %w", err)
	}
	to, err := toPoint(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("line: to: %w", err)
	}
	if geom.IsAlmostEqualPoints(from, to) {
		return zygo.SexpNull, fmt.Errorf("line: zero length")
	}
	return &sexpSegment{seg: geom.Line{From: from, To: to}}, nil
}

func normalArg(pa kwArgs) (r3.Vector, error) {
	v, ok := pa.kw["normal"]
	if !ok {
		return r3.Vector{Z: 1}, nil
	}
	n, err := toPoint(v)
	if err != nil {
		return r3.Vector{}, err
	}
	if _, ok := geom.Unit(n); !ok {
		return r3.Vector{}, fmt.Errorf("zero vector")
	}
	return n, nil
}

// (arc center radius start-deg end-deg :normal (pt 0 0 1))
func builtinArc(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 4 {
		return zygo.SexpNull, fmt.Errorf("arc requires center, radius, start and end, got %d arguments", len(pa.positional))
	}
	center, err := toPoint(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("arc: center: %w", err)
	}
	var nums [3]float64
	for i, label := range []string{"radius", "start", "end"} {
		f, err := toFloat64(pa.positional[i+1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %s: %w", label, err)
		}
		nums[i] = f
	}
	if nums[0] <= 0 {
		return zygo.SexpNull, fmt.Errorf("arc: radius must be positive, got %g", nums[0])
	}
	normal, err := normalArg(pa)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("arc: normal: %w", err)
	}
	start, end := nums[1]*math.Pi/180, nums[2]*math.Pi/180
	return &sexpSegment{seg: geom.NewArc(center, nums[0], start, end, normal)}, nil
}

// (circle center radius :normal (pt 0 0 1)) returns a one-segment loop.
func builtinCircle(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		return zygo.SexpNull, fmt.Errorf("circle requires center and radius")
	}
	center, err := toPoint(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("circle: center: %w", err)
	}
	r, err := toFloat64(pa.positional[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("circle: radius: %w", err)
	}
	if r <= 0 {
		return zygo.SexpNull, fmt.Errorf("circle: radius must be positive, got %g", r)
	}
	normal, err := normalArg(pa)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("circle: normal: %w", err)
	}
	return &sexpLoop{loop: geom.CurveLoop{geom.NewCircle(center, r, normal)}}, nil
}

// (polyloop p1 p2 p3 ...) closes the polygon through the points. A final
// point equal to the first is dropped.
func builtinPolyloop(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	items := flatten(args)
	pts := make([]r3.Vector, 0, len(items))
	for i, a := range items {
		p, err := toPoint(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polyloop: point %d: %w", i, err)
		}
		if len(pts) > 0 && geom.IsAlmostEqualPoints(p, pts[len(pts)-1]) {
			continue
		}
		pts = append(pts, p)
	}
	if len(pts) > 1 && geom.IsAlmostEqualPoints(pts[0], pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return zygo.SexpNull, fmt.Errorf("polyloop requires at least 3 distinct points, got %d", len(pts))
	}
	return &sexpLoop{loop: geom.Polygon(pts...)}, nil
}

// (curve-loop seg1 seg2 ...) chains segments in order. Loops may be
// spliced in. The loop is left open if the segments do not meet;
// validation warns.
func builtinCurveLoop(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	var l geom.CurveLoop
	for i, a := range flatten(args) {
		switch v := a.(type) {
		case *sexpSegment:
			l = append(l, v.seg)
		case *sexpLoop:
			l = append(l, v.loop...)
		default:
			return zygo.SexpNull, fmt.Errorf("curve-loop: argument %d: expected segment, got %T", i, a)
		}
	}
	if len(l) == 0 {
		return zygo.SexpNull, fmt.Errorf("curve-loop requires at least one segment")
	}
	return &sexpLoop{loop: l}, nil
}

// (face outer inner...)
func builtinFace(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	var f geom.Face
	for i, a := range flatten(args) {
		l, err := toLoop(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: loop %d: %w", i, err)
		}
		f.Loops = append(f.Loops, l)
	}
	if len(f.Loops) == 0 {
		return zygo.SexpNull, fmt.Errorf("face requires an outer loop")
	}
	if _, err := f.Plane(); err != nil {
		return zygo.SexpNull, fmt.Errorf("face: %w", err)
	}
	return &sexpFace{face: f}, nil
}

// (faceset face1 face2 ...)
func builtinFaceSet(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	var fs geom.FaceSet
	for i, a := range flatten(args) {
		f, ok := a.(*sexpFace)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("faceset: argument %d: expected face, got %T", i, a)
		}
		fs = append(fs, f.face)
	}
	if len(fs) < 4 {
		return zygo.SexpNull, fmt.Errorf("faceset requires at least 4 faces, got %d", len(fs))
	}
	return &sexpFaceSet{fs: fs}, nil
}

// (box_cutter min max) is the face set of an axis-aligned box.
func builtinBoxCutter(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("box-cutter requires min and max corners")
	}
	lo, err := toPoint(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("box-cutter: min: %w", err)
	}
	hi, err := toPoint(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("box-cutter: max: %w", err)
	}
	min := r3.Vector{X: math.Min(lo.X, hi.X), Y: math.Min(lo.Y, hi.Y), Z: math.Min(lo.Z, hi.Z)}
	max := r3.Vector{X: math.Max(lo.X, hi.X), Y: math.Max(lo.Y, hi.Y), Z: math.Max(lo.Z, hi.Z)}
	d := max.Sub(min)
	if geom.IsAlmostZero(d.X) || geom.IsAlmostZero(d.Y) || geom.IsAlmostZero(d.Z) {
		return zygo.SexpNull, fmt.Errorf("box-cutter: box is flat")
	}
	return &sexpFaceSet{fs: geom.BoxFaces(min, max)}, nil
}

// builtinSolid reads
//
//	(solid :dir (pt 0 0 1) :depth 3000 :material "concrete" :name "s"
//	       :complex true outer inner...)
func builtinSolid(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	spec := model.SolidSpec{Direction: r3.Vector{Z: 1}}

	if v, ok := pa.kw["dir"]; ok {
		d, err := toPoint(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: dir: %w", err)
		}
		spec.Direction = d
	}
	v, ok := pa.kw["depth"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("solid requires :depth")
	}
	depth, err := toFloat64(v)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("solid: depth: %w", err)
	}
	spec.Depth = depth
	if v, ok := pa.kw["material"]; ok {
		s, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: material: %w", err)
		}
		spec.Material = s
	}
	if v, ok := pa.kw["name"]; ok {
		s, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: name: %w", err)
		}
		spec.Name = s
	}
	if v, ok := pa.kw["complex"]; ok {
		c, err := toBool(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: complex: %w", err)
		}
		spec.Complex = c
	}

	for i, a := range flatten(pa.positional) {
		l, err := toLoop(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: loop %d: %w", i, err)
		}
		spec.Loops = append(spec.Loops, l)
	}
	if len(spec.Loops) == 0 {
		return zygo.SexpNull, fmt.Errorf("solid requires at least one loop")
	}
	return &sexpSolid{spec: spec}, nil
}

// ---------------------------------------------------------------------------
// Elements
// ---------------------------------------------------------------------------

// element reads
//
//	(element :kind :wall :name "w1" :type "W-200" :layer "A-WALL"
//	         :range (list 0 3000) solid...)
func (b *builder) element(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	el := &model.Element{Kind: model.KindProxy, Source: model.SourceRef{Form: "element"}}
	var body model.BodyData

	if v, ok := pa.kw["kind"]; ok {
		k, err := toKind(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("element: kind: %w", err)
		}
		el.Kind = k
	}
	for _, field := range []struct {
		kw  string
		dst *string
	}{{"name", &el.Name}, {"type", &el.TypeName}, {"layer", &el.Layer}} {
		v, ok := pa.kw[field.kw]
		if !ok {
			continue
		}
		s, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("element: %s: %w", field.kw, err)
		}
		*field.dst = s
	}
	if v, ok := pa.kw["range"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil || len(items) != 2 {
			return zygo.SexpNull, fmt.Errorf("element: range: expected (list lo hi)")
		}
		lo, err := toFloat64(items[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("element: range: lo: %w", err)
		}
		hi, err := toFloat64(items[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("element: range: hi: %w", err)
		}
		body.Range = &r1.Interval{Lo: lo, Hi: hi}
	}

	for i, a := range flatten(pa.positional) {
		s, ok := a.(*sexpSolid)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("element: argument %d: expected solid, got %T", i, a)
		}
		body.Solids = append(body.Solids, s.spec)
	}

	el.ID = b.nextID(el.Kind, el.Name)
	el.Data = body
	b.m.Add(el)
	return &sexpElementRef{id: el.ID, name: el.Name}, nil
}

// (opening :name "door" :hosts (list w1 w2) faceset...)
func (b *builder) opening(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	el := &model.Element{Kind: model.KindOpening, Source: model.SourceRef{Form: "opening"}}
	var op model.OpeningData

	if v, ok := pa.kw["name"]; ok {
		s, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("opening: name: %w", err)
		}
		el.Name = s
	}
	if v, ok := pa.kw["hosts"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil {
			items = []zygo.Sexp{v}
		}
		for i, it := range items {
			id, err := toElementRef(it)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: host %d: %w", i, err)
			}
			op.Hosts = append(op.Hosts, id)
		}
	}
	for i, a := range flatten(pa.positional) {
		fs, err := toFaceSet(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("opening: argument %d: %w", i, err)
		}
		op.FaceSets = append(op.FaceSets, fs)
	}

	el.ID = b.nextID(el.Kind, el.Name)
	el.Data = op
	b.m.Add(el)
	return &sexpElementRef{id: el.ID, name: el.Name}, nil
}

// (element-ref "w1") looks up an element defined earlier in the script.
func (b *builder) elementRef(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("element-ref requires a name")
	}
	n, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("element-ref: %w", err)
	}
	el := b.m.Lookup(n)
	if el == nil {
		return zygo.SexpNull, fmt.Errorf("element-ref: no element named %q", n)
	}
	return &sexpElementRef{id: el.ID, name: n}, nil
}

// (defaults :material "concrete")
func (b *builder) defaults(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if v, ok := pa.kw["material"]; ok {
		s, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defaults: material: %w", err)
		}
		b.m.Defaults.Material = s
	}
	return zygo.SexpNull, nil
}
