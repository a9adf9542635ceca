package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/model"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/golang/geo/r3"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

type sexpPoint struct {
	v r3.Vector
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pt %g %g %g)", p.v.X, p.v.Y, p.v.Z)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

type sexpSegment struct {
	seg geom.Segment
}

func (s *sexpSegment) SexpString(ps *zygo.PrintState) string {
	switch seg := s.seg.(type) {
	case geom.Line:
		return fmt.Sprintf("(line %v %v)", seg.From, seg.To)
	case geom.Arc:
		return fmt.Sprintf("(arc %v r=%g)", seg.Center, seg.Radius)
	}
	return "(segment)"
}
func (s *sexpSegment) Type() *zygo.RegisteredType { return nil }

type sexpLoop struct {
	loop geom.CurveLoop
}

func (l *sexpLoop) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(loop %d segments)", len(l.loop))
}
func (l *sexpLoop) Type() *zygo.RegisteredType { return nil }

type sexpFace struct {
	face geom.Face
}

func (f *sexpFace) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(face %d loops)", len(f.face.Loops))
}
func (f *sexpFace) Type() *zygo.RegisteredType { return nil }

type sexpFaceSet struct {
	fs geom.FaceSet
}

func (f *sexpFaceSet) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(faceset %d faces)", len(f.fs))
}
func (f *sexpFaceSet) Type() *zygo.RegisteredType { return nil }

type sexpSolid struct {
	spec model.SolidSpec
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(solid %d loops depth=%g)", len(s.spec.Loops), s.spec.Depth)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpElementRef wraps a model.ElementID so it can be passed between
// builtins.
type sexpElementRef struct {
	id   model.ElementID
	name string // human-readable name for error messages
}

func (e *sexpElementRef) SexpString(ps *zygo.PrintState) string {
	if e.name != "" {
		return fmt.Sprintf("(element-ref %q)", e.name)
	}
	return fmt.Sprintf("(element-ref %s)", e.id.Short())
}
func (e *sexpElementRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. A
// keyword at the end with no value is a flag set to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil // bare flag
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts both :kw and "kw".
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toKind(s zygo.Sexp) (model.Kind, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, err
	}
	k, ok := model.ParseKind(name)
	if !ok || k == model.KindOpening {
		return 0, fmt.Errorf("invalid element kind %q", name)
	}
	return k, nil
}

func toPoint(s zygo.Sexp) (r3.Vector, error) {
	if p, ok := s.(*sexpPoint); ok {
		return p.v, nil
	}
	return r3.Vector{}, fmt.Errorf("expected point, got %T (%s)", s, s.SexpString(nil))
}

func toLoop(s zygo.Sexp) (geom.CurveLoop, error) {
	if l, ok := s.(*sexpLoop); ok {
		return l.loop, nil
	}
	return nil, fmt.Errorf("expected loop, got %T (%s)", s, s.SexpString(nil))
}

func toFaceSet(s zygo.Sexp) (geom.FaceSet, error) {
	if f, ok := s.(*sexpFaceSet); ok {
		return f.fs, nil
	}
	return nil, fmt.Errorf("expected face set, got %T (%s)", s, s.SexpString(nil))
}

func toElementRef(s zygo.Sexp) (model.ElementID, error) {
	if ref, ok := s.(*sexpElementRef); ok {
		return ref.id, nil
	}
	return "", fmt.Errorf("expected element reference, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// flatten expands lists and arrays among args one level deep.
func flatten(args []zygo.Sexp) []zygo.Sexp {
	var out []zygo.Sexp
	for _, a := range args {
		switch a.(type) {
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(a)
			if err == nil {
				out = append(out, items...)
				continue
			}
		}
		out = append(out, a)
	}
	return out
}
