package extrusion

import (
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r3"
)

// LoopValidator filters the loops an extrusion is built from. It may drop
// loops but never adds or reorders them.
type LoopValidator interface {
	ValidateLoops(loops []geom.CurveLoop, dir r3.Vector) []geom.CurveLoop
}

// DropDegenerate removes loops that are open, contain a zero-length
// segment, or enclose no area when seen along the extrusion direction.
type DropDegenerate struct{}

func (DropDegenerate) ValidateLoops(loops []geom.CurveLoop, dir r3.Vector) []geom.CurveLoop {
	out := make([]geom.CurveLoop, 0, len(loops))
	for _, l := range loops {
		if l.IsOpen() || hasShortSegment(l) {
			continue
		}
		if _, err := l.IsCounterclockwise(dir); err != nil {
			continue
		}
		out = append(out, l)
	}
	return out
}

func hasShortSegment(l geom.CurveLoop) bool {
	for _, s := range l {
		if s.Length() < geom.VertexEps {
			return true
		}
	}
	return false
}
