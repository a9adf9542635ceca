package resolver

import (
	"fmt"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/kernel"
	"github.com/chazu/ifcextrude/pkg/step"
	"github.com/golang/geo/r3"
)

// Body is a solid as written so far: its handle in the output, its kernel
// counterpart and its extrusion direction.
type Body struct {
	Handle    step.Handle
	Solid     kernel.Solid
	Direction r3.Vector
}

// Cutter applies one cutting face set to a body.
//
// Clip tries to express the cut as half-space clipping. ok is false when
// it cannot, and the face set is then retried with Open.
//
// Open subtracts the face set with a boolean. ok is false when nothing of
// the body remains.
type Cutter interface {
	Clip(base Body, fs geom.FaceSet) (Body, bool, error)
	Open(base Body, fs geom.FaceSet) (Body, bool, error)
}

// Compile-time interface check.
var _ Cutter = (*KernelCutter)(nil)

// KernelCutter decides cuts with a geometry kernel and writes them to a
// sink.
type KernelCutter struct {
	k    kernel.Kernel
	sink Sink
}

func NewKernelCutter(k kernel.Kernel, sink Sink) *KernelCutter {
	return &KernelCutter{k: k, sink: sink}
}

// Clip subtracts the half spaces of the cutter faces that cross the body.
// The reduction is accepted only when no crossing face is parallel to the
// extrusion direction, something of the body remains, and the result
// matches a full boolean subtraction of the cutter. A cutter that does not
// touch the body leaves it unchanged.
func (c *KernelCutter) Clip(base Body, fs geom.FaceSet) (Body, bool, error) {
	cutter, err := c.k.Polyhedron(fs)
	if err != nil {
		return base, false, fmt.Errorf("resolver: clip: %w", err)
	}
	if c.k.IsEmpty(c.k.Intersection(base.Solid, cutter)) {
		return base, true, nil
	}

	planes, err := fs.OutwardPlanes()
	if err != nil {
		return base, false, fmt.Errorf("resolver: clip: %w", err)
	}
	lo, hi := base.Solid.BoundingBox()
	var crossing []geom.Plane
	for _, pl := range planes {
		if !crosses(pl, lo, hi) {
			continue
		}
		if geom.IsAlmostPerpendicular(pl.Normal, base.Direction) {
			return base, false, nil
		}
		crossing = append(crossing, pl)
	}
	if len(crossing) == 0 {
		return base, false, nil
	}

	clipped := base.Solid
	for _, pl := range crossing {
		clipped = c.k.Difference(clipped, c.k.HalfSpace(pl))
	}
	if c.k.IsEmpty(clipped) {
		return base, false, nil
	}
	if !c.k.Equivalent(clipped, c.k.Difference(base.Solid, cutter)) {
		return base, false, nil
	}

	h := c.sink.Clip(base.Handle, crossing)
	return Body{Handle: h, Solid: clipped, Direction: base.Direction}, true, nil
}

// Open subtracts the cutter from the body.
func (c *KernelCutter) Open(base Body, fs geom.FaceSet) (Body, bool, error) {
	cutter, err := c.k.Polyhedron(fs)
	if err != nil {
		return base, false, fmt.Errorf("resolver: open: %w", err)
	}
	if c.k.IsEmpty(c.k.Intersection(base.Solid, cutter)) {
		return base, true, nil
	}
	rest := c.k.Difference(base.Solid, cutter)
	if c.k.IsEmpty(rest) {
		return Body{}, false, nil
	}
	h := c.sink.Subtract(base.Handle, fs)
	return Body{Handle: h, Solid: rest, Direction: base.Direction}, true, nil
}

// crosses reports whether pl separates corners of the box [lo, hi].
func crosses(pl geom.Plane, lo, hi r3.Vector) bool {
	var above, below bool
	for i := 0; i < 8; i++ {
		p := lo
		if i&1 != 0 {
			p.X = hi.X
		}
		if i&2 != 0 {
			p.Y = hi.Y
		}
		if i&4 != 0 {
			p.Z = hi.Z
		}
		d := pl.SignedDistance(p)
		above = above || d > geom.VertexEps
		below = below || d < -geom.VertexEps
	}
	return above && below
}
