package resolver

import (
	"github.com/chazu/ifcextrude/pkg/ifc"
	"github.com/chazu/ifcextrude/pkg/step"
	"github.com/samber/lo"
)

// Bucket is the kind of representation an element ends up with.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketSweptSolid
	BucketClipping
	BucketCSG
)

// RepresentationType returns the IfcShapeRepresentation type for b.
func (b Bucket) RepresentationType() string {
	switch b {
	case BucketSweptSolid:
		return ifc.RepSweptSolid
	case BucketClipping:
		return ifc.RepClipping
	case BucketCSG:
		return ifc.RepCSG
	}
	return ""
}

func (b Bucket) String() string {
	if t := b.RepresentationType(); t != "" {
		return t
	}
	return "none"
}

func bucketOf(s State) Bucket {
	switch s {
	case BaseExtruded:
		return BucketSweptSolid
	case Clipped:
		return BucketClipping
	case BooleanApplied:
		return BucketCSG
	}
	return BucketNone
}

// aggregate picks the representation items for the emitted solids. Solids
// of a single bucket are used as they are; a mix is unioned into one
// boolean result, seeded with the clipped and boolean solids.
func (r *Resolver) aggregate(outs []Outcome) ([]step.Handle, Bucket) {
	emitted := lo.Filter(outs, func(o Outcome, _ int) bool {
		return bucketOf(o.State) != BucketNone
	})
	if len(emitted) == 0 {
		return nil, BucketNone
	}

	groups := lo.GroupBy(emitted, func(o Outcome) Bucket { return bucketOf(o.State) })
	handles := func(os []Outcome) []step.Handle {
		return lo.Map(os, func(o Outcome, _ int) step.Handle { return o.Handle })
	}
	if len(groups) == 1 {
		b := bucketOf(emitted[0].State)
		return handles(emitted), b
	}

	seed, rest := lo.FilterReject(emitted, func(o Outcome, _ int) bool {
		return bucketOf(o.State) != BucketSweptSolid
	})
	ordered := handles(append(seed, rest...))
	acc := ordered[0]
	for _, h := range ordered[1:] {
		acc = r.sink.Union(acc, h)
	}
	return []step.Handle{acc}, BucketCSG
}
