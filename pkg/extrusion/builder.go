package extrusion

import (
	"fmt"
	"math"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/profile"
	"github.com/golang/geo/r3"
	"go.uber.org/zap"
)

// Request is the input to Builder.Build. Depth is the distance from the
// base plane to the far plane, measured along the plane normal. Loops must
// already be oriented (see Normalize) and lie in Plane.
type Request struct {
	ProfileName string
	Loops       []geom.CurveLoop
	Plane       geom.Plane
	Direction   r3.Vector
	Depth       float64
}

// Description is a complete extruded-area-solid definition.
type Description struct {
	ProfileName string
	Profile     profile.Profile
	// Plane positions the profile: Origin is the placement location,
	// Normal its axis and XVec its reference direction.
	Plane geom.Plane
	// Direction is the unit extrusion direction in model coordinates.
	Direction r3.Vector
	// LocalDirection is Direction expressed in the Plane frame.
	LocalDirection r3.Vector
	// Depth is the length along Direction; always positive.
	Depth float64
}

// Builder builds extrusion descriptions. The zero value is not usable;
// call NewBuilder.
type Builder struct {
	Validator LoopValidator
	Converter profile.CurveConverter
	Logger    *zap.Logger
}

// NewBuilder returns a builder with the default loop validator and a
// polyline converter using arcStep (geom.DefaultArcStep when zero).
func NewBuilder(logger *zap.Logger, arcStep float64) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		Validator: DropDegenerate{},
		Converter: profile.PolylineConverter{Step: arcStep},
		Logger:    logger,
	}
}

// Build classifies the loops and returns the extrusion description. A
// direction at an angle to the plane normal is accepted: the depth along
// the normal is divided by the slant so the solid reaches the same far
// plane. No degenerate approximation is ever returned.
func (b *Builder) Build(req Request) (Description, error) {
	if req.Depth < geom.Eps {
		return Description{}, ErrNonPositiveDepth
	}
	if len(req.Loops) == 0 {
		return Description{}, ErrNoLoops
	}
	dir, ok := geom.Unit(req.Direction)
	if !ok {
		return Description{}, fmt.Errorf("extrusion: direction: %w", geom.ErrDegenerate)
	}

	slant := math.Abs(req.Plane.Normal.Dot(dir))
	if geom.IsAlmostZero(slant) {
		return Description{}, ErrParallelDirection
	}

	loops := b.Validator.ValidateLoops(req.Loops, dir)
	if len(loops) == 0 {
		return Description{}, ErrNoValidLoops
	}
	if dropped := len(req.Loops) - len(loops); dropped > 0 {
		b.Logger.Debug("dropped degenerate loops",
			zap.String("profile", req.ProfileName), zap.Int("dropped", dropped))
	}

	p, err := profile.Describe(loops, req.Plane, dir, b.Converter)
	if err != nil {
		return Description{}, fmt.Errorf("extrusion: profile: %w", err)
	}
	b.Logger.Debug("profile classified",
		zap.String("profile", req.ProfileName), zap.Stringer("kind", p.Kind()))

	return Description{
		ProfileName:    req.ProfileName,
		Profile:        p,
		Plane:          req.Plane,
		Direction:      dir,
		LocalDirection: req.Plane.Local(dir),
		Depth:          req.Depth / slant,
	}, nil
}

// FromLoops normalizes loops against dir and builds the description on
// the plane of the outer loop.
func (b *Builder) FromLoops(name string, loops []geom.CurveLoop, dir r3.Vector, depth float64) (Description, error) {
	n, err := Normalize(loops, dir)
	if err != nil {
		return Description{}, err
	}
	return b.Build(Request{
		ProfileName: name,
		Loops:       n.Loops,
		Plane:       n.Plane,
		Direction:   dir,
		Depth:       depth,
	})
}
