package model

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r3"
)

// ElementID identifies an element within a model.
type ElementID string

// NewElementID derives a stable ID from the form that created the element.
func NewElementID(seed string) ElementID {
	sum := sha256.Sum256([]byte(seed))
	return ElementID(hex.EncodeToString(sum[:8]))
}

// Short returns the first 8 characters of the ID.
func (id ElementID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

func (id ElementID) IsZero() bool { return id == "" }

// Kind enumerates the building element classes.
type Kind int

const (
	KindProxy Kind = iota // generic building element proxy
	KindWall
	KindSlab
	KindColumn
	KindBeam
	KindMember
	KindFooting
	KindOpening
)

var kindNames = map[Kind]string{
	KindProxy:   "proxy",
	KindWall:    "wall",
	KindSlab:    "slab",
	KindColumn:  "column",
	KindBeam:    "beam",
	KindMember:  "member",
	KindFooting: "footing",
	KindOpening: "opening",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Entity returns the IFC entity name written for the kind.
func (k Kind) Entity() string {
	switch k {
	case KindWall:
		return "IFCWALL"
	case KindSlab:
		return "IFCSLAB"
	case KindColumn:
		return "IFCCOLUMN"
	case KindBeam:
		return "IFCBEAM"
	case KindMember:
		return "IFCMEMBER"
	case KindFooting:
		return "IFCFOOTING"
	case KindOpening:
		return "IFCOPENINGELEMENT"
	}
	return "IFCBUILDINGELEMENTPROXY"
}

// SourceRef locates the form that created an element.
type SourceRef struct {
	Form string `json:"form,omitempty"`
	Line int    `json:"line,omitempty"`
}

// Element is one building element.
type Element struct {
	ID       ElementID   `json:"id"`
	Kind     Kind        `json:"kind"`
	Name     string      `json:"name,omitempty"`
	TypeName string      `json:"type_name,omitempty"`
	Layer    string      `json:"layer,omitempty"`
	Source   SourceRef   `json:"source"`
	Data     ElementData `json:"data"`
}

// ElementData is the interface for kind-specific element payloads.
type ElementData interface {
	elementData() // marker method restricting implementations to this package
}

// ---------------------------------------------------------------------------
// Bodies
// ---------------------------------------------------------------------------

// SolidSpec is one extruded solid: base loops swept along Direction up to
// a plane Depth away from the base, measured along the base normal.
type SolidSpec struct {
	Name      string           `json:"name,omitempty"`
	Loops     []geom.CurveLoop `json:"-"`
	Complex   bool             `json:"complex,omitempty"`
	Direction r3.Vector        `json:"direction"`
	Depth     float64          `json:"depth"`
	Material  string           `json:"material,omitempty"`
}

// BodyData is the geometry of a solid building element. Range, when
// set, limits the extent kept along each solid's direction.
type BodyData struct {
	Solids []SolidSpec  `json:"solids"`
	Range  *r1.Interval `json:"range,omitempty"`
}

func (BodyData) elementData() {}

// ---------------------------------------------------------------------------
// Openings
// ---------------------------------------------------------------------------

// OpeningData is a cutting volume. Hosts lists the elements it cuts; when
// empty, every body whose bounds overlap the opening is cut.
type OpeningData struct {
	FaceSets []geom.FaceSet `json:"-"`
	Hosts    []ElementID    `json:"hosts,omitempty"`
}

func (OpeningData) elementData() {}
