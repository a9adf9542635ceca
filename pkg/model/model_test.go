package model

import (
	"strings"
	"testing"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r3"
)

func square() geom.CurveLoop {
	return geom.Polygon(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{X: 1, Y: 1}, r3.Vector{Y: 1})
}

func wall(name string) *Element {
	return &Element{
		ID:   NewElementID("wall/" + name),
		Kind: KindWall,
		Name: name,
		Data: BodyData{Solids: []SolidSpec{{
			Loops:     []geom.CurveLoop{square()},
			Direction: r3.Vector{Z: 1},
			Depth:     3,
			Material:  "concrete",
		}}},
	}
}

func opening(name string, hosts ...ElementID) *Element {
	return &Element{
		ID:   NewElementID("opening/" + name),
		Kind: KindOpening,
		Name: name,
		Data: OpeningData{
			FaceSets: []geom.FaceSet{geom.BoxFaces(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})},
			Hosts:    hosts,
		},
	}
}

func TestNewModel(t *testing.T) {
	m := New()
	if m.Elements == nil || m.NameIndex == nil {
		t.Fatal("maps should be initialized")
	}
	if m.Defaults.Units != DefaultUnits {
		t.Errorf("units = %q, want %q", m.Defaults.Units, DefaultUnits)
	}
	if m.Len() != 0 {
		t.Errorf("empty model has %d elements", m.Len())
	}
}

func TestAddAndLookup(t *testing.T) {
	m := New()
	w := wall("w1")
	o := opening("door", w.ID)
	m.Add(w)
	m.Add(o)

	if got := m.Lookup("w1"); got != w {
		t.Errorf("Lookup(w1) = %v", got)
	}
	if got := m.Get(o.ID); got != o {
		t.Errorf("Get(door) = %v", got)
	}
	if m.Lookup("missing") != nil {
		t.Error("Lookup(missing) should be nil")
	}
	if len(m.Bodies()) != 1 || len(m.Openings()) != 1 {
		t.Errorf("bodies %d openings %d", len(m.Bodies()), len(m.Openings()))
	}
	all := m.All()
	if len(all) != 2 || all[0] != w || all[1] != o {
		t.Error("All() should keep insertion order")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustLookup(missing) should panic")
		}
	}()
	m.MustLookup("missing")
}

func TestReAddKeepsOrder(t *testing.T) {
	m := New()
	w := wall("w1")
	m.Add(w)
	m.Add(w)
	if len(m.Order) != 1 {
		t.Errorf("order has %d entries, want 1", len(m.Order))
	}
}

func TestKindNames(t *testing.T) {
	tests := []struct {
		kind   Kind
		name   string
		entity string
	}{
		{KindWall, "wall", "IFCWALL"},
		{KindSlab, "slab", "IFCSLAB"},
		{KindColumn, "column", "IFCCOLUMN"},
		{KindBeam, "beam", "IFCBEAM"},
		{KindMember, "member", "IFCMEMBER"},
		{KindFooting, "footing", "IFCFOOTING"},
		{KindOpening, "opening", "IFCOPENINGELEMENT"},
		{KindProxy, "proxy", "IFCBUILDINGELEMENTPROXY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.name {
				t.Errorf("String() = %q", got)
			}
			if got := tt.kind.Entity(); got != tt.entity {
				t.Errorf("Entity() = %q", got)
			}
			k, ok := ParseKind(tt.name)
			if !ok || k != tt.kind {
				t.Errorf("ParseKind(%q) = %v, %v", tt.name, k, ok)
			}
		})
	}
	if _, ok := ParseKind("window"); ok {
		t.Error("ParseKind(window) should fail")
	}
}

func TestElementIDStable(t *testing.T) {
	a, b := NewElementID("wall/a"), NewElementID("wall/a")
	if a != b {
		t.Error("same seed should give same ID")
	}
	if a == NewElementID("wall/b") {
		t.Error("different seeds should differ")
	}
	if len(a.Short()) != 8 {
		t.Errorf("Short() = %q", a.Short())
	}
}

func TestValidateClean(t *testing.T) {
	m := New()
	w := wall("w1")
	m.Add(w)
	m.Add(opening("door", w.ID))
	if errs := Validate(m); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	r := ValidateAll(m)
	if !r.OK() || len(r.Warnings) != 0 {
		t.Fatalf("ValidateAll = %+v", r)
	}
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name     string
		build    func(m *Model)
		errors   int
		warnings int
		contains string
	}{
		{
			name: "missing host",
			build: func(m *Model) {
				m.Add(opening("door", NewElementID("nowhere")))
			},
			errors:   1,
			contains: "does not exist",
		},
		{
			name: "host is an opening",
			build: func(m *Model) {
				o := opening("a")
				m.Add(o)
				m.Add(opening("b", o.ID))
			},
			errors:   1,
			warnings: 1,
			contains: "not a solid element",
		},
		{
			name: "duplicate name",
			build: func(m *Model) {
				m.Add(wall("w"))
				dup := wall("w")
				dup.ID = NewElementID("other")
				m.Add(dup)
			},
			errors:   1,
			contains: "already used",
		},
		{
			name: "negative depth",
			build: func(m *Model) {
				w := wall("w")
				w.Data.(BodyData).Solids[0].Depth = -1
				m.Add(w)
			},
			errors:   1,
			contains: "depth -1",
		},
		{
			name: "zero depth and no material",
			build: func(m *Model) {
				w := wall("w")
				s := &w.Data.(BodyData).Solids[0]
				s.Depth = 0
				s.Material = ""
				m.Add(w)
			},
			warnings: 2,
			contains: "depth 0",
		},
		{
			name: "empty range",
			build: func(m *Model) {
				w := wall("w")
				d := w.Data.(BodyData)
				d.Range = &r1.Interval{Lo: 5, Hi: 1}
				w.Data = d
				m.Add(w)
			},
			errors:   1,
			contains: "range",
		},
		{
			name: "no solids",
			build: func(m *Model) {
				m.Add(&Element{ID: "x", Name: "x", Data: BodyData{}})
			},
			errors:   1,
			contains: "no solids",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			tt.build(m)
			r := ValidateAll(m)
			if len(r.Errors) != tt.errors || len(r.Warnings) != tt.warnings {
				t.Fatalf("errors %v warnings %v", r.Errors, r.Warnings)
			}
			var all []string
			for _, e := range append(r.Errors, r.Warnings...) {
				all = append(all, e.Error())
			}
			if !strings.Contains(strings.Join(all, "\n"), tt.contains) {
				t.Errorf("findings %q do not mention %q", all, tt.contains)
			}
		})
	}
}
