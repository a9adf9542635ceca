// Package model defines the building model produced by script evaluation:
// elements with extruded bodies and the openings that cut them. A Model is
// never mutated after evaluation; each run produces a new one.
package model

import "fmt"

// DefaultUnits is the only length unit scripts are written in.
const DefaultUnits = "mm"

// Defaults contains model-wide settings.
type Defaults struct {
	Material string `json:"material,omitempty"` // applied to solids without one
	Units    string `json:"units"`
}

// Model is the top-level structure produced by evaluation.
type Model struct {
	Elements  map[ElementID]*Element `json:"elements"`
	Order     []ElementID            `json:"order"`
	NameIndex map[string]ElementID   `json:"name_index"`
	Defaults  Defaults               `json:"defaults"`
	Version   uint64                 `json:"version"`
}

// New creates an empty Model.
func New() *Model {
	return &Model{
		Elements:  make(map[ElementID]*Element),
		NameIndex: make(map[string]ElementID),
		Defaults:  Defaults{Units: DefaultUnits},
	}
}

// Add appends an element. It does not check for duplicates; Validate
// reports them.
func (m *Model) Add(e *Element) {
	if _, seen := m.Elements[e.ID]; !seen {
		m.Order = append(m.Order, e.ID)
	}
	m.Elements[e.ID] = e
	if e.Name != "" {
		m.NameIndex[e.Name] = e.ID
	}
}

// Lookup returns the element with the given name, or nil.
func (m *Model) Lookup(name string) *Element {
	id, ok := m.NameIndex[name]
	if !ok {
		return nil
	}
	return m.Elements[id]
}

// MustLookup returns the element with the given name, or panics.
func (m *Model) MustLookup(name string) *Element {
	e := m.Lookup(name)
	if e == nil {
		panic(fmt.Sprintf("model: no element named %q", name))
	}
	return e
}

// Get returns the element with the given ID, or nil.
func (m *Model) Get(id ElementID) *Element {
	return m.Elements[id]
}

// All returns the elements in insertion order.
func (m *Model) All() []*Element {
	out := make([]*Element, 0, len(m.Order))
	for _, id := range m.Order {
		if e := m.Elements[id]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Bodies returns the elements that carry geometry, in insertion order.
func (m *Model) Bodies() []*Element {
	var out []*Element
	for _, e := range m.All() {
		if _, ok := e.Data.(BodyData); ok {
			out = append(out, e)
		}
	}
	return out
}

// Openings returns the cutting elements, in insertion order.
func (m *Model) Openings() []*Element {
	var out []*Element
	for _, e := range m.All() {
		if _, ok := e.Data.(OpeningData); ok {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of elements.
func (m *Model) Len() int {
	return len(m.Elements)
}
