package model

import (
	"fmt"
	"math"

	"github.com/chazu/ifcextrude/pkg/geom"
)

// ValidationSeverity indicates whether a validation finding blocks export
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks export
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Element  ElementID          // which element has the problem (zero if model-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Element.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] element %s: %s", e.Severity, e.Element.Short(), e.Message)
}

// ValidationResult bundles blocking errors and advisory warnings from all
// validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks: element references and names.
// An empty slice means the model is structurally valid. It never mutates
// the model.
func Validate(m *Model) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateReferences(m)...)
	errs = append(errs, validateNames(m)...)
	errs = append(errs, validateOrder(m)...)
	return errs
}

// ValidateAll runs every tier (structural, geometric, material) and
// separates errors from warnings.
func ValidateAll(m *Model) ValidationResult {
	var all []ValidationError
	all = append(all, Validate(m)...)
	all = append(all, validateGeometry(m)...)
	all = append(all, validateMaterials(m)...)

	var r ValidationResult
	for _, e := range all {
		if e.Severity == SeverityWarning {
			r.Warnings = append(r.Warnings, e)
		} else {
			r.Errors = append(r.Errors, e)
		}
	}
	return r
}

// ---------------------------------------------------------------------------
// Tier 1: structure
// ---------------------------------------------------------------------------

// validateReferences checks that opening hosts exist and carry bodies.
func validateReferences(m *Model) []ValidationError {
	var errs []ValidationError
	for _, e := range m.All() {
		op, ok := e.Data.(OpeningData)
		if !ok {
			continue
		}
		for _, h := range op.Hosts {
			host := m.Get(h)
			switch {
			case host == nil:
				errs = append(errs, ValidationError{
					Element:  e.ID,
					Message:  fmt.Sprintf("host %s does not exist", h.Short()),
					Severity: SeverityError,
				})
			case !isBody(host):
				errs = append(errs, ValidationError{
					Element:  e.ID,
					Message:  fmt.Sprintf("host %q is not a solid element", host.Name),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

func isBody(e *Element) bool {
	_, ok := e.Data.(BodyData)
	return ok
}

// validateNames checks that every name is used by one element only.
func validateNames(m *Model) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]ElementID)
	for _, e := range m.All() {
		if e.Name == "" {
			continue
		}
		if prev, dup := seen[e.Name]; dup {
			errs = append(errs, ValidationError{
				Element:  e.ID,
				Message:  fmt.Sprintf("name %q already used by element %s", e.Name, prev.Short()),
				Severity: SeverityError,
			})
			continue
		}
		seen[e.Name] = e.ID
	}
	return errs
}

// validateOrder checks that Order and Elements describe the same set.
func validateOrder(m *Model) []ValidationError {
	if len(m.Order) == len(m.Elements) {
		return nil
	}
	return []ValidationError{{
		Message:  fmt.Sprintf("order lists %d elements, model has %d", len(m.Order), len(m.Elements)),
		Severity: SeverityError,
	}}
}

// ---------------------------------------------------------------------------
// Tier 2: geometry
// ---------------------------------------------------------------------------

func validateGeometry(m *Model) []ValidationError {
	var errs []ValidationError
	for _, e := range m.All() {
		switch d := e.Data.(type) {
		case BodyData:
			errs = append(errs, validateBody(e.ID, d)...)
		case OpeningData:
			if len(d.FaceSets) == 0 {
				errs = append(errs, ValidationError{
					Element:  e.ID,
					Message:  "opening has no face sets",
					Severity: SeverityError,
				})
			}
			if len(d.Hosts) == 0 {
				errs = append(errs, ValidationError{
					Element:  e.ID,
					Message:  "opening has no hosts; matched by bounds",
					Severity: SeverityWarning,
				})
			}
		}
	}
	return errs
}

func validateBody(id ElementID, d BodyData) []ValidationError {
	var errs []ValidationError
	add := func(sev ValidationSeverity, format string, args ...any) {
		errs = append(errs, ValidationError{Element: id, Message: fmt.Sprintf(format, args...), Severity: sev})
	}
	if len(d.Solids) == 0 {
		add(SeverityError, "element has no solids")
	}
	if d.Range != nil && (d.Range.IsEmpty() || math.IsNaN(d.Range.Lo) || math.IsNaN(d.Range.Hi)) {
		add(SeverityError, "range [%g, %g] is empty", d.Range.Lo, d.Range.Hi)
	}
	for i, s := range d.Solids {
		label := s.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if s.Depth <= 0 {
			// Zero depths are dropped by the resolver; negative ones are
			// a script error.
			sev := SeverityWarning
			if s.Depth < 0 {
				sev = SeverityError
			}
			add(sev, "solid %s has depth %g", label, s.Depth)
		}
		if _, ok := geom.Unit(s.Direction); !ok {
			add(SeverityError, "solid %s has no direction", label)
		}
		if len(s.Loops) == 0 {
			add(SeverityError, "solid %s has no loops", label)
		}
		for j, l := range s.Loops {
			if l.IsOpen() {
				add(SeverityWarning, "solid %s loop %d is open and will be dropped", label, j)
			}
		}
	}
	return errs
}

// ---------------------------------------------------------------------------
// Tier 3: materials
// ---------------------------------------------------------------------------

func validateMaterials(m *Model) []ValidationError {
	if m.Defaults.Material != "" {
		return nil
	}
	var errs []ValidationError
	for _, e := range m.Bodies() {
		for _, s := range e.Data.(BodyData).Solids {
			if s.Material == "" {
				errs = append(errs, ValidationError{
					Element:  e.ID,
					Message:  "solid without material gets no style",
					Severity: SeverityWarning,
				})
				break
			}
		}
	}
	return errs
}
