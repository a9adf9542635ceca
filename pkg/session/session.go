package session

import (
	"github.com/chazu/ifcextrude/pkg/step"
	"go.uber.org/zap"
)

// Session is the context of one export run.
type Session struct {
	// Materials maps a material name to its presentation style
	// assignment.
	Materials *Cache[string, step.Handle]
	// Layers maps a presentation layer name to the representations
	// assigned to it.
	Layers *Cache[string, []step.Handle]

	Logger *zap.Logger
}

// New returns an empty session. A nil logger is replaced by a no-op one.
func New(logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		Materials: NewCache[string, step.Handle](),
		Layers:    NewCache[string, []step.Handle](),
		Logger:    logger,
	}
}

// ElementScope journals one element's writes to every session cache.
type ElementScope struct {
	Materials *Scope[string, step.Handle]
	Layers    *Scope[string, []step.Handle]
}

// Begin opens an ElementScope.
func (s *Session) Begin() *ElementScope {
	return &ElementScope{
		Materials: s.Materials.Scope(),
		Layers:    s.Layers.Scope(),
	}
}

func (e *ElementScope) Commit() {
	e.Materials.Commit()
	e.Layers.Commit()
}

func (e *ElementScope) Rollback() {
	e.Materials.Rollback()
	e.Layers.Rollback()
}

// AddToLayer appends rep to the named layer.
func (e *ElementScope) AddToLayer(layer string, rep step.Handle) {
	e.Layers.Update(layer, func(old []step.Handle, _ bool) []step.Handle {
		out := make([]step.Handle, len(old), len(old)+1)
		copy(out, old)
		return append(out, rep)
	})
}
