package export

import (
	"context"
	"sort"

	"github.com/chazu/ifcextrude/pkg/model"
)

// Handler exports one class of element.
type Handler interface {
	// Name identifies the handler. It breaks ties between handlers of
	// equal priority.
	Name() string
	// Priority orders handlers; higher runs first.
	Priority() int
	// CanHandle probes whether the handler applies to e.
	CanHandle(e *model.Element) bool
	// Export writes e. A nil Product means the element produced nothing.
	Export(ctx context.Context, x *Context, e *model.Element) (*Product, error)
}

// Registry selects the handler for an element. The first handler, by
// descending priority and then name, whose probe accepts the element wins.
type Registry struct {
	handlers []Handler
}

// NewRegistry returns a registry holding hs.
func NewRegistry(hs ...Handler) *Registry {
	r := &Registry{}
	for _, h := range hs {
		r.Register(h)
	}
	return r
}

// DefaultRegistry handles solid elements and openings.
func DefaultRegistry() *Registry {
	return NewRegistry(BodyHandler{}, OpeningHandler{})
}

// Register adds h. A handler with the same name is replaced.
func (r *Registry) Register(h Handler) {
	for i, old := range r.handlers {
		if old.Name() == h.Name() {
			r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
			break
		}
	}
	r.handlers = append(r.handlers, h)
	sort.SliceStable(r.handlers, func(i, j int) bool {
		a, b := r.handlers[i], r.handlers[j]
		if a.Priority() != b.Priority() {
			return a.Priority() > b.Priority()
		}
		return a.Name() < b.Name()
	})
}

// Select returns the handler for e.
func (r *Registry) Select(e *model.Element) (Handler, bool) {
	for _, h := range r.handlers {
		if h.CanHandle(e) {
			return h, true
		}
	}
	return nil, false
}

// Names lists the handlers in selection order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.handlers))
	for i, h := range r.handlers {
		names[i] = h.Name()
	}
	return names
}
