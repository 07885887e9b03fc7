package bot

import (
	"errors"
	"fmt"

	"github.com/garyellow/storebot/internal/conversation"
)

// Registry collects topic handlers before the routing table is built.
type Registry struct {
	handlers []Handler
}

// NewRegistry creates a new handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make([]Handler, 0),
	}
}

// Register adds a handler to the registry.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Build produces the routing table. It fails when a state is claimed by two
// handlers, when a handler claims a state outside conversation.AllStates, or
// when a state of the enumeration has no owner.
func (r *Registry) Build() (*Router, error) {
	owners := make(map[conversation.State]Handler, len(conversation.AllStates))
	var errs []error

	for _, h := range r.handlers {
		for _, s := range h.States() {
			if !s.Valid() {
				errs = append(errs, fmt.Errorf("handler %s claims unknown state %q", h.Name(), s))
				continue
			}
			if prev, dup := owners[s]; dup {
				errs = append(errs, fmt.Errorf("state %s owned by both %s and %s", s, prev.Name(), h.Name()))
				continue
			}
			owners[s] = h
		}
	}

	for _, s := range conversation.AllStates {
		if _, ok := owners[s]; !ok {
			errs = append(errs, fmt.Errorf("state %s has no handler", s))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("build routing table: %w", errors.Join(errs...))
	}
	return &Router{owners: owners}, nil
}

// Router maps every state to its single owning handler.
type Router struct {
	owners map[conversation.State]Handler
}

// Owner returns the handler owning state.
func (r *Router) Owner(state conversation.State) (Handler, bool) {
	h, ok := r.owners[state]
	return h, ok
}
