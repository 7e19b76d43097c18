package datasync

import (
	"fmt"

	"soul-hq/gateway/pkg/dto"
)

// DataHandler applies events of one entity kind.
type DataHandler interface {
	Kind() dto.ConfigGroup
	Handle(op dto.DataEventType, data []byte) error
}

// Router dispatches events to the handler registered for their kind.
type Router struct {
	handlers map[dto.ConfigGroup]DataHandler
}

// NewRouter creates a router over handlers. A later handler for the same
// kind replaces an earlier one.
func NewRouter(handlers ...DataHandler) *Router {
	r := &Router{handlers: make(map[dto.ConfigGroup]DataHandler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Kind()] = h
	}
	return r
}

// Kinds lists the kinds the router can handle, in snapshot order.
func (r *Router) Kinds() []dto.ConfigGroup {
	kinds := make([]dto.ConfigGroup, 0, len(r.handlers))
	for _, g := range dto.AllGroups {
		if _, ok := r.handlers[g]; ok {
			kinds = append(kinds, g)
		}
	}
	return kinds
}

// Route applies e with its kind's handler.
func (r *Router) Route(e *Event) error {
	h, ok := r.handlers[e.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return h.Handle(e.Op, e.Data)
}
