// Package handler applies sync events of each entity kind to the cache and
// fans them out to the registered subscribers.
package handler

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"

	"soul-hq/gateway/pkg/datasync"
	"soul-hq/gateway/pkg/dto"
)

// Handler applies events for entities of type T. The cache is always
// updated before subscribers are notified, and subscribers see items in
// the order they arrived.
type Handler[T any] struct {
	kind dto.ConfigGroup

	upsert  func(T)
	remove  func(T)
	replace func([]T)

	subscribe   func(T)
	unsubscribe func(T)
	refresh     func([]T)
}

// Kind implements datasync.DataHandler.
func (h *Handler[T]) Kind() dto.ConfigGroup {
	return h.kind
}

// Convert decodes a payload into entities. A single object is accepted as
// a one element list; an empty or null payload yields an empty list.
func (h *Handler[T]) Convert(raw []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '{' {
		var one T
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, datasync.NewDecodeError(string(h.kind), raw, err)
		}
		return []T{one}, nil
	}
	var list []T
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, datasync.NewDecodeError(string(h.kind), raw, err)
	}
	return list, nil
}

// Handle implements datasync.DataHandler.
func (h *Handler[T]) Handle(op dto.DataEventType, data []byte) error {
	switch op {
	case dto.EventCreate, dto.EventUpdate, dto.EventDelete, dto.EventFullRefresh:
	default:
		return fmt.Errorf("%w: %s %q", datasync.ErrUnknownOperation, h.kind, op)
	}

	list, err := h.Convert(data)
	if err != nil {
		return err
	}

	switch op {
	case dto.EventCreate:
		h.OnCreate(list)
	case dto.EventUpdate:
		h.OnUpdate(list)
	case dto.EventDelete:
		h.OnDelete(list)
	case dto.EventFullRefresh:
		h.OnFullRefresh(list)
	}
	return nil
}

// OnCreate stores list and notifies subscribers per item.
func (h *Handler[T]) OnCreate(list []T) {
	for _, v := range list {
		h.upsert(v)
	}
	for _, v := range list {
		h.subscribe(v)
	}
}

// OnUpdate behaves like OnCreate; upserts are idempotent.
func (h *Handler[T]) OnUpdate(list []T) {
	h.OnCreate(list)
}

// OnDelete removes list and notifies subscribers per item.
func (h *Handler[T]) OnDelete(list []T) {
	for _, v := range list {
		h.remove(v)
	}
	for _, v := range list {
		h.unsubscribe(v)
	}
}

// OnFullRefresh replaces the whole kind and hands subscribers the complete
// list so they can rebuild their own state.
func (h *Handler[T]) OnFullRefresh(list []T) {
	h.replace(list)
	h.refresh(list)
}
