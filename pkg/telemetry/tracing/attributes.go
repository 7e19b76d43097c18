package tracing

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys use the "soul.*" namespace.
const (
	AttrRequestID = "soul.request_id"

	AttrPlugin     = "soul.plugin"
	AttrSelectorID = "soul.selector.id"
	AttrRuleID     = "soul.rule.id"
	AttrAction     = "soul.dispatch.action"
	AttrHits       = "soul.dispatch.hits"

	AttrSyncKind   = "soul.sync.kind"
	AttrSyncOp     = "soul.sync.op"
	AttrSyncEvents = "soul.sync.events"
)

// DispatchAttributes describes a finished dispatch. The plugin, selector and
// rule of the terminating hit are omitted when empty.
func DispatchAttributes(plugin, selectorID, ruleID, action string, hits int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrAction, action),
		attribute.Int(AttrHits, hits),
	}
	if plugin != "" {
		attrs = append(attrs, attribute.String(AttrPlugin, plugin))
	}
	if selectorID != "" {
		attrs = append(attrs, attribute.String(AttrSelectorID, selectorID))
	}
	if ruleID != "" {
		attrs = append(attrs, attribute.String(AttrRuleID, ruleID))
	}
	return attrs
}

// SyncEventAttributes describes one applied configuration event.
func SyncEventAttributes(kind, op string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSyncKind, kind),
		attribute.String(AttrSyncOp, op),
	}
}
