package logging

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	ctx = WithRequestID(ctx, "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-123")
	}

	ctx = WithNodeID(ctx, "node-a")
	if got := GetNodeID(ctx); got != "node-a" {
		t.Errorf("GetNodeID() = %q, want %q", got, "node-a")
	}

	ctx = WithPlugin(ctx, "waf")
	if got := GetPlugin(ctx); got != "waf" {
		t.Errorf("GetPlugin() = %q, want %q", got, "waf")
	}
}

func TestContextKeys_Empty(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		get  func(context.Context) string
	}{
		{"RequestID", GetRequestID},
		{"NodeID", GetNodeID},
		{"Plugin", GetPlugin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.get(ctx); got != "" {
				t.Errorf("Get%s() = %q, want empty", tt.name, got)
			}
		})
	}
}

func TestExtractContextFields(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithRequestID(ctx, "req-1")

	got := map[string]string{}
	for _, a := range extractContextFields(ctx) {
		got[a.Key] = a.Value.String()
	}

	want := map[string]string{
		"request_id": "req-1",
		"trace_id":   "4bf92f3577b34da6a3ce929d0e0e4736",
		"span_id":    "00f067aa0ba902b7",
	}
	if len(got) != len(want) {
		t.Fatalf("extractContextFields() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %q = %q, want %q", k, got[k], v)
		}
	}
}

func TestExtractContextFields_Nil(t *testing.T) {
	//lint:ignore SA1012 nil context is tolerated
	if attrs := extractContextFields(nil); attrs != nil {
		t.Errorf("extractContextFields(nil) = %v, want nil", attrs)
	}
	if attrs := extractContextFields(context.Background()); len(attrs) != 0 {
		t.Errorf("extractContextFields(empty) = %v, want none", attrs)
	}
}
