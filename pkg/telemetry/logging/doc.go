// Package logging builds the gateway's structured loggers.
//
// # Overview
//
// New returns a standard *slog.Logger whose handler chain:
//   - writes JSON, text or console output at the configured level
//   - adds request_id, node_id, plugin, trace_id and span_id from the context
//     of every *Context call
//   - optionally masks credentials (app secrets, tokens, passwords,
//     authorization headers) before they are written
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "request dispatched", "authorization", "Bearer abc")
//	// {"msg":"request dispatched","authorization":"Bear***","request_id":"req-123"}
//
// Components take a *slog.Logger and fall back to slog.Default() when given nil.
package logging
