package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"soul-hq/gateway/pkg/dto"
	"soul-hq/gateway/pkg/match"
	"soul-hq/gateway/pkg/telemetry/logging"
	"soul-hq/gateway/pkg/telemetry/tracing"
)

const tracerName = "soul-hq/gateway/dispatch"

// Engine walks the enabled plugins for each request and invokes the handler
// of every plugin whose selector and rule match. Many requests may be
// dispatched concurrently; all configuration is read from the Reader.
type Engine struct {
	reader    Reader
	config    *Config
	evaluator *match.Evaluator
	logger    *slog.Logger

	mu       sync.RWMutex
	handlers map[string]PluginHandler
	observer Observer
}

// New creates a dispatch engine over reader. A nil config means DefaultConfig.
func New(reader Reader, config *Config, logger *slog.Logger) (*Engine, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		reader:    reader,
		config:    config,
		evaluator: match.NewEvaluator(),
		logger:    logger.With("component", "dispatch"),
		handlers:  make(map[string]PluginHandler),
	}, nil
}

// WithEvaluator replaces the condition evaluator, e.g. to pin the clock.
func (e *Engine) WithEvaluator(ev *match.Evaluator) *Engine {
	e.evaluator = ev
	return e
}

// Register binds a handler to a plugin name, replacing any previous one.
// Plugins without a handler are skipped during dispatch.
func (e *Engine) Register(plugin string, h PluginHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[plugin] = h
}

// SetObserver installs o to receive measurements.
func (e *Engine) SetObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = o
}

func (e *Engine) handler(plugin string) PluginHandler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.handlers[plugin]
}

func (e *Engine) currentObserver() Observer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.observer
}

// Dispatch runs ex through the plugin chain. The returned error is
// ErrNoRequest, ErrCancelled or a *HandlerError; otherwise the Decision says
// how to answer.
func (e *Engine) Dispatch(ctx context.Context, ex *Exchange) (*Decision, error) {
	if ex == nil || ex.Request == nil {
		return nil, ErrNoRequest
	}
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gateway.dispatch")
	defer span.End()

	decision := &Decision{}
	observer := e.currentObserver()

	for _, plugin := range e.reader.Plugins() {
		if plugin == nil || !plugin.Enabled {
			continue
		}
		h := e.handler(plugin.Name)
		if h == nil {
			continue
		}

		sel, rule := e.match(plugin.Name, ex.Request)
		if observer != nil {
			observer.PluginMatched(plugin.Name, rule != nil)
		}
		if rule == nil {
			continue
		}

		if err := ctx.Err(); err != nil {
			err = fmt.Errorf("%w: %w", ErrCancelled, err)
			tracing.SetError(span, err)
			return nil, err
		}

		outcome, err := h.Handle(logging.WithPlugin(ctx, plugin.Name), ex, sel, rule)
		if err != nil {
			herr := &HandlerError{Plugin: plugin.Name, RuleID: rule.ID, Cause: err}
			tracing.SetError(span, herr)
			return nil, herr
		}
		decision.Hits = append(decision.Hits, Hit{
			Plugin:     plugin.Name,
			SelectorID: sel.ID,
			RuleID:     rule.ID,
			Outcome:    outcome,
		})

		if outcome == Terminate {
			decision.Action = ActionHandled
			if ex.Response != nil {
				decision.Status = ex.Response.Status
			}
			return e.finish(ctx, span, decision, observer, start), nil
		}
	}

	switch e.config.DefaultPolicy {
	case Reject:
		decision.Action = ActionReject
		decision.Status = e.config.RejectStatus
	default:
		decision.Action = ActionPassThrough
	}
	return e.finish(ctx, span, decision, observer, start), nil
}

// match finds the selector and rule of one plugin. When a matched selector
// has no matching rule, selector matching resumes after it if the selector
// is marked Continued.
func (e *Engine) match(plugin string, req *match.Request) (*dto.SelectorData, *dto.RuleData) {
	selectors := e.reader.Selectors(plugin)
	next := 0
	for {
		sel, idx := e.evaluator.MatchSelectorFrom(selectors, next, req)
		if sel == nil {
			return nil, nil
		}
		if rule := e.evaluator.MatchRule(e.reader.Rules(sel.ID), req); rule != nil {
			return sel, rule
		}
		if !sel.Continued {
			return nil, nil
		}
		next = idx + 1
	}
}

func (e *Engine) finish(ctx context.Context, span trace.Span, d *Decision, observer Observer, start time.Time) *Decision {
	d.Duration = time.Since(start)

	var plugin, selectorID, ruleID string
	if hit := d.Terminal(); hit != nil {
		plugin, selectorID, ruleID = hit.Plugin, hit.SelectorID, hit.RuleID
	}
	span.SetAttributes(tracing.DispatchAttributes(plugin, selectorID, ruleID, d.Action.String(), len(d.Hits))...)

	if observer != nil {
		observer.Dispatched(d.Action.String(), d.Duration)
	}
	if e.logger.Enabled(ctx, slog.LevelDebug) {
		e.logger.DebugContext(ctx, "request dispatched",
			"action", d.Action.String(),
			"hits", len(d.Hits),
			"duration", d.Duration)
	}
	return d
}
