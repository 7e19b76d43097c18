package dispatch

import (
	"context"
	"net/http"
	"time"

	"soul-hq/gateway/pkg/dto"
	"soul-hq/gateway/pkg/match"
)

// Outcome tells the engine whether to keep walking the plugin chain.
type Outcome int

const (
	// Continue moves on to the next plugin.
	Continue Outcome = iota
	// Terminate stops the chain; the request is considered handled.
	Terminate
)

func (o Outcome) String() string {
	if o == Terminate {
		return "terminate"
	}
	return "continue"
}

// Action is the final decision for a request.
type Action int

const (
	ActionPassThrough Action = iota
	ActionReject
	ActionHandled
)

func (a Action) String() string {
	switch a {
	case ActionReject:
		return "reject"
	case ActionHandled:
		return "handled"
	default:
		return "pass_through"
	}
}

// Response is what a terminating plugin wants written to the client.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Exchange carries one request through the plugin chain. Handlers record
// their effects in Attributes or set Response.
type Exchange struct {
	Request   *match.Request
	RequestID string

	// Attributes are plugin outputs, e.g. a rewritten upstream path.
	Attributes map[string]string

	// Response is set by a plugin that answers the request itself.
	Response *Response
}

// NewExchange wraps req for dispatch.
func NewExchange(req *match.Request, requestID string) *Exchange {
	return &Exchange{Request: req, RequestID: requestID, Attributes: make(map[string]string)}
}

// PluginHandler implements one plugin's behavior for a matched rule.
type PluginHandler interface {
	Handle(ctx context.Context, ex *Exchange, selector *dto.SelectorData, rule *dto.RuleData) (Outcome, error)
}

// HandlerFunc adapts a function to PluginHandler.
type HandlerFunc func(ctx context.Context, ex *Exchange, selector *dto.SelectorData, rule *dto.RuleData) (Outcome, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, ex *Exchange, selector *dto.SelectorData, rule *dto.RuleData) (Outcome, error) {
	return f(ctx, ex, selector, rule)
}

// Hit records one handler invocation.
type Hit struct {
	Plugin     string
	SelectorID string
	RuleID     string
	Outcome    Outcome
}

// Decision is the result of dispatching one request.
type Decision struct {
	Action Action

	// Status is set for ActionReject and for ActionHandled with a response.
	Status int

	// Hits lists every invoked handler in chain order.
	Hits []Hit

	Duration time.Duration
}

// Terminal returns the hit that ended the chain, or nil.
func (d *Decision) Terminal() *Hit {
	if d.Action != ActionHandled || len(d.Hits) == 0 {
		return nil
	}
	return &d.Hits[len(d.Hits)-1]
}

// Reader is the read side of the configuration cache.
type Reader interface {
	Plugins() []*dto.PluginData
	Selectors(pluginName string) []*dto.SelectorData
	Rules(selectorID string) []*dto.RuleData
}

// Observer receives dispatch measurements.
type Observer interface {
	Dispatched(action string, d time.Duration)
	PluginMatched(plugin string, matched bool)
}
