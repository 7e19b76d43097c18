package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"soul-hq/gateway/pkg/dispatch"
	"soul-hq/gateway/pkg/match"
	"soul-hq/gateway/pkg/plugins"
	"soul-hq/gateway/pkg/telemetry/logging"
	"soul-hq/gateway/pkg/telemetry/tracing"
)

// Dispatcher runs requests through the plugin chain.
type Dispatcher interface {
	Dispatch(ctx context.Context, ex *dispatch.Exchange) (*dispatch.Decision, error)
}

type exchangeKey struct{}

// Gateway answers proxied traffic according to the dispatch decision.
type Gateway struct {
	dispatcher Dispatcher
	upstream   *url.URL
	proxy      *httputil.ReverseProxy
	logger     *slog.Logger
}

// NewGateway creates the gateway handler. An empty upstream makes every
// pass-through decision a 502.
func NewGateway(d Dispatcher, upstream string, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{dispatcher: d, logger: logger.With("component", "gateway")}
	if upstream == "" {
		return g, nil
	}

	u, err := url.Parse(upstream)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("upstream must be an http or https URL")
	}
	g.upstream = u
	g.proxy = &httputil.ReverseProxy{
		Rewrite:      g.rewrite,
		ErrorHandler: g.proxyError,
	}
	return g, nil
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ex := dispatch.NewExchange(match.NewRequest(r), logging.GetRequestID(ctx))

	decision, err := g.dispatcher.Dispatch(ctx, ex)
	if err != nil {
		g.dispatchError(w, r, err)
		return
	}

	switch decision.Action {
	case dispatch.ActionHandled:
		writeResponse(w, ex.Response)
	case dispatch.ActionReject:
		writeError(w, decision.Status, http.StatusText(decision.Status))
	default:
		if g.proxy == nil {
			writeError(w, http.StatusBadGateway, "no upstream configured")
			return
		}
		g.proxy.ServeHTTP(w, r.WithContext(context.WithValue(ctx, exchangeKey{}, ex)))
	}
}

func (g *Gateway) dispatchError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, dispatch.ErrCancelled) {
		g.logger.DebugContext(r.Context(), "request cancelled during dispatch")
		return
	}
	var herr *dispatch.HandlerError
	if errors.As(err, &herr) {
		g.logger.ErrorContext(r.Context(), "plugin failed",
			"plugin", herr.Plugin,
			"rule_id", herr.RuleID,
			"error", herr.Cause,
		)
	} else {
		g.logger.ErrorContext(r.Context(), "dispatch failed", "error", err)
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

// rewrite points the outbound request at the upstream, applying a path
// recorded by the rewrite plugin.
func (g *Gateway) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(g.upstream)
	pr.SetXForwarded()

	if ex, ok := pr.In.Context().Value(exchangeKey{}).(*dispatch.Exchange); ok {
		if uri := ex.Attributes[plugins.AttrRewriteURI]; uri != "" {
			pr.Out.URL.Path = joinPath(g.upstream.Path, uri)
			pr.Out.URL.RawPath = ""
		}
	}
	tracing.Inject(pr.In.Context(), pr.Out.Header)
}

func (g *Gateway) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	g.logger.WarnContext(r.Context(), "upstream request failed",
		"upstream", g.upstream.String(),
		"error", err,
	)
	writeError(w, http.StatusBadGateway, "upstream unavailable")
}

func writeResponse(w http.ResponseWriter, resp *dispatch.Response) {
	if resp == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(resp.Body)
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(p, "/")
}
