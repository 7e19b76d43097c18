package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"soul-hq/gateway/pkg/dispatch"
	"soul-hq/gateway/pkg/dto"
)

const (
	// RewriteName is the plugin name the rewrite handler is registered under.
	RewriteName = "rewrite"

	// AttrRewriteURI is the exchange attribute holding the rewritten
	// upstream path.
	AttrRewriteURI = "rewrite.uri"
)

// RewriteHandle is the decoded handle of a rewrite rule.
type RewriteHandle struct {
	RewriteURI string `json:"rewriteURI"`
}

func parseRewriteHandle(raw string) (RewriteHandle, error) {
	var h RewriteHandle
	if err := decodeHandle(raw, &h); err != nil {
		return h, err
	}
	if !strings.HasPrefix(h.RewriteURI, "/") {
		return h, fmt.Errorf("%w: rewriteURI %q must start with /", ErrInvalidHandle, h.RewriteURI)
	}
	return h, nil
}

// Rewrite records a new upstream path for matched requests. It never
// terminates the chain.
type Rewrite struct {
	*handleCache[RewriteHandle]
}

// NewRewrite creates the rewrite plugin.
func NewRewrite(logger *slog.Logger) *Rewrite {
	return &Rewrite{handleCache: newHandleCache(RewriteName, parseRewriteHandle, logger)}
}

// Handle implements dispatch.PluginHandler.
func (p *Rewrite) Handle(ctx context.Context, ex *dispatch.Exchange, _ *dto.SelectorData, rule *dto.RuleData) (dispatch.Outcome, error) {
	h, err := p.get(rule)
	if err != nil {
		return dispatch.Continue, err
	}
	ex.Attributes[AttrRewriteURI] = h.RewriteURI
	p.logger.DebugContext(ctx, "upstream path rewritten",
		"rule_id", rule.ID,
		"from", ex.Request.Path,
		"to", h.RewriteURI,
	)
	return dispatch.Continue, nil
}
