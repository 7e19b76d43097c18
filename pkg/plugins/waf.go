package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"soul-hq/gateway/pkg/dispatch"
	"soul-hq/gateway/pkg/dto"
)

// WAFName is the plugin name the waf handler is registered under.
const WAFName = "waf"

// Permissions understood by the waf plugin.
const (
	PermissionAllow  = "allow"
	PermissionReject = "reject"
)

// WAFHandle is the decoded handle of a waf rule.
type WAFHandle struct {
	Permission string     `json:"permission"`
	StatusCode statusCode `json:"statusCode"`
}

// Status returns the configured status, or 403.
func (h WAFHandle) Status() int {
	if h.StatusCode == 0 {
		return http.StatusForbidden
	}
	return int(h.StatusCode)
}

func parseWAFHandle(raw string) (WAFHandle, error) {
	var h WAFHandle
	if err := decodeHandle(raw, &h); err != nil {
		return h, err
	}
	h.Permission = strings.ToLower(strings.TrimSpace(h.Permission))
	switch h.Permission {
	case PermissionAllow, PermissionReject:
	default:
		return h, fmt.Errorf("%w: unknown permission %q", ErrInvalidHandle, h.Permission)
	}
	return h, nil
}

// WAF rejects or allows matched requests according to the rule handle.
type WAF struct {
	*handleCache[WAFHandle]
}

// NewWAF creates the waf plugin.
func NewWAF(logger *slog.Logger) *WAF {
	return &WAF{handleCache: newHandleCache(WAFName, parseWAFHandle, logger)}
}

// Handle implements dispatch.PluginHandler.
func (p *WAF) Handle(ctx context.Context, ex *dispatch.Exchange, _ *dto.SelectorData, rule *dto.RuleData) (dispatch.Outcome, error) {
	h, err := p.get(rule)
	if err != nil {
		return dispatch.Continue, err
	}
	if h.Permission != PermissionReject {
		return dispatch.Continue, nil
	}

	status := h.Status()
	body, _ := json.Marshal(map[string]any{
		"code":    status,
		"message": "you are forbidden to visit",
	})
	ex.Response = &dispatch.Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}
	p.logger.InfoContext(ctx, "request rejected by waf rule",
		"rule_id", rule.ID,
		"status", status,
	)
	return dispatch.Terminate, nil
}
