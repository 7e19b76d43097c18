package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"soul-hq/gateway/pkg/dispatch"
	"soul-hq/gateway/pkg/dto"
)

// RateLimiterName is the plugin name the rate limiter is registered under.
const RateLimiterName = "rateLimiter"

// Key resolvers select what a rule's bucket is shared by.
const (
	// WholeKeyResolver shares one bucket between all requests of a rule.
	WholeKeyResolver = "WHOLE_KEY_RESOLVER"
	// RemoteAddressKeyResolver gives every client address its own bucket.
	RemoteAddressKeyResolver = "REMOTE_ADDRESS_KEY_RESOLVER"
)

// maxBucketsPerRule bounds per-address buckets of one rule. The set is
// cleared when it is full.
const maxBucketsPerRule = 10000

// RateLimiterHandle is the decoded handle of a rateLimiter rule.
type RateLimiterHandle struct {
	// ReplenishRate is the sustained number of requests per second.
	ReplenishRate float64 `json:"replenishRate"`
	// BurstCapacity is the bucket size. Default: ReplenishRate rounded up.
	BurstCapacity int    `json:"burstCapacity"`
	KeyResolver   string `json:"keyResolverName"`
}

// rateLimitRule is the per-rule state: the handle and its buckets. A changed
// handle for the same rule starts with fresh buckets; a redelivered identical
// one keeps them.
type rateLimitRule struct {
	handle RateLimiterHandle

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func parseRateLimiterHandle(raw string) (*rateLimitRule, error) {
	var h RateLimiterHandle
	if err := decodeHandle(raw, &h); err != nil {
		return nil, err
	}
	if h.ReplenishRate <= 0 {
		return nil, fmt.Errorf("%w: replenishRate must be positive", ErrInvalidHandle)
	}
	if h.BurstCapacity < 0 {
		return nil, fmt.Errorf("%w: burstCapacity must not be negative", ErrInvalidHandle)
	}
	if h.BurstCapacity == 0 {
		h.BurstCapacity = int(math.Ceil(h.ReplenishRate))
	}
	switch h.KeyResolver {
	case "":
		h.KeyResolver = WholeKeyResolver
	case WholeKeyResolver, RemoteAddressKeyResolver:
	default:
		return nil, fmt.Errorf("%w: unknown key resolver %q", ErrInvalidHandle, h.KeyResolver)
	}
	return &rateLimitRule{handle: h, buckets: make(map[string]*rate.Limiter)}, nil
}

func (r *rateLimitRule) bucket(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.buckets[key]; ok {
		return b
	}
	if len(r.buckets) >= maxBucketsPerRule {
		clear(r.buckets)
	}
	b := rate.NewLimiter(rate.Limit(r.handle.ReplenishRate), r.handle.BurstCapacity)
	r.buckets[key] = b
	return b
}

// RateLimiter rejects matched requests with 429 once the rule's token bucket
// is empty.
type RateLimiter struct {
	*handleCache[*rateLimitRule]
	now func() time.Time
}

// NewRateLimiter creates the rateLimiter plugin.
func NewRateLimiter(logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		handleCache: newHandleCache(RateLimiterName, parseRateLimiterHandle, logger),
		now:         time.Now,
	}
}

// Handle implements dispatch.PluginHandler.
func (p *RateLimiter) Handle(ctx context.Context, ex *dispatch.Exchange, _ *dto.SelectorData, rule *dto.RuleData) (dispatch.Outcome, error) {
	r, err := p.get(rule)
	if err != nil {
		return dispatch.Continue, err
	}

	key := ""
	if r.handle.KeyResolver == RemoteAddressKeyResolver {
		key = ex.Request.RemoteIP
	}

	now := p.now()
	res := r.bucket(key).ReserveN(now, 1)
	delay := res.DelayFrom(now)
	if delay == 0 {
		return dispatch.Continue, nil
	}
	res.CancelAt(now)

	retryAfter := int(math.Ceil(delay.Seconds()))
	body, _ := json.Marshal(map[string]any{
		"code":    http.StatusTooManyRequests,
		"message": "You have been restricted, please try again later!",
	})
	ex.Response = &dispatch.Response{
		Status: http.StatusTooManyRequests,
		Header: http.Header{
			"Content-Type":          []string{"application/json"},
			"Retry-After":           []string{strconv.Itoa(retryAfter)},
			"X-Ratelimit-Limit":     []string{strconv.Itoa(r.handle.BurstCapacity)},
			"X-Ratelimit-Remaining": []string{"0"},
		},
		Body: body,
	}
	p.logger.DebugContext(ctx, "request rate limited",
		"rule_id", rule.ID,
		"key", key,
		"retry_after", retryAfter,
	)
	return dispatch.Terminate, nil
}
