package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"soul-hq/gateway/pkg/dto"
)

// handleCache holds parsed rule handles for a single plugin. An entry is
// reparsed only when the raw handle text changes, so stateful handles keep
// their state across redelivered rules.
type handleCache[T any] struct {
	plugin string
	parse  func(raw string) (T, error)
	logger *slog.Logger

	mu      sync.RWMutex
	handles map[string]parsedHandle[T]
	// gen is bumped by every removal and refresh.
	gen uint64
}

type parsedHandle[T any] struct {
	raw string
	val T
}

func newHandleCache[T any](plugin string, parse func(string) (T, error), logger *slog.Logger) *handleCache[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &handleCache[T]{
		plugin:  plugin,
		parse:   parse,
		logger:  logger,
		handles: make(map[string]parsedHandle[T]),
	}
}

func (c *handleCache[T]) owns(r dto.RuleData) bool {
	return r.PluginName == "" || r.PluginName == c.plugin
}

// OnRuleSubscribe implements datasync.RuleSubscriber.
func (c *handleCache[T]) OnRuleSubscribe(r dto.RuleData) {
	if !c.owns(r) {
		return
	}
	c.mu.RLock()
	cur, ok := c.handles[r.ID]
	c.mu.RUnlock()
	if ok && cur.raw == r.Handle {
		return
	}

	h, err := c.parse(r.Handle)
	if err != nil {
		c.dropped(r, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		delete(c.handles, r.ID)
		c.gen++
		return
	}
	c.handles[r.ID] = parsedHandle[T]{raw: r.Handle, val: h}
}

// dropped logs a handle that failed to parse. Rules without a plugin name
// are offered to every plugin, so their failures are only debug noise.
func (c *handleCache[T]) dropped(r dto.RuleData, err error) {
	level := slog.LevelWarn
	if r.PluginName == "" {
		level = slog.LevelDebug
	}
	c.logger.Log(context.Background(), level, "dropping unparsable rule handle",
		"plugin", c.plugin,
		"rule_id", r.ID,
		"error", err,
	)
}

// UnRuleSubscribe implements datasync.RuleSubscriber.
func (c *handleCache[T]) UnRuleSubscribe(r dto.RuleData) {
	c.mu.Lock()
	delete(c.handles, r.ID)
	c.gen++
	c.mu.Unlock()
}

// RefreshRuleData implements datasync.RuleSubscriber. Rules whose handle is
// unchanged keep their parsed value.
func (c *handleCache[T]) RefreshRuleData(rs []dto.RuleData) {
	c.mu.RLock()
	prev := c.handles
	c.mu.RUnlock()

	next := make(map[string]parsedHandle[T], len(rs))
	for _, r := range rs {
		if !c.owns(r) {
			continue
		}
		if cur, ok := prev[r.ID]; ok && cur.raw == r.Handle {
			next[r.ID] = cur
			continue
		}
		h, err := c.parse(r.Handle)
		if err != nil {
			c.dropped(r, err)
			continue
		}
		next[r.ID] = parsedHandle[T]{raw: r.Handle, val: h}
	}
	c.mu.Lock()
	c.handles = next
	c.gen++
	c.mu.Unlock()
}

// get returns the cached handle for rule, parsing it on a miss. The parsed
// value is only cached if no removal or refresh happened in between.
func (c *handleCache[T]) get(rule *dto.RuleData) (T, error) {
	c.mu.RLock()
	cur, ok := c.handles[rule.ID]
	gen := c.gen
	c.mu.RUnlock()
	if ok && cur.raw == rule.Handle {
		return cur.val, nil
	}

	h, err := c.parse(rule.Handle)
	if err != nil {
		return h, err
	}
	c.mu.Lock()
	if c.gen == gen {
		c.handles[rule.ID] = parsedHandle[T]{raw: rule.Handle, val: h}
	}
	c.mu.Unlock()
	return h, nil
}

// Len returns the number of cached handles.
func (c *handleCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handles)
}

// statusCode decodes both "403" and 403.
type statusCode int

func (s *statusCode) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid status code %q", raw)
	}
	if n < 100 || n > 599 {
		return fmt.Errorf("status code %d out of range", n)
	}
	*s = statusCode(n)
	return nil
}

func decodeHandle(raw string, v any) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: empty handle", ErrInvalidHandle)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	return nil
}
