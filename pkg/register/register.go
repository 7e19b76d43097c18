package register

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"

	"soul-hq/gateway/pkg/config"
)

// RegisterPath is appended to the admin URL.
const RegisterPath = "/soul-client/springmvc-register"

// Config contains the registration settings.
type Config struct {
	AdminURL    string
	AppName     string
	ContextPath string

	// Host defaults to the first non-loopback IPv4 address.
	Host string
	Port int

	// Full registers a single "<ContextPath>/**" route instead of the
	// given endpoints.
	Full bool

	// Default: "http"
	RPCType string

	// Timeout bounds a single request.
	// Default: 5s
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// RetryInterval is the first backoff interval.
	// Default: 500ms
	RetryInterval time.Duration
}

// FromConfig maps the register section of the gateway configuration.
func FromConfig(cfg *config.RegisterConfig) Config {
	return Config{
		AdminURL:    cfg.AdminURL,
		AppName:     cfg.AppName,
		ContextPath: cfg.ContextPath,
		Host:        cfg.Host,
		Port:        cfg.Port,
		Full:        cfg.Full,
		RPCType:     cfg.RPCType,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
	}
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	switch {
	case c.AdminURL == "":
		return fmt.Errorf("%w: admin url is required", ErrInvalidConfig)
	case !strings.HasPrefix(c.AdminURL, "http://") && !strings.HasPrefix(c.AdminURL, "https://"):
		return fmt.Errorf("%w: admin url must be http or https", ErrInvalidConfig)
	case c.AppName == "":
		return fmt.Errorf("%w: app name is required", ErrInvalidConfig)
	case c.ContextPath == "" || !strings.HasPrefix(c.ContextPath, "/"):
		return fmt.Errorf("%w: context path must start with /", ErrInvalidConfig)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidConfig)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max retries must be non-negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.RPCType == "" {
		c.RPCType = "http"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 500 * time.Millisecond
	}
}

// Endpoint is one route to register.
type Endpoint struct {
	// Path relative to the context path, e.g. "/order/findById".
	Path    string
	Desc    string
	Enabled bool
}

// payload is the admin's registration document.
type payload struct {
	AppName          string `json:"appName"`
	Context          string `json:"context"`
	Path             string `json:"path"`
	PathDesc         string `json:"pathDesc"`
	RPCType          string `json:"rpcType"`
	Host             string `json:"host"`
	Port             int    `json:"port"`
	RuleName         string `json:"ruleName"`
	Enabled          bool   `json:"enabled"`
	RegisterMetaData bool   `json:"registerMetaData"`
}

// Client registers endpoints with one admin.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// New validates cfg and resolves the host address.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if cfg.Host == "" {
		host, err := LocalIPv4()
		if err != nil {
			return nil, fmt.Errorf("resolve host: %w", err)
		}
		cfg.Host = host
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "register", "app", cfg.AppName),
	}, nil
}

// Register creates a client for cfg and registers endpoints once.
func Register(ctx context.Context, cfg Config, endpoints []Endpoint, logger *slog.Logger) error {
	c, err := New(cfg, logger)
	if err != nil {
		return err
	}
	return c.Register(ctx, endpoints)
}

// Register posts every endpoint, or the catch-all route when Full is set.
// It stops at the first endpoint that cannot be registered.
func (c *Client) Register(ctx context.Context, endpoints []Endpoint) error {
	docs := c.payloads(endpoints)
	for _, p := range docs {
		if err := c.registerOne(ctx, p); err != nil {
			return err
		}
	}
	c.logger.Info("routes registered", "count", len(docs), "host", c.cfg.Host, "port", c.cfg.Port)
	return nil
}

func (c *Client) payloads(endpoints []Endpoint) []payload {
	base := payload{
		AppName: c.cfg.AppName,
		Context: c.cfg.ContextPath,
		RPCType: c.cfg.RPCType,
		Host:    c.cfg.Host,
		Port:    c.cfg.Port,
		Enabled: true,
	}
	if c.cfg.Full {
		p := base
		p.Path = strings.TrimSuffix(c.cfg.ContextPath, "/") + "/**"
		p.RuleName = p.Path
		return []payload{p}
	}

	out := make([]payload, 0, len(endpoints))
	for _, e := range endpoints {
		p := base
		p.Path = strings.TrimSuffix(c.cfg.ContextPath, "/") + "/" + strings.TrimPrefix(e.Path, "/")
		p.PathDesc = e.Desc
		p.RuleName = p.Path
		p.Enabled = e.Enabled
		out = append(out, p)
	}
	return out
}

func (c *Client) registerOne(ctx context.Context, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode registration for %s: %w", p.Path, err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := c.post(ctx, p.Path, body)
		var serr *StatusError
		if errors.As(err, &serr) && !serr.Temporary() {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries)+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("registration failed, retrying",
				"path", p.Path,
				"attempt", attempt,
				"retry_in", wait.String(),
				"error", err,
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("register %s after %d attempts: %w", p.Path, attempt, err)
	}
	c.logger.Debug("route registered", "path", p.Path)
	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	url := strings.TrimSuffix(c.cfg.AdminURL, "/") + RegisterPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
}
