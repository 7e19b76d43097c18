package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"soul-hq/gateway/pkg/config"
)

// Config contains the store connection settings.
type Config struct {
	// URL selects the driver by scheme: sqlite://, sqlite3://, postgres://.
	URL string

	// Default: 4
	MaxOpenConns int

	// Default: 2
	MaxIdleConns int

	// Default: 30m
	ConnMaxLifetime time.Duration

	// BusyTimeout is how long SQLite waits for a lock.
	// Default: 5s
	BusyTimeout time.Duration
}

// FromConfig maps the store section of the gateway configuration.
func FromConfig(cfg *config.StoreConfig) Config {
	return Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}

func (c *Config) applyDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 4
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 2
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
}

// Store saves and loads configuration snapshots.
type Store struct {
	db      *sqlx.DB
	backend string
	q       *queries
	logger  *slog.Logger

	// mu serializes writers; the version check and the write must not
	// interleave.
	mu sync.Mutex
}

// Open connects to the database named by cfg.URL and creates the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, newError(driver, "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, newError(driver, "ping", err)
	}

	q, err := loadQueries(db)
	if err != nil {
		db.Close()
		return nil, newError(driver, "load_queries", err)
	}

	s := &Store{
		db:      db,
		backend: driver,
		q:       q,
		logger:  logger.With("component", "store", "backend", driver),
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("snapshot store opened", "max_open_conns", cfg.MaxOpenConns)
	return s, nil
}

// dataSource maps a store URL onto a driver name and its DSN.
//
//	sqlite://data/soul.db     relative path (host + path)
//	sqlite:///abs/soul.db     absolute path
func dataSource(cfg Config) (driver, dsn string, err error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", "", fmt.Errorf("invalid store URL: %w", err)
	}

	path := u.Path
	if u.Host != "" {
		path = u.Host + u.Path
	}
	busy := cfg.BusyTimeout.Milliseconds()

	switch u.Scheme {
	case "sqlite":
		if path == "" {
			return "", "", fmt.Errorf("store URL %q has no database path", cfg.URL)
		}
		return "sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, busy), nil
	case "sqlite3":
		if path == "" {
			return "", "", fmt.Errorf("store URL %q has no database path", cfg.URL)
		}
		return "sqlite3", fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", path, busy), nil
	case "postgres", "postgresql":
		return "postgres", cfg.URL, nil
	default:
		return "", "", fmt.Errorf("%w: %q (expected sqlite, sqlite3 or postgres)", ErrUnsupportedScheme, u.Scheme)
	}
}

func (s *Store) migrate(ctx context.Context) error {
	for _, name := range []string{"create-snapshot-meta", "create-snapshot-entities"} {
		if _, err := s.db.ExecContext(ctx, s.q.get(name)); err != nil {
			return newError(s.backend, "migrate", fmt.Errorf("%s: %w", name, err))
		}
	}
	return nil
}

// Backend returns the driver name in use.
func (s *Store) Backend() string {
	return s.backend
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return newError(s.backend, "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
