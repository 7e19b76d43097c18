package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"soul-hq/gateway/pkg/dto"
)

// Saver persists snapshots. *Store implements it.
type Saver interface {
	Save(ctx context.Context, s *dto.Snapshot) (bool, error)
}

// SnapshotSource produces the snapshot to save, typically cache.Export.
type SnapshotSource func() *dto.Snapshot

// Checkpointer saves the current configuration on a cron schedule and once
// more when stopped.
type Checkpointer struct {
	saver    Saver
	source   SnapshotSource
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewCheckpointer creates a checkpointer. schedule is a standard five field
// cron expression; an empty schedule only saves on Stop.
func NewCheckpointer(saver Saver, source SnapshotSource, schedule string, logger *slog.Logger) *Checkpointer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkpointer{
		saver:    saver,
		source:   source,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "store.checkpoint"),
	}
}

// Start schedules periodic checkpoints.
//
// Common cron expressions:
//   - "*/5 * * * *"  - Every 5 minutes
//   - "0 * * * *"    - Hourly
func (c *Checkpointer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	if c.schedule == "" {
		c.logger.Info("checkpoint schedule not configured, saving on shutdown only")
		return nil
	}

	if _, err := cron.ParseStandard(c.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.schedule, err)
	}
	if _, err := c.cron.AddFunc(c.schedule, func() {
		c.run(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule checkpoints: %w", err)
	}

	c.cron.Start()
	c.running = true
	c.logger.Info("checkpoint scheduler started", "schedule", c.schedule)
	return nil
}

func (c *Checkpointer) run(ctx context.Context) {
	if _, err := c.Checkpoint(ctx); err != nil {
		c.logger.Error("scheduled checkpoint failed", "error", err)
	}
}

// Checkpoint saves the current snapshot now. It reports whether anything
// was written.
func (c *Checkpointer) Checkpoint(ctx context.Context) (bool, error) {
	snap := c.source()
	if snap == nil {
		return false, ErrNilSnapshot
	}
	saved, err := c.saver.Save(ctx, snap)
	if err != nil {
		return false, err
	}
	if saved {
		c.logger.Debug("checkpoint written", "entities", snap.Len())
	}
	return saved, nil
}

// Stop waits for a running checkpoint, stops the schedule and writes a
// final checkpoint with ctx.
func (c *Checkpointer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		<-c.cron.Stop().Done()
		c.running = false
		c.logger.Info("checkpoint scheduler stopped")
	}
	c.mu.Unlock()

	if _, err := c.Checkpoint(ctx); err != nil {
		return fmt.Errorf("final checkpoint: %w", err)
	}
	return nil
}

// IsRunning returns true if the schedule is active.
func (c *Checkpointer) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// NextRun returns the next scheduled checkpoint time.
func (c *Checkpointer) NextRun() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
