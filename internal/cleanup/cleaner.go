package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/interview-engine/internal/interview"
)

// Cleaner handles periodic cleanup of expired interview sessions
type Cleaner struct {
	service  interview.Service
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(service interview.Service, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		service:  service,
		interval: interval,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup finds and removes sessions past their TTL
func (c *Cleaner) cleanup(ctx context.Context) {
	slog.Debug("running cleanup cycle")

	expired, err := c.service.GetExpired(ctx)
	if err != nil {
		slog.Error("failed to get expired sessions", "error", err)
		return
	}

	if len(expired) == 0 {
		slog.Debug("no expired sessions found")
		return
	}

	slog.Info("found expired sessions", "count", len(expired))

	for _, s := range expired {
		slog.Info("deleting expired session",
			"id", s.ID,
			"stage", s.Stage,
			"role", s.Config.Role,
			"expired_at", s.ExpiresAt,
		)

		if err := c.service.Delete(ctx, s.ID); err != nil {
			slog.Error("failed to delete expired session",
				"error", err,
				"id", s.ID,
			)
			continue
		}

		slog.Info("expired session deleted", "id", s.ID)
	}
}
