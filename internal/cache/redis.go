package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Cache is a Redis-backed read-through cache for finalized reports and
// session summaries. A nil *Cache is valid and always misses, so the
// orchestrator does not special-case deployments without Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies connectivity
func New(address, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Cache{client: client, ttl: ttl}, nil
}

func reportKey(sessionID string) string {
	return fmt.Sprintf("interview:report:%s", sessionID)
}

func summaryKey(sessionID string) string {
	return fmt.Sprintf("interview:summary:%s", sessionID)
}

// StoreReport caches a finalized report. Reports are immutable, so a
// stale entry can never disagree with the repository.
func (c *Cache) StoreReport(ctx context.Context, sessionID string, report *models.Report) {
	if c == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		slog.Error("failed to marshal report for cache", "error", err, "session", sessionID)
		return
	}
	if err := c.client.Set(ctx, reportKey(sessionID), data, c.ttl).Err(); err != nil {
		slog.Warn("failed to cache report", "error", err, "session", sessionID)
	}
}

// GetReport returns the cached report, or nil on miss
func (c *Cache) GetReport(ctx context.Context, sessionID string) *models.Report {
	if c == nil {
		return nil
	}
	data, err := c.client.Get(ctx, reportKey(sessionID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("failed to read cached report", "error", err, "session", sessionID)
		}
		return nil
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		slog.Warn("failed to unmarshal cached report", "error", err, "session", sessionID)
		return nil
	}
	return &report
}

// StoreSummary caches the session status summary
func (c *Cache) StoreSummary(ctx context.Context, summary models.Summary) {
	if c == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		slog.Error("failed to marshal summary for cache", "error", err, "session", summary.ID)
		return
	}
	if err := c.client.Set(ctx, summaryKey(summary.ID), data, c.ttl).Err(); err != nil {
		slog.Warn("failed to cache summary", "error", err, "session", summary.ID)
	}
}

// GetSummary returns the cached summary, or false on miss
func (c *Cache) GetSummary(ctx context.Context, sessionID string) (models.Summary, bool) {
	if c == nil {
		return models.Summary{}, false
	}
	data, err := c.client.Get(ctx, summaryKey(sessionID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("failed to read cached summary", "error", err, "session", sessionID)
		}
		return models.Summary{}, false
	}
	var summary models.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return models.Summary{}, false
	}
	return summary, true
}

// Evict removes all cached entries for a session
func (c *Cache) Evict(ctx context.Context, sessionID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, reportKey(sessionID), summaryKey(sessionID)).Err(); err != nil {
		slog.Warn("failed to evict cache entries", "error", err, "session", sessionID)
	}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
