package strata

import (
	"context"

	"github.com/stratacache/strata/internal/metrics"
)

// HealthStatus represents the overall health state of the cache.
type HealthStatus string

const (
	// HealthStatusHealthy means every configured level is available.
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusDegraded means some, but not all, levels are available.
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusUnhealthy means no level is available.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// Health describes the availability of the cache's levels together with
// headline performance numbers.
type Health struct {
	Status           HealthStatus `json:"status"`
	LevelsAvailable  int          `json:"levelsAvailable"`
	LevelsTotal      int          `json:"levelsTotal"`
	TotalEntries     int64        `json:"totalEntries"`
	HitRatio         float64      `json:"hitRatio"`
	AverageLatencyMs float64      `json:"averageLatencyMs"`
	RedisConnected   bool         `json:"redisConnected"`
}

// Health reports the current availability and performance of the cache.
// The Redis level is probed with a live ping; in-process levels are
// available as long as the cache is open.
func (c *Cache) Health(ctx context.Context) *Health {
	h := &Health{LevelsTotal: c.levelsTotal}

	available := c.levelsTotal
	if c.redis != nil {
		if err := c.redis.Ping(ctx); err != nil {
			available--
		} else {
			h.RedisConnected = true
		}
	}
	h.LevelsAvailable = available

	switch {
	case available == 0:
		h.Status = HealthStatusUnhealthy
	case available < c.levelsTotal:
		h.Status = HealthStatusDegraded
	default:
		h.Status = HealthStatusHealthy
	}

	if c.memory != nil {
		h.TotalEntries = int64(c.memory.EntryCount())
	}
	if c.tracker != nil {
		snap := c.tracker.Snapshot()
		h.HitRatio = snap.HitRatio()
		h.AverageLatencyMs = snap.AvgLatencyMs
	}

	return h
}

// IsHealthy reports whether at least one level is currently available.
func (c *Cache) IsHealthy(ctx context.Context) bool {
	return c.Health(ctx).LevelsAvailable > 0
}

// IsRedisAvailable reports whether the Redis level is configured and
// believed connected. It consults the backend's connection tracking
// without issuing a network round trip.
func (c *Cache) IsRedisAvailable() bool {
	return c.redis != nil && c.redis.IsAvailable()
}

// IsMemoryAvailable reports whether an in-process memory level is configured.
func (c *Cache) IsMemoryAvailable() bool {
	return c.memory != nil
}

// healthMetrics feeds the background publisher.
func (c *Cache) healthMetrics() *metrics.HealthMetrics {
	h := c.Health(context.Background())
	return &metrics.HealthMetrics{
		TotalEntries:     h.TotalEntries,
		HitRatio:         h.HitRatio,
		AverageLatencyMs: h.AverageLatencyMs,
		LevelsAvailable:  h.LevelsAvailable,
		LevelsTotal:      h.LevelsTotal,
	}
}
