package metrics

import (
	"time"

	"github.com/stratacache/strata/internal/types"
)

// NoOpTracker is a no-operation metrics tracker for testing.
type NoOpTracker struct{}

// NewNoOpTracker creates a new no-op tracker.
func NewNoOpTracker() *NoOpTracker {
	return &NoOpTracker{}
}

func (t *NoOpTracker) RecordHit(level int, key string, latency time.Duration)       {}
func (t *NoOpTracker) RecordMiss(key string, latency time.Duration)                 {}
func (t *NoOpTracker) RecordPromotion(fromLevel, toLevel int, key string)           {}
func (t *NoOpTracker) RecordRaceWin(level, member int, latency time.Duration)       {}
func (t *NoOpTracker) RecordSet(key string, size int, latency time.Duration)        {}
func (t *NoOpTracker) RecordRemove(key string, latency time.Duration)               {}
func (t *NoOpTracker) RecordError(op string, level int, err error)                  {}

// Snapshot returns empty metrics.
func (t *NoOpTracker) Snapshot() Snapshot { return Snapshot{} }

// Reset does nothing.
func (t *NoOpTracker) Reset() {}

// NoOpPublisher is a no-operation metrics publisher for testing or when disabled.
type NoOpPublisher struct{}

// NewNoOpPublisher creates a new no-op publisher.
func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

func (p *NoOpPublisher) Gauge(name string, value float64, tags ...string)            {}
func (p *NoOpPublisher) Incr(name string, tags ...string)                            {}
func (p *NoOpPublisher) Count(name string, value int64, tags ...string)              {}
func (p *NoOpPublisher) Histogram(name string, value float64, tags ...string)        {}
func (p *NoOpPublisher) Timing(name string, duration time.Duration, tags ...string)  {}
func (p *NoOpPublisher) Event(title, text, alertType string, tags ...string)         {}
func (p *NoOpPublisher) PublishHealthMetrics(metrics *HealthMetrics)                 {}
func (p *NoOpPublisher) Close() error                                                { return nil }

// Ensure interfaces are implemented
var _ types.MetricsRecorder = (*NoOpTracker)(nil)
var _ Publisher = (*NoOpPublisher)(nil)
