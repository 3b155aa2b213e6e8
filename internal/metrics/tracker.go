// Package metrics provides cache operation metrics collection and publishing.
package metrics

import (
	"slices"
	"sync"
	"time"

	"sync/atomic"

	"github.com/stratacache/strata/internal/types"
)

const (
	defaultLatencyBufferSize = 10000
)

// Tracker accumulates cache events in memory. It implements
// types.MetricsRecorder and is safe for concurrent use.
type Tracker struct {
	hitsMu    sync.Mutex
	levelHits map[int]int64

	misses     atomic.Int64
	promotions atomic.Int64
	raceWins   atomic.Int64

	getCount    atomic.Int64
	setCount    atomic.Int64
	removeCount atomic.Int64

	errorCount atomic.Int64

	latencyMu     sync.RWMutex
	latencyBuffer []time.Duration
	latencyIndex  int
	latencyCount  int

	totalBytesWritten atomic.Int64
}

func NewTracker() *Tracker {
	return &Tracker{
		levelHits:     make(map[int]int64),
		latencyBuffer: make([]time.Duration, defaultLatencyBufferSize),
	}
}

func (t *Tracker) RecordHit(level int, key string, latency time.Duration) {
	t.hitsMu.Lock()
	t.levelHits[level]++
	t.hitsMu.Unlock()

	t.getCount.Add(1)
	t.recordLatency(latency)
}

func (t *Tracker) RecordMiss(key string, latency time.Duration) {
	t.misses.Add(1)
	t.getCount.Add(1)
	t.recordLatency(latency)
}

func (t *Tracker) RecordPromotion(fromLevel, toLevel int, key string) {
	t.promotions.Add(1)
}

func (t *Tracker) RecordRaceWin(level, member int, latency time.Duration) {
	t.raceWins.Add(1)
}

func (t *Tracker) RecordSet(key string, size int, latency time.Duration) {
	t.setCount.Add(1)
	t.totalBytesWritten.Add(int64(size))
	t.recordLatency(latency)
}

func (t *Tracker) RecordRemove(key string, latency time.Duration) {
	t.removeCount.Add(1)
	t.recordLatency(latency)
}

func (t *Tracker) RecordError(op string, level int, err error) {
	t.errorCount.Add(1)
}

// recordLatency adds a latency measurement using a circular buffer.
// This is O(1) time complexity with no memory allocations.
func (t *Tracker) recordLatency(latency time.Duration) {
	t.latencyMu.Lock()
	t.latencyBuffer[t.latencyIndex] = latency
	t.latencyIndex = (t.latencyIndex + 1) % len(t.latencyBuffer)
	if t.latencyCount < len(t.latencyBuffer) {
		t.latencyCount++
	}
	t.latencyMu.Unlock()
}

// Snapshot returns current metrics snapshot.
func (t *Tracker) Snapshot() Snapshot {
	// Use RLock for reading - allows concurrent snapshots
	t.latencyMu.RLock()
	count := t.latencyCount
	latencyCopy := make([]time.Duration, count)
	// Copy from circular buffer in correct order
	if count > 0 {
		if count < len(t.latencyBuffer) {
			// Buffer not full yet - data starts at 0
			copy(latencyCopy, t.latencyBuffer[:count])
		} else {
			// Buffer is full - oldest data starts at latencyIndex
			firstPart := len(t.latencyBuffer) - t.latencyIndex
			copy(latencyCopy[:firstPart], t.latencyBuffer[t.latencyIndex:])
			copy(latencyCopy[firstPart:], t.latencyBuffer[:t.latencyIndex])
		}
	}
	t.latencyMu.RUnlock()

	t.hitsMu.Lock()
	hits := make(map[int]int64, len(t.levelHits))
	for level, n := range t.levelHits {
		hits[level] = n
	}
	t.hitsMu.Unlock()

	snapshot := Snapshot{
		Timestamp:    time.Now(),
		LevelHits:    hits,
		Misses:       t.misses.Load(),
		Promotions:   t.promotions.Load(),
		RaceWins:     t.raceWins.Load(),
		GetCount:     t.getCount.Load(),
		SetCount:     t.setCount.Load(),
		RemoveCount:  t.removeCount.Load(),
		ErrorCount:   t.errorCount.Load(),
		BytesWritten: t.totalBytesWritten.Load(),
	}

	// Calculate latency percentiles
	if len(latencyCopy) > 0 {
		snapshot.AvgLatencyMs = float64(avgDuration(latencyCopy).Microseconds()) / 1000
		snapshot.P50LatencyMs = float64(percentile(latencyCopy, 50).Microseconds()) / 1000
		snapshot.P95LatencyMs = float64(percentile(latencyCopy, 95).Microseconds()) / 1000
		snapshot.P99LatencyMs = float64(percentile(latencyCopy, 99).Microseconds()) / 1000
	}

	return snapshot
}

// Reset clears all metrics.
func (t *Tracker) Reset() {
	t.hitsMu.Lock()
	t.levelHits = make(map[int]int64)
	t.hitsMu.Unlock()

	t.misses.Store(0)
	t.promotions.Store(0)
	t.raceWins.Store(0)
	t.getCount.Store(0)
	t.setCount.Store(0)
	t.removeCount.Store(0)
	t.errorCount.Store(0)
	t.totalBytesWritten.Store(0)

	t.latencyMu.Lock()
	t.latencyIndex = 0
	t.latencyCount = 0
	t.latencyMu.Unlock()
}

// Helper functions for latency calculations

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func percentile(durations []time.Duration, p int) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	// Sort a copy
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	slices.Sort(sorted)

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

// Ensure Tracker implements MetricsRecorder
var _ types.MetricsRecorder = (*Tracker)(nil)
