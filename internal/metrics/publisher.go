package metrics

import "time"

// Publisher is the sink for metric points. Implementations ship them to a
// backend (DataDog), log them, or drop them.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text, alertType string, tags ...string)
	PublishHealthMetrics(m *HealthMetrics)
	Close() error
}

// HealthMetrics is the periodic health batch pushed by the background
// publisher.
type HealthMetrics struct {
	TotalEntries     int64
	HitRatio         float64
	AverageLatencyMs float64
	LevelsAvailable  int
	LevelsTotal      int
}

// Snapshot is a point-in-time view of the tracker's counters.
type Snapshot struct {
	Timestamp time.Time

	// Hits per level priority. Misses are whole-cache misses: no level
	// held the key.
	LevelHits map[int]int64
	Misses    int64

	Promotions int64
	RaceWins   int64

	GetCount    int64
	SetCount    int64
	RemoveCount int64
	ErrorCount  int64

	BytesWritten int64

	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64
}

// TotalHits sums hits across every level.
func (s Snapshot) TotalHits() int64 {
	var total int64
	for _, n := range s.LevelHits {
		total += n
	}
	return total
}

// HitRatio returns hits / (hits + misses), or 0 when no reads happened.
func (s Snapshot) HitRatio() float64 {
	hits := s.TotalHits()
	reads := hits + s.Misses
	if reads == 0 {
		return 0
	}
	return float64(hits) / float64(reads)
}
