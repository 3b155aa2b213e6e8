package strata

import (
	"github.com/stratacache/strata/internal/metrics"
	"github.com/stratacache/strata/internal/tier"
	"github.com/stratacache/strata/internal/types"
)

type (
	// Backend is the full capability set a cache level member must expose.
	Backend = types.Backend
	// Serializer provides serialization and deserialization operations.
	Serializer = types.Serializer
	// MetricsRecorder receives cache events from the aggregator.
	MetricsRecorder = types.MetricsRecorder
	// SetOptions carries the expiration for write-shaped operations.
	SetOptions = types.SetOptions
	// Logger provides logging operations.
	Logger = types.Logger

	// Builder accumulates level definitions before producing an Aggregator.
	Builder = tier.Builder
	// Aggregator composes priority-ordered cache levels.
	Aggregator = tier.Aggregator
	// BuildOption configures the aggregator produced by Build.
	BuildOption = tier.BuildOption

	// Publisher receives metric values for delivery to a metrics sink.
	Publisher = metrics.Publisher
	// HealthMetrics contains overall cache health information.
	HealthMetrics = metrics.HealthMetrics
	// Snapshot contains a point-in-time view of cache metrics.
	Snapshot = metrics.Snapshot
)
