package tier

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/stratacache/strata/internal/types"
)

// Builder accumulates level definitions before producing an immutable
// Aggregator. It is the only construction path for an Aggregator.
//
// Calls chain; the first configuration error sticks and is surfaced by Err
// and Build, so a broken configuration can never reach request time.
type Builder struct {
	levels map[int][]types.Backend
	err    error
}

// Configure starts a new, empty builder.
func Configure() *Builder {
	return &Builder{
		levels: make(map[int][]types.Backend),
	}
}

// AddLevel appends a new level after the farthest configured one: priority
// is the maximum existing priority plus one, or 0 for the first level.
func (b *Builder) AddLevel(backends ...types.Backend) *Builder {
	next := 0
	for p := range b.levels {
		if p >= next {
			next = p + 1
		}
	}
	return b.AddLevelAt(next, backends...)
}

// AddLevelAt inserts backends at the given priority. When a level already
// exists there, the backends are appended to it, which is how a multi-member
// level is assembled across calls. Backend handles are compared by interface
// equality; adding a handle twice to the same level is a conflict, while the
// same handle may appear at two different levels.
func (b *Builder) AddLevelAt(priority int, backends ...types.Backend) *Builder {
	if b.err != nil {
		return b
	}
	if priority < 0 {
		b.err = fmt.Errorf("%w: got %d", types.ErrNegativePriority, priority)
		return b
	}
	if len(backends) == 0 {
		b.err = fmt.Errorf("%w: priority %d", types.ErrNoBackends, priority)
		return b
	}

	members := b.levels[priority]
	for _, backend := range backends {
		if backend == nil {
			b.err = fmt.Errorf("%w: nil backend at priority %d", types.ErrNoBackends, priority)
			return b
		}
		if slices.Contains(members, backend) {
			b.err = fmt.Errorf("%w: %s at priority %d", types.ErrDuplicateBackend, backend.Name(), priority)
			return b
		}
		members = append(members, backend)
	}
	b.levels[priority] = members
	return b
}

// Err returns the first configuration error recorded so far.
func (b *Builder) Err() error {
	return b.err
}

// BuildOption configures the aggregator produced by Build.
type BuildOption func(*Aggregator)

// WithLogger sets the structured logger used for promotion diagnostics.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics recorder the aggregator reports to.
func WithMetrics(m types.MetricsRecorder) BuildOption {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// Build snapshots the staged levels into an immutable Aggregator. The
// builder stays usable: Build may be called again, and each call yields an
// independent aggregator sharing the same backend handles. An empty builder
// produces an empty aggregator whose operations all return defaults.
func (b *Builder) Build(opts ...BuildOption) (*Aggregator, error) {
	if b.err != nil {
		return nil, b.err
	}

	a := &Aggregator{
		priorities: make([]int, 0, len(b.levels)),
		levels:     make(map[int]*level, len(b.levels)),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "strata-aggregator")

	for p, members := range b.levels {
		a.priorities = append(a.priorities, p)
		a.levels[p] = &level{
			priority: p,
			members:  slices.Clone(members),
			metrics:  a.metrics,
		}
	}
	slices.Sort(a.priorities)

	return a, nil
}
