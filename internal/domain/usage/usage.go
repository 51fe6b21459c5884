// Package usage tracks how many coaching plans came from the model and how
// many from the deterministic fallback.
package usage

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/pkg/logger"
	"github.com/okian/liftguard/pkg/metrics"
)

// Sink persists increments. Failures are logged and never reach the caller.
type Sink interface {
	IncrementUsage(ctx context.Context, mode model.CoachingMode) error
}

// Loader reads persisted counts.
type Loader interface {
	LoadUsage(ctx context.Context) (map[model.CoachingMode]int64, error)
}

// Snapshot is a point-in-time read of both counters.
type Snapshot struct {
	Model    int64
	Fallback int64
}

// Total returns the number of recorded coaching requests.
func (s Snapshot) Total() int64 { return s.Model + s.Fallback }

// Option applies a configuration option to the Counter.
type Option func(*Counter)

// WithSink mirrors every increment to a durable sink.
func WithSink(sink Sink) Option {
	return func(c *Counter) { c.sink = sink }
}

// WithLogger sets the logger used for sink failures.
func WithLogger(l logger.Logger) Option {
	return func(c *Counter) {
		if l != nil {
			c.log = l
		}
	}
}

// Counter is a monotonic pair of counters. It is safe for concurrent use.
type Counter struct {
	modelCount    atomic.Int64
	fallbackCount atomic.Int64

	sink Sink
	log  logger.Logger
}

// NewCounter creates a zeroed counter.
func NewCounter(opts ...Option) *Counter {
	c := &Counter{}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Named("usage")
	}
	return c
}

// Seed adds persisted counts, typically once at startup.
func (c *Counter) Seed(ctx context.Context, loader Loader) error {
	counts, err := loader.LoadUsage(ctx)
	if err != nil {
		return fmt.Errorf("load usage counters: %w", err)
	}
	c.modelCount.Add(counts[model.ModeModel])
	c.fallbackCount.Add(counts[model.ModeFallback])
	c.publish()
	return nil
}

// Record increments the counter for mode exactly once.
func (c *Counter) Record(ctx context.Context, mode model.CoachingMode) {
	switch mode {
	case model.ModeModel:
		c.modelCount.Add(1)
	case model.ModeFallback:
		c.fallbackCount.Add(1)
	default:
		c.log.Warn(ctx, "ignoring unknown coaching mode", logger.String("mode", string(mode)))
		return
	}
	c.publish()

	if c.sink == nil {
		return
	}
	// The plan is already decided; a caller hanging up must not lose the count.
	if err := c.sink.IncrementUsage(context.WithoutCancel(ctx), mode); err != nil {
		metrics.RecordUsagePersistError()
		c.log.Warn(ctx, "failed to persist usage increment",
			logger.String("mode", string(mode)), logger.Error(err))
	}
}

// Snapshot returns the current counts.
func (c *Counter) Snapshot() Snapshot {
	return Snapshot{Model: c.modelCount.Load(), Fallback: c.fallbackCount.Load()}
}

func (c *Counter) publish() {
	s := c.Snapshot()
	metrics.UpdateAIUsage(string(model.ModeModel), s.Model)
	metrics.UpdateAIUsage(string(model.ModeFallback), s.Fallback)
}
