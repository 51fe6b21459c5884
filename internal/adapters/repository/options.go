package repository

import "time"

const (
	defaultMetricsInterval = 5 * time.Second
	defaultPoolSize        = 10
)

type options struct {
	clock           func() time.Time
	metricsInterval time.Duration
	poolSize        int32
}

func defaultOptions() options {
	return options{
		clock:           time.Now,
		metricsInterval: defaultMetricsInterval,
		poolSize:        defaultPoolSize,
	}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithClock overrides the clock used to stamp created_at.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.metricsInterval = interval
		}
	}
}

// WithPoolSize caps the Postgres connection pool.
func WithPoolSize(n int32) Option {
	return func(o *options) {
		if n > 0 {
			o.poolSize = n
		}
	}
}

func (o options) now() time.Time {
	return o.clock().UTC().Truncate(time.Millisecond)
}
