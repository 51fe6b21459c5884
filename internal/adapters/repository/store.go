// Package repository holds the append-only assessment log and the usage counter
// persistence behind it.
package repository

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/pkg/metrics"
)

// Supported store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the append-only log of assessments.
//
// Records are never mutated or removed. IDs are strictly increasing in append
// order, and a read started after Append returns observes the new record.
type Store interface {
	// Append stamps id and created_at and durably saves the record.
	// A non-nil error means nothing was saved.
	Append(ctx context.Context, in model.AssessmentInput, res model.AssessmentResult) (model.AssessmentRecord, error)

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.AssessmentRecord, error)

	// Scan yields records with since <= created_at < until in ascending order.
	// A zero bound is open. The sequence is lazy and may be ranged over again.
	Scan(ctx context.Context, since, until time.Time) iter.Seq2[model.AssessmentRecord, error]

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying resources.
	Close() error
}

// UsageStore persists the coaching usage counters.
type UsageStore interface {
	LoadUsage(ctx context.Context) (map[model.CoachingMode]int64, error)
	IncrementUsage(ctx context.Context, mode model.CoachingMode) error
}

// AssessmentStore is a Store that also persists usage counters.
type AssessmentStore interface {
	Store
	UsageStore
}

// Config selects and configures a store backend.
type Config struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// Open builds the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config, opts ...Option) (AssessmentStore, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(ctx, opts...), nil
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, opts...)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// startMetricsUpdater publishes the record count every interval until stop closes.
func startMetricsUpdater(ctx context.Context, wg *sync.WaitGroup, stop <-chan struct{}, interval time.Duration, count func(context.Context) (int, error)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				if n, err := count(ctx); err == nil {
					metrics.UpdateRepositoryRecordsTotal(n)
				}
			}
		}
	}()
}
