package repository

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/pkg/metrics"
)

// MemoryStore keeps the log as an arena of immutable records indexed by id-1.
//
// Appends take the write lock; readers copy the slice header under the read
// lock and fold over it without holding the lock, since published records
// never change.
type MemoryStore struct {
	opts options

	mu      sync.RWMutex
	records []model.AssessmentRecord
	usage   map[model.CoachingMode]int64
	closed  bool

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an in-memory store. State is lost on Close.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &MemoryStore{
		opts:     o,
		usage:    make(map[model.CoachingMode]int64, 2),
		stopChan: make(chan struct{}),
	}
	startMetricsUpdater(ctx, &s.wg, s.stopChan, s.opts.metricsInterval, s.Count)
	return s
}

// Append implements Store.Append.
func (s *MemoryStore) Append(ctx context.Context, in model.AssessmentInput, res model.AssessmentResult) (model.AssessmentRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryAppendLatency(DriverMemory, msSince(start)) }()

	if err := ctx.Err(); err != nil {
		return model.AssessmentRecord{}, persistErr("append", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.AssessmentRecord{}, persistErr("append", ErrClosed)
	}
	createdAt := s.opts.now()
	if n := len(s.records); n > 0 && createdAt.Before(s.records[n-1].CreatedAt) {
		// Keep created_at ascending with ids when the clock steps back.
		createdAt = s.records[n-1].CreatedAt
	}
	rec := model.AssessmentRecord{
		ID:        int64(len(s.records)) + 1,
		CreatedAt: createdAt,
		Input:     in,
		Result:    cloneResult(res),
	}
	s.records = append(s.records, rec)
	return rec, nil
}

// ListRecent implements Store.ListRecent.
func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]model.AssessmentRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(DriverMemory, "list_recent", msSince(start)) }()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	arena, err := s.view()
	if err != nil {
		return nil, persistErr("list_recent", err)
	}
	n := min(limit, len(arena))
	out := make([]model.AssessmentRecord, 0, n)
	for i := len(arena) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, arena[i])
	}
	return out, nil
}

// Scan implements Store.Scan.
func (s *MemoryStore) Scan(ctx context.Context, since, until time.Time) iter.Seq2[model.AssessmentRecord, error] {
	return func(yield func(model.AssessmentRecord, error) bool) {
		start := time.Now()
		defer func() { metrics.RecordRepositoryQueryLatency(DriverMemory, "scan", msSince(start)) }()

		arena, err := s.view()
		if err != nil {
			yield(model.AssessmentRecord{}, persistErr("scan", err))
			return
		}
		for _, rec := range arena {
			if err := ctx.Err(); err != nil {
				yield(model.AssessmentRecord{}, persistErr("scan", err))
				return
			}
			if !inWindow(rec.CreatedAt, since, until) {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Count implements Store.Count.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	arena, err := s.view()
	if err != nil {
		return 0, persistErr("count", err)
	}
	return len(arena), nil
}

// LoadUsage implements UsageStore.LoadUsage.
func (s *MemoryStore) LoadUsage(ctx context.Context) (map[model.CoachingMode]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.CoachingMode]int64, len(s.usage))
	for k, v := range s.usage {
		out[k] = v
	}
	return out, nil
}

// IncrementUsage implements UsageStore.IncrementUsage.
func (s *MemoryStore) IncrementUsage(ctx context.Context, mode model.CoachingMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return persistErr("increment_usage", ErrClosed)
	}
	s.usage[mode]++
	return nil
}

// Close stops the metrics updater. Further calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	})
	s.wg.Wait()
	return nil
}

// view returns the published arena. The returned slice must not be modified.
func (s *MemoryStore) view() ([]model.AssessmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.records[:len(s.records):len(s.records)], nil
}

func inWindow(t, since, until time.Time) bool {
	if !since.IsZero() && t.Before(since) {
		return false
	}
	if !until.IsZero() && !t.Before(until) {
		return false
	}
	return true
}

// cloneResult detaches the stored result from caller-owned slices and maps.
func cloneResult(res model.AssessmentResult) model.AssessmentResult {
	out := res
	out.TopFactors = append([]string(nil), res.TopFactors...)
	out.Recommendations = append([]string(nil), res.Recommendations...)
	if res.ScoreBreakdown != nil {
		out.ScoreBreakdown = make(map[model.Category]int, len(res.ScoreBreakdown))
		for k, v := range res.ScoreBreakdown {
			out.ScoreBreakdown[k] = v
		}
	}
	return out
}
