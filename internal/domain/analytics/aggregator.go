// Package analytics folds the assessment log into the dashboard read models.
package analytics

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/internal/domain/scoring"
	"github.com/okian/liftguard/internal/domain/types"
	"github.com/okian/liftguard/internal/domain/usage"
	"github.com/okian/liftguard/pkg/metrics"
)

// Default bounds for query parameters.
const (
	DefaultMaxLimit      = 100
	DefaultMaxWindowDays = 365
)

const dayLayout = "2006-01-02"

// Reader is the read side of the assessment store.
type Reader interface {
	ListRecent(ctx context.Context, limit int) ([]model.AssessmentRecord, error)
	Scan(ctx context.Context, since, until time.Time) iter.Seq2[model.AssessmentRecord, error]
	Count(ctx context.Context) (int, error)
}

// UsageSource exposes the coaching usage counters.
type UsageSource interface {
	Snapshot() usage.Snapshot
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithClock overrides the clock used to anchor windows.
func WithClock(clock func() time.Time) Option {
	return func(a *Aggregator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithMaxLimit caps limit parameters.
func WithMaxLimit(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxLimit = n
		}
	}
}

// WithMaxWindowDays caps days parameters.
func WithMaxWindowDays(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxWindowDays = n
		}
	}
}

// Aggregator answers dashboard queries. It only reads.
type Aggregator struct {
	store         Reader
	usage         UsageSource
	clock         func() time.Time
	maxLimit      int
	maxWindowDays int
}

// NewAggregator creates an aggregator over store and usage.
func NewAggregator(store Reader, usage UsageSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:         store,
		usage:         usage,
		clock:         time.Now,
		maxLimit:      DefaultMaxLimit,
		maxWindowDays: DefaultMaxWindowDays,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summary returns the count and mean score of every stored assessment.
func (a *Aggregator) Summary(ctx context.Context) (types.Summary, error) {
	defer observe("summary", time.Now())

	var (
		out types.Summary
		sum int
	)
	err := a.fold(ctx, time.Time{}, func(rec model.AssessmentRecord) {
		out.TotalAssessments++
		sum += rec.Result.RiskScore
	})
	if err != nil {
		return types.Summary{}, err
	}
	out.AvgRiskScore = mean(sum, out.TotalAssessments)
	return out, nil
}

// RiskDistribution counts every stored assessment by risk level.
func (a *Aggregator) RiskDistribution(ctx context.Context) (types.RiskDistribution, error) {
	defer observe("risk_distribution", time.Now())

	var out types.RiskDistribution
	err := a.fold(ctx, time.Time{}, func(rec model.AssessmentRecord) {
		switch model.RiskLevelFor(rec.Result.RiskScore) {
		case model.RiskLow:
			out.Low++
		case model.RiskModerate:
			out.Moderate++
		case model.RiskHigh:
			out.High++
		}
	})
	if err != nil {
		return types.RiskDistribution{}, err
	}
	return out, nil
}

// TopPainLocations counts reported pain locations other than "none",
// most frequent first. Equal counts keep first-seen order.
func (a *Aggregator) TopPainLocations(ctx context.Context, limit int) ([]types.KeyCount, error) {
	defer observe("top_pain_locations", time.Now())

	if err := a.checkLimit(limit); err != nil {
		return nil, err
	}
	counts := newCounter()
	err := a.fold(ctx, time.Time{}, func(rec model.AssessmentRecord) {
		if loc := rec.Input.PainLocation; loc != model.PainNone {
			counts.add(string(loc))
		}
	})
	if err != nil {
		return nil, err
	}
	return counts.top(limit, func(k string) int { return counts.firstSeen[k] }), nil
}

// Recent returns compact rows for the newest assessments.
func (a *Aggregator) Recent(ctx context.Context, limit int) ([]types.RecentAssessment, error) {
	defer observe("recent", time.Now())

	if err := a.checkLimit(limit); err != nil {
		return nil, err
	}
	records, err := a.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent: %w", ErrAggregation, err)
	}
	out := make([]types.RecentAssessment, 0, len(records))
	for _, rec := range records {
		out = append(out, types.RecentAssessment{
			ID:           rec.ID,
			CreatedAt:    rec.CreatedAt.UTC(),
			RiskScore:    rec.Result.RiskScore,
			RiskLevel:    rec.Result.RiskLevel,
			PainLocation: rec.Input.PainLocation,
		})
	}
	return out, nil
}

// AIUsage reads the usage counters next to the stored total.
func (a *Aggregator) AIUsage(ctx context.Context) (types.AIUsage, error) {
	defer observe("ai_usage", time.Now())

	total, err := a.store.Count(ctx)
	if err != nil {
		return types.AIUsage{}, fmt.Errorf("%w: ai_usage: %w", ErrAggregation, err)
	}
	var snap usage.Snapshot
	if a.usage != nil {
		snap = a.usage.Snapshot()
	}
	return types.AIUsage{Model: snap.Model, Fallback: snap.Fallback, TotalAssessments: total}, nil
}

// RiskTrend returns one point per UTC day with at least one assessment in the
// window, oldest first.
func (a *Aggregator) RiskTrend(ctx context.Context, days int) ([]types.TrendPoint, error) {
	defer observe("risk_trend", time.Now())

	since, err := a.windowStart(days)
	if err != nil {
		return nil, err
	}
	type bucket struct{ sum, count int }
	buckets := make(map[string]*bucket)
	err = a.fold(ctx, since, func(rec model.AssessmentRecord) {
		day := rec.CreatedAt.UTC().Format(dayLayout)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.sum += rec.Result.RiskScore
		b.count++
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.TrendPoint, 0, len(buckets))
	for day, b := range buckets {
		out = append(out, types.TrendPoint{Day: day, AvgRiskScore: mean(b.sum, b.count), Count: b.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// TopFactors counts how often each category ranked among a record's top
// factors within the window. Equal counts follow category priority.
func (a *Aggregator) TopFactors(ctx context.Context, limit, days int) ([]types.KeyCount, error) {
	defer observe("top_factors", time.Now())

	if err := a.checkLimit(limit); err != nil {
		return nil, err
	}
	since, err := a.windowStart(days)
	if err != nil {
		return nil, err
	}
	counts := newCounter()
	err = a.fold(ctx, since, func(rec model.AssessmentRecord) {
		for _, c := range scoring.TopCategories(rec.Result.ScoreBreakdown, len(rec.Result.TopFactors)) {
			counts.add(string(c))
		}
	})
	if err != nil {
		return nil, err
	}
	return counts.top(limit, func(k string) int { return model.PriorityOf(model.Category(k)) }), nil
}

// AvgBreakdown averages each category's contribution within the window.
// Every category is present; an empty window yields zeros.
func (a *Aggregator) AvgBreakdown(ctx context.Context, days int) (types.Breakdown, error) {
	defer observe("avg_breakdown", time.Now())

	since, err := a.windowStart(days)
	if err != nil {
		return nil, err
	}
	sums := make(map[model.Category]int, len(model.CategoryPriority))
	n := 0
	err = a.fold(ctx, since, func(rec model.AssessmentRecord) {
		n++
		for _, c := range model.CategoryPriority {
			sums[c] += rec.Result.ScoreBreakdown[c]
		}
	})
	if err != nil {
		return nil, err
	}

	out := make(types.Breakdown, len(model.CategoryPriority))
	for _, c := range model.CategoryPriority {
		out[c] = mean(sums[c], n)
	}
	return out, nil
}

// fold applies fn to every record created at or after since.
func (a *Aggregator) fold(ctx context.Context, since time.Time, fn func(model.AssessmentRecord)) error {
	for rec, err := range a.store.Scan(ctx, since, time.Time{}) {
		if err != nil {
			metrics.RecordErrorByComponent("analytics", "scan")
			return fmt.Errorf("%w: %w", ErrAggregation, err)
		}
		fn(rec)
	}
	return nil
}

// windowStart returns 00:00 UTC of the day that lies days before now.
func (a *Aggregator) windowStart(days int) (time.Time, error) {
	if days < 1 || days > a.maxWindowDays {
		return time.Time{}, fmt.Errorf("%w: days must be between 1 and %d, got %d", ErrInvalidWindow, a.maxWindowDays, days)
	}
	start := a.clock().UTC().AddDate(0, 0, -days)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (a *Aggregator) checkLimit(limit int) error {
	if limit < 1 || limit > a.maxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidLimit, a.maxLimit, limit)
	}
	return nil
}

func mean(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func observe(query string, start time.Time) {
	metrics.RecordAnalyticsLatency(query, float64(time.Since(start).Microseconds())/1000)
}

// counter is a frequency table that remembers first-seen order.
type counter struct {
	counts    map[string]int
	firstSeen map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int), firstSeen: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.firstSeen[key] = len(c.firstSeen)
	}
	c.counts[key]++
}

// top returns up to limit rows by count desc, then by ascending rank(key).
func (c *counter) top(limit int, rank func(string) int) []types.KeyCount {
	out := make([]types.KeyCount, 0, len(c.counts))
	for k, n := range c.counts {
		out = append(out, types.KeyCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return rank(out[i].Key) < rank(out[j].Key)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
