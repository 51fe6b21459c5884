// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/liftguard/internal/adapters/repository"
	"github.com/okian/liftguard/internal/domain/analytics"
	"github.com/okian/liftguard/internal/domain/coaching"
	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/internal/domain/scoring"
	"github.com/okian/liftguard/internal/domain/types"
	"github.com/okian/liftguard/internal/domain/usage"
	"github.com/okian/liftguard/pkg/logger"
	"github.com/okian/liftguard/pkg/metrics"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the assessment backend.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.AssessmentStore
	scorer     scoring.Scorer
	counter    *usage.Counter
	generator  *coaching.Generator
	aggregator *analytics.Aggregator

	// Configuration
	storeConfig   repository.Config
	storeOpts     []repository.Option
	injected      repository.AssessmentStore
	model         coaching.Model
	coachTimeout  time.Duration
	maxLimit      int
	maxWindowDays int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreConfig selects the store opened by Start.
func WithStoreConfig(cfg repository.Config, opts ...repository.Option) Option {
	return func(s *Service) {
		s.storeConfig = cfg
		s.storeOpts = opts
	}
}

// WithStore uses an already opened store instead of opening one. The caller
// keeps ownership: Stop leaves it open.
func WithStore(store repository.AssessmentStore) Option {
	return func(s *Service) {
		s.injected = store
	}
}

// WithModel sets the coaching language model. Nil means fallback only.
func WithModel(m coaching.Model) Option {
	return func(s *Service) {
		s.model = m
	}
}

// WithCoachTimeout bounds a single model attempt.
func WithCoachTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.coachTimeout = d
		}
	}
}

// WithMaxLimit caps dashboard limit parameters.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithMaxWindowDays caps dashboard days parameters.
func WithMaxWindowDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxWindowDays = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeConfig:   repository.Config{Driver: repository.DriverMemory},
		coachTimeout:  15 * time.Second,
		maxLimit:      analytics.DefaultMaxLimit,
		maxWindowDays: analytics.DefaultMaxWindowDays,
		logger:        nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store, restores the usage counters and builds the domain
// components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting assessment service...")

	if s.injected != nil {
		s.store = s.injected
	} else {
		store, err := repository.Open(ctx, s.storeConfig, s.storeOpts...)
		if err != nil {
			return fmt.Errorf("open %s store: %w", s.storeConfig.Driver, err)
		}
		s.store = store
		s.logger.Info(ctx, "assessment store opened", logger.String("driver", s.storeConfig.Driver))
	}

	s.counter = usage.NewCounter(
		usage.WithSink(s.store),
		usage.WithLogger(s.logger.Named("usage")),
	)
	if err := s.counter.Seed(ctx, s.store); err != nil {
		s.releaseStore(ctx)
		return err
	}

	s.scorer = scoring.NewEngine()
	s.generator = coaching.NewGenerator(s.counter,
		coaching.WithModel(s.model),
		coaching.WithTimeout(s.coachTimeout),
		coaching.WithScorer(s.scorer),
		coaching.WithLogger(s.logger.Named("coaching")),
	)
	s.aggregator = analytics.NewAggregator(s.store, s.counter,
		analytics.WithMaxLimit(s.maxLimit),
		analytics.WithMaxWindowDays(s.maxWindowDays),
	)

	modelName := "none"
	if s.model != nil {
		modelName = s.model.Name()
	}
	snap := s.counter.Snapshot()
	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.String("model", modelName),
		logger.Duration("coachTimeout", s.coachTimeout),
		logger.Int64("modelUsage", snap.Model),
		logger.Int64("fallbackUsage", snap.Fallback),
	)

	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping assessment service...")

	s.releaseStore(context.Background())

	s.started = false
	s.logger.Info(context.Background(), "assessment service stopped")
}

// releaseStore closes the store if the service opened it and forgets it
// either way, so the next Start begins from a usable store.
func (s *Service) releaseStore(ctx context.Context) {
	if s.store != nil && s.store != s.injected {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "failed to close store", logger.Error(err))
		}
	}
	s.store = nil
}

// components returns the running components or ErrNotStarted.
func (s *Service) components() (repository.AssessmentStore, scoring.Scorer, *analytics.Aggregator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.store, s.scorer, s.aggregator, nil
}

// Assess validates, scores and persists one assessment. The result is only
// returned once the record is durably stored.
func (s *Service) Assess(ctx context.Context, in model.AssessmentInput) (model.AssessmentResult, error) {
	store, scorer, _, err := s.components()
	if err != nil {
		return model.AssessmentResult{}, err
	}
	if err := in.Validate(); err != nil {
		return model.AssessmentResult{}, err
	}

	start := time.Now()
	res := scorer.Score(in)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)

	rec, err := store.Append(ctx, in, res)
	if err != nil {
		s.logger.Error(ctx, "failed to persist assessment", logger.Error(err))
		metrics.RecordErrorByComponent("service", "persistence")
		return model.AssessmentResult{}, err
	}

	metrics.RecordAssessment(string(res.RiskLevel), res.RiskScore)
	s.logger.Debug(ctx, "assessment persisted",
		logger.Int64("id", rec.ID),
		logger.Int("riskScore", res.RiskScore),
		logger.String("riskLevel", string(res.RiskLevel)),
	)
	return res, nil
}

// Coach returns a coaching plan for in. It never fails once started; before
// Start it answers with the fallback plan without counting usage.
func (s *Service) Coach(ctx context.Context, in model.AssessmentInput, res *model.AssessmentResult) model.CoachingPlan {
	s.mu.RLock()
	gen, started := s.generator, s.started
	s.mu.RUnlock()
	if !started {
		result := scoring.NewEngine().Score(in)
		if res != nil {
			result = *res
		}
		return coaching.FallbackOutcome{Plan: coaching.Fallback(in, result), Reason: ErrNotStarted}.CoachingPlan()
	}
	return gen.Generate(ctx, in, res)
}

// Summary returns the total and mean score of all assessments.
func (s *Service) Summary(ctx context.Context) (types.Summary, error) {
	_, _, agg, err := s.components()
	if err != nil {
		return types.Summary{}, err
	}
	return agg.Summary(ctx)
}

// RiskDistribution counts assessments per risk level.
func (s *Service) RiskDistribution(ctx context.Context) (types.RiskDistribution, error) {
	_, _, agg, err := s.components()
	if err != nil {
		return types.RiskDistribution{}, err
	}
	return agg.RiskDistribution(ctx)
}

// TopPainLocations returns the most reported pain locations.
func (s *Service) TopPainLocations(ctx context.Context, limit int) ([]types.KeyCount, error) {
	_, _, agg, err := s.components()
	if err != nil {
		return nil, err
	}
	return agg.TopPainLocations(ctx, limit)
}

// Recent returns the newest assessments.
func (s *Service) Recent(ctx context.Context, limit int) ([]types.RecentAssessment, error) {
	_, _, agg, err := s.components()
	if err != nil {
		return nil, err
	}
	return agg.Recent(ctx, limit)
}

// AIUsage returns the coaching usage counters.
func (s *Service) AIUsage(ctx context.Context) (types.AIUsage, error) {
	_, _, agg, err := s.components()
	if err != nil {
		return types.AIUsage{}, err
	}
	return agg.AIUsage(ctx)
}

// RiskTrend returns the daily mean score over the window.
func (s *Service) RiskTrend(ctx context.Context, days int) ([]types.TrendPoint, error) {
	_, _, agg, err := s.components()
	if err != nil {
		return nil, err
	}
	return agg.RiskTrend(ctx, days)
}

// TopFactors counts top-factor categories over the window.
func (s *Service) TopFactors(ctx context.Context, limit, days int) ([]types.KeyCount, error) {
	_, _, agg, err := s.components()
	if err != nil {
		return nil, err
	}
	return agg.TopFactors(ctx, limit, days)
}

// AvgBreakdown averages category contributions over the window.
func (s *Service) AvgBreakdown(ctx context.Context, days int) (types.Breakdown, error) {
	_, _, agg, err := s.components()
	if err != nil {
		return nil, err
	}
	return agg.AvgBreakdown(ctx, days)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"storeDriver": s.storeConfig.Driver,
		"hasModel":    s.model != nil,
	}

	if s.started {
		if total, err := s.store.Count(context.Background()); err == nil {
			stats["totalAssessments"] = total
			metrics.UpdateRepositoryRecordsTotal(total)
		}
		snap := s.counter.Snapshot()
		stats["modelUsage"] = snap.Model
		stats["fallbackUsage"] = snap.Fallback
	}

	return stats
}
