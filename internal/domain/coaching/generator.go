// Package coaching produces weekly training plans from an assessment, using a
// language model when one answers in time and a rule-based plan otherwise.
package coaching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/internal/domain/scoring"
	"github.com/okian/liftguard/pkg/logger"
	"github.com/okian/liftguard/pkg/metrics"
)

const defaultTimeout = 15 * time.Second

// Model is a text-completion backend.
type Model interface {
	// Generate returns the raw reply to prompt. It must return promptly once
	// ctx is done.
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the model in plans and metrics.
	Name() string
}

// UsageRecorder counts coaching requests by mode.
type UsageRecorder interface {
	Record(ctx context.Context, mode model.CoachingMode)
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithModel sets the language model. Without one every plan is a fallback.
func WithModel(m Model) Option {
	return func(g *Generator) { g.model = m }
}

// WithTimeout bounds a single model attempt.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithScorer sets the engine used when the caller supplies no result.
func WithScorer(s scoring.Scorer) Option {
	return func(g *Generator) {
		if s != nil {
			g.scorer = s
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// Generator turns an assessment into a CoachingPlan. It never fails: model
// errors, timeouts and malformed replies all end in the fallback plan.
type Generator struct {
	model   Model
	timeout time.Duration
	scorer  scoring.Scorer
	usage   UsageRecorder
	log     logger.Logger
}

// NewGenerator creates a generator that records every request on usage.
func NewGenerator(usage UsageRecorder, opts ...Option) *Generator {
	g := &Generator{
		timeout: defaultTimeout,
		scorer:  scoring.NewEngine(),
		usage:   usage,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.Named("coaching")
	}
	return g
}

// Timeout returns the bound on a single model attempt.
func (g *Generator) Timeout() time.Duration { return g.timeout }

// Generate returns a plan for in. res may be nil, in which case in is scored
// first. Exactly one usage increment happens per call.
func (g *Generator) Generate(ctx context.Context, in model.AssessmentInput, res *model.AssessmentResult) model.CoachingPlan {
	var result model.AssessmentResult
	if res != nil {
		result = *res
	} else {
		result = g.scorer.Score(in)
	}

	outcome := g.Attempt(ctx, in, result)
	plan := outcome.CoachingPlan()

	switch o := outcome.(type) {
	case ModelOutcome:
		g.log.Info(ctx, "coaching plan generated by model", logger.String("model", plan.ModelUsed))
	case FallbackOutcome:
		reason := fallbackReason(o.Reason)
		metrics.RecordCoachingFallback(reason)
		g.log.Warn(ctx, "coaching fell back to rules",
			logger.String("reason", reason), logger.Error(o.Reason))
	}

	metrics.RecordCoaching(string(plan.Mode))
	if g.usage != nil {
		g.usage.Record(ctx, plan.Mode)
	}
	return plan
}

// Attempt runs one bounded model attempt and returns the tagged outcome.
// It has no side effects beyond latency metrics.
func (g *Generator) Attempt(ctx context.Context, in model.AssessmentInput, res model.AssessmentResult) Outcome {
	fallback := func(reason error) Outcome {
		return FallbackOutcome{Plan: Fallback(in, res), Reason: reason}
	}
	if g.model == nil {
		return fallback(fmt.Errorf("%w: %w", ErrModelUnavailable, errNoModel))
	}

	prompt, err := buildPrompt(in, res)
	if err != nil {
		return fallback(fmt.Errorf("%w: %v", ErrModelUnavailable, err))
	}

	start := time.Now()
	raw, err := g.ask(ctx, prompt)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordModelLatency(g.model.Name(), fallbackReason(err), latency)
		return fallback(err)
	}

	plan, err := parsePlan(raw)
	if err != nil {
		metrics.RecordModelLatency(g.model.Name(), "parse", latency)
		return fallback(err)
	}
	metrics.RecordModelLatency(g.model.Name(), "ok", latency)

	plan.RedFlags = mergeRedFlags(plan.RedFlags, RedFlags(in))
	plan.ModelUsed = g.model.Name()
	return ModelOutcome{Plan: plan, RawText: raw}
}

type reply struct {
	text string
	err  error
}

// ask calls the model in its own goroutine and gives up when the timeout
// fires. The model's context is cancelled on return, and the buffered channel
// lets an abandoned call finish without blocking.
func (g *Generator) ask(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		text, err := g.model.Generate(ctx, prompt)
		done <- reply{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.text, nil
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %v", ErrModelTimeout, g.timeout, r.err)
		}
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, r.err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrModelTimeout, g.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, ctx.Err())
	}
}
