package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if config.Assessments <= 0 {
		return nil, fmt.Errorf("assessments must be positive, got %d", config.Assessments)
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	stats := &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	client := newHTTPClient(config.Timeout, stats.RunID)

	logger.Get().Info(ctx, "starting assessment load test",
		logger.String("runID", stats.RunID),
		logger.String("baseURL", config.BaseURL),
		logger.Int("assessments", config.Assessments),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	if err := client.Get(ctx, config.BaseURL+"/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	base, err := fetchTotal(ctx, client, config.BaseURL)
	if err != nil {
		return stats, fmt.Errorf("baseline summary failed: %w", err)
	}
	stats.BaseTotal = base

	inputs, err := generateInputs(ctx, config.Assessments, stats)
	if err != nil {
		return stats, fmt.Errorf("input generation failed: %w", err)
	}

	if err := submitAssessments(ctx, config, client, inputs, stats); err != nil {
		return stats, fmt.Errorf("assessment submission failed: %w", err)
	}

	if err := verifyResults(ctx, config, client, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	if config.OutputFile != "" {
		if err := saveInputs(ctx, config.OutputFile, inputs); err != nil {
			logger.Get().Warn(ctx, "failed to save inputs to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return stats, nil
}

// saveInputs writes the generated inputs as an indented JSON array.
func saveInputs(ctx context.Context, filename string, inputs []model.AssessmentInput) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal inputs: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "inputs saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64

	if stats.Submitted > 0 {
		successRate = float64(stats.Accepted) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("runID", stats.RunID),
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("totalBefore", stats.BaseTotal),
		logger.Int("totalAfter", stats.FinalTotal),
		logger.Any("byRiskLevel", stats.ByRiskLevel),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("assessmentsPerSecond", perSecond))
}
