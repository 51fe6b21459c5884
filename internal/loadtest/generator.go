package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/pkg/logger"
)

var (
	painLocations = []model.PainLocation{
		model.PainNone, model.PainShoulder, model.PainWrist, model.PainElbow,
		model.PainKnee, model.PainLowerBack, model.PainOther,
	}
	experienceLevels = []model.ExperienceLevel{model.Beginner, model.Intermediate, model.Advanced}
)

// randIntn returns a uniform integer in [0, n) using crypto/rand.
func randIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// between returns a uniform integer in [lo, hi].
func between(lo, hi int) int {
	return lo + randIntn(hi-lo+1)
}

// generateInputs creates n random assessment inputs within every field's
// accepted range.
func generateInputs(ctx context.Context, n int, stats *Stats) ([]model.AssessmentInput, error) {
	logger.Get().Info(ctx, "generating assessment inputs", logger.Int("count", n))

	inputs := make([]model.AssessmentInput, n)
	for i := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		inputs[i] = randomInput()
	}

	stats.Generated = len(inputs)
	return inputs, nil
}

// randomInput draws one valid input. Pain location is none whenever the
// pain score is zero, as a real athlete would report it.
func randomInput() model.AssessmentInput {
	training := between(0, model.MaxTrainingDays)
	in := model.AssessmentInput{
		TrainingDaysPerWeek: training,
		RestDaysPerWeek:     model.MaxTrainingDays - training,
		SessionMinutes:      between(20, 150),
		WeeklySets:          between(10, 200),
		RPE:                 between(model.MinRPE, model.MaxRPE),
		SleepHours:          float64(between(8, 20)) * model.SleepHoursStep,
		PainScore:           between(0, model.MaxPainScore),
		PainLocation:        model.PainNone,
		ExperienceLevel:     experienceLevels[randIntn(len(experienceLevels))],
	}
	if in.PainScore > 0 {
		in.PainLocation = painLocations[between(1, len(painLocations)-1)]
	}
	return in
}
