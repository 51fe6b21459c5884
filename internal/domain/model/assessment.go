// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strings"
	"time"
)

// Input bounds.
const (
	MaxTrainingDays   = 7
	MaxRestDays       = 7
	MaxSessionMinutes = 300
	MaxWeeklySets     = 300
	MinRPE            = 1
	MaxRPE            = 10
	MaxSleepHours     = 16.0
	SleepHoursStep    = 0.5
	MaxPainScore      = 10
)

// PainLocation names the body region where pain is reported.
type PainLocation string

// Pain locations accepted by the assessment form.
const (
	PainNone      PainLocation = "none"
	PainShoulder  PainLocation = "shoulder"
	PainWrist     PainLocation = "wrist"
	PainElbow     PainLocation = "elbow"
	PainKnee      PainLocation = "knee"
	PainLowerBack PainLocation = "lower_back"
	PainOther     PainLocation = "other"
)

// Valid reports whether l is one of the known locations.
func (l PainLocation) Valid() bool {
	switch l {
	case PainNone, PainShoulder, PainWrist, PainElbow, PainKnee, PainLowerBack, PainOther:
		return true
	}
	return false
}

// Label renders the location for human-readable text ("lower_back" -> "lower back").
func (l PainLocation) Label() string {
	return strings.ReplaceAll(string(l), "_", " ")
}

// ExperienceLevel is the athlete's self-reported training experience.
type ExperienceLevel string

// Experience levels.
const (
	Beginner     ExperienceLevel = "beginner"
	Intermediate ExperienceLevel = "intermediate"
	Advanced     ExperienceLevel = "advanced"
)

// Valid reports whether e is one of the known levels.
func (e ExperienceLevel) Valid() bool {
	switch e {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// RiskLevel is the coarse bucket derived from a risk score.
type RiskLevel string

// Risk levels and their lower score bounds.
const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"

	ModerateThreshold = 35
	HighThreshold     = 70
)

// RiskLevelFor maps a score in [0,100] to its level.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score >= HighThreshold:
		return RiskHigh
	case score >= ModerateThreshold:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Category is one of the six scoring dimensions.
type Category string

// Scoring categories.
const (
	CategoryPain       Category = "pain"
	CategoryVolume     Category = "volume"
	CategoryIntensity  Category = "intensity"
	CategorySleep      Category = "sleep"
	CategoryRest       Category = "rest"
	CategoryExperience Category = "experience"
)

// CategoryPriority lists categories in tie-break order, highest priority first.
var CategoryPriority = []Category{
	CategoryPain,
	CategoryVolume,
	CategoryIntensity,
	CategoryRest,
	CategorySleep,
	CategoryExperience,
}

// PriorityOf returns the tie-break rank of c (0 is highest). Unknown categories sort last.
func PriorityOf(c Category) int {
	for i, p := range CategoryPriority {
		if p == c {
			return i
		}
	}
	return len(CategoryPriority)
}

// AssessmentInput is one submitted set of training and recovery metrics.
type AssessmentInput struct {
	TrainingDaysPerWeek int             `json:"training_days_per_week"`
	RestDaysPerWeek     int             `json:"rest_days_per_week"`
	SessionMinutes      int             `json:"session_minutes"`
	WeeklySets          int             `json:"weekly_sets"`
	RPE                 int             `json:"rpe"`
	SleepHours          float64         `json:"sleep_hours"`
	PainScore           int             `json:"pain_score"`
	PainLocation        PainLocation    `json:"pain_location"`
	ExperienceLevel     ExperienceLevel `json:"experience_level"`
}

// Validate rejects any field outside its declared bounds. Values are never clamped.
func (in AssessmentInput) Validate() error {
	switch {
	case in.TrainingDaysPerWeek < 0 || in.TrainingDaysPerWeek > MaxTrainingDays:
		return outOfRange("training_days_per_week", 0, MaxTrainingDays)
	case in.RestDaysPerWeek < 0 || in.RestDaysPerWeek > MaxRestDays:
		return outOfRange("rest_days_per_week", 0, MaxRestDays)
	case in.SessionMinutes < 0 || in.SessionMinutes > MaxSessionMinutes:
		return outOfRange("session_minutes", 0, MaxSessionMinutes)
	case in.WeeklySets < 0 || in.WeeklySets > MaxWeeklySets:
		return outOfRange("weekly_sets", 0, MaxWeeklySets)
	case in.RPE < MinRPE || in.RPE > MaxRPE:
		return outOfRange("rpe", MinRPE, MaxRPE)
	case math.IsNaN(in.SleepHours) || in.SleepHours < 0 || in.SleepHours > MaxSleepHours:
		return &ValidationError{Field: "sleep_hours", Reason: "must be between 0 and 16"}
	case math.Mod(in.SleepHours, SleepHoursStep) != 0:
		return &ValidationError{Field: "sleep_hours", Reason: "must be a multiple of 0.5"}
	case in.PainScore < 0 || in.PainScore > MaxPainScore:
		return outOfRange("pain_score", 0, MaxPainScore)
	case !in.PainLocation.Valid():
		return &ValidationError{Field: "pain_location", Reason: "must be one of none, shoulder, wrist, elbow, knee, lower_back, other"}
	case !in.ExperienceLevel.Valid():
		return &ValidationError{Field: "experience_level", Reason: "must be one of beginner, intermediate, advanced"}
	}
	return nil
}

// AssessmentResult is the scoring engine's output for one input.
type AssessmentResult struct {
	RiskScore       int              `json:"risk_score"`
	RiskLevel       RiskLevel        `json:"risk_level"`
	TopFactors      []string         `json:"top_factors"`
	Recommendations []string         `json:"recommendations"`
	ScoreBreakdown  map[Category]int `json:"score_breakdown"`
}

// AssessmentRecord is a persisted assessment. Records are written once and never updated.
type AssessmentRecord struct {
	ID        int64            `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Input     AssessmentInput  `json:"input"`
	Result    AssessmentResult `json:"result"`
}
