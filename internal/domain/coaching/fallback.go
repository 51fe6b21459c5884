package coaching

import (
	"fmt"
	"strings"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/internal/domain/scoring"
)

// FallbackModelName identifies plans produced by the rule-based generator.
const FallbackModelName = "rules-v1"

// reduceThreshold splits categories between the reduce and keep lists.
const reduceThreshold = 10

var reduceText = map[model.Category]string{
	model.CategoryPain:       "Cut load on the painful area; swap aggravating lifts for pain-free variations.",
	model.CategoryVolume:     "Reduce weekly sets by 20-30% this week.",
	model.CategoryIntensity:  "Cap working sets at RPE 7 and stop 2-3 reps short of failure.",
	model.CategorySleep:      "Reduce late-evening training and screen time to protect sleep.",
	model.CategoryRest:       "Reduce training days by one this week.",
	model.CategoryExperience: "Hold load progression and repeat last week's weights with cleaner technique.",
}

var keepText = map[model.Category]string{
	model.CategoryPain:       "Keep pain-free exercises as they are and keep monitoring symptoms.",
	model.CategoryVolume:     "Keep weekly volume at its current level.",
	model.CategoryIntensity:  "Keep intensity where it is.",
	model.CategorySleep:      "Keep your current sleep routine.",
	model.CategoryRest:       "Keep your current rest-day schedule.",
	model.CategoryExperience: "Keep progressing gradually with good technique.",
}

// keepLowText covers categories that contribute but stay below reduceThreshold.
var keepLowText = map[model.Category]string{
	model.CategoryPain:       "Keep training around the sore area light and pain-free.",
	model.CategoryVolume:     "Keep weekly sets at or below the current level.",
	model.CategoryIntensity:  "Keep intensity at the current level; do not push heavier.",
	model.CategorySleep:      "Keep protecting sleep and aim a little longer than now.",
	model.CategoryRest:       "Keep rest days spread evenly through the week.",
	model.CategoryExperience: "Keep load increases small while technique settles.",
}

// Fallback builds the deterministic plan for in and its score.
func Fallback(in model.AssessmentInput, res model.AssessmentResult) model.CoachingPlan {
	plan := model.CoachingPlan{
		RiskLevelSummary: summarize(res),
		TopDrivers:       append([]string{}, res.TopFactors...),
		SevenDayPlan: model.SevenDayPlan{
			Keep:   []string{},
			Reduce: []string{},
		},
		RedFlags: RedFlags(in),
	}

	ranked := scoring.TopCategories(res.ScoreBreakdown, -1)
	for _, c := range ranked {
		if res.ScoreBreakdown[c] >= reduceThreshold {
			plan.SevenDayPlan.Reduce = append(plan.SevenDayPlan.Reduce, reduceText[c])
		}
	}
	for _, c := range model.CategoryPriority {
		pts := res.ScoreBreakdown[c]
		switch {
		case pts == 0:
			plan.SevenDayPlan.Keep = append(plan.SevenDayPlan.Keep, keepText[c])
		case pts < reduceThreshold:
			plan.SevenDayPlan.Keep = append(plan.SevenDayPlan.Keep, keepLowText[c])
		}
	}
	plan.SevenDayPlan.Add = recoveryActions(in, res)
	return plan
}

func summarize(res model.AssessmentResult) string {
	top := scoring.TopCategories(res.ScoreBreakdown, 2)
	if len(top) == 0 {
		return fmt.Sprintf("%s risk (%d/100) with no major drivers.", titleCase(string(res.RiskLevel)), res.RiskScore)
	}
	names := make([]string, len(top))
	for i, c := range top {
		names[i] = string(c)
	}
	return fmt.Sprintf("%s risk (%d/100), driven mainly by %s.",
		titleCase(string(res.RiskLevel)), res.RiskScore, strings.Join(names, " and "))
}

func recoveryActions(in model.AssessmentInput, res model.AssessmentResult) []string {
	var add []string
	if res.ScoreBreakdown[model.CategoryRest] > 0 && in.RestDaysPerWeek <= 1 {
		add = append(add, "Add one full rest day this week.")
	}
	if res.ScoreBreakdown[model.CategorySleep] > 0 {
		add = append(add, "Add a fixed bedtime and a 30-minute wind-down to reach 7-9 hours of sleep.")
	}
	if in.PainScore >= 4 && in.PainLocation != model.PainNone {
		add = append(add, fmt.Sprintf("Add 10 minutes of pain-free mobility work for the %s on training days.", in.PainLocation.Label()))
	}
	if res.ScoreBreakdown[model.CategoryIntensity] > 0 || res.ScoreBreakdown[model.CategoryVolume] > 0 {
		add = append(add, "Add an easy technique-focused session in place of one hard session.")
	}
	return append(add, "Add a short log after each session noting pain and effort (RPE).")
}

// RedFlags returns the hard-threshold warnings for in. They apply in every mode.
func RedFlags(in model.AssessmentInput) []string {
	flags := []string{}
	if in.PainScore >= 8 {
		flags = append(flags, fmt.Sprintf("Pain score of %d/10: stop aggravating movements and get a medical evaluation if it persists.", in.PainScore))
	}
	if in.PainScore >= 4 && in.PainLocation == model.PainLowerBack {
		flags = append(flags, "Lower back pain under load: avoid heavy spinal loading until it settles.")
	}
	if in.SleepHours < 5 {
		flags = append(flags, "Less than 5 hours of sleep: skip high-intensity work until sleep recovers.")
	}
	return flags
}

// mergeRedFlags appends required flags missing from the model's list.
func mergeRedFlags(fromModel, required []string) []string {
	out := append([]string{}, fromModel...)
	seen := make(map[string]struct{}, len(out))
	for _, f := range out {
		seen[f] = struct{}{}
	}
	for _, f := range required {
		if _, ok := seen[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
