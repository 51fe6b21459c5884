// Package scoring computes injury-risk scores from assessment inputs.
//
// The engine is pure: no I/O, no clocks, no randomness. The same input always
// produces an identical result, which lets dashboards be rebuilt from raw inputs.
package scoring

import (
	"fmt"
	"sort"

	"github.com/okian/liftguard/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultTopFactorCount = 3
	maxScoreValue         = 100
)

// Fallback texts used when nothing triggers.
const (
	NoFactorsText      = "No major risk factors detected from provided inputs."
	MaintainPlanAdvice = "Maintain current plan; continue gradual progression and monitor any discomfort."
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTopFactorCount sets how many explanatory factors a result carries.
func WithTopFactorCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topFactorCount = n
		}
	}
}

// Scorer computes an assessment result from validated input.
type Scorer interface {
	Score(in model.AssessmentInput) model.AssessmentResult
}

// Engine implements Scorer with fixed, piecewise category functions.
type Engine struct {
	topFactorCount int
}

// NewEngine creates a scoring engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{topFactorCount: defaultTopFactorCount}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TopFactorCount returns the configured number of top factors.
func (e *Engine) TopFactorCount() int { return e.topFactorCount }

// contribution is one category's share of the score plus the sentence explaining it.
type contribution struct {
	category model.Category
	points   int
	factor   string
}

// Score computes the risk result. Input must already satisfy AssessmentInput.Validate.
func (e *Engine) Score(in model.AssessmentInput) model.AssessmentResult {
	parts := []contribution{
		painContribution(in),
		volumeContribution(in),
		intensityContribution(in),
		sleepContribution(in),
		restContribution(in),
		experienceContribution(in),
	}

	total := 0
	for _, p := range parts {
		total += p.points
	}
	if total > maxScoreValue {
		rescale(parts, total, maxScoreValue)
		total = maxScoreValue
	}

	breakdown := make(map[model.Category]int, len(parts))
	for _, p := range parts {
		breakdown[p.category] = p.points
	}

	return model.AssessmentResult{
		RiskScore:       total,
		RiskLevel:       model.RiskLevelFor(total),
		TopFactors:      e.topFactors(parts),
		Recommendations: recommendations(in),
		ScoreBreakdown:  breakdown,
	}
}

func (e *Engine) topFactors(parts []contribution) []string {
	ranked := make([]contribution, len(parts))
	copy(ranked, parts)
	sortContributions(ranked)

	out := make([]string, 0, e.topFactorCount)
	for _, p := range ranked {
		if p.points <= 0 || len(out) == e.topFactorCount {
			break
		}
		out = append(out, p.factor)
	}
	if len(out) == 0 {
		out = append(out, NoFactorsText)
	}
	return out
}

// TopCategories ranks the contributing categories of a breakdown the same way
// Score ranks top factors, and returns at most n of them.
func TopCategories(breakdown map[model.Category]int, n int) []model.Category {
	ranked := make([]contribution, 0, len(breakdown))
	for c, pts := range breakdown {
		if pts > 0 {
			ranked = append(ranked, contribution{category: c, points: pts})
		}
	}
	sortContributions(ranked)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]model.Category, len(ranked))
	for i, p := range ranked {
		out[i] = p.category
	}
	return out
}

// sortContributions orders by points desc, then by category priority.
func sortContributions(parts []contribution) {
	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].points != parts[j].points {
			return parts[i].points > parts[j].points
		}
		return model.PriorityOf(parts[i].category) < model.PriorityOf(parts[j].category)
	})
}

// rescale shrinks contributions proportionally so they sum to target, using
// the largest-remainder method. Ties on remainder go to the higher-priority
// category. Nonzero contributions stay nonzero: the smallest is 3 points and the
// raw sum never exceeds 149.
func rescale(parts []contribution, total, target int) {
	remainders := make([]int, len(parts))
	assigned := 0
	for i := range parts {
		scaled := parts[i].points * target
		parts[i].points = scaled / total
		remainders[i] = scaled % total
		assigned += parts[i].points
	}

	order := make([]int, len(parts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := remainders[order[a]], remainders[order[b]]
		if ra != rb {
			return ra > rb
		}
		return model.PriorityOf(parts[order[a]].category) < model.PriorityOf(parts[order[b]].category)
	})

	for k := 0; assigned < target && k < len(order); k++ {
		parts[order[k]].points++
		assigned++
	}
}

// painAmplifier returns the extra points for locations that tolerate load poorly.
func painAmplifier(loc model.PainLocation) int {
	switch loc {
	case model.PainLowerBack:
		return 15
	case model.PainKnee, model.PainShoulder:
		return 10
	case model.PainElbow, model.PainWrist:
		return 5
	default:
		return 0
	}
}

func painContribution(in model.AssessmentInput) contribution {
	c := contribution{category: model.CategoryPain}
	var band string
	switch {
	case in.PainScore >= 9:
		c.points, band = 60, "Severe pain score reported (9-10)"
	case in.PainScore >= 7:
		c.points, band = 45, "High pain score reported (7-8)"
	case in.PainScore >= 4:
		c.points, band = 25, "Moderate pain score reported (4-6)"
	case in.PainScore >= 1:
		c.points, band = 10, "Mild pain score reported (1-3)"
	default:
		return c
	}
	if in.PainScore >= 4 {
		if amp := painAmplifier(in.PainLocation); amp > 0 {
			c.points += amp
			c.factor = fmt.Sprintf("%s at the %s.", band, in.PainLocation.Label())
			return c
		}
	}
	c.factor = band + "."
	return c
}

func volumeContribution(in model.AssessmentInput) contribution {
	c := contribution{category: model.CategoryVolume}
	switch {
	case in.WeeklySets >= 120:
		c.points, c.factor = 20, "Very high weekly training volume (sets)."
	case in.WeeklySets >= 80:
		c.points, c.factor = 12, "High weekly training volume (sets)."
	}
	// Session length only matters when the athlete actually trains.
	if in.TrainingDaysPerWeek > 0 {
		extra := 0
		switch {
		case in.SessionMinutes >= 120:
			extra = 6
		case in.SessionMinutes >= 90:
			extra = 3
		}
		if extra > 0 {
			c.points += extra
			if c.factor == "" {
				c.factor = "Long training sessions (90+ minutes)."
			}
		}
	}
	return c
}

func intensityContribution(in model.AssessmentInput) contribution {
	c := contribution{category: model.CategoryIntensity}
	switch {
	case in.RPE >= 9:
		c.points, c.factor = 18, "Very high intensity (RPE 9-10)."
	case in.RPE >= 7:
		c.points, c.factor = 10, "High intensity (RPE 7-8)."
	}
	return c
}

func sleepContribution(in model.AssessmentInput) contribution {
	c := contribution{category: model.CategorySleep}
	switch {
	case in.SleepHours < 6:
		c.points, c.factor = 12, "Low sleep duration (<6 hours)."
	case in.SleepHours < 7:
		c.points, c.factor = 6, "Below-optimal sleep duration (6-7 hours)."
	}
	return c
}

func tooLittleRest(in model.AssessmentInput) bool {
	return in.RestDaysPerWeek <= 1 && in.TrainingDaysPerWeek >= 5
}

func tooMuchRest(in model.AssessmentInput) bool {
	return in.RestDaysPerWeek >= 5 && in.TrainingDaysPerWeek >= 1 && in.TrainingDaysPerWeek <= 2
}

func restContribution(in model.AssessmentInput) contribution {
	c := contribution{category: model.CategoryRest}
	switch {
	case tooLittleRest(in):
		c.points, c.factor = 10, "Low rest relative to training frequency."
	case tooMuchRest(in):
		c.points, c.factor = 4, "Long gaps between sessions relative to training frequency."
	}
	return c
}

func highLoadBeginner(in model.AssessmentInput) bool {
	return in.ExperienceLevel == model.Beginner && in.RPE >= 8
}

func experienceContribution(in model.AssessmentInput) contribution {
	c := contribution{category: model.CategoryExperience}
	if highLoadBeginner(in) {
		c.points, c.factor = 8, "High intensity for beginner level."
	}
	return c
}

// recommendations evaluates each trigger independently, in a fixed order.
func recommendations(in model.AssessmentInput) []string {
	var recs []string
	if in.PainScore >= 7 {
		recs = append(recs, "Stop aggravating movements and consider consulting a medical professional if pain persists.")
	}
	if in.PainScore >= 9 {
		recs = append(recs, "Severe pain is a red flag: pause training for the affected area and get a medical evaluation before resuming.")
	}
	if in.PainLocation != model.PainNone && in.PainScore >= 4 {
		recs = append(recs, fmt.Sprintf("Modify training to reduce load on the %s and prioritize technique.", in.PainLocation.Label()))
	}
	if in.WeeklySets >= 80 {
		recs = append(recs, "Reduce weekly volume by 10-25% for 1-2 weeks (deload) and reassess symptoms.")
	}
	if in.TrainingDaysPerWeek > 0 && in.SessionMinutes >= 120 {
		recs = append(recs, "Cap sessions at about 90 minutes or split long sessions across the week.")
	}
	if in.RPE >= 8 {
		recs = append(recs, "Lower intensity for the next 3-7 days (aim RPE 6-7) and avoid grinding reps.")
	}
	if in.SleepHours < 7 {
		recs = append(recs, "Aim for 7-9 hours of sleep to improve recovery and reduce injury risk.")
	}
	if tooLittleRest(in) {
		recs = append(recs, "Add 1 additional rest day per week to improve recovery capacity.")
	}
	if tooMuchRest(in) {
		recs = append(recs, "Spread sessions more evenly across the week to avoid long gaps followed by hard sessions.")
	}
	if highLoadBeginner(in) {
		recs = append(recs, "Build intensity gradually as a beginner; prioritize technique over load.")
	}
	if len(recs) == 0 {
		recs = append(recs, MaintainPlanAdvice)
	}
	return recs
}
