package model

// CoachingMode records which path produced a coaching plan.
type CoachingMode string

// Coaching modes.
const (
	ModeModel    CoachingMode = "model"
	ModeFallback CoachingMode = "fallback"
)

// SevenDayPlan groups the adjustments for the coming week.
type SevenDayPlan struct {
	Keep   []string `json:"keep"`
	Reduce []string `json:"reduce"`
	Add    []string `json:"add"`
}

// Empty reports whether the plan has no items at all.
func (p SevenDayPlan) Empty() bool {
	return len(p.Keep) == 0 && len(p.Reduce) == 0 && len(p.Add) == 0
}

// CoachingPlan is the structured weekly plan returned by POST /ai/coach.
// It is not persisted.
type CoachingPlan struct {
	RiskLevelSummary string       `json:"risk_level_summary"`
	TopDrivers       []string     `json:"top_drivers"`
	SevenDayPlan     SevenDayPlan `json:"seven_day_plan"`
	RedFlags         []string     `json:"red_flags"`
	Mode             CoachingMode `json:"mode"`
	ModelUsed        string       `json:"model_used"`
	RawText          string       `json:"raw_text,omitempty"`
}
