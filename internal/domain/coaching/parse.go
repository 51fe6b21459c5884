package coaching

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/liftguard/internal/domain/model"
)

// parsePlan decodes a model reply into a plan. Models often wrap JSON in prose
// or code fences, so only the outermost {...} block is considered. Any missing
// or mistyped field rejects the whole reply.
func parsePlan(raw string) (model.CoachingPlan, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return model.CoachingPlan{}, fmt.Errorf("%w: no JSON object in reply", ErrModelParse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return model.CoachingPlan{}, fmt.Errorf("%w: %v", ErrModelParse, err)
	}

	var plan model.CoachingPlan
	if err := requireField(fields, "risk_level_summary", &plan.RiskLevelSummary); err != nil {
		return model.CoachingPlan{}, err
	}
	if strings.TrimSpace(plan.RiskLevelSummary) == "" {
		return model.CoachingPlan{}, fmt.Errorf("%w: empty risk_level_summary", ErrModelParse)
	}
	if err := requireField(fields, "top_drivers", &plan.TopDrivers); err != nil {
		return model.CoachingPlan{}, err
	}
	if err := requireField(fields, "red_flags", &plan.RedFlags); err != nil {
		return model.CoachingPlan{}, err
	}

	var week map[string]json.RawMessage
	if err := requireField(fields, "seven_day_plan", &week); err != nil {
		return model.CoachingPlan{}, err
	}
	for key, dst := range map[string]*[]string{
		"keep":   &plan.SevenDayPlan.Keep,
		"reduce": &plan.SevenDayPlan.Reduce,
		"add":    &plan.SevenDayPlan.Add,
	} {
		if err := requireField(week, key, dst); err != nil {
			return model.CoachingPlan{}, fmt.Errorf("seven_day_plan: %w", err)
		}
	}
	if plan.SevenDayPlan.Empty() {
		return model.CoachingPlan{}, fmt.Errorf("%w: empty seven_day_plan", ErrModelParse)
	}
	return plan, nil
}

// requireField decodes fields[key] into dst, rejecting absent and null values.
func requireField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fmt.Errorf("%w: missing %s", ErrModelParse, key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrModelParse, key, err)
	}
	return nil
}
