package coaching

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/liftguard/internal/domain/model"
)

const promptHeader = `You are a strength coach reviewing an athlete's injury-risk assessment.
Reply with a single JSON object and nothing else, using exactly these keys:
{
  "risk_level_summary": string,
  "top_drivers": [string],
  "seven_day_plan": {"keep": [string], "reduce": [string], "add": [string]},
  "red_flags": [string]
}
Keep each item to one short, concrete sentence. Do not diagnose injuries.`

// buildPrompt renders the model prompt for in and its score.
func buildPrompt(in model.AssessmentInput, res model.AssessmentResult) (string, error) {
	inJSON, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}
	resJSON, err := json.Marshal(struct {
		RiskScore      int                    `json:"risk_score"`
		RiskLevel      model.RiskLevel        `json:"risk_level"`
		TopFactors     []string               `json:"top_factors"`
		ScoreBreakdown map[model.Category]int `json:"score_breakdown"`
	}{res.RiskScore, res.RiskLevel, res.TopFactors, res.ScoreBreakdown})
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nAssessment input:\n")
	b.Write(inJSON)
	b.WriteString("\n\nRule-based score:\n")
	b.Write(resJSON)
	b.WriteString("\n")
	return b.String(), nil
}
