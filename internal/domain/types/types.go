// Package types contains the read shapes served by the dashboard endpoints.
package types

import (
	"time"

	"github.com/okian/liftguard/internal/domain/model"
)

// Summary is the response of GET /dashboard/summary.
type Summary struct {
	TotalAssessments int     `json:"total_assessments"`
	AvgRiskScore     float64 `json:"avg_risk_score"`
}

// RiskDistribution counts assessments per risk level.
type RiskDistribution struct {
	Low      int `json:"low"`
	Moderate int `json:"moderate"`
	High     int `json:"high"`
}

// KeyCount is one row of a frequency table.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// RecentAssessment is the compact row returned by GET /dashboard/recent.
type RecentAssessment struct {
	ID           int64              `json:"id"`
	CreatedAt    time.Time          `json:"created_at"`
	RiskScore    int                `json:"risk_score"`
	RiskLevel    model.RiskLevel    `json:"risk_level"`
	PainLocation model.PainLocation `json:"pain_location"`
}

// AIUsage reports how coaching requests were served.
type AIUsage struct {
	Model            int64 `json:"model"`
	Fallback         int64 `json:"fallback"`
	TotalAssessments int   `json:"total_assessments"`
}

// TrendPoint is the per-day aggregate of GET /dashboard/risk_trend.
// Day is formatted as YYYY-MM-DD in UTC.
type TrendPoint struct {
	Day          string  `json:"day"`
	AvgRiskScore float64 `json:"avg_risk_score"`
	Count        int     `json:"count"`
}

// Breakdown maps a category to its average contribution.
type Breakdown map[model.Category]float64
