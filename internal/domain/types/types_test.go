package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/liftguard/internal/domain/model"
	types "github.com/okian/liftguard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func keysOf(v any) map[string]any {
	raw, err := json.Marshal(v)
	So(err, ShouldBeNil)
	out := map[string]any{}
	So(json.Unmarshal(raw, &out), ShouldBeNil)
	return out
}

func TestDashboardShapes(t *testing.T) {
	Convey("Given the dashboard read shapes", t, func() {
		Convey("Then summary uses the literal client keys", func() {
			m := keysOf(types.Summary{TotalAssessments: 3, AvgRiskScore: 41.5})
			So(m, ShouldContainKey, "total_assessments")
			So(m, ShouldContainKey, "avg_risk_score")
			So(len(m), ShouldEqual, 2)
		})

		Convey("Then recent rows expose id, created_at, score, level and location", func() {
			m := keysOf(types.RecentAssessment{
				ID:           7,
				CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
				RiskScore:    72,
				RiskLevel:    model.RiskHigh,
				PainLocation: model.PainKnee,
			})
			for _, k := range []string{"id", "created_at", "risk_score", "risk_level", "pain_location"} {
				So(m, ShouldContainKey, k)
			}
			So(m["created_at"], ShouldEqual, "2026-01-02T03:04:05Z")
		})

		Convey("Then ai usage reports model, fallback and total", func() {
			m := keysOf(types.AIUsage{Model: 1, Fallback: 2, TotalAssessments: 3})
			So(m["model"], ShouldEqual, float64(1))
			So(m["fallback"], ShouldEqual, float64(2))
			So(m["total_assessments"], ShouldEqual, float64(3))
		})

		Convey("Then the breakdown is keyed by category name", func() {
			m := keysOf(types.Breakdown{model.CategoryPain: 12.5})
			So(m["pain"], ShouldEqual, 12.5)
		})
	})
}
