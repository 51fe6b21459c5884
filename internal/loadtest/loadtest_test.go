package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/liftguard/internal/adapters/http/api"
	service "github.com/okian/liftguard/internal/app"
	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/internal/domain/types"
	"github.com/okian/liftguard/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func startStack(ctx context.Context) (*httptest.Server, func()) {
	svc := service.New()
	So(svc.Start(ctx), ShouldBeNil)

	mux := http.NewServeMux()
	srv := api.NewServer(svc)
	srv.Register(ctx, mux)
	ts := httptest.NewServer(srv.Handler(mux))
	return ts, func() {
		ts.Close()
		svc.Stop()
	}
}

func TestRandomInput(t *testing.T) {
	Convey("Given many generated inputs", t, func() {
		Convey("Then every one passes validation", func() {
			for i := 0; i < 500; i++ {
				in := randomInput()
				So(in.Validate(), ShouldBeNil)
				So(in.TrainingDaysPerWeek+in.RestDaysPerWeek, ShouldEqual, model.MaxTrainingDays)
				if in.PainScore == 0 {
					So(in.PainLocation, ShouldEqual, model.PainNone)
				} else {
					So(in.PainLocation, ShouldNotEqual, model.PainNone)
				}
			}
		})
	})
}

func TestVerifyNewestFirst(t *testing.T) {
	Convey("Given recent rows", t, func() {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		Convey("Then descending rows pass", func() {
			rows := []types.RecentAssessment{
				{ID: 3, CreatedAt: now},
				{ID: 2, CreatedAt: now},
				{ID: 1, CreatedAt: now.Add(-time.Minute)},
			}
			So(verifyNewestFirst(rows), ShouldBeNil)
			So(verifyNewestFirst(nil), ShouldBeNil)
		})

		Convey("Then an older row before a newer one fails", func() {
			rows := []types.RecentAssessment{
				{ID: 1, CreatedAt: now.Add(-time.Minute)},
				{ID: 2, CreatedAt: now},
			}
			So(errors.Is(verifyNewestFirst(rows), ErrVerification), ShouldBeTrue)
		})

		Convey("Then a tie with ascending ids fails", func() {
			rows := []types.RecentAssessment{{ID: 1, CreatedAt: now}, {ID: 2, CreatedAt: now}}
			So(errors.Is(verifyNewestFirst(rows), ErrVerification), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		ts, stop := startStack(ctx)
		defer stop()

		Convey("When a load test runs against it", func() {
			out := filepath.Join(t.TempDir(), "inputs", "run.json")
			stats, err := Run(ctx, &Config{
				BaseURL:     ts.URL,
				Assessments: 40,
				Workers:     4,
				Timeout:     5 * time.Second,
				OutputFile:  out,
			})

			Convey("Then every assessment is accepted and verified", func() {
				So(err, ShouldBeNil)
				So(stats.RunID, ShouldNotBeEmpty)
				So(stats.Accepted, ShouldEqual, 40)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.FinalTotal-stats.BaseTotal, ShouldEqual, 40)

				levels := 0
				for _, n := range stats.ByRiskLevel {
					levels += n
				}
				So(levels, ShouldEqual, 40)
			})

			Convey("Then the generated inputs are saved", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved []model.AssessmentInput
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved, ShouldHaveLength, 40)
			})
		})

		Convey("When the count is not positive", func() {
			_, err := Run(ctx, &Config{BaseURL: ts.URL})

			Convey("Then the run is refused", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given no service at the address", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		Convey("Then the health check fails", func() {
			_, err := Run(context.Background(), &Config{BaseURL: url, Assessments: 1, Timeout: time.Second})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}
