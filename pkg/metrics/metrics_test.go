package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// gathered returns the value of the series name{label=value} in registry.
func gathered(registry prometheus.Gatherer, name, label, value string) float64 {
	families, err := registry.Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					if c := m.GetCounter(); c != nil {
						return c.GetValue()
					}
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	return 0
}

func TestMetricsOptions(t *testing.T) {
	Convey("Given a manager built with options", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithHistogramBuckets([]float64{1, 10, 100}),
			WithConstLabels(map[string]string{"env": "test"}),
			WithPrometheusRegistry(registry),
		)

		Convey("Then options are applied", func() {
			So(m.namespace, ShouldEqual, "test")
			So(m.subsystem, ShouldEqual, "unit")
			So(m.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
		})

		Convey("Then metrics carry the namespace and constant labels", func() {
			m.assessmentsTotal.WithLabelValues("low").Inc()
			So(gathered(registry, "test_unit_assessments_total", "env", "test"), ShouldEqual, 1)
		})

		Convey("Then empty option values keep defaults", func() {
			d := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()))
			So(d.namespace, ShouldEqual, "liftguard")
			So(d.subsystem, ShouldEqual, "api")
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		registry := GetRegistry()

		Convey("When recording assessments", func() {
			before := gathered(registry, "liftguard_api_assessments_total", "risk_level", "high")
			RecordAssessment("high", 82)
			RecordAssessment("high", 91)

			Convey("Then the per-level counter grows", func() {
				So(gathered(registry, "liftguard_api_assessments_total", "risk_level", "high"), ShouldEqual, before+2)
			})
		})

		Convey("When mirroring the usage counter", func() {
			UpdateAIUsage("fallback", 7)

			Convey("Then the gauge holds the value", func() {
				So(gathered(registry, "liftguard_api_ai_usage", "mode", "fallback"), ShouldEqual, 7)
			})
		})

		Convey("When recording coaching and repository metrics", func() {
			So(func() {
				RecordCoaching("model")
				RecordCoachingFallback("timeout")
				RecordModelLatency("llama3.1", "ok", 120)
				RecordUsagePersistError()
				RecordAnalyticsLatency("summary", 2)
				RecordValidationRejection("rpe")
				RecordScoringLatency(0.2)
				UpdateRepositoryRecordsTotal(10)
				RecordRepositoryAppendLatency("memory", 0.1)
				RecordRepositoryQueryLatency("sqlite", "scan", 3)
				RecordHTTPRequest("/assess", "POST", "200")
				RecordHTTPRequestDuration("/assess", "POST", "200", 4)
				RecordErrorByComponent("coaching", "timeout")
				RecordErrorByEndpoint("/assess", "POST", "bad_request")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then labelled series are exposed", func() {
				So(gathered(registry, "liftguard_api_coaching_fallback_total", "reason", "timeout"), ShouldBeGreaterThanOrEqualTo, 1)
				So(gathered(registry, "liftguard_api_errors_by_component_total", "component", "coaching"), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}
