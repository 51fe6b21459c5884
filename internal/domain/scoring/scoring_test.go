package scoring_test

import (
	"math/rand"
	"testing"

	"github.com/okian/liftguard/internal/domain/model"
	scoring "github.com/okian/liftguard/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func baseInput() model.AssessmentInput {
	return model.AssessmentInput{
		TrainingDaysPerWeek: 3,
		RestDaysPerWeek:     4,
		SessionMinutes:      45,
		WeeklySets:          40,
		RPE:                 5,
		SleepHours:          8,
		PainScore:           0,
		PainLocation:        model.PainNone,
		ExperienceLevel:     model.Advanced,
	}
}

func randomInput(rng *rand.Rand) model.AssessmentInput {
	locations := []model.PainLocation{
		model.PainNone, model.PainShoulder, model.PainWrist, model.PainElbow,
		model.PainKnee, model.PainLowerBack, model.PainOther,
	}
	levels := []model.ExperienceLevel{model.Beginner, model.Intermediate, model.Advanced}
	return model.AssessmentInput{
		TrainingDaysPerWeek: rng.Intn(8),
		RestDaysPerWeek:     rng.Intn(8),
		SessionMinutes:      rng.Intn(301),
		WeeklySets:          rng.Intn(301),
		RPE:                 1 + rng.Intn(10),
		SleepHours:          float64(rng.Intn(33)) / 2,
		PainScore:           rng.Intn(11),
		PainLocation:        locations[rng.Intn(len(locations))],
		ExperienceLevel:     levels[rng.Intn(len(levels))],
	}
}

func sum(breakdown map[model.Category]int) int {
	total := 0
	for _, v := range breakdown {
		total += v
	}
	return total
}

func TestEngine_Score(t *testing.T) {
	Convey("Given a scoring engine", t, func() {
		engine := scoring.NewEngine()

		Convey("When the input carries no risk signal", func() {
			res := engine.Score(baseInput())

			Convey("Then the score is zero and the defaults are returned", func() {
				So(res.RiskScore, ShouldEqual, 0)
				So(res.RiskLevel, ShouldEqual, model.RiskLow)
				So(res.TopFactors, ShouldResemble, []string{scoring.NoFactorsText})
				So(res.Recommendations, ShouldResemble, []string{scoring.MaintainPlanAdvice})
				So(len(res.ScoreBreakdown), ShouldEqual, 6)
			})
		})

		Convey("When scoring the documented high-load beginner example", func() {
			in := model.AssessmentInput{
				TrainingDaysPerWeek: 6,
				SessionMinutes:      90,
				RPE:                 9,
				WeeklySets:          150,
				RestDaysPerWeek:     1,
				SleepHours:          5,
				PainScore:           7,
				PainLocation:        model.PainKnee,
				ExperienceLevel:     model.Beginner,
			}
			res := engine.Score(in)

			Convey("Then the level is high and every category contributes", func() {
				So(res.RiskLevel, ShouldEqual, model.RiskHigh)
				So(res.RiskScore, ShouldEqual, 100)
				So(res.ScoreBreakdown, ShouldResemble, map[model.Category]int{
					model.CategoryPain:       44,
					model.CategoryVolume:     18,
					model.CategoryIntensity:  14,
					model.CategorySleep:      10,
					model.CategoryRest:       8,
					model.CategoryExperience: 6,
				})
			})

			Convey("And the top factors follow the contributions", func() {
				So(res.TopFactors, ShouldResemble, []string{
					"High pain score reported (7-8) at the knee.",
					"Very high weekly training volume (sets).",
					"Very high intensity (RPE 9-10).",
				})
			})

			Convey("And the recommendations address both rest and pain", func() {
				So(res.Recommendations, ShouldContain, "Add 1 additional rest day per week to improve recovery capacity.")
				So(res.Recommendations, ShouldContain, "Stop aggravating movements and consider consulting a medical professional if pain persists.")
				So(res.Recommendations, ShouldContain, "Modify training to reduce load on the knee and prioritize technique.")
			})
		})

		Convey("When only severe lower back pain is reported", func() {
			in := baseInput()
			in.PainScore = 10
			in.PainLocation = model.PainLowerBack
			res := engine.Score(in)

			Convey("Then the level is high on pain alone", func() {
				So(res.RiskLevel, ShouldEqual, model.RiskHigh)
				So(res.ScoreBreakdown[model.CategoryPain], ShouldEqual, 75)
				So(res.RiskScore, ShouldEqual, 75)
			})

			Convey("And a red-flag recommendation is included", func() {
				So(res.Recommendations, ShouldContain, "Severe pain is a red flag: pause training for the affected area and get a medical evaluation before resuming.")
				So(res.Recommendations, ShouldContain, "Modify training to reduce load on the lower back and prioritize technique.")
			})
		})

		Convey("When the athlete does not train and does no sets", func() {
			in := baseInput()
			in.TrainingDaysPerWeek = 0
			in.WeeklySets = 0
			in.SessionMinutes = 240

			Convey("Then volume contributes nothing", func() {
				So(engine.Score(in).ScoreBreakdown[model.CategoryVolume], ShouldEqual, 0)
			})
		})

		Convey("When rest is excessive relative to training", func() {
			in := baseInput()
			in.TrainingDaysPerWeek = 2
			in.RestDaysPerWeek = 5
			res := engine.Score(in)

			Convey("Then rest contributes on the separate too-much branch", func() {
				So(res.ScoreBreakdown[model.CategoryRest], ShouldEqual, 4)
				So(res.TopFactors, ShouldResemble, []string{"Long gaps between sessions relative to training frequency."})
			})
		})

		Convey("When two categories contribute equally", func() {
			in := baseInput()
			in.RPE = 7
			in.TrainingDaysPerWeek = 5
			in.RestDaysPerWeek = 1
			res := engine.Score(in)

			Convey("Then the priority order breaks the tie", func() {
				So(res.TopFactors, ShouldResemble, []string{
					"High intensity (RPE 7-8).",
					"Low rest relative to training frequency.",
				})
			})
		})

		Convey("When moderate pain is reported without a location", func() {
			in := baseInput()
			in.PainScore = 5

			Convey("Then no location amplifier applies", func() {
				res := engine.Score(in)
				So(res.ScoreBreakdown[model.CategoryPain], ShouldEqual, 25)
				So(res.TopFactors[0], ShouldEqual, "Moderate pain score reported (4-6).")
			})
		})
	})
}

func TestEngine_Properties(t *testing.T) {
	Convey("Given many random valid inputs", t, func() {
		engine := scoring.NewEngine()
		rng := rand.New(rand.NewSource(7))

		for i := 0; i < 1000; i++ {
			in := randomInput(rng)
			So(in.Validate(), ShouldBeNil)
			res := engine.Score(in)

			So(sum(res.ScoreBreakdown), ShouldEqual, res.RiskScore)
			So(res.RiskScore, ShouldBeBetweenOrEqual, 0, 100)
			So(res.RiskLevel, ShouldEqual, model.RiskLevelFor(res.RiskScore))
			So(len(res.TopFactors), ShouldBeBetweenOrEqual, 1, engine.TopFactorCount())
			So(len(res.Recommendations), ShouldBeGreaterThan, 0)
			for _, v := range res.ScoreBreakdown {
				So(v, ShouldBeGreaterThanOrEqualTo, 0)
			}

			top := scoring.TopCategories(res.ScoreBreakdown, engine.TopFactorCount())
			for j := 1; j < len(top); j++ {
				prev, cur := res.ScoreBreakdown[top[j-1]], res.ScoreBreakdown[top[j]]
				So(prev, ShouldBeGreaterThanOrEqualTo, cur)
				if prev == cur {
					So(model.PriorityOf(top[j-1]), ShouldBeLessThan, model.PriorityOf(top[j]))
				}
			}
			if len(top) > 0 {
				So(len(res.TopFactors), ShouldEqual, len(top))
			}

			So(engine.Score(in), ShouldResemble, res)
		}
	})
}

func TestTopCategories(t *testing.T) {
	Convey("Given a breakdown with ties and zeros", t, func() {
		breakdown := map[model.Category]int{
			model.CategoryPain:       0,
			model.CategoryVolume:     12,
			model.CategoryIntensity:  12,
			model.CategorySleep:      6,
			model.CategoryRest:       6,
			model.CategoryExperience: 0,
		}

		Convey("Then contributing categories are ranked by points then priority", func() {
			So(scoring.TopCategories(breakdown, 3), ShouldResemble, []model.Category{
				model.CategoryVolume, model.CategoryIntensity, model.CategoryRest,
			})
		})

		Convey("Then a negative limit returns every contributing category", func() {
			So(len(scoring.TopCategories(breakdown, -1)), ShouldEqual, 4)
		})
	})
}

func TestWithTopFactorCount(t *testing.T) {
	Convey("Given an engine limited to one factor", t, func() {
		engine := scoring.NewEngine(scoring.WithTopFactorCount(1))
		in := baseInput()
		in.RPE = 9
		in.SleepHours = 5

		So(engine.Score(in).TopFactors, ShouldResemble, []string{"Very high intensity (RPE 9-10)."})
	})
}
