package coaching

import "github.com/okian/liftguard/internal/domain/model"

// Outcome is the result of one coaching attempt: either a ModelOutcome or a
// FallbackOutcome.
type Outcome interface {
	CoachingPlan() model.CoachingPlan
	outcome()
}

// ModelOutcome carries a plan parsed from the model reply.
type ModelOutcome struct {
	Plan    model.CoachingPlan
	RawText string
}

// CoachingPlan implements Outcome.
func (o ModelOutcome) CoachingPlan() model.CoachingPlan {
	p := o.Plan
	p.Mode = model.ModeModel
	p.RawText = o.RawText
	return p
}

func (ModelOutcome) outcome() {}

// FallbackOutcome carries the deterministic plan and why the model path was left.
type FallbackOutcome struct {
	Plan   model.CoachingPlan
	Reason error
}

// CoachingPlan implements Outcome.
func (o FallbackOutcome) CoachingPlan() model.CoachingPlan {
	p := o.Plan
	p.Mode = model.ModeFallback
	p.ModelUsed = FallbackModelName
	p.RawText = ""
	return p
}

func (FallbackOutcome) outcome() {}
