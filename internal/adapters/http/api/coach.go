package api

import (
	"net/http"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/pkg/logger"
)

// coachRequest is an assessment input plus the optional result the client
// already holds from POST /assess.
type coachRequest struct {
	assessmentRequest
	Result *model.AssessmentResult `json:"result"`
}

// checkResult rejects a supplied result that could not have come from the
// scoring engine.
func checkResult(res *model.AssessmentResult) error {
	if res == nil {
		return nil
	}
	if res.RiskScore < 0 || res.RiskScore > 100 {
		return &model.ValidationError{Field: "result.risk_score", Reason: "must be between 0 and 100"}
	}
	if res.RiskLevel != model.RiskLevelFor(res.RiskScore) {
		return &model.ValidationError{Field: "result.risk_level", Reason: "does not match risk_score"}
	}
	for c, pts := range res.ScoreBreakdown {
		if pts < 0 {
			return &model.ValidationError{Field: "result.score_breakdown." + string(c), Reason: "must not be negative"}
		}
	}
	return nil
}

// CoachHandler handles coaching requests.
type CoachHandler struct {
	deps CoachDependencies
	log  logger.Logger
}

// NewCoachHandler creates a new coach handler.
func NewCoachHandler(deps CoachDependencies, log logger.Logger) *CoachHandler {
	return &CoachHandler{deps: deps, log: log}
}

// HandlePostCoach handles POST /ai/coach requests. Model failures never
// reach the client; the response is always a complete plan.
func (h *CoachHandler) HandlePostCoach(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_coach"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req coachRequest
	if err := decodeBody(w, r, &req); err != nil {
		fail(r.Context(), w, h.log, rejectInput(op, err))
		return
	}
	in, err := req.input()
	if err != nil {
		fail(r.Context(), w, h.log, rejectInput(op, err))
		return
	}
	if err := checkResult(req.Result); err != nil {
		fail(r.Context(), w, h.log, rejectInput(op, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Coach(r.Context(), in, req.Result))
}
