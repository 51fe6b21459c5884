package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/pkg/logger"
	"github.com/okian/liftguard/pkg/metrics"
)

// maxBodyBytes bounds request bodies of the POST endpoints.
const maxBodyBytes = 64 << 10

// assessmentRequest mirrors AssessmentInput with pointer fields so that a
// missing key is distinguishable from a zero value.
type assessmentRequest struct {
	TrainingDaysPerWeek *int     `json:"training_days_per_week"`
	RestDaysPerWeek     *int     `json:"rest_days_per_week"`
	SessionMinutes      *int     `json:"session_minutes"`
	WeeklySets          *int     `json:"weekly_sets"`
	RPE                 *int     `json:"rpe"`
	SleepHours          *float64 `json:"sleep_hours"`
	PainScore           *int     `json:"pain_score"`
	PainLocation        *string  `json:"pain_location"`
	ExperienceLevel     *string  `json:"experience_level"`
}

// input checks that every field is present and converts the request.
// Bounds are checked by AssessmentInput.Validate.
func (r assessmentRequest) input() (model.AssessmentInput, error) {
	missing := func(field string) error {
		return &model.ValidationError{Field: field, Reason: "is required"}
	}
	switch {
	case r.TrainingDaysPerWeek == nil:
		return model.AssessmentInput{}, missing("training_days_per_week")
	case r.RestDaysPerWeek == nil:
		return model.AssessmentInput{}, missing("rest_days_per_week")
	case r.SessionMinutes == nil:
		return model.AssessmentInput{}, missing("session_minutes")
	case r.WeeklySets == nil:
		return model.AssessmentInput{}, missing("weekly_sets")
	case r.RPE == nil:
		return model.AssessmentInput{}, missing("rpe")
	case r.SleepHours == nil:
		return model.AssessmentInput{}, missing("sleep_hours")
	case r.PainScore == nil:
		return model.AssessmentInput{}, missing("pain_score")
	case r.PainLocation == nil:
		return model.AssessmentInput{}, missing("pain_location")
	case r.ExperienceLevel == nil:
		return model.AssessmentInput{}, missing("experience_level")
	}
	in := model.AssessmentInput{
		TrainingDaysPerWeek: *r.TrainingDaysPerWeek,
		RestDaysPerWeek:     *r.RestDaysPerWeek,
		SessionMinutes:      *r.SessionMinutes,
		WeeklySets:          *r.WeeklySets,
		RPE:                 *r.RPE,
		SleepHours:          *r.SleepHours,
		PainScore:           *r.PainScore,
		PainLocation:        model.PainLocation(*r.PainLocation),
		ExperienceLevel:     model.ExperienceLevel(*r.ExperienceLevel),
	}
	if err := in.Validate(); err != nil {
		return model.AssessmentInput{}, err
	}
	return in, nil
}

// decodeBody decodes a bounded JSON body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// rejectInput records a validation rejection and returns the error to report.
func rejectInput(op string, err error) error {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		metrics.RecordValidationRejection(ve.Field)
		return Wrap(op, err)
	}
	metrics.RecordValidationRejection("body")
	return WrapKind(op, ErrBadRequest, err)
}

// AssessHandler handles assessment submissions.
type AssessHandler struct {
	deps AssessDependencies
	log  logger.Logger
}

// NewAssessHandler creates a new assess handler.
func NewAssessHandler(deps AssessDependencies, log logger.Logger) *AssessHandler {
	return &AssessHandler{deps: deps, log: log}
}

// HandlePostAssess handles POST /assess requests.
func (h *AssessHandler) HandlePostAssess(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assess"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req assessmentRequest
	if err := decodeBody(w, r, &req); err != nil {
		fail(r.Context(), w, h.log, rejectInput(op, err))
		return
	}
	in, err := req.input()
	if err != nil {
		fail(r.Context(), w, h.log, rejectInput(op, err))
		return
	}
	res, err := h.deps.Assess(r.Context(), in)
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
