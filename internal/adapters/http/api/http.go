// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/internal/domain/types"
	"github.com/okian/liftguard/pkg/logger"
)

// Default query parameters of the dashboard endpoints.
const (
	DefaultPainLimit   = 5
	DefaultRecentLimit = 10
	DefaultFactorLimit = 5
	DefaultWindowDays  = 30
)

// AssessDependencies scores and persists one assessment.
type AssessDependencies interface {
	Assess(ctx context.Context, in model.AssessmentInput) (model.AssessmentResult, error)
}

// CoachDependencies produces a coaching plan. It never fails: model errors
// resolve to the fallback plan.
type CoachDependencies interface {
	Coach(ctx context.Context, in model.AssessmentInput, res *model.AssessmentResult) model.CoachingPlan
}

// DashboardDependencies answers the dashboard read models.
type DashboardDependencies interface {
	Summary(ctx context.Context) (types.Summary, error)
	RiskDistribution(ctx context.Context) (types.RiskDistribution, error)
	TopPainLocations(ctx context.Context, limit int) ([]types.KeyCount, error)
	Recent(ctx context.Context, limit int) ([]types.RecentAssessment, error)
	AIUsage(ctx context.Context) (types.AIUsage, error)
	RiskTrend(ctx context.Context, days int) ([]types.TrendPoint, error)
	TopFactors(ctx context.Context, limit, days int) ([]types.KeyCount, error)
	AvgBreakdown(ctx context.Context, days int) (types.Breakdown, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AssessDependencies
	CoachDependencies
	DashboardDependencies
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used for request failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCORSOrigins sets the browser origins allowed to call the API.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	log         logger.Logger
	corsOrigins []string

	healthHandler    *HealthHandler
	assessHandler    *AssessHandler
	coachHandler     *CoachHandler
	dashboardHandler *DashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.assessHandler = NewAssessHandler(deps, s.log)
	s.coachHandler = NewCoachHandler(deps, s.log)
	s.dashboardHandler = NewDashboardHandler(deps, s.log)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))

	mux.HandleFunc("/assess", MetricsMiddleware(s.assessHandler.HandlePostAssess, "assess"))
	mux.HandleFunc("/ai/coach", MetricsMiddleware(s.coachHandler.HandlePostCoach, "ai_coach"))

	d := s.dashboardHandler
	for name, h := range map[string]http.HandlerFunc{
		"summary":            d.HandleSummary,
		"risk_distribution":  d.HandleRiskDistribution,
		"top_pain_locations": d.HandleTopPainLocations,
		"recent":             d.HandleRecent,
		"ai_usage":           d.HandleAIUsage,
		"risk_trend":         d.HandleRiskTrend,
		"top_factors":        d.HandleTopFactors,
		"avg_breakdown":      d.HandleAvgBreakdown,
	} {
		mux.HandleFunc("/dashboard/"+name, MetricsMiddleware(h, "dashboard_"+name))
	}
}

// Handler wraps mux with request correlation and CORS.
func (s *Server) Handler(mux http.Handler) http.Handler {
	return CORSMiddleware(s.corsOrigins)(RequestIDMiddleware(mux))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail classifies err, logs server-side failures and writes the response.
func fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// allowMethod writes 405 and returns false unless r uses method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	return false
}
