package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/liftguard/pkg/logger"
)

// DashboardHandler serves the read-only dashboard queries.
type DashboardHandler struct {
	deps DashboardDependencies
	log  logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies, log logger.Logger) *DashboardHandler {
	return &DashboardHandler{deps: deps, log: log}
}

// queryInt reads an optional integer query parameter. Range checks belong to
// the aggregator.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

// serve runs a parameterless query and writes its result.
func serve(h *DashboardHandler, w http.ResponseWriter, r *http.Request, op string, query func() (any, error)) {
	v, err := query()
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// params reads the named integer parameters, writing 400 on the first bad one.
func (h *DashboardHandler) params(w http.ResponseWriter, r *http.Request, op string, specs ...param) bool {
	for _, p := range specs {
		n, err := queryInt(r, p.name, p.def)
		if err != nil {
			fail(r.Context(), w, h.log, WrapKind(op, ErrBadRequest, err))
			return false
		}
		*p.dst = n
	}
	return true
}

type param struct {
	name string
	def  int
	dst  *int
}

// HandleSummary handles GET /dashboard/summary.
func (h *DashboardHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()
	serve(h, w, r, "api.dashboard_summary", func() (any, error) { return h.deps.Summary(ctx) })
}

// HandleRiskDistribution handles GET /dashboard/risk_distribution.
func (h *DashboardHandler) HandleRiskDistribution(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()
	serve(h, w, r, "api.dashboard_risk_distribution", func() (any, error) { return h.deps.RiskDistribution(ctx) })
}

// HandleTopPainLocations handles GET /dashboard/top_pain_locations?limit=N.
func (h *DashboardHandler) HandleTopPainLocations(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_top_pain_locations"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	var limit int
	if !h.params(w, r, op, param{"limit", DefaultPainLimit, &limit}) {
		return
	}
	ctx := r.Context()
	serve(h, w, r, op, func() (any, error) { return h.deps.TopPainLocations(ctx, limit) })
}

// HandleRecent handles GET /dashboard/recent?limit=N.
func (h *DashboardHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_recent"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	var limit int
	if !h.params(w, r, op, param{"limit", DefaultRecentLimit, &limit}) {
		return
	}
	ctx := r.Context()
	serve(h, w, r, op, func() (any, error) { return h.deps.Recent(ctx, limit) })
}

// HandleAIUsage handles GET /dashboard/ai_usage.
func (h *DashboardHandler) HandleAIUsage(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()
	serve(h, w, r, "api.dashboard_ai_usage", func() (any, error) { return h.deps.AIUsage(ctx) })
}

// HandleRiskTrend handles GET /dashboard/risk_trend?days=N.
func (h *DashboardHandler) HandleRiskTrend(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_risk_trend"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	var days int
	if !h.params(w, r, op, param{"days", DefaultWindowDays, &days}) {
		return
	}
	ctx := r.Context()
	serve(h, w, r, op, func() (any, error) { return h.deps.RiskTrend(ctx, days) })
}

// HandleTopFactors handles GET /dashboard/top_factors?limit=N&days=N.
func (h *DashboardHandler) HandleTopFactors(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_top_factors"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	var limit, days int
	if !h.params(w, r, op,
		param{"limit", DefaultFactorLimit, &limit},
		param{"days", DefaultWindowDays, &days},
	) {
		return
	}
	ctx := r.Context()
	serve(h, w, r, op, func() (any, error) { return h.deps.TopFactors(ctx, limit, days) })
}

// HandleAvgBreakdown handles GET /dashboard/avg_breakdown?days=N.
func (h *DashboardHandler) HandleAvgBreakdown(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_avg_breakdown"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	var days int
	if !h.params(w, r, op, param{"days", DefaultWindowDays, &days}) {
		return
	}
	ctx := r.Context()
	serve(h, w, r, op, func() (any, error) { return h.deps.AvgBreakdown(ctx, days) })
}
