package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"admitcli/internal/classify"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckResult is the outcome of one readiness check.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	ledger  Pinger
	refs    classify.References
	version string
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler. ledger may be nil when
// runs are not recorded.
func NewHealthHandler(ledger Pinger, refs classify.References, version string, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		ledger:  ledger,
		refs:    refs,
		version: version,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Routes returns a chi router for health endpoints
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HealthCheck)
	r.Get("/live", h.LivenessCheck)
	r.Get("/ready", h.ReadinessCheck)
	return r
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.base(StatusHealthy))
}

// LivenessCheck handles GET /api/health/live
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "alive"})
}

// ReadinessCheck handles GET /api/health/ready. A missing reference list
// degrades the service; an unreachable ledger makes it unready.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	resp := h.base(StatusHealthy)
	resp.Checks = map[string]CheckResult{
		"schools":      referenceCheck(h.refs.Schools),
		"major_combos": referenceCheck(h.refs.MajorCombos),
	}
	for _, c := range resp.Checks {
		if c.Status != StatusHealthy {
			resp.Status = StatusDegraded
		}
	}

	if h.ledger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ledger.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "ledger readiness check failed", slog.String("error", err.Error()))
			resp.Checks["ledger"] = CheckResult{Status: StatusUnhealthy, Message: err.Error()}
			resp.Status = StatusUnhealthy
		} else {
			resp.Checks["ledger"] = CheckResult{Status: StatusHealthy}
		}
	}

	if resp.Status == StatusUnhealthy {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, resp)
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": h.version})
}

func (h *HealthHandler) base(status string) HealthResponse {
	return HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
}

func referenceCheck(set *classify.ReferenceSet) CheckResult {
	if set == nil || !set.Available() {
		return CheckResult{Status: StatusDegraded, Message: "reference list unavailable"}
	}
	return CheckResult{Status: StatusHealthy}
}
