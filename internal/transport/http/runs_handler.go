package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// RunStore is the read side of the run ledger.
type RunStore interface {
	Get(ctx context.Context, id string) (domain.RunRecord, error)
	List(ctx context.Context, pass string, limit int) ([]domain.RunRecord, error)
}

// RunsHandler serves the run ledger.
type RunsHandler struct {
	responder
	store RunStore
}

// NewRunsHandler creates a runs handler.
func NewRunsHandler(store RunStore, errHandler *apperrors.ErrorHandler, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{
		responder: newResponder(errHandler, logger, "runs"),
		store:     store,
	}
}

// Routes returns a chi router for run endpoints
func (h *RunsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	return r
}

// List handles GET /api/runs?pass=&limit=
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	pass := r.URL.Query().Get("pass")
	switch pass {
	case "", domain.PassRemarks, domain.PassScores, domain.PassMatch, domain.PassConvert:
	default:
		h.errors.HandleError(w, r, apperrors.ErrValidation("pass", "unknown pass "+strconv.Quote(pass)))
		return
	}

	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunLimit {
			h.errors.HandleError(w, r, apperrors.ErrValidation("limit", "limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	runs, err := h.store.List(r.Context(), pass, limit)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Get handles GET /api/runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, rec)
}
