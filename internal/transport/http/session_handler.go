package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "admitcli/internal/errors"
	"admitcli/internal/matcher"
	"admitcli/internal/pipeline"
)

// SessionView is the JSON state of a review session.
type SessionView struct {
	ID         string                   `json:"id"`
	RunID      string                   `json:"run_id,omitempty"`
	Pending    int                      `json:"pending"`
	Cursor     int                      `json:"cursor"`
	Chosen     int                      `json:"chosen"`
	Current    *matcher.AmbiguousRecord `json:"current,omitempty"`
	Candidates []string                 `json:"candidates"`
	Choice     string                   `json:"choice,omitempty"`
}

// SelectRequest chooses a code for the current record, or for Position
// when given. A blank code clears the choice.
type SelectRequest struct {
	Code     string `json:"code" validate:"max=32"`
	Position *int   `json:"position,omitempty" validate:"omitempty,min=0"`
}

var validate = validator.New()

// Bind implements the render.Binder interface for request validation
func (s *SelectRequest) Bind(r *http.Request) error {
	return validate.Struct(s)
}

// SessionHandler serves the review session API.
type SessionHandler struct {
	responder
	store *SessionStore
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(store *SessionStore, errHandler *apperrors.ErrorHandler, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		responder: newResponder(errHandler, logger, "sessions"),
		store:     store,
	}
}

// Routes returns a chi router for session endpoints
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.Get)
	r.Post("/{id}/select", h.Select)
	r.Post("/{id}/advance", h.Advance)
	r.Post("/{id}/back", h.Back)
	r.Get("/{id}/result", h.Result)
	r.Delete("/{id}", h.Delete)
	return r
}

// Get handles GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	rs, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, viewOf(rs))
}

// Select handles POST /api/sessions/{id}/select
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := render.Bind(r, &req); err != nil {
		h.errors.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	rs, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), func(s matcher.Session) (matcher.Session, error) {
		if req.Position != nil {
			return s.SelectAt(*req.Position, req.Code)
		}
		return s.Select(req.Code)
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.logger.DebugContext(r.Context(), "review choice recorded",
		slog.String("session_id", rs.Session.ID()),
		slog.Int("chosen", rs.Session.Chosen()))
	render.JSON(w, r, viewOf(rs))
}

// Advance handles POST /api/sessions/{id}/advance
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, matcher.Session.Advance)
}

// Back handles POST /api/sessions/{id}/back
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, matcher.Session.Back)
}

func (h *SessionHandler) move(w http.ResponseWriter, r *http.Request, step func(matcher.Session) matcher.Session) {
	rs, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), func(s matcher.Session) (matcher.Session, error) {
		return step(s), nil
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, viewOf(rs))
}

// Result handles GET /api/sessions/{id}/result. The session stays open so
// choices can still be revised.
func (h *SessionHandler) Result(w http.ResponseWriter, r *http.Request) {
	rs, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	w.Header().Set(HeaderSessionID, rs.Session.ID())
	if rs.RunID != "" {
		w.Header().Set(HeaderRunID, rs.RunID)
	}
	h.writeWorkbook(w, r, "matched_"+shortID(rs.Session.ID())+".xlsx", pipeline.ResolveMatch(rs.Result, rs.Session))
}

// Delete handles DELETE /api/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.store.Delete(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func viewOf(rs ReviewSession) SessionView {
	s := rs.Session
	v := SessionView{
		ID:         s.ID(),
		RunID:      rs.RunID,
		Pending:    s.Len(),
		Cursor:     s.Cursor(),
		Chosen:     s.Chosen(),
		Candidates: []string{},
	}
	if rec, ok := s.Current(); ok {
		v.Current = &rec
		v.Candidates = rec.Codes()
		v.Choice, _ = s.Choice(s.Cursor())
	}
	return v
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
