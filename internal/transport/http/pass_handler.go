package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "admitcli/internal/errors"
	"admitcli/internal/middleware"
	"admitcli/internal/pipeline"
	"admitcli/internal/validation"
	"admitcli/pkg/contracts/domain"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in
// memory before spilling to temp files.
const multipartMemory = 8 << 20

// PassRunner executes the workbook passes.
type PassRunner interface {
	RemarksPass(ctx context.Context, src pipeline.Source, progress pipeline.ProgressFunc) (*pipeline.Output, error)
	ScoresPass(ctx context.Context, src pipeline.Source, template string, progress pipeline.ProgressFunc) (*pipeline.Output, error)
	MatchPass(ctx context.Context, primary, lookup pipeline.Source, progress pipeline.ProgressFunc) (*pipeline.Output, error)
	ConvertPass(ctx context.Context, in pipeline.ConvertInput, progress pipeline.ProgressFunc) (*pipeline.Output, error)
}

// ProgressPublisher turns a progress channel name into a listener.
type ProgressPublisher interface {
	ProgressFunc(ctx context.Context, channel string) pipeline.ProgressFunc
}

// PassResponse is the JSON summary of a pass.
type PassResponse struct {
	Run         domain.RunRecord            `json:"run"`
	InputRows   int                         `json:"input_rows"`
	OutputRows  int                         `json:"output_rows"`
	Issues      int                         `json:"issues"`
	Sheets      []SheetSummary              `json:"sheets"`
	Comparisons []pipeline.ComparisonReport `json:"comparisons,omitempty"`
	Match       *MatchSummary               `json:"match,omitempty"`
}

// SheetSummary names one output sheet.
type SheetSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// MatchSummary describes a match pass; SessionID is set when rows await
// review.
type MatchSummary struct {
	Assigned  int    `json:"assigned"`
	Unmatched int    `json:"unmatched"`
	Ambiguous int    `json:"ambiguous"`
	SessionID string `json:"session_id,omitempty"`
}

// PassHandler serves the upload endpoints.
type PassHandler struct {
	responder
	runner    PassRunner
	progress  ProgressPublisher
	sessions  *SessionStore
	maxUpload int64
}

// NewPassHandler creates the pass handler. progress may be nil.
func NewPassHandler(runner PassRunner, progress ProgressPublisher, sessions *SessionStore, errHandler *apperrors.ErrorHandler, maxUpload int64, logger *slog.Logger) *PassHandler {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if sessions == nil {
		sessions = NewSessionStore(0, nil, logger)
	}
	return &PassHandler{
		responder: newResponder(errHandler, logger, "passes"),
		runner:    runner,
		progress:  progress,
		sessions:  sessions,
		maxUpload: maxUpload,
	}
}

// Routes returns a chi router for the pass endpoints.
func (h *PassHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.ContentTypeValidator("multipart/form-data"))

	r.Post("/remarks", h.Remarks)
	r.Post("/scores", h.Scores)
	r.Post("/match", h.Match)
	r.Post("/convert", h.Convert)
	return r
}

// Remarks handles POST /api/passes/remarks
func (h *PassHandler) Remarks(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	defer form.RemoveAll()

	src, err := openUpload(form, "file", true)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	defer src.Close()

	out, err := h.runner.RemarksPass(r.Context(), src.Source, h.listener(r))
	h.respond(w, r, out, err, outputName(src.Name, domain.PassRemarks))
}

// Scores handles POST /api/passes/scores?template=general|art
func (h *PassHandler) Scores(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	defer form.RemoveAll()

	template := r.URL.Query().Get("template")
	if template == "" {
		template = firstValue(form, "template")
	}
	if template == "" {
		template = pipeline.TemplateGeneral
	}

	src, err := openUpload(form, "file", true)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	defer src.Close()

	out, err := h.runner.ScoresPass(r.Context(), src.Source, template, h.listener(r))
	h.respond(w, r, out, err, outputName(src.Name, domain.PassScores))
}

// Match handles POST /api/passes/match. Ambiguous rows open a review
// session whose id is returned in X-Session-ID.
func (h *PassHandler) Match(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	defer form.RemoveAll()

	scores, err := openUpload(form, "scores", true)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	defer scores.Close()
	plan, err := openUpload(form, "plan", true)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	defer plan.Close()

	out, err := h.runner.MatchPass(r.Context(), scores.Source, plan.Source, h.listener(r))
	h.respond(w, r, out, err, outputName(scores.Name, domain.PassMatch))
}

// Convert handles POST /api/passes/convert
func (h *PassHandler) Convert(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	defer form.RemoveAll()

	plan, err := openUpload(form, "plan", true)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	defer plan.Close()
	in := pipeline.ConvertInput{Plan: plan.Source}

	for _, opt := range []struct {
		field string
		dst   **pipeline.Source
	}{
		{"major", &in.MajorScores},
		{"college", &in.CollegeScores},
	} {
		up, err := openUpload(form, opt.field, false)
		if err != nil {
			h.errors.HandleError(w, r, err)
			return
		}
		if up == nil {
			continue
		}
		defer up.Close()
		src := up.Source
		*opt.dst = &src
	}

	out, err := h.runner.ConvertPass(r.Context(), in, h.listener(r))
	h.respond(w, r, out, err, outputName(plan.Name, domain.PassConvert))
}

func (h *PassHandler) respond(w http.ResponseWriter, r *http.Request, out *pipeline.Output, err error, filename string) {
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	resp := PassResponse{
		Run:         out.Run,
		InputRows:   out.InputRows,
		OutputRows:  out.OutputRows,
		Issues:      out.Issues,
		Comparisons: out.Comparisons,
	}
	for _, s := range out.Sheets {
		resp.Sheets = append(resp.Sheets, SheetSummary{Name: s.Name, Rows: s.Table.Len()})
	}
	if out.Match != nil {
		resp.Match = &MatchSummary{
			Assigned:  out.Match.Assigned,
			Unmatched: out.Match.Unmatched,
			Ambiguous: len(out.Match.Ambiguous),
		}
		if len(out.Match.Ambiguous) > 0 {
			rs := h.sessions.Open(r.Context(), out.Match, out.Run.ID)
			resp.Match.SessionID = rs.Session.ID()
			w.Header().Set(HeaderSessionID, resp.Match.SessionID)
		}
	}

	w.Header().Set(HeaderRunID, out.Run.ID)
	w.Header().Set(HeaderIssues, fmt.Sprint(out.Issues))
	if wantsJSON(r) {
		render.JSON(w, r, resp)
		return
	}
	h.writeWorkbook(w, r, filename, out.Sheets)
}

func (h *PassHandler) listener(r *http.Request) pipeline.ProgressFunc {
	if h.progress == nil {
		return nil
	}
	channel := r.Header.Get(HeaderProgressChannel)
	if channel == "" {
		channel = r.URL.Query().Get("channel")
	}
	if channel == "" {
		return nil
	}
	// The request context ends with the response; events carry the trace id
	// but must not be cancelled with it.
	return h.progress.ProgressFunc(context.WithoutCancel(r.Context()), channel)
}

func (h *PassHandler) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.NewWithDetails(http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE",
				"Upload exceeds the size limit", map[string]int64{"limit_bytes": tooLarge.Limit})
		}
		return nil, apperrors.InvalidRequestWithError(err)
	}
	return r.MultipartForm, nil
}

// upload is an opened form file.
type upload struct {
	pipeline.Source
	file multipart.File
}

func (u *upload) Close() error { return u.file.Close() }

// openUpload opens the workbook in field. A missing optional field yields
// nil without error.
func openUpload(form *multipart.Form, field string, required bool) (*upload, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		if required {
			return nil, apperrors.ErrValidation(field, "workbook upload is required")
		}
		return nil, nil
	}
	fh := headers[0]
	if !validation.IsWorkbookName(fh.Filename) {
		return nil, apperrors.ErrValidation(field, fmt.Sprintf("%q is not an .xlsx workbook", fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.InvalidRequestWithError(err)
	}
	return &upload{Source: pipeline.Source{Name: fh.Filename, Reader: f}, file: f}, nil
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}
