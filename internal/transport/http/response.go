package http

import (
	"bytes"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "admitcli/internal/errors"
	"admitcli/internal/workbook"
)

// XLSXContentType is the media type of workbook responses.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Response headers set by pass and session endpoints.
const (
	HeaderRunID           = "X-Run-ID"
	HeaderSessionID       = "X-Session-ID"
	HeaderIssues          = "X-Issues"
	HeaderProgressChannel = "X-Progress-Channel"
)

// wantsJSON reports whether the client asked for a JSON summary instead of
// a workbook.
func wantsJSON(r *http.Request) bool {
	if f := r.URL.Query().Get("format"); f != "" {
		return strings.EqualFold(f, "json")
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// responder holds what every handler needs to answer.
type responder struct {
	writer *workbook.Writer
	errors *apperrors.ErrorHandler
	logger *slog.Logger
}

func newResponder(errHandler *apperrors.ErrorHandler, logger *slog.Logger, component string) responder {
	if logger == nil {
		logger = slog.Default()
	}
	if errHandler == nil {
		errHandler = apperrors.NewErrorHandler(logger, false)
	}
	return responder{
		writer: workbook.NewWriter(logger),
		errors: errHandler,
		logger: logger.With(slog.String("handler", component)),
	}
}

// writeWorkbook renders sheets into memory first so a write failure can
// still become a problem response.
func (h responder) writeWorkbook(w http.ResponseWriter, r *http.Request, filename string, sheets []workbook.Sheet) {
	var buf bytes.Buffer
	if err := h.writer.Write(&buf, sheets...); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "workbook download interrupted", slog.String("error", err.Error()))
	}
}

// outputName derives the download name from the uploaded file name.
func outputName(input, suffix string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "output"
	}
	return stem + "_" + suffix + ".xlsx"
}
