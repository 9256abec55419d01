package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admitcli/internal/shared/testutil"
)

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("sheet is locked")
	err := NewReferenceDataError("load school list", cause)

	assert.Equal(t, "[REFERENCE_DATA] load school list: sheet is locked", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("classify: %w", err)
	assert.True(t, IsType(wrapped, ErrTypeReferenceData))
	assert.False(t, IsType(wrapped, ErrTypeSchema))
	assert.Equal(t, ErrorType(""), TypeOf(cause))
}

func TestSchemaErrorListsColumns(t *testing.T) {
	err := NewSchemaError([]string{"学校名称", "省份"})
	assert.Equal(t, "[SCHEMA] missing required columns: 学校名称, 省份", err.Error())
	assert.Equal(t, []string{"学校名称", "省份"}, err.Context["missing_columns"])
}

func TestTaskErrorCarriesChunk(t *testing.T) {
	err := NewTaskError(3, fmt.Errorf("boom"))
	assert.Equal(t, 3, err.Context["chunk"])
	assert.True(t, IsType(err, ErrTypeTask))
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"schema", NewSchemaError([]string{"省份"}), http.StatusUnprocessableEntity, TypeSchema},
		{"empty result", NewEmptyResultError("no rows left"), http.StatusUnprocessableEntity, TypeEmptyResult},
		{"not found", NewNotFoundError("run"), http.StatusNotFound, TypeNotFound},
		{"reference", NewReferenceDataError("x", nil), http.StatusServiceUnavailable, TypeReferenceData},
		{"api error", ErrRateLimitExceeded, http.StatusTooManyRequests, TypeRateLimit},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"plain", fmt.Errorf("disk on fire"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/passes/scores", nil)
			rec := httptest.NewRecorder()
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/v1/passes/scores", body["instance"])
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_NilErrorWritesNothing(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Empty(t, logs.Records())
}

func TestErrorHandler_MiddlewareRecoversPanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("bad row") })
	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad row")
	assert.True(t, logs.ContainsAttr("component", "error_handler"))
}

func TestProblemDetailsFlattensExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "", "/p").
		WithExtension("field", "chunk_size")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "chunk_size", body["field"])
	assert.NotContains(t, body, "detail")
	assert.EqualValues(t, 400, body["status"])
}
