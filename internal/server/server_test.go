package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/models"
	"github.com/repolens/repolens/internal/pipeline"
)

type fakeRunner struct {
	resp *models.SummaryResponse
	err  error
}

func (f *fakeRunner) Run(ctx context.Context, rawURL string, opts pipeline.Options) (*models.SummaryResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type panicRunner struct{}

func (panicRunner) Run(ctx context.Context, rawURL string, opts pipeline.Options) (*models.SummaryResponse, error) {
	panic("boom")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doPost(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var env models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRootLiveness(t *testing.T) {
	h := NewMux(&fakeRunner{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "running")
}

func TestSummarizeSuccess(t *testing.T) {
	h := NewMux(&fakeRunner{resp: &models.SummaryResponse{
		Repository:   "octocat/Hello-World",
		Summary:      "A demo repo.",
		Technologies: []string{"Go"},
		Structure:    "Flat.",
	}}, testLogger())

	w := doPost(t, h, `{"github_url": "https://github.com/octocat/Hello-World"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "octocat/Hello-World", resp.Repository)
	assert.Equal(t, []string{"Go"}, resp.Technologies)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestSummarizeMissingField(t *testing.T) {
	h := NewMux(&fakeRunner{}, testLogger())

	for _, body := range []string{`{}`, `{"wrong_field": "oops"}`, `{"github_url": "  "}`, `not json`} {
		w := doPost(t, h, body)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, "body: %s", body)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "error", env.Status)
		assert.Contains(t, env.Message, "github_url")
	}
}

func TestSummarizeErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		kind       pipeline.Kind
		message    string
		wantStatus int
	}{
		{"invalid url", pipeline.KindInvalidURL, "Invalid GitHub URL format. Expected: https://github.com/owner/repo", http.StatusBadRequest},
		{"not found", pipeline.KindNotFound, "Repository 'a/b' was not found on GitHub.", http.StatusNotFound},
		{"clone failed", pipeline.KindCloneFailed, "Could not clone the repository. Make sure it's public and the URL is correct.", http.StatusUnprocessableEntity},
		{"upstream", pipeline.KindUpstream, "Failed to fetch repository data from GitHub. Try again later.", http.StatusBadGateway},
		{"unparseable", pipeline.KindUnparseable, "The AI returned an unexpected response. Please try again.", http.StatusInternalServerError},
		{"unexpected", pipeline.KindUnexpected, "An unexpected error occurred on the server.", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMux(&fakeRunner{err: &pipeline.Error{Kind: tt.kind, Message: tt.message}}, testLogger())

			w := doPost(t, h, `{"github_url": "https://github.com/a/b"}`)
			require.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestSummarizeNotFoundMessage(t *testing.T) {
	h := NewMux(&fakeRunner{err: &pipeline.Error{
		Kind:    pipeline.KindNotFound,
		Message: "Repository 'fakeuser99999/fakerepo99999' was not found on GitHub.",
	}}, testLogger())

	w := doPost(t, h, `{"github_url": "https://github.com/fakeuser99999/fakerepo99999"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Message, "not found")
}

func TestSummarizeUnknownErrorGetsEnvelope(t *testing.T) {
	h := NewMux(&fakeRunner{err: io.ErrUnexpectedEOF}, testLogger())

	w := doPost(t, h, `{"github_url": "https://github.com/a/b"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "An unexpected error occurred on the server.", env.Message)
}

func TestSummarizePanicGetsEnvelope(t *testing.T) {
	h := NewMux(panicRunner{}, testLogger())

	w := doPost(t, h, `{"github_url": "https://github.com/a/b"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "error", env.Status)
	assert.NotContains(t, env.Message, "boom", "panic detail must not leak")
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewMux(&fakeRunner{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/summarize", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "error", decodeEnvelope(t, w).Status)
}

func TestUnknownPath(t *testing.T) {
	h := NewMux(&fakeRunner{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", decodeEnvelope(t, w).Status)
}

func TestRequestIDPropagated(t *testing.T) {
	h := NewMux(&fakeRunner{resp: &models.SummaryResponse{Repository: "a/b"}}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"github_url": "https://github.com/a/b"}`))
	req.Header.Set("X-Request-Id", "fixed-id")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-Id"))
}
