package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/repolens/repolens/internal/models"
	"github.com/repolens/repolens/internal/pipeline"
)

// Runner executes one summarize request end to end.
type Runner interface {
	Run(ctx context.Context, rawURL string, opts pipeline.Options) (*models.SummaryResponse, error)
}

func NewMux(runner Runner, log *slog.Logger) http.Handler {
	h := &handlers{runner: runner, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleRoot)
	mux.HandleFunc("/summarize", h.handleSummarize)

	return withRequestID(withAccessLog(log, withRecovery(log, mux)))
}

type handlers struct {
	runner Runner
	log    *slog.Logger
}

func (h *handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "repolens API is running"})
}

func (h *handlers) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var req models.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.GitHubURL) == "" {
		writeError(w, http.StatusUnprocessableEntity,
			"Invalid request body. Please provide a 'github_url' field.")
		return
	}

	resp, err := h.runner.Run(r.Context(), req.GitHubURL, pipeline.Options{})
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		perr = &pipeline.Error{
			Kind:    pipeline.KindUnexpected,
			Message: "An unexpected error occurred on the server.",
			Err:     err,
		}
	}

	status := statusFor(perr.Kind)
	h.log.Error("summarize failed",
		"request_id", requestIDFrom(r.Context()),
		"status", status,
		"error", perr.Unwrap(),
	)
	writeError(w, status, perr.Message)
}

func statusFor(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindInvalidURL:
		return http.StatusBadRequest
	case pipeline.KindNotFound:
		return http.StatusNotFound
	case pipeline.KindCloneFailed:
		return http.StatusUnprocessableEntity
	case pipeline.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Status: "error", Message: message})
}
