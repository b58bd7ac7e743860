package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cendekia-ai/cendekia/internal/feedback"
	"github.com/cendekia-ai/cendekia/internal/knowledge"
	"github.com/cendekia-ai/cendekia/internal/model"
	"github.com/cendekia-ai/cendekia/internal/search"
	"github.com/cendekia-ai/cendekia/internal/telemetry"
	"github.com/cendekia-ai/cendekia/internal/workflow"
)

// Error codes returned in the error envelope.
const (
	errCodeInvalidInput = "invalid_input"
	errCodeNotFound     = "not_found"
	errCodeInternal     = "internal_error"
	errCodeUnavailable  = "unavailable"
)

type handlers struct {
	workflow  *workflow.Workflow
	loop      *feedback.Loop
	knowledge *knowledge.Store
	index     search.Index
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	version   string
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.index.Healthy(ctx); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, errCodeUnavailable, "vector index unavailable")
		return
	}
	counts, err := h.knowledge.Summary(ctx)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, errCodeUnavailable, "vector index unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   h.version,
		"knowledge": counts,
	})
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	model.Outcome
	// QueryID references the feedback record created for a SQL-path run;
	// empty on the strategy path.
	QueryID string `json:"query_id,omitempty"`
}

func (h *handlers) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errCodeInvalidInput, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, http.StatusBadRequest, errCodeInvalidInput, "question is required")
		return
	}

	ctx := r.Context()
	start := time.Now()
	out := h.workflow.Process(ctx, strings.TrimSpace(req.Question))
	if h.metrics != nil {
		h.metrics.RecordRun(ctx, string(out.QueryType), out.Success, time.Since(start))
	}

	resp := askResponse{Outcome: out}
	if out.SQLQuery != "" {
		id, err := h.loop.LogExecution(ctx, out.Question, out.SQLQuery,
			out.SQLResult.Success, out.SQLResult.RowCount)
		if err != nil {
			h.logger.Error("server: logging execution failed", "error", err)
		} else {
			resp.QueryID = id
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type feedbackRequest struct {
	QueryID      string `json:"query_id"`
	IsCorrect    bool   `json:"is_correct"`
	CorrectedSQL string `json:"corrected_sql,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

func (h *handlers) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errCodeInvalidInput, "invalid request body")
		return
	}
	if req.QueryID == "" {
		writeError(w, r, http.StatusBadRequest, errCodeInvalidInput, "query_id is required")
		return
	}

	ctx := r.Context()
	ok, err := h.loop.Submit(ctx, req.QueryID, req.IsCorrect, req.CorrectedSQL, req.Notes)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, errCodeInternal, "feedback submission failed")
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSubmission(ctx, req.IsCorrect, ok)
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, errCodeNotFound,
			"query_id is unknown or its review is already closed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

type bulkRequest struct {
	Corrections []model.Correction `json:"corrections"`
}

func (h *handlers) handleFeedbackBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errCodeInvalidInput, "invalid request body")
		return
	}
	applied := h.loop.BulkApply(r.Context(), req.Corrections)
	writeJSON(w, http.StatusOK, map[string]int{"applied": applied})
}

func (h *handlers) handleFeedbackStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.loop.Stats(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, errCodeInternal, "reading feedback log failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) handleFeedbackPending(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, errCodeInvalidInput, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	pending, err := h.loop.PendingReview(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, errCodeInternal, "reading feedback log failed")
		return
	}
	if pending == nil {
		pending = []model.FeedbackRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

func (h *handlers) handleGraph(w http.ResponseWriter, r *http.Request) {
	g := h.workflow.Graph()
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes":   g.NodeCount(),
		"edges":   g.EdgeCount(),
		"mermaid": g.Mermaid(),
	})
}
