package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cendekia-ai/cendekia/internal/embedding"
	"github.com/cendekia-ai/cendekia/internal/feedback"
	"github.com/cendekia-ai/cendekia/internal/knowledge"
	"github.com/cendekia-ai/cendekia/internal/llm"
	"github.com/cendekia-ai/cendekia/internal/model"
	"github.com/cendekia-ai/cendekia/internal/search"
	"github.com/cendekia-ai/cendekia/internal/sqlgen"
	"github.com/cendekia-ai/cendekia/internal/warehouse"
	"github.com/cendekia-ai/cendekia/internal/workflow"
)

const sqlPathRouter = `Needs Database: Yes
Query Type: data_query
Visualization Needed: No
Reasoning: needs the warehouse`

func newTestServer(t *testing.T, stepLLM *llm.Static, executor warehouse.Executor) *Server {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	idx := search.NewMemoryIndex()
	ks := knowledge.NewStore(idx, embedding.NewMockProvider(768), logger)
	engine := sqlgen.NewEngine(ks, &llm.Static{Responses: []string{"SELECT COUNT(*) FROM dwh.dim_mahasiswa;"}}, logger)

	wf, err := workflow.New(stepLLM, engine, executor, logger)
	require.NoError(t, err)

	store, err := feedback.NewFileStore(filepath.Join(t.TempDir(), "log.json"))
	require.NoError(t, err)
	loop, err := feedback.NewLoop(context.Background(), store, ks, logger)
	require.NoError(t, err)

	return New(Config{
		Workflow:     wf,
		Loop:         loop,
		Knowledge:    ks,
		Index:        idx,
		Logger:       logger,
		Port:         0,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		Version:      "test",
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &llm.Static{}, &warehouse.Static{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAskReturnsQueryID(t *testing.T) {
	srv := newTestServer(t,
		&llm.Static{Responses: []string{
			sqlPathRouter,
			"- enrollment is growing",
			"- Bagaimana per fakultas?",
		}},
		&warehouse.Static{Table: model.Table{
			Columns: []string{"total"},
			Rows:    [][]any{{int64(5400)}},
		}})

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/ask",
		map[string]string{"question": "Berapa jumlah mahasiswa?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.QueryID)
	assert.NotEmpty(t, resp.SQLQuery)
}

func TestAskValidation(t *testing.T) {
	srv := newTestServer(t, &llm.Static{}, &warehouse.Static{})

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/ask", map[string]string{"question": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedbackRoundTrip(t *testing.T) {
	srv := newTestServer(t,
		&llm.Static{Responses: []string{
			sqlPathRouter,
			"- insight",
			"- Pertanyaan lanjutan?",
		}},
		&warehouse.Static{Table: model.Table{
			Columns: []string{"total"},
			Rows:    [][]any{{int64(12)}},
		}})

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/ask",
		map[string]string{"question": "Berapa jumlah dosen?"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.QueryID)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/v1/feedback",
		map[string]any{"query_id": resp.QueryID, "is_correct": true})
	require.Equal(t, http.StatusOK, rec.Code)

	// Settled reviews cannot be settled again.
	rec = doJSON(t, srv.Handler(), http.MethodPost, "/v1/feedback",
		map[string]any{"query_id": resp.QueryID, "is_correct": false})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/v1/feedback/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats model.FeedbackStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Correct)
}

func TestFeedbackUnknownID(t *testing.T) {
	srv := newTestServer(t, &llm.Static{}, &warehouse.Static{})

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/feedback",
		map[string]any{"query_id": "nope", "is_correct": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedbackPendingLimitValidation(t *testing.T) {
	srv := newTestServer(t, &llm.Static{}, &warehouse.Static{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/v1/feedback/pending?limit=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/v1/feedback/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Pending []model.FeedbackRecord `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Pending)
}

func TestGraphEndpoint(t *testing.T) {
	srv := newTestServer(t, &llm.Static{}, &warehouse.Static{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/v1/graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 8, body["nodes"])
	assert.Contains(t, body["mermaid"], "graph TD")
}
