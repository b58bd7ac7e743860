package cendekia

import (
	"log/slog"

	"github.com/cendekia-ai/cendekia/internal/embedding"
	"github.com/cendekia-ai/cendekia/internal/llm"
	"github.com/cendekia-ai/cendekia/internal/search"
	"github.com/cendekia-ai/cendekia/internal/warehouse"
)

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported; callers use the With* functions.
type resolvedOptions struct {
	port         int
	warehouseURL string
	qdrantURL    string
	logger       *slog.Logger
	version      string

	llmProvider   llm.Provider
	embedProvider embedding.Provider
	index         search.Index
	executor      warehouse.Executor
	feedbackPath  string
}

// WithPort overrides the TCP port from config (CENDEKIA_PORT env var).
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithWarehouseURL overrides the warehouse connection string from config
// (CENDEKIA_WAREHOUSE_URL env var).
func WithWarehouseURL(url string) Option {
	return func(o *resolvedOptions) { o.warehouseURL = url }
}

// WithQdrantURL overrides the vector index URL from config
// (CENDEKIA_QDRANT_URL env var).
func WithQdrantURL(url string) Option {
	return func(o *resolvedOptions) { o.qdrantURL = url }
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in the health endpoint and logs.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithLLMProvider replaces the config-selected completion provider.
func WithLLMProvider(p llm.Provider) Option {
	return func(o *resolvedOptions) { o.llmProvider = p }
}

// WithEmbeddingProvider replaces the config-selected embedding provider.
func WithEmbeddingProvider(p embedding.Provider) Option {
	return func(o *resolvedOptions) { o.embedProvider = p }
}

// WithIndex replaces the Qdrant-backed vector index, e.g. with the
// in-process index for tests and demos.
func WithIndex(idx search.Index) Option {
	return func(o *resolvedOptions) { o.index = idx }
}

// WithExecutor replaces the Postgres warehouse executor.
func WithExecutor(e warehouse.Executor) Option {
	return func(o *resolvedOptions) { o.executor = e }
}

// WithFeedbackPath overrides the feedback log location
// (CENDEKIA_FEEDBACK_PATH env var).
func WithFeedbackPath(path string) Option {
	return func(o *resolvedOptions) { o.feedbackPath = path }
}
