// Package cendekia is the public API for embedding the cendekia analytics
// assistant: natural-language questions over a university data warehouse,
// answered through an agent workflow with retrieval-augmented SQL
// generation and a human-feedback learning loop.
//
//	app, err := cendekia.New(
//	    cendekia.WithVersion(version),
//	    cendekia.WithLogger(logger),
//	)
//	if err != nil { ... }
//	defer app.Close()
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: cendekia (root) imports
// internal/*, but internal/* never imports cendekia (root).
package cendekia

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/cendekia-ai/cendekia/internal/config"
	"github.com/cendekia-ai/cendekia/internal/embedding"
	"github.com/cendekia-ai/cendekia/internal/feedback"
	"github.com/cendekia-ai/cendekia/internal/knowledge"
	"github.com/cendekia-ai/cendekia/internal/llm"
	"github.com/cendekia-ai/cendekia/internal/model"
	"github.com/cendekia-ai/cendekia/internal/search"
	"github.com/cendekia-ai/cendekia/internal/server"
	"github.com/cendekia-ai/cendekia/internal/sqlgen"
	"github.com/cendekia-ai/cendekia/internal/telemetry"
	"github.com/cendekia-ai/cendekia/internal/warehouse"
	"github.com/cendekia-ai/cendekia/internal/workflow"
)

// App is the cendekia application lifecycle. Construct with New(), serve
// with Run(), or drive directly through Ask / Knowledge / Feedback.
type App struct {
	cfg          config.Config
	index        search.Index
	knowledge    *knowledge.Store
	loop         *feedback.Loop
	workflow     *workflow.Workflow
	srv          *server.Server
	executor     warehouse.Executor
	pgExecutor   *warehouse.PGExecutor // nil when no warehouse is configured
	qdrantIndex  *search.QdrantIndex   // nil when the in-process index is used
	store        feedback.RecordStore
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string
}

// New wires the application: vector index, providers, knowledge store,
// workflow, feedback loop, and HTTP server. It does not start accepting
// connections; call Run() for that.
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.warehouseURL != "" {
		cfg.WarehouseURL = o.warehouseURL
	}
	if o.qdrantURL != "" {
		cfg.QdrantURL = o.qdrantURL
	}
	if o.feedbackPath != "" {
		cfg.FeedbackPath = o.feedbackPath
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("cendekia starting", "version", version, "port", cfg.Port)
	ctx := context.Background()

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, true)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	app := &App{
		cfg:          cfg,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}

	if err := app.wire(ctx, o); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context, o resolvedOptions) error {
	cfg := a.cfg

	// Vector index.
	a.index = o.index
	if a.index == nil {
		qi, err := search.NewQdrantIndex(search.QdrantConfig{
			URL:        cfg.QdrantURL,
			Collection: cfg.Collection,
			Dims:       uint64(cfg.Dimensions),
		}, a.logger)
		if err != nil {
			return fmt.Errorf("vector index: %w", err)
		}
		if err := qi.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("vector index: %w", err)
		}
		a.qdrantIndex = qi
		a.index = qi
	}

	// Providers.
	embedder := o.embedProvider
	if embedder == nil {
		embedder = newEmbedder(cfg)
	}
	provider := o.llmProvider
	if provider == nil {
		provider = newProvider(cfg)
	}

	a.knowledge = knowledge.NewStore(a.index, embedder, a.logger)
	engine := sqlgen.NewEngine(a.knowledge, provider, a.logger)

	// Warehouse. Without a DSN the executor rejects every query, which
	// keeps the strategy path and training usable.
	a.executor = o.executor
	if a.executor == nil {
		if cfg.WarehouseURL == "" {
			a.logger.Warn("no warehouse configured, SQL execution disabled")
			a.executor = &warehouse.Static{Err: fmt.Errorf("warehouse: not configured")}
		} else {
			pg, err := warehouse.NewPGExecutor(ctx, cfg.WarehouseURL, cfg.QueryTimeout, a.logger)
			if err != nil {
				return fmt.Errorf("warehouse: %w", err)
			}
			a.pgExecutor = pg
			a.executor = pg
		}
	}

	wf, err := workflow.New(provider, engine, a.executor, a.logger)
	if err != nil {
		return err
	}
	a.workflow = wf

	// Feedback loop.
	if cfg.FeedbackStore == "sqlite" {
		a.store, err = feedback.NewSQLiteStore(ctx, cfg.FeedbackPath)
	} else {
		a.store, err = feedback.NewFileStore(cfg.FeedbackPath)
	}
	if err != nil {
		return err
	}
	a.loop, err = feedback.NewLoop(ctx, a.store, a.knowledge, a.logger)
	if err != nil {
		return err
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return err
	}

	a.srv = server.New(server.Config{
		Workflow:     a.workflow,
		Loop:         a.loop,
		Knowledge:    a.knowledge,
		Index:        a.index,
		Logger:       a.logger,
		Metrics:      metrics,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Version:      a.version,
	})
	return nil
}

func newEmbedder(cfg config.Config) embedding.Provider {
	switch cfg.EmbeddingProvider {
	case "openai":
		return embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.Dimensions)
	case "mock":
		return embedding.NewMockProvider(cfg.Dimensions)
	case "noop":
		return embedding.NewNoopProvider(cfg.Dimensions)
	}
	return embedding.NewGeminiProvider(cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.Dimensions)
}

func newProvider(cfg config.Config) llm.Provider {
	switch cfg.LLMProvider {
	case "openai":
		return llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.LLMModel)
	case "static":
		return &llm.Static{}
	}
	return llm.NewGemini(cfg.GeminiAPIKey, cfg.LLMModel)
}

// Run serves the HTTP API until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.WriteTimeout)
	defer cancel()
	return a.srv.Shutdown(shutdownCtx)
}

// Ask runs one question through the workflow and logs any executed SQL to
// the feedback loop. Returns the outcome and, for SQL-path runs, the
// feedback query id.
func (a *App) Ask(ctx context.Context, question string) (model.Outcome, string, error) {
	out := a.workflow.Process(ctx, question)
	if out.SQLQuery == "" {
		return out, "", nil
	}
	id, err := a.loop.LogExecution(ctx, out.Question, out.SQLQuery,
		out.SQLResult.Success, out.SQLResult.RowCount)
	if err != nil {
		return out, "", err
	}
	return out, id, nil
}

// Train seeds the knowledge index with the baseline corpus.
func (a *App) Train(ctx context.Context) error {
	return a.knowledge.Seed(ctx)
}

// Knowledge exposes the training store for CLI and embedding use.
func (a *App) Knowledge() *knowledge.Store {
	return a.knowledge
}

// Feedback exposes the feedback loop for CLI and embedding use.
func (a *App) Feedback() *feedback.Loop {
	return a.loop
}

// Workflow exposes the agent graph runner.
func (a *App) Workflow() *workflow.Workflow {
	return a.workflow
}

// Close releases all held resources. Safe to call after a failed New.
func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing feedback store", "error", err)
		}
	}
	if a.pgExecutor != nil {
		a.pgExecutor.Close()
	}
	if a.qdrantIndex != nil {
		if err := a.qdrantIndex.Close(); err != nil {
			a.logger.Warn("closing vector index", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.WriteTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.logger.Warn("shutting down telemetry", "error", err)
		}
	}
}
