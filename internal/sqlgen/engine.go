// Package sqlgen turns natural-language questions into warehouse SQL using
// retrieval-augmented prompting: grounding context from the knowledge store
// plus a single completion call.
package sqlgen

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cendekia-ai/cendekia/internal/knowledge"
	"github.com/cendekia-ai/cendekia/internal/llm"
)

// FailedSQL is returned when the completion provider fails. Downstream
// execution treats it as ordinary SQL and fails fast on the comment-only
// statement, so callers never see an empty string.
const FailedSQL = "-- cendekia: SQL generation failed"

// Known warehouse tables, listed in the prompt so the model does not invent
// table names when retrieval comes back thin.
var warehouseTables = []string{
	"dwh.dim_fakultas",
	"dwh.dim_program_studi",
	"dwh.dim_dosen",
	"dwh.dim_mata_kuliah",
	"dwh.dim_mahasiswa",
	"dwh.dim_semester",
	"dwh.fact_nilai",
	"dwh.fact_kehadiran",
	"dwh.fact_pembayaran_spp",
}

// Engine generates SQL for questions against the university warehouse.
type Engine struct {
	store    *knowledge.Store
	provider llm.Provider
	logger   *slog.Logger
}

// NewEngine creates a generation engine over a knowledge store and a
// completion provider.
func NewEngine(store *knowledge.Store, provider llm.Provider, logger *slog.Logger) *Engine {
	return &Engine{store: store, provider: provider, logger: logger}
}

// Generate produces SQL for a question. Retrieval failures degrade to a
// context-free prompt; only a completion failure yields the failure
// sentinel. The result is always a non-empty string.
func (e *Engine) Generate(ctx context.Context, question string) string {
	grounding := e.store.GroundingContext(ctx, question)
	if grounding.Empty() {
		e.logger.Debug("sqlgen: no grounding context retrieved", "question", question)
	}

	prompt := buildPrompt(question, grounding)
	raw, err := e.provider.Complete(ctx, prompt)
	if err != nil {
		e.logger.Error("sqlgen: completion failed", "error", err)
		return FailedSQL
	}

	sql := CleanSQL(raw)
	if sql == "" {
		e.logger.Error("sqlgen: provider returned empty completion")
		return FailedSQL
	}
	return sql
}

func buildPrompt(question string, g knowledge.Grounding) string {
	var b strings.Builder
	b.WriteString("You are a PostgreSQL expert for a university data warehouse.\n")
	b.WriteString("Generate a single valid SQL query that answers the question.\n")
	b.WriteString("Use only the tables listed below and always qualify them with the dwh schema.\n")
	b.WriteString("Respond with SQL only, no explanation.\n\n")

	if block := g.ContextBlock(); block != "" {
		b.WriteString(block)
		b.WriteString("\n\n")
	}

	b.WriteString("Available tables: ")
	b.WriteString(strings.Join(warehouseTables, ", "))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nSQL:")
	return b.String()
}

// CleanSQL strips one pair of markdown code fences and surrounding
// whitespace from a completion. Handles ```sql and bare ``` fences.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(s, "```sql"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
