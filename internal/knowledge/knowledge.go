// Package knowledge manages the training corpus behind SQL generation:
// schema fragments, documentation, and question→SQL examples stored in the
// vector index, plus the kind-filtered retrieval that grounds prompts.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cendekia-ai/cendekia/internal/embedding"
	"github.com/cendekia-ai/cendekia/internal/model"
	"github.com/cendekia-ai/cendekia/internal/search"
)

// Retrieval depth per kind. Schema carries the most signal, so it gets the
// deepest cut; documentation is broad-context filler.
const (
	ddlLimit     = 3
	docLimit     = 2
	exampleLimit = 3
)

// Store adds training records to the vector index and retrieves grounding
// context for questions. Safe for concurrent use when the index is.
type Store struct {
	index    search.Index
	embedder embedding.Provider
	logger   *slog.Logger
}

// NewStore creates a knowledge store over an index and an embedding provider.
func NewStore(index search.Index, embedder embedding.Provider, logger *slog.Logger) *Store {
	return &Store{index: index, embedder: embedder, logger: logger}
}

// AddDDL stores a schema fragment under its content hash. Re-adding
// identical text replaces the same record (idempotent upsert).
func (s *Store) AddDDL(ctx context.Context, ddl string) (string, error) {
	ddl = strings.TrimSpace(ddl)
	return s.add(ctx, model.VectorRecord{
		ID:      model.ContentID(ddl),
		Kind:    model.KindDDL,
		Payload: model.RecordPayload{Content: ddl},
	}, ddl)
}

// AddDocumentation stores domain documentation under its content hash.
func (s *Store) AddDocumentation(ctx context.Context, doc string) (string, error) {
	doc = strings.TrimSpace(doc)
	return s.add(ctx, model.VectorRecord{
		ID:      model.ContentID(doc),
		Kind:    model.KindDocumentation,
		Payload: model.RecordPayload{Content: doc},
	}, doc)
}

// AddQuestionSQL stores a question→SQL pair. Seeded training pairs use the
// deterministic content hash so re-seeding is idempotent; feedback-driven
// pairs use a fresh random ID so every correction is a new example rather
// than a replacement.
func (s *Store) AddQuestionSQL(ctx context.Context, question, sql string, deterministic bool) (string, error) {
	content := fmt.Sprintf("Question: %s\nSQL: %s", question, sql)
	id := model.FreshID()
	if deterministic {
		id = model.ContentID(content)
	}
	return s.add(ctx, model.VectorRecord{
		ID:      id,
		Kind:    model.KindQuestionSQL,
		Payload: model.RecordPayload{Content: content, Question: question, SQL: sql},
	}, content)
}

func (s *Store) add(ctx context.Context, rec model.VectorRecord, embedText string) (string, error) {
	vec, err := s.embedder.Embed(ctx, embedText)
	if err != nil {
		return "", fmt.Errorf("knowledge: embed %s record: %w", rec.Kind, err)
	}
	rec.Embedding = vec
	if err := s.index.Upsert(ctx, []model.VectorRecord{rec}); err != nil {
		return "", fmt.Errorf("knowledge: store %s record: %w", rec.Kind, err)
	}
	return rec.ID, nil
}

// Grounding is the retrieved context for one question, in prompt order:
// schema first, then documentation, then examples.
type Grounding struct {
	DDL      []string
	Docs     []string
	Examples []string
}

// Empty reports whether nothing was retrieved.
func (g Grounding) Empty() bool {
	return len(g.DDL) == 0 && len(g.Docs) == 0 && len(g.Examples) == 0
}

// ContextBlock renders the grounding as a single prompt section in the
// fixed order schema → documentation → examples.
func (g Grounding) ContextBlock() string {
	var b strings.Builder
	if len(g.DDL) > 0 {
		b.WriteString("Relevant database schema:\n")
		b.WriteString(strings.Join(g.DDL, "\n"))
	}
	if len(g.Docs) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Relevant documentation:\n")
		b.WriteString(strings.Join(g.Docs, "\n"))
	}
	if len(g.Examples) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Similar examples:\n")
		b.WriteString(strings.Join(g.Examples, "\n"))
	}
	return b.String()
}

// GroundingContext retrieves grounding for a question: top-3 schema
// fragments, top-2 documentation entries, top-3 similar examples, as three
// independent kind-filtered searches. Retrieval failures degrade to an
// empty slice for the failing kind, and generation proceeds with whatever
// context survived. An embedding failure empties all three.
func (s *Store) GroundingContext(ctx context.Context, question string) Grounding {
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		s.logger.Warn("knowledge: question embedding failed, retrieval degraded to empty",
			"error", err)
		return Grounding{}
	}

	return Grounding{
		DDL:      s.searchKind(ctx, vec, model.KindDDL, ddlLimit),
		Docs:     s.searchKind(ctx, vec, model.KindDocumentation, docLimit),
		Examples: s.searchKind(ctx, vec, model.KindQuestionSQL, exampleLimit),
	}
}

func (s *Store) searchKind(ctx context.Context, vec []float32, kind model.RecordKind, limit int) []string {
	payloads, err := s.index.Search(ctx, vec, kind, limit)
	if err != nil {
		s.logger.Warn("knowledge: retrieval failed, degrading to empty context",
			"kind", kind, "error", err)
		return nil
	}
	out := make([]string, 0, len(payloads))
	for _, p := range payloads {
		if p.Content != "" {
			out = append(out, p.Content)
		}
	}
	return out
}

// Summary returns per-kind record counts.
func (s *Store) Summary(ctx context.Context) (map[model.RecordKind]int, error) {
	counts := make(map[model.RecordKind]int, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		n, err := s.index.CountByKind(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("knowledge: count %s: %w", kind, err)
		}
		counts[kind] = n
	}
	return counts, nil
}
