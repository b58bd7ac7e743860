// Package search provides the vector index backing retrieval-augmented SQL
// generation: schema fragments, documentation, and question→SQL examples,
// each stored with an embedding and retrieved by kind-filtered similarity.
package search

import (
	"context"

	"github.com/cendekia-ai/cendekia/internal/model"
)

// Index is a similarity-search index over vector records.
// Implementations must be safe for concurrent use.
type Index interface {
	// Upsert inserts or replaces records by ID. Re-upserting an identical
	// record is a no-op, which gives deterministic-ID training idempotence.
	Upsert(ctx context.Context, records []model.VectorRecord) error

	// Delete removes a record by ID. Returns false (not an error) when no
	// record with that ID existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Search returns at most limit payloads of the given kind, ordered
	// best-similarity-first. An empty store yields an empty slice, not an
	// error.
	Search(ctx context.Context, embedding []float32, kind model.RecordKind, limit int) ([]model.RecordPayload, error)

	// CountByKind returns the number of stored records of one kind.
	CountByKind(ctx context.Context, kind model.RecordKind) (int, error)

	// Healthy returns nil if the index is reachable, or an error
	// describing the problem.
	Healthy(ctx context.Context) error
}
