package search

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/cendekia-ai/cendekia/internal/model"
)

// MemoryIndex is an exact-scan, in-process Index. It backs unit tests and
// local development when no Qdrant instance is configured. Cosine similarity
// over a map guarded by an RWMutex; fine for seed-corpus scale, not for
// production volumes.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]model.VectorRecord
}

// NewMemoryIndex creates an empty in-process index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]model.VectorRecord)}
}

// Upsert inserts or replaces records by ID.
func (m *MemoryIndex) Upsert(_ context.Context, records []model.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

// Delete removes a record by ID, reporting whether it existed.
func (m *MemoryIndex) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

// Search returns the limit most similar payloads of one kind.
func (m *MemoryIndex) Search(_ context.Context, embedding []float32, kind model.RecordKind, limit int) ([]model.RecordPayload, error) {
	if limit <= 0 {
		limit = 3
	}

	type scored struct {
		payload model.RecordPayload
		score   float64
	}

	m.mu.RLock()
	candidates := make([]scored, 0, len(m.records))
	for _, r := range m.records {
		if r.Kind != kind {
			continue
		}
		candidates = append(candidates, scored{payload: r.Payload, score: cosine(embedding, r.Embedding)})
	}
	m.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	payloads := make([]model.RecordPayload, len(candidates))
	for i, c := range candidates {
		payloads[i] = c.payload
	}
	return payloads, nil
}

// CountByKind returns the number of stored records of one kind.
func (m *MemoryIndex) CountByKind(_ context.Context, kind model.RecordKind) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.records {
		if r.Kind == kind {
			n++
		}
	}
	return n, nil
}

// Healthy always succeeds: the index lives in-process.
func (m *MemoryIndex) Healthy(context.Context) error {
	return nil
}

// cosine computes cosine similarity. Mismatched or zero-length vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
