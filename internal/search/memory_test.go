package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cendekia-ai/cendekia/internal/model"
)

func TestMemoryIndex_UpsertIsIdempotentByID(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	rec := model.VectorRecord{
		ID:        model.ContentID("CREATE TABLE dwh.dim_mahasiswa (...)"),
		Kind:      model.KindDDL,
		Embedding: []float32{1, 0, 0},
		Payload:   model.RecordPayload{Content: "CREATE TABLE dwh.dim_mahasiswa (...)"},
	}

	require.NoError(t, idx.Upsert(ctx, []model.VectorRecord{rec}))
	require.NoError(t, idx.Upsert(ctx, []model.VectorRecord{rec}))

	n, err := idx.CountByKind(ctx, model.KindDDL)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "re-upserting the same content hash must not duplicate")
}

func TestMemoryIndex_Delete(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	rec := model.VectorRecord{
		ID:        model.FreshID(),
		Kind:      model.KindQuestionSQL,
		Embedding: []float32{0, 1, 0},
		Payload:   model.RecordPayload{Question: "q", SQL: "SELECT 1;", Content: "Question: q\nSQL: SELECT 1;"},
	}
	require.NoError(t, idx.Upsert(ctx, []model.VectorRecord{rec}))

	existed, err := idx.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = idx.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, existed, "deleting a missing record is a no-op, not an error")
}

func TestMemoryIndex_SearchFiltersByKindAndRanks(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	records := []model.VectorRecord{
		{ID: "a", Kind: model.KindDDL, Embedding: []float32{1, 0, 0}, Payload: model.RecordPayload{Content: "ddl close"}},
		{ID: "b", Kind: model.KindDDL, Embedding: []float32{0.5, 0.5, 0}, Payload: model.RecordPayload{Content: "ddl mid"}},
		{ID: "c", Kind: model.KindDDL, Embedding: []float32{0, 0, 1}, Payload: model.RecordPayload{Content: "ddl far"}},
		{ID: "d", Kind: model.KindDocumentation, Embedding: []float32{1, 0, 0}, Payload: model.RecordPayload{Content: "doc, same vector, wrong kind"}},
	}
	require.NoError(t, idx.Upsert(ctx, records))

	got, err := idx.Search(ctx, []float32{1, 0, 0}, model.KindDDL, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ddl close", got[0].Content)
	assert.Equal(t, "ddl mid", got[1].Content)
}

func TestMemoryIndex_SearchEmptyStore(t *testing.T) {
	idx := NewMemoryIndex()

	got, err := idx.Search(context.Background(), []float32{1, 0, 0}, model.KindQuestionSQL, 3)
	require.NoError(t, err)
	assert.Empty(t, got, "empty store yields empty results, not an error")
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "mismatched length", a: []float32{1, 0}, b: []float32{1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosine(tt.a, tt.b), 1e-9)
		})
	}
}
