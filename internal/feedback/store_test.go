package feedback

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cendekia-ai/cendekia/internal/model"
)

func testRecord(id string) model.FeedbackRecord {
	return model.FeedbackRecord{
		QueryID:          id,
		Timestamp:        time.Now().UTC().Truncate(time.Millisecond),
		Question:         "Berapa jumlah mahasiswa aktif?",
		GeneratedSQL:     "SELECT COUNT(*) FROM dwh.dim_mahasiswa WHERE status_mahasiswa = 'Aktif';",
		ExecutionSuccess: true,
		ResultCount:      1,
	}
}

func runStoreSuite(t *testing.T, open func(t *testing.T) RecordStore) {
	ctx := context.Background()

	t.Run("empty log", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		records, err := store.All(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("append preserves order", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		require.NoError(t, store.Append(ctx, testRecord("a")))
		require.NoError(t, store.Append(ctx, testRecord("b")))
		require.NoError(t, store.Append(ctx, testRecord("c")))

		records, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "a", records[0].QueryID)
		assert.Equal(t, "b", records[1].QueryID)
		assert.Equal(t, "c", records[2].QueryID)
	})

	t.Run("update replaces matching record", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		rec := testRecord("a")
		require.NoError(t, store.Append(ctx, rec))
		require.NoError(t, store.Append(ctx, testRecord("b")))

		now := time.Now().UTC().Truncate(time.Millisecond)
		rec.FeedbackReceived = true
		rec.FeedbackRating = model.RatingIncorrect
		rec.CorrectedSQL = "SELECT COUNT(*) FROM dwh.dim_mahasiswa;"
		rec.FeedbackNotes = "filter too strict"
		rec.FeedbackAt = &now
		require.NoError(t, store.Update(ctx, rec))

		records, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.True(t, records[0].FeedbackReceived)
		assert.Equal(t, model.RatingIncorrect, records[0].FeedbackRating)
		assert.Equal(t, "filter too strict", records[0].FeedbackNotes)
		require.NotNil(t, records[0].FeedbackAt)
		assert.False(t, records[1].FeedbackReceived)
	})

	t.Run("update unknown id", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		err := store.Update(ctx, testRecord("missing"))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFileStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) RecordStore {
		store, err := NewFileStore(filepath.Join(t.TempDir(), "log.json"))
		require.NoError(t, err)
		return store
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) RecordStore {
		store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "log.db"))
		require.NoError(t, err)
		return store
	})
}
