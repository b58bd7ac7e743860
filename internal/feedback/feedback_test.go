package feedback

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cendekia-ai/cendekia/internal/embedding"
	"github.com/cendekia-ai/cendekia/internal/knowledge"
	"github.com/cendekia-ai/cendekia/internal/model"
	"github.com/cendekia-ai/cendekia/internal/search"
)

func newTestLoop(t *testing.T) (*Loop, *search.MemoryIndex, RecordStore) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	idx := search.NewMemoryIndex()
	ks := knowledge.NewStore(idx, embedding.NewMockProvider(768), logger)
	store, err := NewFileStore(filepath.Join(t.TempDir(), "feedback_log.json"))
	require.NoError(t, err)
	loop, err := NewLoop(context.Background(), store, ks, logger)
	require.NoError(t, err)
	return loop, idx, store
}

func TestLogExecutionCreatesPendingRecord(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	ctx := context.Background()

	id, err := loop.LogExecution(ctx, "Berapa jumlah mahasiswa aktif?",
		"SELECT COUNT(*) FROM dwh.dim_mahasiswa;", true, 1)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	pending, err := loop.PendingReview(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].QueryID)
	assert.False(t, pending[0].FeedbackReceived)
	assert.True(t, pending[0].ExecutionSuccess)
	assert.Equal(t, 1, pending[0].ResultCount)
}

func TestSubmitUnknownID(t *testing.T) {
	loop, _, _ := newTestLoop(t)

	ok, err := loop.Submit(context.Background(), "no-such-id", true, "", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmitSettlesAtMostOnce(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	ctx := context.Background()

	id, err := loop.LogExecution(ctx, "Berapa jumlah dosen?",
		"SELECT COUNT(*) FROM dwh.dim_dosen;", true, 1)
	require.NoError(t, err)

	ok, err := loop.Submit(ctx, id, true, "", "")
	require.NoError(t, err)
	assert.True(t, ok)

	// Second submission for the same id is rejected.
	ok, err = loop.Submit(ctx, id, false, "", "changed my mind")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmitCorrectPromotesOriginalPair(t *testing.T) {
	loop, idx, _ := newTestLoop(t)
	ctx := context.Background()

	id, err := loop.LogExecution(ctx, "Berapa jumlah fakultas?",
		"SELECT COUNT(*) FROM dwh.dim_fakultas;", true, 1)
	require.NoError(t, err)

	ok, err := loop.Submit(ctx, id, true, "", "")
	require.NoError(t, err)
	require.True(t, ok)

	n, err := idx.CountByKind(ctx, model.KindQuestionSQL)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubmitCorrectionPromotesCorrectedPair(t *testing.T) {
	loop, idx, store := newTestLoop(t)
	ctx := context.Background()

	id, err := loop.LogExecution(ctx, "Berapa jumlah prodi S2?",
		"SELECT COUNT(*) FROM dwh.dim_program_studi;", true, 1)
	require.NoError(t, err)

	corrected := "SELECT COUNT(*) FROM dwh.dim_program_studi WHERE jenjang = 'S2';"
	ok, err := loop.Submit(ctx, id, false, corrected, "missing jenjang filter")
	require.NoError(t, err)
	require.True(t, ok)

	// The corrected pair lands in the index.
	n, err := idx.CountByKind(ctx, model.KindQuestionSQL)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The durable record keeps both the original and the correction.
	records, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.RatingIncorrect, records[0].FeedbackRating)
	assert.Equal(t, corrected, records[0].CorrectedSQL)
	assert.Equal(t, "SELECT COUNT(*) FROM dwh.dim_program_studi;", records[0].GeneratedSQL)
	require.NotNil(t, records[0].FeedbackAt)
}

func TestSubmitIncorrectWithoutCorrectionIsAuditOnly(t *testing.T) {
	loop, idx, _ := newTestLoop(t)
	ctx := context.Background()

	id, err := loop.LogExecution(ctx, "Siapa dekan FMIPA?",
		"SELECT dekan FROM dwh.dim_fakultas;", true, 3)
	require.NoError(t, err)

	ok, err := loop.Submit(ctx, id, false, "", "wrong faculty filter")
	require.NoError(t, err)
	require.True(t, ok)

	n, err := idx.CountByKind(ctx, model.KindQuestionSQL)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStatsInvariant(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := loop.LogExecution(ctx, "pertanyaan", "SELECT 1;", true, 1)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	_, err := loop.Submit(ctx, ids[0], true, "", "")
	require.NoError(t, err)
	_, err = loop.Submit(ctx, ids[1], true, "", "")
	require.NoError(t, err)
	_, err = loop.Submit(ctx, ids[2], false, "SELECT 2;", "")
	require.NoError(t, err)

	stats, err := loop.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Correct)
	assert.Equal(t, 1, stats.Incorrect)
	assert.Equal(t, 2, stats.NoFeedback)
	assert.Equal(t, stats.Total, stats.Correct+stats.Incorrect+stats.NoFeedback)
	assert.InDelta(t, 200.0/3.0, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 100.0/3.0, stats.CorrectionRate, 1e-9)
}

func TestStatsEmptyLog(t *testing.T) {
	loop, _, _ := newTestLoop(t)

	stats, err := loop.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.SuccessRate)
	assert.Zero(t, stats.CorrectionRate)
}

func TestPendingReviewNewestFirstWithLimit(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := loop.LogExecution(ctx, "pertanyaan", "SELECT 1;", true, 1)
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}

	pending, err := loop.PendingReview(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[2], pending[0].QueryID)
	assert.Equal(t, ids[1], pending[1].QueryID)
}

func TestBulkApplyCountsSuccesses(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	ctx := context.Background()

	id1, err := loop.LogExecution(ctx, "q1", "SELECT 1;", true, 1)
	require.NoError(t, err)
	id2, err := loop.LogExecution(ctx, "q2", "SELECT 2;", true, 1)
	require.NoError(t, err)

	applied := loop.BulkApply(ctx, []model.Correction{
		{QueryID: id1, IsCorrect: true},
		{QueryID: id2, IsCorrect: false, CorrectedSQL: "SELECT 3;"},
		{QueryID: "missing", IsCorrect: true},
	})
	assert.Equal(t, 2, applied)
}

func TestPendingSurvivesRestart(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	idx := search.NewMemoryIndex()
	ks := knowledge.NewStore(idx, embedding.NewMockProvider(768), logger)
	path := filepath.Join(t.TempDir(), "feedback_log.json")
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)
	loop, err := NewLoop(ctx, store, ks, logger)
	require.NoError(t, err)

	id, err := loop.LogExecution(ctx, "q", "SELECT 1;", true, 1)
	require.NoError(t, err)

	// A fresh loop over the same file can still settle the review.
	store2, err := NewFileStore(path)
	require.NoError(t, err)
	loop2, err := NewLoop(ctx, store2, ks, logger)
	require.NoError(t, err)

	ok, err := loop2.Submit(ctx, id, true, "", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

// gatedStore parks Update until released so a test can hold one submission
// inside the durable write while issuing another.
type gatedStore struct {
	RecordStore

	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Update(ctx context.Context, rec model.FeedbackRecord) error {
	g.entered <- struct{}{}
	<-g.release
	return g.RecordStore.Update(ctx, rec)
}

func TestSubmitConcurrentDuplicateSettlesOnce(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	idx := search.NewMemoryIndex()
	ks := knowledge.NewStore(idx, embedding.NewMockProvider(768), logger)
	base, err := NewFileStore(filepath.Join(t.TempDir(), "feedback_log.json"))
	require.NoError(t, err)
	gated := &gatedStore{
		RecordStore: base,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	ctx := context.Background()
	loop, err := NewLoop(ctx, gated, ks, logger)
	require.NoError(t, err)

	id, err := loop.LogExecution(ctx, "Berapa jumlah mahasiswa aktif?",
		"SELECT COUNT(*) FROM dwh.dim_mahasiswa;", true, 1)
	require.NoError(t, err)

	var firstOK bool
	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		firstOK, firstErr = loop.Submit(ctx, id, true, "", "")
	}()

	// The first submission has claimed the review and is parked inside
	// the durable update. A duplicate arriving now must be rejected.
	<-gated.entered
	secondOK, secondErr := loop.Submit(ctx, id, true, "", "")
	require.NoError(t, secondErr)
	assert.False(t, secondOK)

	close(gated.release)
	<-done
	require.NoError(t, firstErr)
	assert.True(t, firstOK)

	n, err := idx.CountByKind(ctx, model.KindQuestionSQL)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "one human judgment must promote exactly one pair")
}

// flakyStore fails Update while fail is set.
type flakyStore struct {
	RecordStore

	fail bool
}

func (f *flakyStore) Update(ctx context.Context, rec model.FeedbackRecord) error {
	if f.fail {
		return errors.New("log unavailable")
	}
	return f.RecordStore.Update(ctx, rec)
}

func TestSubmitUpdateFailureKeepsReviewOpen(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	idx := search.NewMemoryIndex()
	ks := knowledge.NewStore(idx, embedding.NewMockProvider(768), logger)
	base, err := NewFileStore(filepath.Join(t.TempDir(), "feedback_log.json"))
	require.NoError(t, err)
	store := &flakyStore{RecordStore: base, fail: true}
	ctx := context.Background()
	loop, err := NewLoop(ctx, store, ks, logger)
	require.NoError(t, err)

	id, err := loop.LogExecution(ctx, "q", "SELECT 1;", true, 1)
	require.NoError(t, err)

	ok, err := loop.Submit(ctx, id, true, "", "")
	require.Error(t, err)
	assert.False(t, ok)

	// A failed settle leaves the review claimable.
	store.fail = false
	ok, err = loop.Submit(ctx, id, true, "", "")
	require.NoError(t, err)
	assert.True(t, ok)
}
