package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cendekia-ai/cendekia/internal/knowledge"
	"github.com/cendekia-ai/cendekia/internal/model"
)

// Loop ties the durable execution log to the knowledge index. Every
// generated-query execution is logged and becomes pending; a human
// submission settles it exactly once, and correct or corrected queries are
// promoted into the index as new question→SQL examples.
//
// Safe for concurrent use.
type Loop struct {
	store     RecordStore
	knowledge *knowledge.Store
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string]model.FeedbackRecord
}

// NewLoop creates a feedback loop over a durable store. The pending set is
// rebuilt from the log, so reviews survive restarts.
func NewLoop(ctx context.Context, store RecordStore, ks *knowledge.Store, logger *slog.Logger) (*Loop, error) {
	records, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("feedback: load log: %w", err)
	}
	pending := make(map[string]model.FeedbackRecord)
	for _, rec := range records {
		if !rec.FeedbackReceived {
			pending[rec.QueryID] = rec
		}
	}
	return &Loop{store: store, knowledge: ks, logger: logger, pending: pending}, nil
}

// LogExecution durably records one generated-query execution and marks it
// pending review. Returns the new query id.
func (l *Loop) LogExecution(ctx context.Context, question, sql string, success bool, resultCount int) (string, error) {
	rec := model.FeedbackRecord{
		QueryID:          model.FreshID(),
		Timestamp:        time.Now().UTC(),
		Question:         question,
		GeneratedSQL:     sql,
		ExecutionSuccess: success,
		ResultCount:      resultCount,
	}
	if err := l.store.Append(ctx, rec); err != nil {
		return "", err
	}

	l.mu.Lock()
	l.pending[rec.QueryID] = rec
	l.mu.Unlock()

	l.logger.Debug("feedback: execution logged",
		"query_id", rec.QueryID, "success", success, "rows", resultCount)
	return rec.QueryID, nil
}

// Submit settles one pending review. Returns false when the id is unknown
// or already settled. A correct verdict promotes the original pair into the
// knowledge index; an incorrect verdict with a correction promotes the
// corrected pair instead, leaving the original index records untouched. An
// incorrect verdict alone is audit-only.
func (l *Loop) Submit(ctx context.Context, queryID string, correct bool, correctedSQL, notes string) (bool, error) {
	// Claim the review under the lock so a concurrent Submit for the same
	// id sees it gone and returns false.
	l.mu.Lock()
	orig, ok := l.pending[queryID]
	if ok {
		delete(l.pending, queryID)
	}
	l.mu.Unlock()
	if !ok {
		return false, nil
	}

	rec := orig
	now := time.Now().UTC()
	rec.FeedbackReceived = true
	rec.FeedbackAt = &now
	rec.CorrectedSQL = correctedSQL
	rec.FeedbackNotes = notes
	rec.FeedbackRating = model.RatingIncorrect
	if correct {
		rec.FeedbackRating = model.RatingCorrect
	}

	if err := l.store.Update(ctx, rec); err != nil {
		// The review is still open; put the claim back.
		l.mu.Lock()
		l.pending[queryID] = orig
		l.mu.Unlock()
		return false, fmt.Errorf("feedback: settle %s: %w", queryID, err)
	}

	// The durable record is authoritative; index promotion failures are
	// logged and retried via the next correction, never rolled back.
	switch {
	case correct:
		if _, err := l.knowledge.AddQuestionSQL(ctx, rec.Question, rec.GeneratedSQL, false); err != nil {
			l.logger.Error("feedback: promote confirmed pair failed",
				"query_id", queryID, "error", err)
		}
	case correctedSQL != "":
		if _, err := l.knowledge.AddQuestionSQL(ctx, rec.Question, correctedSQL, false); err != nil {
			l.logger.Error("feedback: promote corrected pair failed",
				"query_id", queryID, "error", err)
		}
	}

	l.logger.Info("feedback: review settled",
		"query_id", queryID, "rating", rec.FeedbackRating, "corrected", correctedSQL != "")
	return true, nil
}

// Stats aggregates the durable log. Rates are zero when no feedback has
// been received yet.
func (l *Loop) Stats(ctx context.Context) (model.FeedbackStats, error) {
	records, err := l.store.All(ctx)
	if err != nil {
		return model.FeedbackStats{}, err
	}

	stats := model.FeedbackStats{Total: len(records)}
	for _, rec := range records {
		switch {
		case !rec.FeedbackReceived:
			stats.NoFeedback++
		case rec.FeedbackRating == model.RatingCorrect:
			stats.Correct++
		default:
			stats.Incorrect++
		}
	}

	// Percentages over settled reviews only; zero before any feedback.
	if settled := stats.Correct + stats.Incorrect; settled > 0 {
		stats.SuccessRate = float64(stats.Correct) / float64(settled) * 100
		stats.CorrectionRate = float64(stats.Incorrect) / float64(settled) * 100
	}
	return stats, nil
}

// PendingReview returns unsettled records, newest first, at most limit.
// limit <= 0 means all.
func (l *Loop) PendingReview(ctx context.Context, limit int) ([]model.FeedbackRecord, error) {
	records, err := l.store.All(ctx)
	if err != nil {
		return nil, err
	}

	var pending []model.FeedbackRecord
	for _, rec := range records {
		if !rec.FeedbackReceived {
			pending = append(pending, rec)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Timestamp.After(pending[j].Timestamp)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// BulkApply settles many reviews and returns how many succeeded. Failures
// are logged and skipped; there is no rollback.
func (l *Loop) BulkApply(ctx context.Context, corrections []model.Correction) int {
	applied := 0
	for _, c := range corrections {
		ok, err := l.Submit(ctx, c.QueryID, c.IsCorrect, c.CorrectedSQL, c.Notes)
		if err != nil {
			l.logger.Error("feedback: bulk apply failed", "query_id", c.QueryID, "error", err)
			continue
		}
		if !ok {
			l.logger.Warn("feedback: bulk apply skipped unknown or settled id", "query_id", c.QueryID)
			continue
		}
		applied++
	}
	return applied
}
