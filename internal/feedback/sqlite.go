package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cendekia-ai/cendekia/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS feedback_log (
    query_id          TEXT PRIMARY KEY,
    created_at        TEXT NOT NULL,
    question          TEXT NOT NULL,
    generated_sql     TEXT NOT NULL,
    execution_success INTEGER NOT NULL,
    result_count      INTEGER NOT NULL,
    feedback_received INTEGER NOT NULL DEFAULT 0,
    feedback_rating   TEXT NOT NULL DEFAULT '',
    corrected_sql     TEXT NOT NULL DEFAULT '',
    feedback_notes    TEXT NOT NULL DEFAULT '',
    feedback_at       TEXT,
    seq               INTEGER
);
CREATE INDEX IF NOT EXISTS idx_feedback_log_pending
    ON feedback_log (feedback_received, created_at);
`

// SQLiteStore keeps the feedback log in SQLite. Updates are transactional,
// so concurrent processes sharing the file see consistent records.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the log database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("feedback: open sqlite log: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent submissions.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("feedback: init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append adds one record to the log.
func (s *SQLiteStore) Append(ctx context.Context, rec model.FeedbackRecord) error {
	var feedbackAt any
	if rec.FeedbackAt != nil {
		feedbackAt = rec.FeedbackAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_log (
			query_id, created_at, question, generated_sql,
			execution_success, result_count, feedback_received,
			feedback_rating, corrected_sql, feedback_notes, feedback_at,
			seq
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM feedback_log))`,
		rec.QueryID, rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Question, rec.GeneratedSQL,
		rec.ExecutionSuccess, rec.ResultCount, rec.FeedbackReceived,
		string(rec.FeedbackRating), rec.CorrectedSQL, rec.FeedbackNotes,
		feedbackAt)
	if err != nil {
		return fmt.Errorf("feedback: insert record: %w", err)
	}
	return nil
}

// Update replaces the record with matching QueryID inside a transaction.
func (s *SQLiteStore) Update(ctx context.Context, rec model.FeedbackRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("feedback: begin update: %w", err)
	}
	defer tx.Rollback()

	var feedbackAt any
	if rec.FeedbackAt != nil {
		feedbackAt = rec.FeedbackAt.UTC().Format(time.RFC3339Nano)
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE feedback_log SET
			created_at = ?, question = ?, generated_sql = ?,
			execution_success = ?, result_count = ?, feedback_received = ?,
			feedback_rating = ?, corrected_sql = ?, feedback_notes = ?,
			feedback_at = ?
		WHERE query_id = ?`,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Question, rec.GeneratedSQL,
		rec.ExecutionSuccess, rec.ResultCount, rec.FeedbackReceived,
		string(rec.FeedbackRating), rec.CorrectedSQL, rec.FeedbackNotes,
		feedbackAt, rec.QueryID)
	if err != nil {
		return fmt.Errorf("feedback: update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("feedback: update record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("feedback: commit update: %w", err)
	}
	return nil
}

// All returns every record in append order.
func (s *SQLiteStore) All(ctx context.Context) ([]model.FeedbackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query_id, created_at, question, generated_sql,
		       execution_success, result_count, feedback_received,
		       feedback_rating, corrected_sql, feedback_notes, feedback_at
		FROM feedback_log ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("feedback: read log: %w", err)
	}
	defer rows.Close()

	var records []model.FeedbackRecord
	for rows.Next() {
		var rec model.FeedbackRecord
		var createdAt, rating string
		var feedbackAt sql.NullString
		if err := rows.Scan(&rec.QueryID, &createdAt, &rec.Question,
			&rec.GeneratedSQL, &rec.ExecutionSuccess, &rec.ResultCount,
			&rec.FeedbackReceived, &rating, &rec.CorrectedSQL,
			&rec.FeedbackNotes, &feedbackAt); err != nil {
			return nil, fmt.Errorf("feedback: scan record: %w", err)
		}
		rec.FeedbackRating = model.FeedbackRating(rating)
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("feedback: parse timestamp: %w", err)
		}
		if feedbackAt.Valid {
			at, err := time.Parse(time.RFC3339Nano, feedbackAt.String)
			if err != nil {
				return nil, fmt.Errorf("feedback: parse feedback time: %w", err)
			}
			rec.FeedbackAt = &at
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("feedback: read log: %w", err)
	}
	return records, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
