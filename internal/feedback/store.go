// Package feedback implements the human-feedback learning loop: a durable
// execution log, pending-review tracking, and promotion of confirmed or
// corrected queries into the knowledge index.
package feedback

import (
	"context"
	"errors"

	"github.com/cendekia-ai/cendekia/internal/model"
)

// ErrNotFound reports that no durable record carries the requested query id.
var ErrNotFound = errors.New("feedback: record not found")

// RecordStore is the durable backing log of executions and their feedback.
type RecordStore interface {
	// Append adds one new record.
	Append(ctx context.Context, rec model.FeedbackRecord) error

	// Update replaces the record with matching QueryID. Returns
	// ErrNotFound when no such record exists.
	Update(ctx context.Context, rec model.FeedbackRecord) error

	// All returns every record in append order.
	All(ctx context.Context) ([]model.FeedbackRecord, error)

	// Close releases any held resources.
	Close() error
}
