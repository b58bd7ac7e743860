package model

import (
	"crypto/sha256"

	"github.com/google/uuid"
)

// RecordKind categorizes entries in the vector index.
type RecordKind string

const (
	// KindDDL is a schema fragment (CREATE TABLE text plus commentary).
	KindDDL RecordKind = "ddl"
	// KindDocumentation is free-form domain documentation.
	KindDocumentation RecordKind = "documentation"
	// KindQuestionSQL is a question paired with the SQL that answers it.
	KindQuestionSQL RecordKind = "question_sql"
)

// Kinds lists every record kind, in retrieval-context order.
func Kinds() []RecordKind {
	return []RecordKind{KindDDL, KindDocumentation, KindQuestionSQL}
}

// VectorRecord is one entry in the vector index. Records are never mutated
// in place; corrections add new records rather than editing old ones.
type VectorRecord struct {
	ID        string
	Kind      RecordKind
	Embedding []float32
	Payload   RecordPayload
}

// RecordPayload holds the kind-specific content of a vector record.
// DDL and Documentation carry their text in Content; QuestionSQL carries
// the pair plus the combined Content that was embedded.
type RecordPayload struct {
	Content  string `json:"content"`
	Question string `json:"question,omitempty"`
	SQL      string `json:"sql,omitempty"`
}

// cendekiaNamespace scopes deterministic record IDs to this project.
var cendekiaNamespace = uuid.MustParse("8f0c3e6a-1d4b-4c6e-9b2a-5e7d1f3a9c01")

// ContentID derives a deterministic record ID from content so re-adding
// identical text is an idempotent upsert. The SHA-256 digest is folded into
// a UUID via the project namespace because the vector index requires
// UUID-shaped point IDs.
func ContentID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return uuid.NewSHA1(cendekiaNamespace, sum[:]).String()
}

// FreshID returns a random record ID. Used for feedback-driven examples:
// each correction is a new training example, not a replacement.
func FreshID() string {
	return uuid.NewString()
}
