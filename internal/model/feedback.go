package model

import "time"

// FeedbackRating is a human judgment on a generated query.
type FeedbackRating string

const (
	RatingCorrect   FeedbackRating = "correct"
	RatingIncorrect FeedbackRating = "incorrect"
)

// FeedbackRecord is one append-only, durable log entry describing a
// generated-query execution and the feedback it eventually receives.
// Created with FeedbackReceived=false; updated exactly once on submission.
type FeedbackRecord struct {
	QueryID          string         `json:"query_id"`
	Timestamp        time.Time      `json:"timestamp"`
	Question         string         `json:"question"`
	GeneratedSQL     string         `json:"generated_sql"`
	ExecutionSuccess bool           `json:"execution_success"`
	ResultCount      int            `json:"result_count"`
	FeedbackReceived bool           `json:"feedback_received"`
	FeedbackRating   FeedbackRating `json:"feedback_rating,omitempty"`
	CorrectedSQL     string         `json:"corrected_sql,omitempty"`
	FeedbackNotes    string         `json:"feedback_notes,omitempty"`
	FeedbackAt       *time.Time     `json:"feedback_at,omitempty"`
}

// FeedbackStats is a pure aggregate over the durable feedback log.
// Correct + Incorrect + NoFeedback == Total always holds. Rates are
// percentages over settled reviews, zero before any feedback arrives.
type FeedbackStats struct {
	Total          int     `json:"total"`
	Correct        int     `json:"correct"`
	Incorrect      int     `json:"incorrect"`
	NoFeedback     int     `json:"no_feedback"`
	SuccessRate    float64 `json:"success_rate"`
	CorrectionRate float64 `json:"correction_rate"`
}

// Correction is one entry in a bulk feedback application.
type Correction struct {
	QueryID      string `json:"query_id"`
	IsCorrect    bool   `json:"is_correct"`
	CorrectedSQL string `json:"corrected_sql,omitempty"`
	Notes        string `json:"notes,omitempty"`
}
