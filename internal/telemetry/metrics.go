package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments recorded across a workflow run and the
// feedback loop. Created once at startup; all methods are safe for
// concurrent use and no-ops whenever OTEL is disabled.
type Metrics struct {
	runs        metric.Int64Counter
	runDuration metric.Float64Histogram
	submissions metric.Int64Counter
}

// NewMetrics registers the application instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := Meter("cendekia")

	runs, err := meter.Int64Counter("cendekia.workflow.runs",
		metric.WithDescription("Workflow runs by query type and outcome"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create runs counter: %w", err)
	}
	runDuration, err := meter.Float64Histogram("cendekia.workflow.duration",
		metric.WithDescription("End-to-end workflow run duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create duration histogram: %w", err)
	}
	submissions, err := meter.Int64Counter("cendekia.feedback.submissions",
		metric.WithDescription("Feedback submissions by verdict"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create submissions counter: %w", err)
	}

	return &Metrics{runs: runs, runDuration: runDuration, submissions: submissions}, nil
}

// RecordRun records one finished workflow run.
func (m *Metrics) RecordRun(ctx context.Context, queryType string, success bool, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("query_type", queryType),
		attribute.Bool("success", success),
	)
	m.runs.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordSubmission records one feedback submission.
func (m *Metrics) RecordSubmission(ctx context.Context, correct, accepted bool) {
	m.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("correct", correct),
		attribute.Bool("accepted", accepted),
	))
}
