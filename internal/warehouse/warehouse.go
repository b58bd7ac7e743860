// Package warehouse executes generated SQL against the university data
// warehouse and returns results as ordered tables.
package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cendekia-ai/cendekia/internal/model"
)

// Executor runs a SQL statement and returns its result set. An error or an
// empty table both read as "no usable data" to callers.
type Executor interface {
	Execute(ctx context.Context, sql string) (model.Table, error)
}

// PGExecutor executes queries against PostgreSQL through a pgx pool.
type PGExecutor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *slog.Logger
}

// NewPGExecutor connects a pool to the warehouse and verifies it with a
// ping. queryTimeout bounds each Execute call; zero means 30s.
func NewPGExecutor(ctx context.Context, dsn string, queryTimeout time.Duration, logger *slog.Logger) (*PGExecutor, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("warehouse: parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("warehouse: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("warehouse: ping: %w", err)
	}

	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &PGExecutor{pool: pool, timeout: queryTimeout, logger: logger}, nil
}

// Execute runs one statement and materializes the full result set. Column
// order follows the row description; values keep their pgx Go types so the
// visualization rules can inspect them.
func (e *PGExecutor) Execute(ctx context.Context, sql string) (model.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	rows, err := e.pool.Query(ctx, sql)
	if err != nil {
		return model.Table{}, fmt.Errorf("warehouse: query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var result [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return model.Table{}, fmt.Errorf("warehouse: read row: %w", err)
		}
		row := make([]any, len(values))
		copy(row, values)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return model.Table{}, fmt.Errorf("warehouse: iterate rows: %w", err)
	}

	e.logger.Debug("warehouse: query executed",
		"rows", len(result), "columns", len(columns), "duration", time.Since(start))
	return model.Table{Columns: columns, Rows: result}, nil
}

// Healthy pings the warehouse.
func (e *PGExecutor) Healthy(ctx context.Context) error {
	if err := e.pool.Ping(ctx); err != nil {
		return fmt.Errorf("warehouse: ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (e *PGExecutor) Close() {
	e.pool.Close()
}
