package warehouse

import (
	"context"

	"github.com/cendekia-ai/cendekia/internal/model"
)

// Static returns a fixed table (or error) for every statement. Tests and
// warehouse-less dev runs use it in place of PGExecutor.
type Static struct {
	Table model.Table
	Err   error

	// Statements records every executed statement in order.
	Statements []string
}

// Execute returns the configured table or error.
func (s *Static) Execute(_ context.Context, sql string) (model.Table, error) {
	s.Statements = append(s.Statements, sql)
	if s.Err != nil {
		return model.Table{}, s.Err
	}
	return s.Table, nil
}
