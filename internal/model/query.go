// Package model defines the core domain types shared across the workflow,
// retrieval, and feedback layers.
package model

import "time"

// QueryType classifies an incoming question.
type QueryType string

const (
	QueryTypeData            QueryType = "data_query"
	QueryTypeComparison      QueryType = "comparison"
	QueryTypeTrendAnalysis   QueryType = "trend_analysis"
	QueryTypeComplexAnalysis QueryType = "complex_analysis"
	QueryTypeStrategy        QueryType = "strategy_question"
	QueryTypeSimpleInfo      QueryType = "simple_info"
)

// ValidQueryType reports whether s is a recognized query type.
func ValidQueryType(s string) bool {
	switch QueryType(s) {
	case QueryTypeData, QueryTypeComparison, QueryTypeTrendAnalysis,
		QueryTypeComplexAnalysis, QueryTypeStrategy, QueryTypeSimpleInfo:
		return true
	}
	return false
}

// SQLResult summarizes the outcome of executing a generated query.
type SQLResult struct {
	Success  bool     `json:"success"`
	RowCount int      `json:"row_count"`
	Columns  []string `json:"columns,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Table is a tabular query result: ordered columns and rows of values.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Empty reports whether the table holds no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// NumericColumns returns the names of columns whose first non-nil value is
// a numeric Go type.
func (t Table) NumericColumns() []string {
	return t.columnsWhere(isNumeric)
}

// CategoricalColumns returns the names of columns holding string values.
func (t Table) CategoricalColumns() []string {
	return t.columnsWhere(func(v any) bool {
		_, ok := v.(string)
		return ok
	})
}

func (t Table) columnsWhere(pred func(any) bool) []string {
	var out []string
	for i, col := range t.Columns {
		for _, row := range t.Rows {
			if i >= len(row) || row[i] == nil {
				continue
			}
			if pred(row[i]) {
				out = append(out, col)
			}
			break
		}
	}
	return out
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// Notice is one entry in the inter-agent audit trail. Append-only; each
// workflow step adds exactly one.
type Notice struct {
	Step    string    `json:"step"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// QueryState is the shared state threaded through one workflow run.
// Steps are pure functions from QueryState to QueryState: they receive the
// state by value and return an updated copy, never mutating shared memory.
type QueryState struct {
	UserQuestion string
	QueryType    QueryType

	NeedsDatabase       bool
	VisualizationNeeded bool

	SQLQuery  string
	SQLResult SQLResult
	Data      *Table // nil on the strategy path

	Insights         []string
	Suggestions      []string
	StrategyResponse string

	// Error, once set, short-circuits remaining transitions to the
	// terminal failure path.
	Error string

	Messages []Notice
}

// WithNotice returns a copy of the state with one audit entry appended.
func (s QueryState) WithNotice(step, content string) QueryState {
	msgs := make([]Notice, len(s.Messages), len(s.Messages)+1)
	copy(msgs, s.Messages)
	s.Messages = append(msgs, Notice{Step: step, Content: content, At: time.Now()})
	return s
}

// Failed reports whether the run has entered the failure path.
func (s QueryState) Failed() bool {
	return s.Error != ""
}

// Outcome is the well-formed result record every workflow run produces,
// success or not. It is the entire surface the front-end consumes.
type Outcome struct {
	Success          bool      `json:"success"`
	Question         string    `json:"question"`
	QueryType        QueryType `json:"query_type,omitempty"`
	SQLQuery         string    `json:"sql_query,omitempty"`
	SQLResult        SQLResult `json:"sql_result"`
	Data             *Table    `json:"data,omitempty"`
	Insights         []string  `json:"insights,omitempty"`
	Suggestions      []string  `json:"suggestions,omitempty"`
	StrategyResponse string    `json:"strategy_response,omitempty"`
	Messages         []Notice  `json:"messages,omitempty"`
	Error            string    `json:"error,omitempty"`
}
