package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cendekia-ai/cendekia/internal/llm"
	"github.com/cendekia-ai/cendekia/internal/model"
	"github.com/cendekia-ai/cendekia/internal/sqlgen"
	"github.com/cendekia-ai/cendekia/internal/warehouse"
)

// Node names.
const (
	nodeRouter             = "router"
	nodeSQL                = "sql"
	nodeInsight            = "insight"
	nodeVisualization      = "visualization"
	nodeSuggestion         = "suggestion"
	nodeStrategy           = "strategy"
	nodeStrategySuggestion = "strategy_suggestion"
	nodeSummarizer         = "summarizer"
)

// steps bundles the collaborators the workflow nodes close over.
type steps struct {
	provider llm.Provider
	engine   *sqlgen.Engine
	executor warehouse.Executor
	logger   *slog.Logger
}

// router classifies the question with one completion call. Provider or
// parse failures degrade to the strategy-path defaults, never fatal.
func (s *steps) router(ctx context.Context, state model.QueryState) model.QueryState {
	prompt := fmt.Sprintf(`Classify this question about a university data warehouse.

Question: %s

Answer with exactly these lines:
Needs Database: [Yes/No]
Query Type: [data_query/comparison/trend_analysis/complex_analysis/strategy_question/simple_info]
Visualization Needed: [Yes/No]
Reasoning: [one sentence]`, state.UserQuestion)

	c := defaultClassification()
	raw, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("workflow: classification failed, routing to strategy path", "error", err)
	} else {
		c = ParseClassification(raw)
	}

	state.NeedsDatabase = c.NeedsDatabase
	state.QueryType = c.QueryType
	state.VisualizationNeeded = c.VisualizationNeeded
	return state.WithNotice(nodeRouter,
		fmt.Sprintf("classified as %s (database: %t, visualization: %t)",
			c.QueryType, c.NeedsDatabase, c.VisualizationNeeded))
}

// sqlStep generates SQL and executes it. An execution error or an empty
// result set is fatal for the run.
func (s *steps) sqlStep(ctx context.Context, state model.QueryState) model.QueryState {
	state.SQLQuery = s.engine.Generate(ctx, state.UserQuestion)

	table, err := s.executor.Execute(ctx, state.SQLQuery)
	if err != nil {
		state.Error = fmt.Sprintf("query execution failed: %v", err)
		state.SQLResult = model.SQLResult{Success: false, Message: state.Error}
		return state.WithNotice(nodeSQL, state.Error)
	}
	if table.Empty() {
		state.Error = "query returned no data"
		state.SQLResult = model.SQLResult{Success: false, Message: state.Error}
		return state.WithNotice(nodeSQL, state.Error)
	}

	state.Data = &table
	state.SQLResult = model.SQLResult{
		Success:  true,
		RowCount: len(table.Rows),
		Columns:  table.Columns,
	}
	return state.WithNotice(nodeSQL,
		fmt.Sprintf("executed query, %d rows returned", len(table.Rows)))
}

// insight analyzes the result table with one completion call. Degrades to
// a placeholder insight on failure.
func (s *steps) insight(ctx context.Context, state model.QueryState) model.QueryState {
	prompt := fmt.Sprintf(`You are a university academic analyst. Analyze this query result and list the key findings as bullet points.

Question: %s
Columns: %s
Rows: %d
Sample: %s

Findings:`,
		state.UserQuestion,
		strings.Join(state.Data.Columns, ", "),
		len(state.Data.Rows),
		sampleRows(*state.Data, 5))

	state.Insights = s.completeList(ctx, prompt, false,
		"Data berhasil diambil dari warehouse dan siap dianalisis lebih lanjut.")
	return state.WithNotice(nodeInsight,
		fmt.Sprintf("produced %d insights", len(state.Insights)))
}

// visualization recommends a chart from the result's column types. Pure
// rules, no model call.
func (s *steps) visualization(_ context.Context, state model.QueryState) model.QueryState {
	rec := RecommendChart(*state.Data)
	return state.WithNotice(nodeVisualization, "recommended "+rec)
}

// suggestion proposes follow-up questions from the insights.
func (s *steps) suggestion(ctx context.Context, state model.QueryState) model.QueryState {
	prompt := fmt.Sprintf(`Based on this analysis of university data, suggest follow-up questions the user could ask next. One question per line, as bullet points.

Original question: %s
Insights:
%s

Follow-up questions:`,
		state.UserQuestion, strings.Join(state.Insights, "\n"))

	state.Suggestions = s.completeList(ctx, prompt, true,
		"Apakah ada aspek lain dari data ini yang ingin Anda telusuri?")
	return state.WithNotice(nodeSuggestion,
		fmt.Sprintf("produced %d suggestions", len(state.Suggestions)))
}

// strategy answers a non-database question with one completion call.
// Unlike the advisory steps, a provider failure here is fatal: there is no
// partial result to fall back on.
func (s *steps) strategy(ctx context.Context, state model.QueryState) model.QueryState {
	prompt := fmt.Sprintf(`You are a senior university management consultant. Answer this strategic question about running a university, concretely and concisely.

Question: %s`, state.UserQuestion)

	answer, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		state.Error = fmt.Sprintf("strategy analysis failed: %v", err)
		return state.WithNotice(nodeStrategy, state.Error)
	}
	state.StrategyResponse = strings.TrimSpace(answer)
	return state.WithNotice(nodeStrategy, "strategy response produced")
}

// strategySuggestion proposes follow-ups to a strategy answer.
func (s *steps) strategySuggestion(ctx context.Context, state model.QueryState) model.QueryState {
	prompt := fmt.Sprintf(`Suggest follow-up questions to this strategic discussion about university management. One question per line, as bullet points.

Question: %s
Answer: %s

Follow-up questions:`,
		state.UserQuestion, state.StrategyResponse)

	state.Suggestions = s.completeList(ctx, prompt, true,
		"Aspek strategis apa lagi yang ingin Anda diskusikan?")
	return state.WithNotice(nodeStrategySuggestion,
		fmt.Sprintf("produced %d suggestions", len(state.Suggestions)))
}

// summarizer closes the run with a final audit entry.
func (s *steps) summarizer(_ context.Context, state model.QueryState) model.QueryState {
	summary := fmt.Sprintf("completed %s run with %d insights and %d suggestions",
		state.QueryType, len(state.Insights), len(state.Suggestions))
	if state.StrategyResponse != "" {
		summary = fmt.Sprintf("completed %s run with strategy response and %d suggestions",
			state.QueryType, len(state.Suggestions))
	}
	return state.WithNotice(nodeSummarizer, summary)
}

// completeList issues one completion and parses a bounded list out of it,
// degrading to the placeholder on failure or an empty parse.
func (s *steps) completeList(ctx context.Context, prompt string, questionsOnly bool, placeholder string) []string {
	raw, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("workflow: completion failed, using placeholder", "error", err)
		return []string{placeholder}
	}
	items := ParseBoundedList(raw, questionsOnly)
	if len(items) == 0 {
		return []string{placeholder}
	}
	return items
}

// temporalKeywords mark a column as time-like for chart selection.
var temporalKeywords = []string{"tahun", "semester", "tanggal", "bulan", "year", "date", "month"}

// RecommendChart picks a chart type from the table's column shapes, in
// precedence order: numeric plus categorical wins a bar chart, two or more
// numerics a scatter plot, a time-like column name a line chart, anything
// else the raw table.
func RecommendChart(t model.Table) string {
	numeric := t.NumericColumns()
	categorical := t.CategoricalColumns()
	switch {
	case len(numeric) > 0 && len(categorical) > 0:
		return "bar chart"
	case len(numeric) >= 2:
		return "scatter plot"
	}

	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		for _, kw := range temporalKeywords {
			if strings.Contains(lower, kw) {
				return "line chart"
			}
		}
	}
	return "table"
}

// sampleRows renders the first n rows for a prompt.
func sampleRows(t model.Table, n int) string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		vals := make([]string, len(t.Rows[i]))
		for j, v := range t.Rows[i] {
			vals[j] = fmt.Sprint(v)
		}
		b.WriteString(strings.Join(vals, " | "))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
