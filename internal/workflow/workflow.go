// Package workflow orchestrates one question through a directed graph of
// agent steps: classification, SQL generation and execution, analysis, and
// follow-up suggestion. Each step is a pure state transformation; branching
// is decided by a handful of decision functions over the accumulated state.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cendekia-ai/cendekia/internal/llm"
	"github.com/cendekia-ai/cendekia/internal/model"
	"github.com/cendekia-ai/cendekia/internal/sqlgen"
	"github.com/cendekia-ai/cendekia/internal/warehouse"
)

// Workflow runs questions through the agent graph. Safe for concurrent
// use: each run gets a fresh state and the graph itself is immutable after
// construction.
type Workflow struct {
	graph  *Graph
	logger *slog.Logger
}

// New assembles the agent graph over the given collaborators.
func New(provider llm.Provider, engine *sqlgen.Engine, executor warehouse.Executor, logger *slog.Logger) (*Workflow, error) {
	s := &steps{provider: provider, engine: engine, executor: executor, logger: logger}

	g := NewGraph(nodeRouter).
		AddNode(nodeRouter, s.router).
		AddNode(nodeSQL, s.sqlStep).
		AddNode(nodeInsight, s.insight).
		AddNode(nodeVisualization, s.visualization).
		AddNode(nodeSuggestion, s.suggestion).
		AddNode(nodeStrategy, s.strategy).
		AddNode(nodeStrategySuggestion, s.strategySuggestion).
		AddNode(nodeSummarizer, s.summarizer).
		AddDecision(nodeRouter, routeDecision, nodeSQL, nodeStrategy, END).
		AddDecision(nodeSQL, postSQLDecision, nodeInsight, END).
		AddDecision(nodeInsight, postInsightDecision, nodeVisualization, nodeSuggestion).
		AddDecision(nodeStrategy, postStrategyDecision, nodeStrategySuggestion, END).
		AddEdge(nodeVisualization, nodeSuggestion).
		AddEdge(nodeSuggestion, nodeSummarizer).
		AddEdge(nodeStrategySuggestion, nodeSummarizer).
		AddEdge(nodeSummarizer, END)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Workflow{graph: g, logger: logger}, nil
}

// Graph exposes the assembled graph for introspection.
func (w *Workflow) Graph() *Graph {
	return w.graph
}

// Process runs one question through the graph and always returns a
// well-formed outcome. Success is false only when the run entered the
// failure path.
func (w *Workflow) Process(ctx context.Context, question string) model.Outcome {
	state := model.QueryState{UserQuestion: question}

	final, err := w.graph.Run(ctx, state)
	if err != nil {
		// Graph wiring errors, not step failures; steps report through
		// state.Error.
		w.logger.Error("workflow: run aborted", "error", err)
		if final.Error == "" {
			final.Error = fmt.Sprintf("workflow aborted: %v", err)
		}
	}

	w.logger.Info("workflow: run finished",
		"query_type", final.QueryType,
		"success", !final.Failed(),
		"steps", len(final.Messages))

	return model.Outcome{
		Success:          !final.Failed(),
		Question:         final.UserQuestion,
		QueryType:        final.QueryType,
		SQLQuery:         final.SQLQuery,
		SQLResult:        final.SQLResult,
		Data:             final.Data,
		Insights:         final.Insights,
		Suggestions:      final.Suggestions,
		StrategyResponse: final.StrategyResponse,
		Messages:         final.Messages,
		Error:            final.Error,
	}
}

// routeDecision branches after classification: failures terminate, data
// questions go to SQL, everything else to the strategy path.
func routeDecision(state model.QueryState) string {
	switch {
	case state.Failed():
		return END
	case state.NeedsDatabase:
		return nodeSQL
	}
	return nodeStrategy
}

// postSQLDecision terminates failed executions, otherwise hands the data
// to analysis.
func postSQLDecision(state model.QueryState) string {
	if state.Failed() || !state.SQLResult.Success {
		return END
	}
	return nodeInsight
}

// postInsightDecision inserts the visualization step when the router asked
// for one and data exists.
func postInsightDecision(state model.QueryState) string {
	if state.VisualizationNeeded && state.Data != nil {
		return nodeVisualization
	}
	return nodeSuggestion
}

// postStrategyDecision terminates a failed strategy call.
func postStrategyDecision(state model.QueryState) string {
	if state.Failed() {
		return END
	}
	return nodeStrategySuggestion
}
