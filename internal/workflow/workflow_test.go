package workflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cendekia-ai/cendekia/internal/embedding"
	"github.com/cendekia-ai/cendekia/internal/knowledge"
	"github.com/cendekia-ai/cendekia/internal/llm"
	"github.com/cendekia-ai/cendekia/internal/model"
	"github.com/cendekia-ai/cendekia/internal/search"
	"github.com/cendekia-ai/cendekia/internal/sqlgen"
	"github.com/cendekia-ai/cendekia/internal/warehouse"
)

const dataRouterResponse = `Needs Database: Yes
Query Type: data_query
Visualization Needed: No
Reasoning: counting rows needs the warehouse`

const strategyRouterResponse = `Needs Database: No
Query Type: strategy_question
Visualization Needed: No
Reasoning: policy question, no data needed`

// fixture wires a workflow whose SQL engine has its own provider, so tests
// can prove which paths reached which collaborator.
type fixture struct {
	workflow *Workflow
	stepLLM  *llm.Static
	sqlLLM   *llm.Static
	executor *warehouse.Static
}

func newFixture(t *testing.T, stepLLM, sqlLLM *llm.Static, executor *warehouse.Static) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store := knowledge.NewStore(search.NewMemoryIndex(), embedding.NewMockProvider(768), logger)
	engine := sqlgen.NewEngine(store, sqlLLM, logger)

	wf, err := New(stepLLM, engine, executor, logger)
	require.NoError(t, err)
	return &fixture{workflow: wf, stepLLM: stepLLM, sqlLLM: sqlLLM, executor: executor}
}

func TestStrategyPathNeverTouchesWarehouse(t *testing.T) {
	f := newFixture(t,
		&llm.Static{Responses: []string{
			strategyRouterResponse,
			"Focus on lecturer development and accreditation.",
			"- Bagaimana meningkatkan akreditasi program studi?",
		}},
		&llm.Static{Responses: []string{"SELECT 1;"}},
		&warehouse.Static{})

	out := f.workflow.Process(context.Background(), "Bagaimana meningkatkan kualitas pengajaran?")

	assert.True(t, out.Success)
	assert.Equal(t, model.QueryTypeStrategy, out.QueryType)
	assert.NotEmpty(t, out.StrategyResponse)
	assert.Empty(t, out.SQLQuery)
	assert.Nil(t, out.Data)

	// Neither SQL generation nor the warehouse were reached.
	assert.Zero(t, f.sqlLLM.Calls())
	assert.Empty(t, f.executor.Statements)
}

func TestSQLPathResultConsistency(t *testing.T) {
	table := model.Table{
		Columns: []string{"nama_fakultas", "jumlah_mahasiswa"},
		Rows: [][]any{
			{"Teknik", int64(1200)},
			{"Ekonomi", int64(950)},
			{"MIPA", int64(640)},
		},
	}
	f := newFixture(t,
		&llm.Static{Responses: []string{
			dataRouterResponse,
			"- Teknik has the largest enrollment.",
			"- Bagaimana tren jumlah mahasiswa per tahun?",
		}},
		&llm.Static{Responses: []string{"SELECT nama_fakultas, COUNT(*) FROM dwh.dim_mahasiswa GROUP BY 1;"}},
		&warehouse.Static{Table: table})

	out := f.workflow.Process(context.Background(), "Fakultas dengan mahasiswa terbanyak?")

	require.True(t, out.Success)
	require.NotNil(t, out.Data)
	assert.Equal(t, len(out.Data.Rows), out.SQLResult.RowCount)
	assert.Equal(t, out.Data.Columns, out.SQLResult.Columns)
	assert.NotEmpty(t, out.Insights)
	assert.NotEmpty(t, out.Suggestions)
}

func TestMalformedRouterResponseDefaultsToStrategy(t *testing.T) {
	f := newFixture(t,
		&llm.Static{Responses: []string{
			"I am not sure what you mean by that.",
			"Strengthen industry partnerships.",
			"- Program apa yang paling diminati industri?",
		}},
		&llm.Static{Responses: []string{"SELECT 1;"}},
		&warehouse.Static{})

	out := f.workflow.Process(context.Background(), "hmmmm")

	assert.True(t, out.Success)
	assert.Equal(t, model.QueryTypeStrategy, out.QueryType)
	assert.NotEmpty(t, out.StrategyResponse)
	assert.Zero(t, f.sqlLLM.Calls())
}

func TestEmptyResultTerminatesBeforeInsight(t *testing.T) {
	stepLLM := &llm.Static{Responses: []string{dataRouterResponse}}
	f := newFixture(t,
		stepLLM,
		&llm.Static{Responses: []string{"SELECT * FROM dwh.dim_mahasiswa WHERE 1=0;"}},
		&warehouse.Static{Table: model.Table{Columns: []string{"nim"}}})

	out := f.workflow.Process(context.Background(), "Mahasiswa angkatan 1870?")

	assert.False(t, out.Success)
	assert.Nil(t, out.Data)
	assert.NotEmpty(t, out.Error)
	// Only the router call happened on the step provider; insight was
	// never reached.
	assert.Equal(t, 1, stepLLM.Calls())
}

func TestExecutionErrorTerminates(t *testing.T) {
	f := newFixture(t,
		&llm.Static{Responses: []string{dataRouterResponse}},
		&llm.Static{Responses: []string{"SELECT broken;"}},
		&warehouse.Static{Err: errors.New("relation does not exist")})

	out := f.workflow.Process(context.Background(), "Berapa jumlah mahasiswa?")

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "query execution failed")
	assert.False(t, out.SQLResult.Success)
}

func TestVisualizationStepRunsWhenRequested(t *testing.T) {
	router := `Needs Database: Yes
Query Type: comparison
Visualization Needed: Yes
Reasoning: comparison benefits from a chart`

	f := newFixture(t,
		&llm.Static{Responses: []string{
			router,
			"- Enrollment differs by faculty.",
			"- Bagaimana perbandingan per jenjang?",
		}},
		&llm.Static{Responses: []string{"SELECT 1;"}},
		&warehouse.Static{Table: model.Table{
			Columns: []string{"nama_fakultas", "jumlah"},
			Rows:    [][]any{{"Teknik", int64(10)}},
		}})

	out := f.workflow.Process(context.Background(), "Bandingkan jumlah mahasiswa per fakultas")

	require.True(t, out.Success)
	steps := make([]string, len(out.Messages))
	for i, m := range out.Messages {
		steps[i] = m.Step
	}
	assert.Contains(t, steps, nodeVisualization)
}

func TestEveryStepLeavesOneNotice(t *testing.T) {
	f := newFixture(t,
		&llm.Static{Responses: []string{
			strategyRouterResponse,
			"Invest in research funding.",
			"- Skema pendanaan apa yang cocok?",
		}},
		&llm.Static{},
		&warehouse.Static{})

	out := f.workflow.Process(context.Background(), "Bagaimana strategi riset kampus?")

	require.True(t, out.Success)
	want := []string{nodeRouter, nodeStrategy, nodeStrategySuggestion, nodeSummarizer}
	require.Len(t, out.Messages, len(want))
	for i, step := range want {
		assert.Equal(t, step, out.Messages[i].Step)
	}
}

func TestProviderOutageOnStrategyFails(t *testing.T) {
	f := newFixture(t,
		&llm.Static{Err: errors.New("provider down")},
		&llm.Static{},
		&warehouse.Static{})

	out := f.workflow.Process(context.Background(), "Bagaimana strategi kampus?")

	// Router outage degrades to the strategy path; strategy outage is
	// fatal for the run.
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "strategy analysis failed")
}

func TestGraphIntrospection(t *testing.T) {
	f := newFixture(t, &llm.Static{}, &llm.Static{}, &warehouse.Static{})

	g := f.workflow.Graph()
	assert.Equal(t, 8, g.NodeCount())
	assert.Positive(t, g.EdgeCount())

	mermaid := g.Mermaid()
	assert.Contains(t, mermaid, "graph TD")
	assert.Contains(t, mermaid, nodeRouter)
	assert.Contains(t, mermaid, "__end__")
}
