package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cendekia-ai/cendekia/internal/model"
)

// END is the terminal node sentinel.
const END = "__end__"

// StepFunc is one workflow step: a pure function from state to state.
// Side effects happen only through the collaborators a step closes over.
type StepFunc func(ctx context.Context, state model.QueryState) model.QueryState

// DecisionFunc picks the next node from the state after a step ran.
type DecisionFunc func(state model.QueryState) string

// Graph is a finite directed graph of named steps with unconditional and
// decision-driven edges. Built once, then run per question.
type Graph struct {
	entry      string
	steps      map[string]StepFunc
	edges      map[string]string
	decisions  map[string]DecisionFunc
	branchDocs map[string][]string
}

// NewGraph creates an empty graph with the given entry node.
func NewGraph(entry string) *Graph {
	return &Graph{
		entry:      entry,
		steps:      make(map[string]StepFunc),
		edges:      make(map[string]string),
		decisions:  make(map[string]DecisionFunc),
		branchDocs: make(map[string][]string),
	}
}

// AddNode registers a named step.
func (g *Graph) AddNode(name string, step StepFunc) *Graph {
	g.steps[name] = step
	return g
}

// AddEdge adds an unconditional transition.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = to
	return g
}

// AddDecision adds a decision-driven transition. targets document the
// possible branches for introspection; the decision func must return one
// of them or END.
func (g *Graph) AddDecision(from string, decide DecisionFunc, targets ...string) *Graph {
	g.decisions[from] = decide
	g.branchDocs[from] = targets
	return g
}

// Validate checks that every edge and documented branch points at a
// registered node or END.
func (g *Graph) Validate() error {
	if _, ok := g.steps[g.entry]; !ok {
		return fmt.Errorf("workflow: entry node %q not registered", g.entry)
	}
	for from, to := range g.edges {
		if _, ok := g.steps[from]; !ok {
			return fmt.Errorf("workflow: edge from unregistered node %q", from)
		}
		if to != END {
			if _, ok := g.steps[to]; !ok {
				return fmt.Errorf("workflow: edge %q -> unregistered node %q", from, to)
			}
		}
	}
	for from, targets := range g.branchDocs {
		if _, ok := g.steps[from]; !ok {
			return fmt.Errorf("workflow: decision on unregistered node %q", from)
		}
		for _, to := range targets {
			if to == END {
				continue
			}
			if _, ok := g.steps[to]; !ok {
				return fmt.Errorf("workflow: branch %q -> unregistered node %q", from, to)
			}
		}
	}
	return nil
}

// Run executes the graph from the entry node until END. The step count is
// bounded by the node count plus slack, so a miswired graph cannot loop
// forever.
func (g *Graph) Run(ctx context.Context, state model.QueryState) (model.QueryState, error) {
	current := g.entry
	for hops := 0; hops <= len(g.steps)+1; hops++ {
		step, ok := g.steps[current]
		if !ok {
			return state, fmt.Errorf("workflow: unknown node %q", current)
		}
		state = step(ctx, state)

		next, err := g.next(current, state)
		if err != nil {
			return state, err
		}
		if next == END {
			return state, nil
		}
		current = next
	}
	return state, fmt.Errorf("workflow: step budget exhausted at node %q", current)
}

func (g *Graph) next(current string, state model.QueryState) (string, error) {
	if decide, ok := g.decisions[current]; ok {
		return decide(state), nil
	}
	if to, ok := g.edges[current]; ok {
		return to, nil
	}
	return "", fmt.Errorf("workflow: node %q has no outgoing edge", current)
}

// NodeCount returns the number of registered steps.
func (g *Graph) NodeCount() int {
	return len(g.steps)
}

// EdgeCount returns the number of transitions, counting each documented
// decision branch.
func (g *Graph) EdgeCount() int {
	n := len(g.edges)
	for _, targets := range g.branchDocs {
		n += len(targets)
	}
	return n
}

// Mermaid renders the graph as a Mermaid flowchart for docs and debugging.
func (g *Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	b.WriteString(fmt.Sprintf("    __start__([start]) --> %s\n", g.entry))

	froms := make([]string, 0, len(g.edges))
	for from := range g.edges {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	for _, from := range froms {
		b.WriteString(fmt.Sprintf("    %s --> %s\n", from, mermaidNode(g.edges[from])))
	}

	decided := make([]string, 0, len(g.branchDocs))
	for from := range g.branchDocs {
		decided = append(decided, from)
	}
	sort.Strings(decided)
	for _, from := range decided {
		for _, to := range g.branchDocs[from] {
			b.WriteString(fmt.Sprintf("    %s -.-> %s\n", from, mermaidNode(to)))
		}
	}
	return b.String()
}

func mermaidNode(name string) string {
	if name == END {
		return "__end__([end])"
	}
	return name
}
