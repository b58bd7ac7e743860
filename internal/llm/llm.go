// Package llm defines the text generation boundary. The workflow steps and
// the SQL engine depend only on Provider; concrete clients call Gemini or
// OpenAI over HTTP with a per-call timeout so one slow completion cannot
// stall an entire workflow run.
package llm

import (
	"context"
	"sync"
	"time"
)

// perCallTimeout is the maximum time for a single completion call. Separate
// from the workflow's outer context so one slow provider call surfaces as a
// step error rather than blocking the run indefinitely.
const perCallTimeout = 15 * time.Second

// Provider produces a natural-language or SQL completion for a prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Static returns canned responses in order, then repeats the last one.
// Tests and local development use it in place of a network provider.
// Safe for concurrent use.
type Static struct {
	Responses []string
	// Err, when non-nil, is returned by every call. Simulates provider
	// outage.
	Err error

	mu    sync.Mutex
	calls int
}

// Complete returns the next canned response.
func (s *Static) Complete(_ context.Context, _ string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Responses) == 0 {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.Responses) {
		i = len(s.Responses) - 1
	}
	s.calls++
	return s.Responses[i], nil
}

// Calls reports how many completions were requested. Tests assert on it to
// prove a path never reached the provider.
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
