package rag

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusqa/campusqa/internal/knowledge"
)

// mockSearcher records queries and returns a scripted result.
type mockSearcher struct {
	mu     sync.Mutex
	result knowledge.SearchResult
	err    error

	calls     int
	lastQuery string
	lastTopK  int
}

func (m *mockSearcher) Query(_ context.Context, query string, topK int) (knowledge.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastQuery = query
	m.lastTopK = topK
	return m.result, m.err
}

// mockGenerator records requests and answers via the respond hook.
// A nil hook returns "mock answer".
type mockGenerator struct {
	mu      sync.Mutex
	respond func(GenerateRequest) (string, error)
	calls   []GenerateRequest
}

func (m *mockGenerator) Generate(_ context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.respond == nil {
		return "mock answer", nil
	}
	return m.respond(req)
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockGenerator) call(i int) GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

// mockStreamer emits scripted tokens, then returns streamErr. Stream
// requests are recorded separately from batch Generate calls.
type mockStreamer struct {
	mockGenerator
	tokens     []string
	streamErr  error
	streamReqs []GenerateRequest
}

func (m *mockStreamer) GenerateStream(_ context.Context, req GenerateRequest, emit func(string) error) error {
	m.mu.Lock()
	m.streamReqs = append(m.streamReqs, req)
	m.mu.Unlock()
	for _, tok := range m.tokens {
		if err := emit(tok); err != nil {
			return err
		}
	}
	return m.streamErr
}

func (m *mockStreamer) streamReq(i int) GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamReqs[i]
}

func collectEvents(t *testing.T, e *Engine, query string) []Event {
	t.Helper()
	var events []Event
	err := e.AnswerStream(context.Background(), query, func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	return events
}
