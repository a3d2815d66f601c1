package mock

import (
	"context"

	"github.com/poiesic/revenant/ai"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns a canned reply echoing the last turn.
	CompleteFunc func(ctx context.Context, turns []ai.Turn, temperature float64) (string, error)

	// LastTurns holds the transcript from the most recent call.
	LastTurns []ai.Turn

	// LastTemperature holds the temperature from the most recent call.
	LastTemperature float64

	callCount int
}

// NewMockCompleter creates a mock completer with default canned behavior.
// Note: Returns concrete type to allow test assertions via GetMockCompleter().
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete records the call and returns the injected or canned reply.
func (m *MockCompleter) Complete(ctx context.Context, turns []ai.Turn, temperature float64) (string, error) {
	m.callCount++
	m.LastTurns = turns
	m.LastTemperature = temperature

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, turns, temperature)
	}

	if len(turns) == 0 {
		return "mock reply", nil
	}
	return "mock reply to: " + turns[len(turns)-1].Content, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return m.callCount
}

// Reset clears recorded calls and injected behavior.
func (m *MockCompleter) Reset() {
	m.callCount = 0
	m.LastTurns = nil
	m.LastTemperature = 0
	m.CompleteFunc = nil
}
