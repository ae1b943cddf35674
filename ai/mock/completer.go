package mock

import (
	"context"
	"strings"

	"github.com/poiesic/corpus/ai"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default deterministic behavior.
	CompleteFunc func(ctx context.Context, prompt string) (*ai.Stream, error)

	// Response is the text streamed by the default behavior,
	// emitted one word at a time. If empty, a canned answer is used.
	Response string

	callCount int
	prompts   []string
}

// NewMockCompleter creates a mock completer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockCompleter().
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete streams a deterministic response token by token.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (*ai.Stream, error) {
	m.callCount++
	m.prompts = append(m.prompts, prompt)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}

	response := m.Response
	if response == "" {
		response = "mock completion response"
	}
	words := strings.Fields(response)

	return ai.NewStream(ctx, func(ctx context.Context, emit func(token string) error) error {
		for i, word := range words {
			token := word
			if i > 0 {
				token = " " + word
			}
			if err := emit(token); err != nil {
				return err
			}
		}
		return nil
	}), nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return m.callCount
}

// Prompts returns the prompts passed to Complete, in call order.
func (m *MockCompleter) Prompts() []string {
	return m.prompts
}

// Reset clears recorded calls and custom behavior.
func (m *MockCompleter) Reset() {
	m.callCount = 0
	m.prompts = nil
	m.CompleteFunc = nil
	m.Response = ""
}
