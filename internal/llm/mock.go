package llm

import (
	"context"
	"errors"
)

// Mock is a Generator test double. It replays queued responses in order,
// repeating the last one, and records every prompt it receives.
type Mock struct {
	Responses []string
	Err       error
	Prompts   []string
}

// NewMock creates a Mock that returns the given responses in sequence.
func NewMock(responses ...string) *Mock {
	return &Mock{Responses: responses}
}

func (m *Mock) Generate(_ context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", errors.New("mock: no responses queued")
	}
	resp := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return resp, nil
}
