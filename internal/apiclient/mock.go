package apiclient

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// Mock is an in-memory Authorizer for tests. Poll results are served in
// order; the last entry repeats once the script runs out.
type Mock struct {
	mu sync.Mutex

	Start    *StartResponse
	StartErr error

	PollResults []PollResult
	polls       int
}

// PollResult is one scripted answer from the mock's poll endpoint.
type PollResult struct {
	Token *oauth2.Token
	Err   error
}

// StartDeviceAuth returns the scripted start response.
func (m *Mock) StartDeviceAuth(_ context.Context) (*StartResponse, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	return m.Start, nil
}

// PollToken returns the next scripted poll result.
func (m *Mock) PollToken(_ context.Context, _ string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.polls
	if idx >= len(m.PollResults) {
		idx = len(m.PollResults) - 1
	}
	m.polls++

	result := m.PollResults[idx]
	return result.Token, result.Err
}

// Polls reports how many times PollToken was called.
func (m *Mock) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}
