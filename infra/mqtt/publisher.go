package mqtt

import (
	"context"
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/drivesim/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records published envelopes in memory. It is used in tests
// and when publishing is disabled but a trace of what would be sent is wanted.
type MockPublisher struct {
	mu       sync.Mutex
	Messages []coremqtt.Envelope
	FailRuns map[string]bool
	Closed   bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailRuns: make(map[string]bool)}
}

// Publish records the envelope or returns an error if configured to fail.
func (m *MockPublisher) Publish(_ context.Context, kind coremqtt.Kind, runID, vehicle string, payload any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return "", coremqtt.ErrNotConnected
	}
	if m.FailRuns[runID] {
		return "", fmt.Errorf("publish failed")
	}
	id := fmt.Sprintf("msg-%d", len(m.Messages)+1)
	m.Messages = append(m.Messages, coremqtt.Envelope{MessageID: id, RunID: runID, Kind: kind, Vehicle: vehicle, Payload: payload})
	return id, nil
}

// Sent returns a copy of the recorded envelopes.
func (m *MockPublisher) Sent() []coremqtt.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.Envelope(nil), m.Messages...)
}

// Close marks the publisher closed.
func (m *MockPublisher) Close() {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
}
