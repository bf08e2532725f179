package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/notify"
)

// MockNotifier records every event it receives
type MockNotifier struct {
	mu     sync.Mutex
	events []model.Event
}

// Ensure MockNotifier implements Notifier
var _ notify.Notifier = (*MockNotifier)(nil)

// NewMockNotifier creates an empty MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Notify records the event
func (n *MockNotifier) Notify(_ context.Context, event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// Events returns a copy of the recorded events
func (n *MockNotifier) Events() []model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.Event, len(n.events))
	copy(out, n.events)
	return out
}

// EventsOfType returns the recorded events of the given type
func (n *MockNotifier) EventsOfType(t model.EventType) []model.Event {
	var out []model.Event
	for _, e := range n.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears the recorded events
func (n *MockNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}
