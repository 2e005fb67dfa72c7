package messaging

import (
	"context"
	"sync"
	"time"
)

// Event types.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// Event is the JSON payload of a published message.
type Event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Amount     int64     `json:"amount,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }

// Memory records events in order. Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	events []Event
	err    error
}

// NewMemory returns an empty recorder.
func NewMemory() *Memory {
	return &Memory{}
}

// FailWith makes subsequent Publish calls return err (nil clears it).
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Publish implements Publisher.
func (m *Memory) Publish(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Close implements Publisher.
func (m *Memory) Close() error { return nil }

// Observed reports every publish outcome ("ok" or "error") to record.
func Observed(p Publisher, record func(result string)) Publisher {
	return &observed{Publisher: p, record: record}
}

type observed struct {
	Publisher
	record func(string)
}

func (o *observed) Publish(ctx context.Context, ev Event) error {
	err := o.Publisher.Publish(ctx, ev)
	if err != nil {
		o.record("error")
	} else {
		o.record("ok")
	}
	return err
}
