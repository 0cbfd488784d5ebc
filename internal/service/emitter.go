package service

import (
	"context"
	"sync"

	"workbench/internal/logging"
	"workbench/internal/metrics"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples services from their observers
// ─────────────────────────────────────────────────────────────

// EventEmitter receives domain events such as "notes:changed" or
// "sql:schema-changed". Services take this interface so they can be
// tested with a MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter logs each event with the request's logger and counts it.
type LogEmitter struct{}

func (LogEmitter) Emit(ctx context.Context, event string, data any) {
	metrics.Events.WithLabelValues(event).Inc()
	logging.Ctx(ctx).Debug().Str("event", event).Interface("data", data).Msg("event")
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.Events))
	for i, e := range m.Events {
		names[i] = e.Event
	}
	return names
}
