package shell

import (
	"context"
	"log/slog"
	"sync"
)

// Events announced by the shell.
const (
	EventStateChanged     = "state:changed"
	EventWindowChanged    = "window:changed"
	EventOverlayChanged   = "overlay:changed"
	EventOverlayDismissed = "overlay:dismissed"
	EventBundleReloaded   = "bundle:reloaded"
)

// ─────────────────────────────────────────────────────────────
// Events
// ─────────────────────────────────────────────────────────────

// EventEmitter receives change notifications from the shell.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to a structured logger.
type LogEmitter struct {
	Logger *slog.Logger
}

func (e LogEmitter) Emit(ctx context.Context, event string, data any) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "shell event", "event", event, "data", data)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, any) {}

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
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}
