package storage

import (
	"context"
	"sync"

	"blockshell/internal/domain"
	"blockshell/internal/pointer"
)

// Memory keeps sessions in process. Loads and saves copy the records so
// callers never share maps with the store.
type Memory struct {
	mu       sync.Mutex
	sessions []domain.WorkspaceSession
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) LoadAll(_ context.Context) ([]domain.WorkspaceSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySessions(m.sessions), nil
}

func (m *Memory) SaveAll(_ context.Context, sessions []domain.WorkspaceSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = copySessions(sessions)
	return nil
}

func copySessions(in []domain.WorkspaceSession) []domain.WorkspaceSession {
	out := make([]domain.WorkspaceSession, len(in))
	for i, rec := range in {
		windows := make([]domain.WindowSnapshot, len(rec.Windows))
		for j, w := range rec.Windows {
			windows[j] = pointer.CloneMap(w)
		}
		rec.Windows = windows
		out[i] = rec
	}
	return out
}
