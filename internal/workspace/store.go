// Package workspace keeps the durable per-tab workspace records: which
// windows a tab had open and when it was last seen.
//
// The Store works over a load-all/save-all Adapter and never assumes the
// backend can update a single record. Every operation is one
// load-modify-save cycle held under the store's mutex, so callers in one
// process never interleave; separate processes sharing a backend can still
// overwrite each other.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"blockshell/internal/domain"
	"blockshell/internal/pointer"
)

var ErrNoAdapter = errors.New("workspace: no adapter")

// Adapter loads and saves the whole record collection.
type Adapter interface {
	LoadAll(ctx context.Context) ([]domain.WorkspaceSession, error)
	SaveAll(ctx context.Context, sessions []domain.WorkspaceSession) error
}

// Store implements the workspace session operations.
type Store struct {
	mu      sync.Mutex
	adapter Adapter
}

func NewStore(adapter Adapter) (*Store, error) {
	if adapter == nil {
		return nil, ErrNoAdapter
	}
	return &Store{adapter: adapter}, nil
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func (s *Store) load(ctx context.Context) ([]domain.WorkspaceSession, error) {
	all, err := s.adapter.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return all, nil
}

func (s *Store) save(ctx context.Context, all []domain.WorkspaceSession) error {
	if err := s.adapter.SaveAll(ctx, all); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

func indexOf(all []domain.WorkspaceSession, tabID string) int {
	for i := range all {
		if all[i].TabID == tabID {
			return i
		}
	}
	return -1
}

// update runs fn over the loaded collection and saves the result when fn
// reports a change.
func (s *Store) update(ctx context.Context, fn func([]domain.WorkspaceSession) ([]domain.WorkspaceSession, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, changed := fn(all)
	if !changed {
		return nil
	}
	return s.save(ctx, next)
}

// CreateSession writes a fresh record for tabID, replacing any existing one.
func (s *Store) CreateSession(ctx context.Context, tabID string, now time.Time) (domain.WorkspaceSession, error) {
	rec := domain.WorkspaceSession{
		TabID:      tabID,
		CreatedAt:  millis(now),
		LastSeenAt: millis(now),
		Windows:    []domain.WindowSnapshot{},
	}
	err := s.update(ctx, func(all []domain.WorkspaceSession) ([]domain.WorkspaceSession, bool) {
		return upsert(all, rec), true
	})
	if err != nil {
		return domain.WorkspaceSession{}, fmt.Errorf("create session %s: %w", tabID, err)
	}
	return rec, nil
}

// TouchSession bumps lastSeenAt. Unknown tabs are left alone and reported
// with false.
func (s *Store) TouchSession(ctx context.Context, tabID string, now time.Time) (bool, error) {
	found := false
	err := s.update(ctx, func(all []domain.WorkspaceSession) ([]domain.WorkspaceSession, bool) {
		i := indexOf(all, tabID)
		if i < 0 {
			return all, false
		}
		found = true
		all[i].LastSeenAt = millis(now)
		return all, true
	})
	if err != nil {
		return false, fmt.Errorf("touch session %s: %w", tabID, err)
	}
	return found, nil
}

// SaveWindows stores a copy of windows on an existing record. Unknown tabs
// are left alone and reported with false.
func (s *Store) SaveWindows(ctx context.Context, tabID string, windows []domain.WindowSnapshot) (bool, error) {
	found := false
	err := s.update(ctx, func(all []domain.WorkspaceSession) ([]domain.WorkspaceSession, bool) {
		i := indexOf(all, tabID)
		if i < 0 {
			return all, false
		}
		found = true
		all[i].Windows = cloneWindows(windows)
		return all, true
	})
	if err != nil {
		return false, fmt.Errorf("save windows for %s: %w", tabID, err)
	}
	return found, nil
}

// LoadWindows returns a copy of the tab's window snapshots, or nil when the
// tab is unknown.
func (s *Store) LoadWindows(ctx context.Context, tabID string) ([]domain.WindowSnapshot, error) {
	rec, err := s.GetSession(ctx, tabID)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Windows, nil
}

// GetSession returns a copy of the record for tabID, or nil.
func (s *Store) GetSession(ctx context.Context, tabID string) (*domain.WorkspaceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", tabID, err)
	}
	i := indexOf(all, tabID)
	if i < 0 {
		return nil, nil
	}
	rec := cloneSession(all[i])
	return &rec, nil
}

// ForkSession copies the windows of from into a fresh record for to,
// replacing any existing one. It returns nil when from does not exist.
func (s *Store) ForkSession(ctx context.Context, from, to string, now time.Time) (*domain.WorkspaceSession, error) {
	var forked *domain.WorkspaceSession
	err := s.update(ctx, func(all []domain.WorkspaceSession) ([]domain.WorkspaceSession, bool) {
		i := indexOf(all, from)
		if i < 0 {
			return all, false
		}
		rec := domain.WorkspaceSession{
			TabID:      to,
			CreatedAt:  millis(now),
			LastSeenAt: millis(now),
			Windows:    cloneWindows(all[i].Windows),
		}
		out := cloneSession(rec)
		forked = &out
		return upsert(all, rec), true
	})
	if err != nil {
		return nil, fmt.Errorf("fork session %s -> %s: %w", from, to, err)
	}
	return forked, nil
}

// PruneStale removes every record last seen before now-maxAge and returns how
// many were removed.
func (s *Store) PruneStale(ctx context.Context, maxAge time.Duration, now time.Time) (int, error) {
	cutoff := millis(now) - maxAge.Milliseconds()
	removed := 0
	err := s.update(ctx, func(all []domain.WorkspaceSession) ([]domain.WorkspaceSession, bool) {
		kept := all[:0:0]
		for _, rec := range all {
			if rec.LastSeenAt < cutoff {
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		return kept, removed > 0
	})
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return removed, nil
}

// RemoveSession deletes the record for tabID.
func (s *Store) RemoveSession(ctx context.Context, tabID string) (bool, error) {
	found := false
	err := s.update(ctx, func(all []domain.WorkspaceSession) ([]domain.WorkspaceSession, bool) {
		i := indexOf(all, tabID)
		if i < 0 {
			return all, false
		}
		found = true
		return append(all[:i:i], all[i+1:]...), true
	})
	if err != nil {
		return false, fmt.Errorf("remove session %s: %w", tabID, err)
	}
	return found, nil
}

// ListSessions returns every record, most recently seen first. Ties are
// ordered by tab id.
func (s *Store) ListSessions(ctx context.Context) ([]domain.WorkspaceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]domain.WorkspaceSession, len(all))
	for i, rec := range all {
		out[i] = cloneSession(rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastSeenAt != out[j].LastSeenAt {
			return out[i].LastSeenAt > out[j].LastSeenAt
		}
		return out[i].TabID < out[j].TabID
	})
	return out, nil
}

func upsert(all []domain.WorkspaceSession, rec domain.WorkspaceSession) []domain.WorkspaceSession {
	if i := indexOf(all, rec.TabID); i >= 0 {
		all[i] = rec
		return all
	}
	return append(all, rec)
}

func cloneSession(rec domain.WorkspaceSession) domain.WorkspaceSession {
	rec.Windows = cloneWindows(rec.Windows)
	return rec
}

func cloneWindows(in []domain.WindowSnapshot) []domain.WindowSnapshot {
	out := make([]domain.WindowSnapshot, len(in))
	for i, w := range in {
		out[i] = domain.WindowSnapshot(pointer.CloneMap(w))
	}
	return out
}
