package workspace

import (
	"context"
	"log/slog"

	"blockshell/internal/domain"
)

// Bridge satisfies window.Persistence over a Store. It holds no state.
type Bridge struct {
	store  *Store
	logger *slog.Logger
}

func NewBridge(store *Store, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{store: store, logger: logger}
}

func (b *Bridge) Load(ctx context.Context, tabID string) ([]domain.WindowSnapshot, error) {
	return b.store.LoadWindows(ctx, tabID)
}

func (b *Bridge) Save(ctx context.Context, tabID string, windows []domain.WindowState) error {
	snaps := make([]domain.WindowSnapshot, len(windows))
	for i, w := range windows {
		snaps[i] = w.Snapshot()
	}
	found, err := b.store.SaveWindows(ctx, tabID, snaps)
	if err != nil {
		return err
	}
	if !found {
		b.logger.Warn("windows not saved: unknown workspace session", "tab", tabID)
	}
	return nil
}
