package window

import (
	"context"
	"fmt"
	"math"

	"blockshell/internal/domain"
)

// Persistence stores window snapshots per tab.
type Persistence interface {
	Load(ctx context.Context, tabID string) ([]domain.WindowSnapshot, error)
	Save(ctx context.Context, tabID string, windows []domain.WindowState) error
}

// LoadResult counts the snapshots accepted and dropped by a restore.
type LoadResult struct {
	Loaded  int `json:"loaded"`
	Dropped int `json:"dropped"`
}

// LoadFromPersistence replaces the open windows with the tab's stored
// snapshot. See Restore for the acceptance rules.
func (r *Runtime) LoadFromPersistence(ctx context.Context) (LoadResult, error) {
	if r.persist == nil {
		return LoadResult{}, nil
	}
	snaps, err := r.persist.Load(ctx, r.tabID)
	if err != nil {
		return LoadResult{}, fmt.Errorf("load windows for tab %s: %w", r.tabID, err)
	}
	return r.Restore(snaps), nil
}

// Restore replaces the open windows with snaps. Entries whose kind is not
// registered, whose geometry is not numeric, whose zOrder is not an integer
// in int range, or whose instance id repeats are dropped; survivors are clamped to the current viewport.
func (r *Runtime) Restore(snaps []domain.WindowSnapshot) LoadResult {
	var res LoadResult
	accepted := map[string]*domain.WindowState{}
	var unordered []*domain.WindowState
	for _, snap := range snaps {
		w, hasZ, ok := r.fromSnapshot(snap)
		if !ok {
			res.Dropped++
			continue
		}
		if _, dup := accepted[w.InstanceID]; dup {
			res.Dropped++
			continue
		}
		accepted[w.InstanceID] = w
		if !hasZ {
			unordered = append(unordered, w)
		}
		res.Loaded++
	}

	r.windows = accepted
	for _, w := range unordered {
		w.ZOrder = r.nextZ()
	}
	for _, w := range r.windows {
		r.settle(w)
	}
	return res
}

// Snapshots returns the open windows in persisted form.
func (r *Runtime) Snapshots() []domain.WindowSnapshot {
	list := r.List()
	out := make([]domain.WindowSnapshot, len(list))
	for i, w := range list {
		out[i] = w.Snapshot()
	}
	return out
}

// SaveToPersistence writes every open window, unconditionally.
func (r *Runtime) SaveToPersistence(ctx context.Context) error {
	if r.persist == nil {
		return nil
	}
	if err := r.persist.Save(ctx, r.tabID, r.List()); err != nil {
		return fmt.Errorf("save windows for tab %s: %w", r.tabID, err)
	}
	return nil
}

func (r *Runtime) fromSnapshot(snap domain.WindowSnapshot) (w *domain.WindowState, hasZ, ok bool) {
	key, _ := snap["windowKey"].(string)
	entry, known := r.registry.Lookup(key)
	if !known {
		return nil, false, false
	}

	var geom [4]float64
	for i, field := range []string{"x", "y", "width", "height"} {
		v, isNum := number(snap[field])
		if !isNum {
			return nil, false, false
		}
		geom[i] = v
	}

	w = &domain.WindowState{
		WindowKey: key,
		X:         geom[0],
		Y:         geom[1],
		Width:     geom[2],
		Height:    geom[3],
	}
	if raw, present := snap["zOrder"]; present && raw != nil {
		z, isNum := number(raw)
		if !isNum || z != math.Trunc(z) || z < math.MinInt || z >= math.MaxInt {
			return nil, false, false
		}
		w.ZOrder = int(z)
		hasZ = true
	}

	id, _ := snap["instanceId"].(string)
	switch {
	case entry.Singleton:
		id = key
	case id == "":
		id = r.newID()
	}
	w.InstanceID = id
	w.Minimized, _ = snap["minimized"].(bool)
	if side, isStr := snap["docked"].(string); isStr && domain.DockSide(side).Valid() {
		w.Docked = domain.DockSide(side)
	}
	return w, hasZ, true
}
