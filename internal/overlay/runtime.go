// Package overlay tracks the open/closed state and z-order of overlay
// blocks.
package overlay

import (
	"errors"
	"fmt"
	"sort"

	"blockshell/internal/domain"
)

// ErrUnknownOverlay is returned for ids that do not name an overlay block.
var ErrUnknownOverlay = errors.New("unknown overlay")

// Runtime is an in-memory overlay stack. It is not safe for concurrent use.
type Runtime struct {
	overlays map[string]*domain.OverlayState
}

// New creates one closed overlay per block. Blocks without an id are ignored.
func New(blocks []domain.Block) *Runtime {
	r := &Runtime{overlays: map[string]*domain.OverlayState{}}
	for _, b := range blocks {
		if b.BlockID == "" {
			continue
		}
		r.overlays[b.BlockID] = &domain.OverlayState{OverlayID: b.BlockID}
	}
	return r
}

func (r *Runtime) lookup(id string) (*domain.OverlayState, error) {
	o, ok := r.overlays[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOverlay, id)
	}
	return o, nil
}

func (r *Runtime) maxZ() int {
	top := 0
	for _, o := range r.overlays {
		if o.ZOrder > top {
			top = o.ZOrder
		}
	}
	return top
}

// Open opens the overlay and brings it to the front, even if already open.
func (r *Runtime) Open(id string) (domain.OverlayState, error) {
	o, err := r.lookup(id)
	if err != nil {
		return domain.OverlayState{}, err
	}
	o.ZOrder = r.maxZ() + 1
	o.IsOpen = true
	return *o, nil
}

// Close closes the overlay and resets its z-order.
func (r *Runtime) Close(id string) (domain.OverlayState, error) {
	o, err := r.lookup(id)
	if err != nil {
		return domain.OverlayState{}, err
	}
	o.IsOpen = false
	o.ZOrder = 0
	return *o, nil
}

// Toggle closes an open overlay and opens a closed one.
func (r *Runtime) Toggle(id string) (domain.OverlayState, error) {
	o, err := r.lookup(id)
	if err != nil {
		return domain.OverlayState{}, err
	}
	if o.IsOpen {
		return r.Close(id)
	}
	return r.Open(id)
}

// DismissTop closes the front-most open overlay and returns its id. It
// reports false when nothing was open. The reason is informational only.
func (r *Runtime) DismissTop(reason string) (string, bool) {
	var top *domain.OverlayState
	for _, o := range r.overlays {
		if !o.IsOpen {
			continue
		}
		if top == nil || o.ZOrder > top.ZOrder || (o.ZOrder == top.ZOrder && o.OverlayID < top.OverlayID) {
			top = o
		}
	}
	if top == nil {
		return "", false
	}
	top.IsOpen = false
	top.ZOrder = 0
	return top.OverlayID, true
}

// Get returns the state of one overlay.
func (r *Runtime) Get(id string) (domain.OverlayState, bool) {
	o, ok := r.overlays[id]
	if !ok {
		return domain.OverlayState{}, false
	}
	return *o, true
}

// List returns every overlay sorted by ascending z-order, then id.
func (r *Runtime) List() []domain.OverlayState {
	out := make([]domain.OverlayState, 0, len(r.overlays))
	for _, o := range r.overlays {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZOrder != out[j].ZOrder {
			return out[i].ZOrder < out[j].ZOrder
		}
		return out[i].OverlayID < out[j].OverlayID
	})
	return out
}
