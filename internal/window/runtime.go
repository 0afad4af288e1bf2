// Package window manages the lifecycle of window instances for one tab:
// opening, focusing, moving, resizing, docking and restoring them.
//
// Every geometry change is followed by clamping so that a window never
// exceeds the viewport or leaves it. The runtime is not safe for concurrent
// use.
package window

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"blockshell/internal/domain"
)

var (
	ErrUnknownWindowKey = errors.New("unknown window key")
	ErrWindowNotFound   = errors.New("window not found")
	ErrInstanceExists   = errors.New("window instance already exists")
	ErrInvalidDock      = errors.New("invalid dock side")
	ErrInvalidViewport  = errors.New("invalid viewport")
)

// OpenOptions customises a new instance. Zero values take registry defaults.
type OpenOptions struct {
	InstanceID string
	Position   *domain.Point
	Size       *domain.Size
}

// Options configures a Runtime.
type Options struct {
	TabID       string
	Persistence Persistence
	// NewID generates instance ids for non-singleton kinds.
	NewID func() string
}

// Runtime owns the open windows of one tab.
type Runtime struct {
	registry *Registry
	viewport domain.Size
	windows  map[string]*domain.WindowState

	tabID   string
	persist Persistence
	newID   func() string
}

// New creates an empty runtime over registry.
func New(registry *Registry, opts Options) *Runtime {
	if registry == nil {
		registry = NewRegistry(nil, nil)
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Runtime{
		registry: registry,
		viewport: registry.Viewport(),
		windows:  map[string]*domain.WindowState{},
		tabID:    opts.TabID,
		persist:  opts.Persistence,
		newID:    newID,
	}
}

// Registry returns the registry the runtime was built from.
func (r *Runtime) Registry() *Registry { return r.registry }

// Viewport returns the current viewport.
func (r *Runtime) Viewport() domain.Size { return r.viewport }

func (r *Runtime) lookup(id string) (*domain.WindowState, error) {
	w, ok := r.windows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	return w, nil
}

func (r *Runtime) nextZ() int {
	top := 0
	for _, w := range r.windows {
		if w.ZOrder > top {
			top = w.ZOrder
		}
	}
	return top + 1
}

// settle re-applies dock geometry (when docked) and clamps.
func (r *Runtime) settle(w *domain.WindowState) {
	if w.Docked != domain.DockNone {
		dockBounds(w, w.Docked, r.viewport)
	}
	var minSize *domain.Size
	if e, ok := r.registry.Lookup(w.WindowKey); ok {
		minSize = e.MinSize
	}
	clampBounds(w, minSize, r.viewport)
}

// Open opens a window of the given kind. Re-opening a singleton that is
// already open brings it to the front instead of creating a duplicate.
func (r *Runtime) Open(windowKey string, opts OpenOptions) (domain.WindowState, error) {
	entry, ok := r.registry.Lookup(windowKey)
	if !ok {
		return domain.WindowState{}, fmt.Errorf("%w: %s", ErrUnknownWindowKey, windowKey)
	}

	id := opts.InstanceID
	if entry.Singleton {
		id = windowKey
		if w, ok := r.windows[id]; ok {
			w.ZOrder = r.nextZ()
			return *w, nil
		}
	} else if id == "" {
		id = r.newID()
	} else if _, exists := r.windows[id]; exists {
		return domain.WindowState{}, fmt.Errorf("%w: %s", ErrInstanceExists, id)
	}

	size := DefaultWindowSize
	if entry.DefaultSize != nil {
		size = *entry.DefaultSize
	}
	if opts.Size != nil {
		size = *opts.Size
	}
	w := &domain.WindowState{
		WindowKey:  windowKey,
		InstanceID: id,
		Width:      size.Width,
		Height:     size.Height,
		ZOrder:     r.nextZ(),
	}
	if opts.Position != nil {
		w.X, w.Y = opts.Position.X, opts.Position.Y
	}
	r.settle(w)
	r.windows[id] = w
	return *w, nil
}

// Focus brings a window to the front.
func (r *Runtime) Focus(id string) (domain.WindowState, error) {
	w, err := r.lookup(id)
	if err != nil {
		return domain.WindowState{}, err
	}
	w.ZOrder = r.nextZ()
	return *w, nil
}

// Move repositions a window. Moving undocks it.
func (r *Runtime) Move(id string, x, y float64) (domain.WindowState, error) {
	w, err := r.lookup(id)
	if err != nil {
		return domain.WindowState{}, err
	}
	w.Docked = domain.DockNone
	w.X, w.Y = x, y
	r.settle(w)
	return *w, nil
}

// Resize sets a window's size. Docked windows ignore the request and keep
// their dock geometry.
func (r *Runtime) Resize(id string, width, height float64) (domain.WindowState, error) {
	w, err := r.lookup(id)
	if err != nil {
		return domain.WindowState{}, err
	}
	if w.Docked == domain.DockNone {
		w.Width, w.Height = width, height
	}
	r.settle(w)
	return *w, nil
}

// Dock pins a window to side, or undocks it when side is DockNone.
func (r *Runtime) Dock(id string, side domain.DockSide) (domain.WindowState, error) {
	if !side.Valid() {
		return domain.WindowState{}, fmt.Errorf("%w: %q", ErrInvalidDock, side)
	}
	w, err := r.lookup(id)
	if err != nil {
		return domain.WindowState{}, err
	}
	w.Docked = side
	r.settle(w)
	return *w, nil
}

// SetMinimized flips the minimized flag. Geometry is untouched.
func (r *Runtime) SetMinimized(id string, minimized bool) (domain.WindowState, error) {
	w, err := r.lookup(id)
	if err != nil {
		return domain.WindowState{}, err
	}
	w.Minimized = minimized
	return *w, nil
}

// Close removes a window entirely.
func (r *Runtime) Close(id string) error {
	if _, err := r.lookup(id); err != nil {
		return err
	}
	delete(r.windows, id)
	return nil
}

// SetViewport changes the viewport and re-settles every window.
func (r *Runtime) SetViewport(vp domain.Size) error {
	if vp.Width <= 0 || vp.Height <= 0 {
		return fmt.Errorf("%w: %vx%v", ErrInvalidViewport, vp.Width, vp.Height)
	}
	r.viewport = vp
	for _, w := range r.windows {
		r.settle(w)
	}
	return nil
}

// Get returns one window.
func (r *Runtime) Get(id string) (domain.WindowState, bool) {
	w, ok := r.windows[id]
	if !ok {
		return domain.WindowState{}, false
	}
	return *w, true
}

// List returns every open window sorted by z-order, then instance id.
func (r *Runtime) List() []domain.WindowState {
	out := make([]domain.WindowState, 0, len(r.windows))
	for _, w := range r.windows {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZOrder != out[j].ZOrder {
			return out[i].ZOrder < out[j].ZOrder
		}
		return out[i].InstanceID < out[j].InstanceID
	})
	return out
}
