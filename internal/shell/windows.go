package shell

import (
	"context"

	"blockshell/internal/domain"
	"blockshell/internal/window"
)

// ── Windows ────────────────────────────────────────────────
// Every successful change is saved through the window runtime's
// persistence. A failed save is logged; the in-memory change stands.

func (r *Runtime) saveWindows(ctx context.Context) {
	if err := r.windows.SaveToPersistence(ctx); err != nil {
		r.logger.Error("save windows", "tab", r.tabID, "error", err)
	}
}

func (r *Runtime) windowChanged(ctx context.Context, w domain.WindowState, err error) (domain.WindowState, error) {
	if err != nil {
		return domain.WindowState{}, err
	}
	r.saveWindows(ctx)
	r.emitter.Emit(ctx, EventWindowChanged, w)
	return w, nil
}

func (r *Runtime) Windows() []domain.WindowState { return r.windows.List() }

func (r *Runtime) OpenWindow(ctx context.Context, windowKey string, opts window.OpenOptions) (domain.WindowState, error) {
	w, err := r.windows.Open(windowKey, opts)
	return r.windowChanged(ctx, w, err)
}

func (r *Runtime) FocusWindow(ctx context.Context, id string) (domain.WindowState, error) {
	w, err := r.windows.Focus(id)
	return r.windowChanged(ctx, w, err)
}

func (r *Runtime) MoveWindow(ctx context.Context, id string, x, y float64) (domain.WindowState, error) {
	w, err := r.windows.Move(id, x, y)
	return r.windowChanged(ctx, w, err)
}

func (r *Runtime) ResizeWindow(ctx context.Context, id string, width, height float64) (domain.WindowState, error) {
	w, err := r.windows.Resize(id, width, height)
	return r.windowChanged(ctx, w, err)
}

func (r *Runtime) DockWindow(ctx context.Context, id string, side domain.DockSide) (domain.WindowState, error) {
	w, err := r.windows.Dock(id, side)
	return r.windowChanged(ctx, w, err)
}

func (r *Runtime) MinimizeWindow(ctx context.Context, id string, minimized bool) (domain.WindowState, error) {
	w, err := r.windows.SetMinimized(id, minimized)
	return r.windowChanged(ctx, w, err)
}

func (r *Runtime) CloseWindow(ctx context.Context, id string) error {
	if err := r.windows.Close(id); err != nil {
		return err
	}
	r.saveWindows(ctx)
	r.emitter.Emit(ctx, EventWindowChanged, map[string]string{"closed": id})
	return nil
}

func (r *Runtime) SetViewport(ctx context.Context, vp domain.Size) error {
	if err := r.windows.SetViewport(vp); err != nil {
		return err
	}
	r.saveWindows(ctx)
	r.emitter.Emit(ctx, EventWindowChanged, vp)
	return nil
}

// ── Overlays ───────────────────────────────────────────────

func (r *Runtime) Overlays() []domain.OverlayState { return r.overlays.List() }

func (r *Runtime) overlayChanged(ctx context.Context, o domain.OverlayState, err error) (domain.OverlayState, error) {
	if err != nil {
		return domain.OverlayState{}, err
	}
	r.emitter.Emit(ctx, EventOverlayChanged, o)
	return o, nil
}

func (r *Runtime) OpenOverlay(ctx context.Context, id string) (domain.OverlayState, error) {
	o, err := r.overlays.Open(id)
	return r.overlayChanged(ctx, o, err)
}

func (r *Runtime) CloseOverlay(ctx context.Context, id string) (domain.OverlayState, error) {
	o, err := r.overlays.Close(id)
	return r.overlayChanged(ctx, o, err)
}

func (r *Runtime) ToggleOverlay(ctx context.Context, id string) (domain.OverlayState, error) {
	o, err := r.overlays.Toggle(id)
	return r.overlayChanged(ctx, o, err)
}

// DismissTopOverlay closes the front-most open overlay. With nothing open
// it reports false and emits nothing.
func (r *Runtime) DismissTopOverlay(ctx context.Context, reason string) (string, bool) {
	id, ok := r.overlays.DismissTop(reason)
	if ok {
		r.emitter.Emit(ctx, EventOverlayDismissed, map[string]string{"overlayId": id, "reason": reason})
	}
	return id, ok
}
