// Package shell is the composition root: it builds a session, attaches the
// tab's workspace record, restores windows, and exposes one Runtime through
// which every mutation flows to exactly one owning component.
package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"blockshell/internal/actions"
	"blockshell/internal/domain"
	"blockshell/internal/overlay"
	"blockshell/internal/policy"
	"blockshell/internal/session"
	"blockshell/internal/window"
	"blockshell/internal/workspace"
)

var ErrUnknownAction = errors.New("unknown action")

type Options struct {
	Session session.Options
	// TabID identifies the workspace record. A random id is used when empty.
	TabID string
	// Workspace persists windows per tab. Windows live in memory only when
	// nil.
	Workspace *workspace.Store
	Emitter   EventEmitter
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// Runtime ties together one session and its window, overlay and action
// runtimes. It holds no state of its own beyond those components and is not
// safe for concurrent use.
type Runtime struct {
	session  *session.Runtime
	source   session.BundleSource
	store    *workspace.Store
	windows  *window.Runtime
	overlays *overlay.Runtime
	actions  *actions.Index

	tabID   string
	newID   func() string
	emitter EventEmitter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New builds the shell: session, workspace attach, bridge, windows,
// overlays, then the action index.
func New(ctx context.Context, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Session.Logger == nil {
		opts.Session.Logger = logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tabID := opts.TabID
	if tabID == "" {
		tabID = uuid.NewString()
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = nopEmitter{}
	}

	sess, err := session.New(ctx, opts.Session)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	var persist window.Persistence
	if opts.Workspace != nil {
		if err := attach(ctx, opts.Workspace, tabID, now()); err != nil {
			return nil, err
		}
		persist = workspace.NewBridge(opts.Workspace, logger)
	}

	model := sess.Model()
	windows := window.New(window.ParseRegistry(model.WindowRegistry), window.Options{
		TabID:       tabID,
		Persistence: persist,
		NewID:       opts.NewID,
	})
	loaded, err := windows.LoadFromPersistence(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore windows: %w", err)
	}
	if loaded.Dropped > 0 {
		logger.Warn("dropped persisted windows", "tab", tabID, "dropped", loaded.Dropped)
	}

	r := &Runtime{
		session:  sess,
		source:   opts.Session.Source,
		store:    opts.Workspace,
		windows:  windows,
		overlays: overlay.New(model.Overlays),
		actions:  actions.Build(model.Blocks),
		tabID:    tabID,
		newID:    opts.NewID,
		emitter:  emitter,
		logger:   logger,
		tracer:   otel.Tracer("blockshell/shell"),
	}
	logger.Info("shell ready", "tab", tabID, "windows", loaded.Loaded, "actions", r.actions.Len())
	return r, nil
}

// attach touches the tab's record, creating it when absent.
func attach(ctx context.Context, store *workspace.Store, tabID string, now time.Time) error {
	touched, err := store.TouchSession(ctx, tabID, now)
	if err != nil {
		return fmt.Errorf("attach workspace %s: %w", tabID, err)
	}
	if !touched {
		if _, err := store.CreateSession(ctx, tabID, now); err != nil {
			return fmt.Errorf("attach workspace %s: %w", tabID, err)
		}
	}
	return nil
}

func (r *Runtime) TabID() string { return r.tabID }

func (r *Runtime) Session() *session.Runtime { return r.session }

// Plan projects the current state into a render plan. It has no side
// effects.
func (r *Runtime) Plan() domain.RenderPlan {
	model := r.session.Model()
	return domain.RenderPlan{
		EntrySlug:     model.EntrySlug,
		TargetBlockID: model.TargetBlockID,
		Regions:       model.Regions,
		Viewport:      r.windows.Viewport(),
		Actions:       r.actions.List(),
		Windows:       r.windows.List(),
		Overlays:      r.overlays.List(),
	}
}

func (r *Runtime) BlockState(blockID string) (any, bool) {
	return r.session.BlockState(blockID)
}

// ListWorkspaceSessions lists every stored workspace record.
func (r *Runtime) ListWorkspaceSessions(ctx context.Context) ([]domain.WorkspaceSession, error) {
	if r.store == nil {
		return []domain.WorkspaceSession{}, nil
	}
	return r.store.ListSessions(ctx)
}

// ── Bindings ───────────────────────────────────────────────

func (r *Runtime) DispatchAction(ctx context.Context, req domain.DispatchRequest) (domain.EvalResult, error) {
	ctx, span := r.tracer.Start(ctx, "shell.DispatchAction", trace.WithAttributes(
		attribute.String("blockshell.source_block_id", req.SourceBlockID),
		attribute.String("blockshell.action_name", req.ActionName),
	))
	defer span.End()

	res, err := r.session.DispatchAction(ctx, req)
	if err != nil {
		span.RecordError(err)
		return domain.EvalResult{}, err
	}
	r.traceResult(span, res)
	if res.Applied > 0 {
		r.emitter.Emit(ctx, EventStateChanged, res)
	}
	return res, nil
}

// DispatchCatalogAction dispatches the indexed action actionID. The
// descriptor's access policy is checked first; a rejection is a 403 result.
// A nil payload uses the descriptor's payload.
func (r *Runtime) DispatchCatalogAction(ctx context.Context, actionID string, caller policy.Caller, payload any) (domain.EvalResult, error) {
	desc, ok := r.actions.Lookup(actionID)
	if !ok {
		return domain.EvalResult{}, fmt.Errorf("%w: %s", ErrUnknownAction, actionID)
	}
	if !policy.Allowed(desc.AccessPolicy, caller) {
		r.logger.Info("action refused by policy", "action", actionID)
		return domain.EvalResult{
			Logs:   []string{},
			Status: http.StatusForbidden,
			Error:  "access denied: " + actionID,
		}, nil
	}
	if payload == nil {
		payload = desc.Payload
	}
	return r.DispatchAction(ctx, domain.DispatchRequest{
		SourceBlockID: desc.SourceBlockID,
		ActionName:    desc.ActionName,
		Payload:       payload,
		Permissions:   caller.Permissions,
		Roles:         caller.Roles,
	})
}

func (r *Runtime) ApplyDerivedTick(ctx context.Context) (domain.EvalResult, error) {
	ctx, span := r.tracer.Start(ctx, "shell.ApplyDerivedTick")
	defer span.End()

	res, err := r.session.ApplyDerivedTick(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.EvalResult{}, err
	}
	r.traceResult(span, res)
	if res.Applied > 0 {
		r.emitter.Emit(ctx, EventStateChanged, res)
	}
	return res, nil
}

func (r *Runtime) traceResult(span trace.Span, res domain.EvalResult) {
	span.SetAttributes(
		attribute.Int("blockshell.applied", res.Applied),
		attribute.Int("blockshell.skipped", res.Skipped),
	)
	if res.Status != 0 {
		span.SetAttributes(attribute.Int("blockshell.status", res.Status))
	}
}

// ── Bundle reload ──────────────────────────────────────────

// ReloadSummary reports what a bundle reload changed.
type ReloadSummary struct {
	Blocks         int `json:"blocks"`
	Actions        int `json:"actions"`
	WindowsKept    int `json:"windowsKept"`
	WindowsDropped int `json:"windowsDropped"`
}

// ReloadBundle re-reads the session's bundle source and swaps the bundle in.
// Block state and the current viewport are kept. Windows whose kind left the
// registry are closed and open overlays that still exist stay open.
func (r *Runtime) ReloadBundle(ctx context.Context) (ReloadSummary, error) {
	bundle, err := r.source.LoadBundle(ctx)
	if err != nil {
		return ReloadSummary{}, fmt.Errorf("reload bundle: %w", err)
	}
	if err := r.session.ReplaceBundle(bundle); err != nil {
		return ReloadSummary{}, err
	}
	model := r.session.Model()

	prevViewport := r.windows.Viewport()
	windows := window.New(window.ParseRegistry(model.WindowRegistry), window.Options{
		TabID:       r.tabID,
		Persistence: r.persistence(),
		NewID:       r.newID,
	})
	if err := windows.SetViewport(prevViewport); err != nil {
		return ReloadSummary{}, fmt.Errorf("reload bundle: %w", err)
	}
	restored := windows.Restore(r.windows.Snapshots())
	r.windows = windows

	overlays := overlay.New(model.Overlays)
	for _, o := range r.overlays.List() {
		if o.IsOpen {
			_, _ = overlays.Open(o.OverlayID)
		}
	}
	r.overlays = overlays
	r.actions = actions.Build(model.Blocks)

	r.saveWindows(ctx)
	sum := ReloadSummary{
		Blocks:         len(bundle.Blocks),
		Actions:        r.actions.Len(),
		WindowsKept:    restored.Loaded,
		WindowsDropped: restored.Dropped,
	}
	r.logger.Info("bundle reloaded", "blocks", sum.Blocks, "windowsDropped", sum.WindowsDropped)
	r.emitter.Emit(ctx, EventBundleReloaded, sum)
	return sum, nil
}

func (r *Runtime) persistence() window.Persistence {
	if r.store == nil {
		return nil
	}
	return workspace.NewBridge(r.store, r.logger)
}
