// Package session owns one loaded bundle, its resolved entry route and the
// block state store, and evaluates bindings against that store either
// locally or through a remote debug endpoint.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"blockshell/internal/binding"
	"blockshell/internal/domain"
	"blockshell/internal/pointer"
	"blockshell/internal/policy"
)

// Mode selects where bindings are evaluated. It is fixed for the lifetime of
// a session.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

var (
	ErrInvalidMode  = errors.New("invalid session mode")
	ErrNoSource     = errors.New("no bundle source")
	ErrNoResolver   = errors.New("no route resolver")
	ErrNoRemote     = errors.New("remote mode requires a remote dispatcher")
	ErrNoEntrySlug  = errors.New("no entry slug")
	ErrRouteDenied  = errors.New("entry route not allowed")
	ErrTargetAbsent = errors.New("target block not found")
)

// BundleSource loads the active bundle.
type BundleSource interface {
	LoadBundle(ctx context.Context) (*domain.Bundle, error)
}

// RouteResolver resolves an entry slug to a target block.
type RouteResolver interface {
	Resolve(ctx context.Context, bundle *domain.Bundle, slug string) (domain.RouteResolution, error)
}

// Dispatcher evaluates bindings on a remote endpoint.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.DispatchRequest) (domain.EvalResult, error)
	Tick(ctx context.Context) (domain.EvalResult, error)
}

type Options struct {
	Source   BundleSource
	Resolver RouteResolver
	// EntrySlug overrides the manifest's entry slug.
	EntrySlug string
	Mode      Mode
	Remote    Dispatcher
	Logger    *slog.Logger
}

// Model is the assembled view of a session's bundle.
type Model struct {
	Manifest       domain.Manifest
	EntrySlug      string
	Regions        domain.Regions
	TargetBlockID  string
	Target         domain.Block
	WindowRegistry *domain.Block
	Overlays       []domain.Block
	Blocks         map[string]domain.Block
}

// Runtime is one live session. It is not safe for concurrent use.
type Runtime struct {
	mode   Mode
	remote Dispatcher
	logger *slog.Logger

	bundle *domain.Bundle
	model  Model
	state  domain.StateStore
}

// New loads the bundle, resolves the entry route, assembles the model and
// seeds the state store. Any failure returns an error and no session.
func New(ctx context.Context, opts Options) (*Runtime, error) {
	if opts.Mode == "" {
		opts.Mode = ModeLocal
	}
	switch opts.Mode {
	case ModeLocal:
	case ModeRemote:
		if opts.Remote == nil {
			return nil, ErrNoRemote
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, opts.Mode)
	}
	if opts.Source == nil {
		return nil, ErrNoSource
	}
	if opts.Resolver == nil {
		return nil, ErrNoResolver
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bundle, err := opts.Source.LoadBundle(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	if err := bundle.Normalize(); err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}

	slug := opts.EntrySlug
	if slug == "" {
		slug = bundle.Manifest.EntrySlug
	}
	if slug == "" {
		return nil, ErrNoEntrySlug
	}
	route, err := opts.Resolver.Resolve(ctx, bundle, slug)
	if err != nil {
		return nil, fmt.Errorf("resolve route %q: %w", slug, err)
	}
	if !route.Allowed || route.Status != http.StatusOK || route.TargetBlockID == "" {
		return nil, fmt.Errorf("%w: slug %q (allowed=%t status=%d) %s",
			ErrRouteDenied, slug, route.Allowed, route.Status, route.Error)
	}

	model, err := assemble(bundle, slug, route.TargetBlockID)
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		mode:   opts.Mode,
		remote: opts.Remote,
		logger: logger,
		bundle: bundle,
		model:  model,
		state:  domain.StateStore{},
	}
	r.seed()
	logger.Info("session ready", "mode", r.mode, "entry", slug, "target", route.TargetBlockID, "blocks", len(bundle.Blocks))
	return r, nil
}

func assemble(bundle *domain.Bundle, slug, targetID string) (Model, error) {
	target, ok := bundle.Block(targetID)
	if !ok {
		return Model{}, fmt.Errorf("%w: %s", ErrTargetAbsent, targetID)
	}
	m := Model{
		Manifest:      bundle.Manifest,
		EntrySlug:     slug,
		TargetBlockID: targetID,
		Target:        target,
		Blocks:        bundle.Blocks,
		Regions: domain.Regions{
			Top:    bundle.Manifest.Top,
			Main:   bundle.Manifest.Main,
			Bottom: bundle.Manifest.Bottom,
		},
	}
	for _, id := range sortedIDs(bundle.Blocks) {
		blk := bundle.Blocks[id]
		switch blk.BlockType {
		case domain.BlockTypeWindowRegistry:
			if m.WindowRegistry == nil {
				b := blk
				m.WindowRegistry = &b
			}
		case domain.BlockTypeOverlay:
			m.Overlays = append(m.Overlays, blk)
		}
	}
	return m, nil
}

func sortedIDs(blocks map[string]domain.Block) []string {
	ids := make([]string, 0, len(blocks))
	for id := range blocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// seed creates a state entry for every non-binding block that has none yet.
func (r *Runtime) seed() {
	for id, blk := range r.bundle.Blocks {
		if blk.BlockType == domain.BlockTypeBinding {
			continue
		}
		if _, exists := r.state[id]; exists {
			continue
		}
		initial, ok := blk.Data["state"]
		if !ok || initial == nil {
			initial = map[string]any{}
		}
		r.state[id] = map[string]any{"state": pointer.Clone(initial)}
	}
}

func (r *Runtime) Mode() Mode { return r.mode }

func (r *Runtime) Model() Model { return r.model }

func (r *Runtime) Bundle() *domain.Bundle { return r.bundle }

// State returns a deep copy of the state store.
func (r *Runtime) State() domain.StateStore {
	out := make(domain.StateStore, len(r.state))
	for id, e := range r.state {
		out[id] = pointer.CloneMap(e)
	}
	return out
}

// BlockState returns a copy of one block's state value.
func (r *Runtime) BlockState(blockID string) (any, bool) {
	e, ok := r.state[blockID]
	if !ok {
		return nil, false
	}
	v, ok := e["state"]
	return pointer.Clone(v), ok
}

// DispatchAction evaluates the triggered bindings matching req. In remote
// mode a refusal comes back as a result with Status set, not as an error.
func (r *Runtime) DispatchAction(ctx context.Context, req domain.DispatchRequest) (domain.EvalResult, error) {
	if r.mode == ModeRemote {
		res, err := r.remote.Dispatch(ctx, req)
		if err != nil {
			return domain.EvalResult{}, fmt.Errorf("remote dispatch %s/%s: %w", req.SourceBlockID, req.ActionName, err)
		}
		return res, nil
	}
	res := binding.ApplyTriggered(r.bundle, r.state, binding.Trigger{
		SourceBlockID: req.SourceBlockID,
		ActionName:    req.ActionName,
		Payload:       req.Payload,
	}, policy.Caller{Permissions: req.Permissions, Roles: req.Roles})
	r.logger.Debug("dispatch", "source", req.SourceBlockID, "action", req.ActionName, "applied", res.Applied, "skipped", res.Skipped)
	return res, nil
}

// ApplyDerivedTick runs one pass over the derived bindings.
func (r *Runtime) ApplyDerivedTick(ctx context.Context) (domain.EvalResult, error) {
	if r.mode == ModeRemote {
		res, err := r.remote.Tick(ctx)
		if err != nil {
			return domain.EvalResult{}, fmt.Errorf("remote tick: %w", err)
		}
		return res, nil
	}
	res := binding.ApplyDerivedTick(r.bundle, r.state)
	r.logger.Debug("derived tick", "applied", res.Applied, "skipped", res.Skipped)
	return res, nil
}

// ReplaceBundle swaps in a new bundle for the same entry target. Existing
// block state is kept, new blocks are seeded and state for removed blocks is
// dropped. The session is unchanged when the target block is missing from
// the new bundle.
func (r *Runtime) ReplaceBundle(bundle *domain.Bundle) error {
	if err := bundle.Normalize(); err != nil {
		return fmt.Errorf("replace bundle: %w", err)
	}
	model, err := assemble(bundle, r.model.EntrySlug, r.model.TargetBlockID)
	if err != nil {
		return fmt.Errorf("replace bundle: %w", err)
	}
	r.bundle = bundle
	r.model = model
	for id := range r.state {
		if blk, ok := bundle.Blocks[id]; !ok || blk.BlockType == domain.BlockTypeBinding {
			delete(r.state, id)
		}
	}
	r.seed()
	r.logger.Info("bundle replaced", "blocks", len(bundle.Blocks))
	return nil
}
