// Package app wires configuration, storage, the shell and its outer
// surfaces into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"blockshell/internal/config"
	mcpserver "blockshell/internal/mcp"
	"blockshell/internal/policy"
	"blockshell/internal/remote"
	"blockshell/internal/session"
	"blockshell/internal/shell"
	"blockshell/internal/storage"
	"blockshell/internal/telemetry"
	"blockshell/internal/workspace"
)

const serviceName = "blockshell"

type Options struct {
	Version string
	// LogOutput receives structured logs. Defaults to stderr; stdout carries
	// the MCP transport.
	LogOutput io.Writer
	// Debounce overrides the bundle watcher's debounce window.
	Debounce time.Duration
}

// App owns every long-lived component of a running blockshell process.
type App struct {
	Logger *slog.Logger
	Server *mcpserver.Server
	Store  *workspace.Store

	backend       storage.Backend
	janitor       *workspace.Janitor
	watcher       *bundleWatcher
	traceShutdown func(context.Context) error
}

// New builds the process: logger, tracing, storage, workspace store, bundle
// source, shell, MCP server, janitor and bundle watcher. On failure every
// component already started is shut down again.
func New(ctx context.Context, cfg config.Config, opts Options) (_ *App, err error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	a := &App{Logger: logger}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	a.traceShutdown, err = telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	a.backend, err = storage.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Store, err = workspace.NewStore(a.backend)
	if err != nil {
		return nil, err
	}

	sessOpts, err := sessionOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	rt, err := shell.New(ctx, shell.Options{
		Session:   sessOpts,
		TabID:     cfg.TabID,
		Workspace: a.Store,
		Emitter:   shell.LogEmitter{Logger: logger},
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build shell: %w", err)
	}
	logger.Info("blockshell started", "tab", rt.TabID(), "mode", rt.Session().Mode(), "store", cfg.StoreDriver)

	a.Server = mcpserver.New(mcpserver.Deps{
		Shell:   rt,
		Caller:  policy.Caller{Permissions: cfg.Permissions, Roles: cfg.Roles},
		Logger:  logger,
		Version: opts.Version,
	})

	a.janitor, err = workspace.NewJanitor(a.Store, workspace.JanitorOptions{
		Schedule: cfg.PruneSchedule,
		MaxAge:   cfg.PruneMaxAge,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	a.janitor.Start()

	if cfg.WatchBundle && cfg.BundlePath != "" {
		w, err := newBundleWatcher(cfg.BundlePath, opts.Debounce, a.reload, logger)
		if err != nil {
			return nil, err
		}
		if err := w.Start(ctx); err != nil {
			return nil, err
		}
		a.watcher = w
	}
	return a, nil
}

// sessionOptions picks the bundle source and route resolver. A bundle path
// wins over a remote URL for loading; remote mode always needs the URL for
// evaluation.
func sessionOptions(cfg config.Config, logger *slog.Logger) (session.Options, error) {
	opts := session.Options{
		EntrySlug: cfg.EntrySlug,
		Mode:      session.Mode(cfg.Mode),
		Logger:    logger,
	}
	var client *remote.Client
	if cfg.RemoteURL != "" {
		c, err := remote.New(cfg.RemoteURL)
		if err != nil {
			return session.Options{}, err
		}
		client = c
	}
	if cfg.BundlePath != "" {
		opts.Source = session.FileSource{Path: cfg.BundlePath}
		opts.Resolver = session.ManifestRouter{}
	} else if client != nil {
		opts.Source = client
		opts.Resolver = client
	}
	if opts.Mode == session.ModeRemote && client != nil {
		opts.Remote = client
	}
	return opts, nil
}

func (a *App) reload(ctx context.Context) error {
	return a.Server.Do(func(rt *shell.Runtime) error {
		_, err := rt.ReloadBundle(ctx)
		return err
	})
}

// Serve runs the MCP server on stdio until it exits or ctx ends.
func (a *App) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Server.ServeStdio() }()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Close shuts components down in reverse start order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.janitor != nil {
		a.janitor.Stop(ctx)
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if a.traceShutdown != nil {
		if err := a.traceShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run builds the app from cfg, serves MCP and shuts down when ctx ends.
func Run(ctx context.Context, cfg config.Config, opts Options) error {
	a, err := New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	serveErr := a.Serve(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Join(serveErr, a.Close(shutdownCtx))
}
