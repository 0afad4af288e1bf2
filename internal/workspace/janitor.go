package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrJobRunning is returned by RunOnce when a previous prune is still going.
var ErrJobRunning = errors.New("workspace: prune already running")

// JanitorOptions configures a Janitor.
type JanitorOptions struct {
	// Schedule is a standard five-field cron expression or descriptor such as
	// "@hourly".
	Schedule string
	MaxAge   time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Janitor prunes stale workspace sessions on a cron schedule.
type Janitor struct {
	store  *Store
	maxAge time.Duration
	logger *slog.Logger
	now    func() time.Time

	cron *cron.Cron
	// running is held for the duration of a prune; inflight lets Stop wait
	// for it.
	running  sync.Mutex
	inflight sync.WaitGroup
}

func NewJanitor(store *Store, opts JanitorOptions) (*Janitor, error) {
	if opts.MaxAge <= 0 {
		return nil, fmt.Errorf("janitor: max age must be positive, got %s", opts.MaxAge)
	}
	j := &Janitor{
		store:  store,
		maxAge: opts.MaxAge,
		logger: opts.Logger,
		now:    opts.Now,
		cron:   cron.New(),
	}
	if j.logger == nil {
		j.logger = slog.Default()
	}
	if j.now == nil {
		j.now = time.Now
	}
	if _, err := j.cron.AddFunc(opts.Schedule, j.tick); err != nil {
		return nil, fmt.Errorf("janitor: schedule %q: %w", opts.Schedule, err)
	}
	return j, nil
}

func (j *Janitor) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := j.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrJobRunning):
		j.logger.Debug("prune skipped, previous run still active")
	case err != nil:
		j.logger.Error("prune stale sessions", "error", err)
	case n > 0:
		j.logger.Info("pruned stale sessions", "removed", n)
	}
}

// RunOnce prunes immediately.
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	if !j.running.TryLock() {
		return 0, ErrJobRunning
	}
	j.inflight.Add(1)
	defer func() {
		j.inflight.Done()
		j.running.Unlock()
	}()
	return j.store.PruneStale(ctx, j.maxAge, j.now())
}

func (j *Janitor) Start() { j.cron.Start() }

// Stop halts the schedule and waits for an in-flight prune.
func (j *Janitor) Stop(ctx context.Context) {
	stopped := j.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return
	}

	done := make(chan struct{})
	go func() {
		j.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
