package workspace_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"blockshell/internal/domain"
	"blockshell/internal/workspace"
)

func TestJanitor_RunOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	s.CreateSession(ctx, "stale", at(1000))
	s.CreateSession(ctx, "fresh", at(99000))

	j, err := workspace.NewJanitor(s, workspace.JanitorOptions{
		Schedule: "@every 1h",
		MaxAge:   10 * time.Second,
		Now:      func() time.Time { return at(100000) },
	})
	if err != nil {
		t.Fatal(err)
	}
	n, err := j.RunOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("removed = %d, want 1", n)
	}
	if rec, _ := s.GetSession(ctx, "fresh"); rec == nil {
		t.Error("fresh session was pruned")
	}
}

func TestJanitor_StartStop(t *testing.T) {
	s := newStore(t)
	j, err := workspace.NewJanitor(s, workspace.JanitorOptions{Schedule: "@hourly", MaxAge: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	j.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		j.Stop(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestNewJanitor_Validation(t *testing.T) {
	s := newStore(t)
	if _, err := workspace.NewJanitor(s, workspace.JanitorOptions{Schedule: "not a schedule", MaxAge: time.Hour}); err == nil {
		t.Error("expected error for bad schedule")
	}
	if _, err := workspace.NewJanitor(s, workspace.JanitorOptions{Schedule: "@hourly"}); err == nil {
		t.Error("expected error for zero max age")
	}
}

// blockingAdapter parks LoadAll until release is closed.
type blockingAdapter struct {
	entered chan struct{}
	release chan struct{}
}

func (a *blockingAdapter) LoadAll(ctx context.Context) ([]domain.WorkspaceSession, error) {
	a.entered <- struct{}{}
	<-a.release
	return nil, nil
}

func (a *blockingAdapter) SaveAll(context.Context, []domain.WorkspaceSession) error { return nil }

func TestJanitor_OverlappingRunIsRejected(t *testing.T) {
	ad := &blockingAdapter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s, err := workspace.NewStore(ad)
	if err != nil {
		t.Fatal(err)
	}
	j, err := workspace.NewJanitor(s, workspace.JanitorOptions{Schedule: "@hourly", MaxAge: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := j.RunOnce(ctx)
		first <- err
	}()
	select {
	case <-ad.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first prune never reached the adapter")
	}

	if _, err := j.RunOnce(ctx); !errors.Is(err, workspace.ErrJobRunning) {
		t.Errorf("second RunOnce err = %v, want ErrJobRunning", err)
	}

	// Stop waits for the prune in flight.
	stopped := make(chan struct{})
	go func() {
		j.Stop(ctx)
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a prune was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(ad.release)
	if err := <-first; err != nil {
		t.Errorf("first RunOnce: %v", err)
	}
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the prune finished")
	}

	if _, err := j.RunOnce(ctx); err != nil {
		t.Errorf("RunOnce after release: %v", err)
	}
}
