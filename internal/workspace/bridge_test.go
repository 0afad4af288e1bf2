package workspace_test

import (
	"context"
	"testing"

	"blockshell/internal/domain"
	"blockshell/internal/window"
	"blockshell/internal/workspace"
)

func registry() *window.Registry {
	return window.NewRegistry([]domain.WindowRegistryEntry{
		{WindowKey: "editor"},
		{WindowKey: "inspector", Singleton: true},
	}, nil)
}

func TestBridge_RoundTripThroughWindowRuntime(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	s.CreateSession(ctx, "tab1", at(1000))
	bridge := workspace.NewBridge(s, nil)

	rt := window.New(registry(), window.Options{TabID: "tab1", Persistence: bridge})
	rt.Open("editor", window.OpenOptions{InstanceID: "e1", Position: &domain.Point{X: 30, Y: 40}})
	rt.Open("inspector", window.OpenOptions{})
	id, _ := rt.Get("inspector")
	rt.Dock(id.InstanceID, domain.DockRight)
	if err := rt.SaveToPersistence(ctx); err != nil {
		t.Fatal(err)
	}

	restored := window.New(registry(), window.Options{TabID: "tab1", Persistence: bridge})
	res, err := restored.LoadFromPersistence(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Loaded != 2 || res.Dropped != 0 {
		t.Errorf("result = %+v", res)
	}
	for _, w := range rt.List() {
		got, ok := restored.Get(w.InstanceID)
		if !ok || got != w {
			t.Errorf("restored %s = %+v, want %+v", w.InstanceID, got, w)
		}
	}
}

func TestBridge_UnknownTabIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	bridge := workspace.NewBridge(s, nil)

	if err := bridge.Save(ctx, "ghost", []domain.WindowState{{WindowKey: "editor", InstanceID: "e1"}}); err != nil {
		t.Fatal(err)
	}
	snaps, err := bridge.Load(ctx, "ghost")
	if err != nil || snaps != nil {
		t.Errorf("load ghost = %v, %v", snaps, err)
	}
}
