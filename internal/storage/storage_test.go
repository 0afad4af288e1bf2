package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"blockshell/internal/domain"
	"blockshell/internal/storage"
	"blockshell/internal/workspace"
)

func sampleSessions() []domain.WorkspaceSession {
	return []domain.WorkspaceSession{
		{
			TabID: "tab-a", CreatedAt: 1000, LastSeenAt: 5000,
			Windows: []domain.WindowSnapshot{
				{"windowKey": "editor", "instanceId": "e1", "x": 10.0, "y": 20.0, "width": 300.0, "height": 200.0, "minimized": false, "zOrder": 1.0, "docked": nil},
				{"windowKey": "inspector", "instanceId": "inspector", "x": 0.0, "y": 0.0, "width": 400.0, "height": 800.0, "minimized": true, "zOrder": 2.0, "docked": "left"},
			},
		},
		{TabID: "tab-b", CreatedAt: 2000, LastSeenAt: 2000, Windows: []domain.WindowSnapshot{}},
	}
}

func byTab(in []domain.WorkspaceSession) []domain.WorkspaceSession {
	sort.Slice(in, func(i, j int) bool { return in[i].TabID < in[j].TabID })
	return in
}

// exerciseAdapter checks the load-all/save-all contract shared by every
// backend.
func exerciseAdapter(t *testing.T, a workspace.Adapter) {
	t.Helper()
	ctx := context.Background()

	empty, err := a.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll on empty store: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty store, got %d records", len(empty))
	}

	if err := a.SaveAll(ctx, sampleSessions()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	got, err := a.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if diff := cmp.Diff(sampleSessions(), byTab(got)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	// SaveAll replaces, it does not merge.
	only := []domain.WorkspaceSession{{TabID: "tab-c", CreatedAt: 7, LastSeenAt: 8, Windows: []domain.WindowSnapshot{}}}
	if err := a.SaveAll(ctx, only); err != nil {
		t.Fatalf("SaveAll replace: %v", err)
	}
	got, err = a.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll after replace: %v", err)
	}
	if diff := cmp.Diff(only, got); diff != "" {
		t.Errorf("replace mismatch (-want +got):\n%s", diff)
	}
}

func TestMemory(t *testing.T) {
	exerciseAdapter(t, storage.NewMemory())
}

func TestMemory_CopiesOnSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()
	in := sampleSessions()
	m.SaveAll(ctx, in)
	in[0].Windows[0]["x"] = 999.0

	got, _ := m.LoadAll(ctx)
	got[0].Windows[0]["y"] = 999.0

	again, _ := m.LoadAll(ctx)
	if again[0].Windows[0]["x"] != 10.0 || again[0].Windows[0]["y"] != 20.0 {
		t.Errorf("memory store shares maps with callers: %v", again[0].Windows[0])
	}
}

func TestSQLite(t *testing.T) {
	db, err := storage.OpenSQL(context.Background(), storage.DialectSQLite, filepath.Join(t.TempDir(), "nested", "ws.db"))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer db.Close()
	exerciseAdapter(t, db)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ws.db")

	db, err := storage.OpenSQL(ctx, storage.DialectSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SaveAll(ctx, sampleSessions()); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = storage.OpenSQL(ctx, storage.DialectSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	got, err := db.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 sessions after reopen, got %d", len(got))
	}
}

func TestBolt(t *testing.T) {
	b, err := storage.OpenBolt(filepath.Join(t.TempDir(), "ws.bolt"))
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer b.Close()
	exerciseAdapter(t, b)
}

func TestBolt_CreatesMissingDir(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fresh", "nested", "workspace.bolt")

	b, err := storage.Open(ctx, "bolt", path)
	if err != nil {
		t.Fatalf("Open bolt into missing dir: %v", err)
	}
	defer b.Close()
	exerciseAdapter(t, b)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	mem, err := storage.Open(ctx, "memory", "")
	if err != nil {
		t.Fatal(err)
	}
	exerciseAdapter(t, mem)
	mem.Close()

	bolt, err := storage.Open(ctx, "bolt", filepath.Join(t.TempDir(), "x.bolt"))
	if err != nil {
		t.Fatal(err)
	}
	bolt.Close()

	if _, err := storage.Open(ctx, "cassandra", "x"); !errors.Is(err, storage.ErrUnknownDriver) {
		t.Errorf("err = %v, want ErrUnknownDriver", err)
	}
	if _, err := storage.Open(ctx, "postgres", ""); err == nil {
		t.Error("expected error for missing dsn")
	}
}
