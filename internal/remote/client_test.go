package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"blockshell/internal/domain"
	"blockshell/internal/remote"
	"blockshell/internal/session"
)

func newServer(t *testing.T, mux *http.ServeMux) *remote.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := remote.New(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	if _, err := remote.New("localhost/api"); err == nil {
		t.Error("expected error for relative url")
	}
}

func TestLoadBundle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bundle", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"manifest": map[string]any{"main": "Home", "entrySlug": "home"},
			"blocks":   map[string]any{"Home": map[string]any{"blockType": "page", "data": map[string]any{}}},
		})
	})
	c := newServer(t, mux)

	b, err := c.LoadBundle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if b.Manifest.Main != "Home" || b.Blocks["Home"].BlockID != "Home" {
		t.Errorf("bundle = %+v", b)
	}
}

func TestLoadBundle_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bundle", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newServer(t, mux)

	_, err := c.LoadBundle(context.Background())
	var se *remote.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Errorf("err = %v, want StatusError 500", err)
	}
}

func TestResolve(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /routes/resolve", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("slug") {
		case "home":
			writeJSON(w, http.StatusOK, domain.RouteResolution{Allowed: true, Status: 200, TargetBlockID: "Home"})
		case "admin":
			writeJSON(w, http.StatusForbidden, map[string]any{"allowed": false, "error": "admins only"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newServer(t, mux)
	ctx := context.Background()

	got, err := c.Resolve(ctx, nil, "home")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(domain.RouteResolution{Allowed: true, Status: 200, TargetBlockID: "Home"}, got); diff != "" {
		t.Errorf("home mismatch (-want +got):\n%s", diff)
	}

	got, err = c.Resolve(ctx, nil, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if got.Allowed || got.Status != http.StatusForbidden || got.Error != "admins only" {
		t.Errorf("admin = %+v", got)
	}

	got, err = c.Resolve(ctx, nil, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if got.Allowed || got.Status != http.StatusNotFound {
		t.Errorf("missing = %+v", got)
	}
}

func TestDispatch(t *testing.T) {
	var seen domain.DispatchRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /debug/dispatch", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&seen)
		if seen.ActionName == "delete" {
			writeJSON(w, http.StatusForbidden, map[string]any{"status": 403, "error": "missing permission doc.delete"})
			return
		}
		writeJSON(w, http.StatusOK, domain.EvalResult{Applied: 2, Skipped: 1, Logs: []string{"binding b3: no match"}})
	})
	c := newServer(t, mux)
	ctx := context.Background()

	res, err := c.Dispatch(ctx, domain.DispatchRequest{SourceBlockID: "Doc", ActionName: "save", Permissions: []string{"doc.write"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied != 2 || res.Skipped != 1 || len(res.Logs) != 1 {
		t.Errorf("result = %+v", res)
	}
	if seen.SourceBlockID != "Doc" || seen.Permissions[0] != "doc.write" {
		t.Errorf("request body = %+v", seen)
	}

	res, err = c.Dispatch(ctx, domain.DispatchRequest{SourceBlockID: "Doc", ActionName: "delete"})
	if err != nil {
		t.Fatalf("403 must be a result, got error %v", err)
	}
	if !res.Refused() || res.Status != http.StatusForbidden || res.Error != "missing permission doc.delete" {
		t.Errorf("refusal = %+v", res)
	}
}

func TestTick_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /debug/tick", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	c := newServer(t, mux)

	res, err := c.Tick(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != http.StatusForbidden || res.Error == "" {
		t.Errorf("empty 403 body = %+v", res)
	}
}

func TestClient_DrivesRemoteSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bundle", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"manifest": map[string]any{"main": "Home", "entrySlug": "home"},
			"blocks":   map[string]any{"Home": map[string]any{"blockType": "page", "data": map[string]any{"state": map[string]any{"v": 1}}}},
		})
	})
	mux.HandleFunc("GET /routes/resolve", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.RouteResolution{Allowed: true, Status: 200, TargetBlockID: "Home"})
	})
	mux.HandleFunc("POST /debug/tick", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.EvalResult{Applied: 3})
	})
	c := newServer(t, mux)

	rt, err := session.New(context.Background(), session.Options{
		Source:   c,
		Resolver: c,
		Mode:     session.ModeRemote,
		Remote:   c,
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := rt.ApplyDerivedTick(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied != 3 {
		t.Errorf("applied = %d", res.Applied)
	}
}
