package pointer_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"blockshell/internal/pointer"
)

func TestParse(t *testing.T) {
	tests := []struct {
		path    string
		want    []string
		wantErr bool
	}{
		{"/", nil, false},
		{"/a", []string{"a"}, false},
		{"/a/b/c", []string{"a", "b", "c"}, false},
		{"", nil, true},
		{"a/b", nil, true},
		{"/a//b", nil, true},
		{"/a/", nil, true},
	}
	for _, tt := range tests {
		got, err := pointer.Parse(tt.path)
		if tt.wantErr {
			if !errors.Is(err, pointer.ErrMalformed) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformed", tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.path, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.path, diff)
		}
	}
}

func TestGet(t *testing.T) {
	root := map[string]any{
		"state": map[string]any{"val": "A", "n": 3},
		"leaf":  "x",
	}

	if v, ok := pointer.Get(root, "/state/val"); !ok || v != "A" {
		t.Errorf("Get(/state/val) = %v, %v", v, ok)
	}
	if _, ok := pointer.Get(root, "/state/missing"); ok {
		t.Error("expected missing leaf to be absent")
	}
	if _, ok := pointer.Get(root, "/nope/val"); ok {
		t.Error("expected missing intermediate to be absent")
	}
	if _, ok := pointer.Get(root, "/leaf/deeper"); ok {
		t.Error("expected traversal through a scalar to be absent")
	}
	if _, ok := pointer.Get(root, "state/val"); ok {
		t.Error("expected path without leading slash to be absent")
	}
	if v, ok := pointer.Get(root, "/"); !ok || v == nil {
		t.Error("expected root path to return the root")
	}
}

func TestSet(t *testing.T) {
	root := map[string]any{}

	if !pointer.Set(root, "/state/derived/val", "A") {
		t.Fatal("expected Set to create intermediates")
	}
	want := map[string]any{"state": map[string]any{"derived": map[string]any{"val": "A"}}}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Errorf("Set mismatch (-want +got):\n%s", diff)
	}

	if pointer.Set(root, "/", 1) {
		t.Error("expected Set on root path to fail")
	}
	if pointer.Set(root, "", 1) {
		t.Error("expected Set on empty path to fail")
	}
	if pointer.Set(root, "/state/derived/val/x", 1) {
		t.Error("expected Set through a scalar to fail")
	}
	if !pointer.Set(root, "/state/derived/val", 2) {
		t.Error("expected overwrite of an existing leaf to succeed")
	}
}

func TestClone_IsDeep(t *testing.T) {
	src := map[string]any{
		"a": map[string]any{"b": []any{map[string]any{"c": 1}}},
	}
	dup := pointer.CloneMap(src)
	pointer.Set(dup, "/a/b", "changed")

	if _, ok := src["a"].(map[string]any)["b"].([]any); !ok {
		t.Fatal("mutating the clone changed the source")
	}
	if diff := cmp.Diff(map[string]any{"a": map[string]any{"b": "changed"}}, dup); diff != "" {
		t.Errorf("clone mismatch (-want +got):\n%s", diff)
	}
}
