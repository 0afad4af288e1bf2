package actions_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"blockshell/internal/actions"
	"blockshell/internal/domain"
)

func TestBuild_OrderAndCommandSpecialCase(t *testing.T) {
	blocks := map[string]domain.Block{
		"toolbar": {
			BlockID:   "toolbar",
			BlockType: "toolbar",
			Data: map[string]any{
				"interactions": map[string]any{
					"save": map[string]any{
						"kind":   "command",
						"params": map[string]any{"commandId": "doc.save", "args": map[string]any{"force": true}},
					},
					"refresh": map[string]any{
						"kind":   "command",
						"params": map[string]any{"commandId": "view.refresh"},
					},
					"click": map[string]any{
						"kind":         "event",
						"params":       map[string]any{"x": 1},
						"accessPolicy": map[string]any{"role": "editor"},
					},
				},
			},
		},
		"aside": {
			BlockID: "aside",
			Data: map[string]any{
				"interactions": map[string]any{
					"open":   map[string]any{"kind": "event"},
					"broken": "not an object",
				},
			},
		},
		"plain": {BlockID: "plain", Data: map[string]any{}},
	}

	idx := actions.Build(blocks)

	want := []domain.ActionDescriptor{
		{ID: "aside:open", SourceBlockID: "aside", ActionName: "open", InteractionKey: "open", Kind: "event"},
		{
			ID: "toolbar:click", SourceBlockID: "toolbar", ActionName: "click", InteractionKey: "click", Kind: "event",
			Payload: map[string]any{"x": 1}, AccessPolicy: map[string]any{"role": "editor"},
		},
		{
			ID: "toolbar:refresh", SourceBlockID: "toolbar", ActionName: "view.refresh", InteractionKey: "refresh", Kind: "command",
			Payload: map[string]any{"commandId": "view.refresh"},
		},
		{
			ID: "toolbar:save", SourceBlockID: "toolbar", ActionName: "doc.save", InteractionKey: "save", Kind: "command",
			Payload: map[string]any{"force": true},
		},
	}
	if diff := cmp.Diff(want, idx.List()); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}

	d, ok := idx.Lookup("toolbar:save")
	if !ok || d.ActionName != "doc.save" {
		t.Errorf("Lookup(toolbar:save) = %+v, %v", d, ok)
	}
	if _, ok := idx.Lookup("toolbar:missing"); ok {
		t.Error("expected unknown id to miss")
	}
}

func TestBuild_Empty(t *testing.T) {
	idx := actions.Build(nil)
	if idx.Len() != 0 || len(idx.List()) != 0 {
		t.Errorf("expected empty catalog, got %d", idx.Len())
	}
}
