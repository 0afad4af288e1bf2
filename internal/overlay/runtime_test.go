package overlay_test

import (
	"errors"
	"testing"

	"blockshell/internal/domain"
	"blockshell/internal/overlay"
)

func newRuntime() *overlay.Runtime {
	return overlay.New([]domain.Block{
		{BlockID: "menu", BlockType: domain.BlockTypeOverlay},
		{BlockID: "dialog", BlockType: domain.BlockTypeOverlay},
		{BlockID: "toast", BlockType: domain.BlockTypeOverlay},
		{BlockID: "", BlockType: domain.BlockTypeOverlay},
	})
}

func TestOpen_AssignsIncreasingZOrder(t *testing.T) {
	r := newRuntime()

	a, _ := r.Open("menu")
	b, _ := r.Open("dialog")
	if a.ZOrder != 1 || b.ZOrder != 2 {
		t.Fatalf("zOrders = %d, %d; want 1, 2", a.ZOrder, b.ZOrder)
	}

	again, err := r.Open("menu")
	if err != nil {
		t.Fatal(err)
	}
	if again.ZOrder != 3 {
		t.Errorf("re-opening should re-front: zOrder = %d, want 3", again.ZOrder)
	}
}

func TestOpen_Unknown(t *testing.T) {
	r := newRuntime()
	if _, err := r.Open("nope"); !errors.Is(err, overlay.ErrUnknownOverlay) {
		t.Errorf("err = %v, want ErrUnknownOverlay", err)
	}
	if _, err := r.Toggle("nope"); !errors.Is(err, overlay.ErrUnknownOverlay) {
		t.Errorf("toggle err = %v, want ErrUnknownOverlay", err)
	}
}

func TestToggleAndClose(t *testing.T) {
	r := newRuntime()

	s, _ := r.Toggle("toast")
	if !s.IsOpen || s.ZOrder != 1 {
		t.Fatalf("after first toggle: %+v", s)
	}
	s, _ = r.Toggle("toast")
	if s.IsOpen || s.ZOrder != 0 {
		t.Fatalf("after second toggle: %+v", s)
	}
}

func TestDismissTop(t *testing.T) {
	r := newRuntime()

	if id, ok := r.DismissTop("escape"); ok || id != "" {
		t.Fatalf("nothing open: got %q, %v", id, ok)
	}

	r.Open("menu")
	r.Open("dialog")

	id, ok := r.DismissTop("escape")
	if !ok || id != "dialog" {
		t.Fatalf("DismissTop = %q, %v; want dialog", id, ok)
	}
	if s, _ := r.Get("dialog"); s.IsOpen || s.ZOrder != 0 {
		t.Errorf("dialog should be closed: %+v", s)
	}
	if id, _ := r.DismissTop("escape"); id != "menu" {
		t.Errorf("second dismissal = %q, want menu", id)
	}
}

func TestList_SortedByZOrder(t *testing.T) {
	r := newRuntime()
	r.Open("toast")
	r.Open("menu")

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	got := []string{list[0].OverlayID, list[1].OverlayID, list[2].OverlayID}
	want := []string{"dialog", "toast", "menu"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
