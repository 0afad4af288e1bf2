package window

import (
	"math"

	"blockshell/internal/domain"
)

// clampBounds floors the size by the kind's minimum, caps it by the viewport
// and keeps the window fully inside the viewport.
func clampBounds(w *domain.WindowState, minSize *domain.Size, vp domain.Size) {
	if minSize != nil {
		w.Width = math.Max(w.Width, minSize.Width)
		w.Height = math.Max(w.Height, minSize.Height)
	}
	w.Width = math.Max(0, math.Min(w.Width, vp.Width))
	w.Height = math.Max(0, math.Min(w.Height, vp.Height))
	w.X = clampRange(w.X, 0, vp.Width-w.Width)
	w.Y = clampRange(w.Y, 0, vp.Height-w.Height)
}

func clampRange(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// dockBounds pins a window to one edge: a third of the viewport along the
// docked axis and the full extent across it.
func dockBounds(w *domain.WindowState, side domain.DockSide, vp domain.Size) {
	third := func(v float64) float64 { return math.Floor(v / 3) }
	switch side {
	case domain.DockLeft:
		w.X, w.Y, w.Width, w.Height = 0, 0, third(vp.Width), vp.Height
	case domain.DockRight:
		w.Width, w.Height = third(vp.Width), vp.Height
		w.X, w.Y = vp.Width-w.Width, 0
	case domain.DockTop:
		w.X, w.Y, w.Width, w.Height = 0, 0, vp.Width, third(vp.Height)
	case domain.DockBottom:
		w.Width, w.Height = vp.Width, third(vp.Height)
		w.X, w.Y = 0, vp.Height-w.Height
	}
}
