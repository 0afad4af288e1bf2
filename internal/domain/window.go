package domain

// DockSide pins a window to one viewport edge. The empty side means floating.
type DockSide string

const (
	DockNone   DockSide = ""
	DockLeft   DockSide = "left"
	DockRight  DockSide = "right"
	DockTop    DockSide = "top"
	DockBottom DockSide = "bottom"
)

// Valid reports whether d is a known side or DockNone.
func (d DockSide) Valid() bool {
	switch d {
	case DockNone, DockLeft, DockRight, DockTop, DockBottom:
		return true
	}
	return false
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WindowRegistryEntry declares one window kind. Entries are static.
type WindowRegistryEntry struct {
	WindowKey   string `json:"windowKey"`
	Singleton   bool   `json:"singleton"`
	DefaultSize *Size  `json:"defaultSize,omitempty"`
	MinSize     *Size  `json:"minSize,omitempty"`
}

// WindowState is the canonical state of one open window instance.
type WindowState struct {
	WindowKey  string   `json:"windowKey"`
	InstanceID string   `json:"instanceId"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Minimized  bool     `json:"minimized"`
	ZOrder     int      `json:"zOrder"`
	Docked     DockSide `json:"docked,omitempty"`
}

// WindowSnapshot is a persisted window entry. It stays loosely typed so that
// stale or foreign records can be validated field by field on load.
type WindowSnapshot map[string]any

// Snapshot converts s to its persisted form.
func (s WindowState) Snapshot() WindowSnapshot {
	snap := WindowSnapshot{
		"windowKey":  s.WindowKey,
		"instanceId": s.InstanceID,
		"x":          s.X,
		"y":          s.Y,
		"width":      s.Width,
		"height":     s.Height,
		"minimized":  s.Minimized,
		"zOrder":     float64(s.ZOrder),
	}
	if s.Docked != DockNone {
		snap["docked"] = string(s.Docked)
	} else {
		snap["docked"] = nil
	}
	return snap
}
