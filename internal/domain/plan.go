package domain

// Regions holds the manifest's resolved region block ids.
type Regions struct {
	Top    string `json:"top,omitempty"`
	Main   string `json:"main,omitempty"`
	Bottom string `json:"bottom,omitempty"`
}

// RenderPlan is everything the rendering layer needs for one session.
type RenderPlan struct {
	EntrySlug     string             `json:"entrySlug"`
	TargetBlockID string             `json:"targetBlockId"`
	Regions       Regions            `json:"regions"`
	Viewport      Size               `json:"viewport"`
	Actions       []ActionDescriptor `json:"actions"`
	Windows       []WindowState      `json:"windows"`
	Overlays      []OverlayState     `json:"overlays"`
}

// RouteResolution is the route resolver's answer for an entry slug.
type RouteResolution struct {
	Allowed       bool   `json:"allowed"`
	Status        int    `json:"status"`
	TargetBlockID string `json:"targetBlockId,omitempty"`
	Error         string `json:"error,omitempty"`
}
