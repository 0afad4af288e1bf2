package domain

// OverlayState tracks one overlay block. Closed overlays have ZOrder 0.
type OverlayState struct {
	OverlayID string `json:"overlayId"`
	IsOpen    bool   `json:"isOpen"`
	ZOrder    int    `json:"zOrder"`
}
