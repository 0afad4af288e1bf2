package domain

// ActionDescriptor is one dispatchable action derived from a block's
// interaction declarations.
type ActionDescriptor struct {
	ID             string `json:"id"`
	SourceBlockID  string `json:"sourceBlockId"`
	ActionName     string `json:"actionName"`
	InteractionKey string `json:"interactionKey"`
	Kind           string `json:"kind,omitempty"`
	Payload        any    `json:"payload,omitempty"`
	AccessPolicy   any    `json:"accessPolicy,omitempty"`
}

// DispatchRequest is a named event raised against a source block.
type DispatchRequest struct {
	SourceBlockID string   `json:"sourceBlockId"`
	ActionName    string   `json:"actionName"`
	Payload       any      `json:"payload,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
	Roles         []string `json:"roles,omitempty"`
}

// EvalResult reports how many bindings were applied or skipped. Status and
// Error are set when the evaluation was refused as a whole (for example a
// remote 403).
type EvalResult struct {
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Logs    []string `json:"logs"`
	Status  int      `json:"status,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Refused reports whether the result carries a structured refusal.
func (r EvalResult) Refused() bool { return r.Error != "" || r.Status >= 400 }
