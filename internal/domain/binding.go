package domain

// BindingMode selects when a binding is evaluated.
type BindingMode string

const (
	BindingModeDerived   BindingMode = "derived"
	BindingModeTriggered BindingMode = "triggered"
)

// Direction restricts how a mapping may use an endpoint.
type Direction string

const (
	DirectionIn    Direction = "in"
	DirectionOut   Direction = "out"
	DirectionInOut Direction = "inout"
)

// Readable reports whether a mapping may read from an endpoint.
func (d Direction) Readable() bool { return d == DirectionOut || d == DirectionInOut }

// Writable reports whether a mapping may write to an endpoint.
func (d Direction) Writable() bool { return d == DirectionIn || d == DirectionInOut }

// MappingKind tags the mapping variant.
type MappingKind string

const (
	MappingCopy       MappingKind = "copy"
	MappingSetLiteral MappingKind = "setLiteral"
	MappingSetPayload MappingKind = "setPayload"
)

type EndpointTarget struct {
	BlockID string `json:"blockId"`
	Path    string `json:"path"`
}

type Endpoint struct {
	EndpointID string         `json:"endpointId"`
	Direction  Direction      `json:"direction"`
	Target     EndpointTarget `json:"target"`
}

// Trigger identifies the named event a triggered binding reacts to.
type Trigger struct {
	SourceBlockID string `json:"sourceBlockId"`
	Name          string `json:"name"`
}

// Mapping is the decoded data.mapping of a binding. Which fields are
// meaningful depends on Kind.
type Mapping struct {
	Kind    MappingKind `json:"kind"`
	From    string      `json:"from,omitempty"`
	To      string      `json:"to,omitempty"`
	Value   any         `json:"value,omitempty"`
	Path    string      `json:"path,omitempty"`
	Trigger *Trigger    `json:"trigger,omitempty"`
}

// Binding is the decoded form of a block with blockType "binding".
type Binding struct {
	BlockID      string      `json:"blockId"`
	Mode         BindingMode `json:"mode"`
	Enabled      bool        `json:"enabled"`
	Endpoints    []Endpoint  `json:"endpoints"`
	Mapping      *Mapping    `json:"mapping,omitempty"`
	AccessPolicy any         `json:"accessPolicy,omitempty"`
}

// Endpoint returns the endpoint with the given id.
func (b Binding) Endpoint(id string) (Endpoint, bool) {
	for _, ep := range b.Endpoints {
		if ep.EndpointID == id {
			return ep, true
		}
	}
	return Endpoint{}, false
}
