package domain

// WorkspaceSession is the durable record of one browser tab's workspace.
// Timestamps are Unix milliseconds.
type WorkspaceSession struct {
	TabID      string           `json:"tabId" bson:"tabId"`
	CreatedAt  int64            `json:"createdAt" bson:"createdAt"`
	LastSeenAt int64            `json:"lastSeenAt" bson:"lastSeenAt"`
	Windows    []WindowSnapshot `json:"windows" bson:"windows"`
}
