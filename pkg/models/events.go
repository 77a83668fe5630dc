package models

import "time"

// Flow event types
const (
	EventFlowCreated     = "flow_created"
	EventFlowReplaced    = "flow_replaced"
	EventStepPatched     = "step_patched"
	EventFlowNormalized  = "flow_normalized"
	EventFlowPublished   = "flow_published"
	EventFlowUnpublished = "flow_unpublished"
	EventFlowRepublished = "flow_republished"
	EventPriorityChanged = "priority_changed"
	EventFlowRestored    = "flow_restored"
)

// FlowEvent is broadcast after a flow mutation commits. Bot instances drop
// cached copies keyed on PublishedAt when they see one.
type FlowEvent struct {
	Type        string     `json:"type"`
	FlowID      string     `json:"flowId"`
	Version     int        `json:"version"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
}
