package notify

import "time"

// EventType identifies a realtime event consumed by the presentation layer.
type EventType string

const (
	EventRequestCreated   EventType = "request.created"
	EventRequestUpdated   EventType = "request.updated"
	EventReminderSent     EventType = "reminder.sent"
	EventEscalationRaised EventType = "escalation.raised"
)

// Realtime topics. Clients subscribe to the dashboard feed, to a specific
// request, or to everything.
const (
	TopicDashboard = "dashboard"
	TopicBroadcast = "*"
)

// RequestTopic returns the per-request topic name.
func RequestTopic(requestID string) string {
	return "request:" + requestID
}

// Event is a state-change notification. Delivery is at-least-once; clients
// re-render from fetched state rather than accumulating diffs, so repeated
// delivery of the same event is harmless.
type Event struct {
	Type         EventType `json:"type"`
	RequestID    string    `json:"request_id,omitempty"`
	RequestNo    string    `json:"request_no,omitempty"`
	Status       string    `json:"status,omitempty"`
	ApproverType string    `json:"approver_type,omitempty"`
	ApproverID   string    `json:"approver_id,omitempty"`
	ActorID      string    `json:"actor_id,omitempty"`
	Message      string    `json:"message,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Topics lists the realtime topics the event fans out to.
func (e Event) Topics() []string {
	topics := []string{TopicDashboard}
	if e.RequestID != "" {
		topics = append(topics, RequestTopic(e.RequestID))
	}
	return topics
}
