package observability

import "time"

// EventEnvelope wraps a session change for broker consumers. Name carries the
// event type (session_created, participant_joined, ...) and Payload the full
// event as emitted by the watch hub.
type EventEnvelope struct {
	Source     string `json:"source"`
	Name       string `json:"name"`
	OccurredAt string `json:"occurred_at"`
	Payload    any    `json:"payload"`
}

// NewEventEnvelope stamps a payload with its source service and emission time.
func NewEventEnvelope(source, name string, payload any) EventEnvelope {
	return EventEnvelope{
		Source:     source,
		Name:       name,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	}
}
