package events

import (
	"encoding/json"
	"time"
)

// Event is anything published on the event bus. EventType doubles as the
// subject suffix, e.g. "JOB_COMPLETED".
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func NewEvent(eventType string, data map[string]interface{}, occurredAt time.Time) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: occurredAt}
}

func (e BaseEvent) EventType() string               { return e.Type }
func (e BaseEvent) Payload() map[string]interface{} { return e.Data }
func (e BaseEvent) Timestamp() time.Time            { return e.OccurredAt }

// Envelope flattens an event into its wire form: the payload keys plus
// event_type and occurred_at, which win over payload keys of the same name.
func Envelope(e Event) map[string]interface{} {
	payload := e.Payload()
	body := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["event_type"] = e.EventType()
	body["occurred_at"] = e.Timestamp().UTC().Format(time.RFC3339Nano)
	return body
}

func (e BaseEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(Envelope(e))
}
