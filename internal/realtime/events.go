package realtime

import "encoding/json"

const (
	EventChatMessage     = "chat.message"
	EventSuperchat       = "chat.superchat"
	EventSessionStatus   = "session.status"
	EventParticipantJoin = "participant.joined"
	EventParticipantLeft = "participant.left"
	EventReminder        = "session.reminder"
)

// Event is one unit pushed to every subscriber of a room. Payload is already
// marshaled so the hub never re-encodes per subscriber.
type Event struct {
	Room    string          `json:"room"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func NewEvent(room, eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Room: room, Type: eventType, Payload: raw}, nil
}
