package models

import "encoding/json"

// Event types emitted to debate listeners.
const (
	EventTurnCompleted   = "turn_completed"
	EventModeratorAction = "moderator_action"
	EventSpeakerChange   = "speaker_change"
	EventRoundStart      = "round_start"
	EventPhaseChange     = "phase_change"
	EventDebateError     = "debate_error"
	EventDebateEnded     = "debate_ended"
	EventDebateStopped   = "debate_stopped"
	EventAudioStream     = "audio_stream"
)

// Event is the envelope delivered to every listener. On the wire the
// payload fields sit next to "event" and "debate_id" in one flat object.
type Event struct {
	Type     string
	DebateID string
	Payload  map[string]interface{}
}

// NewEvent builds an event for one debate.
func NewEvent(eventType, debateID string, payload map[string]interface{}) Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return Event{Type: eventType, DebateID: debateID, Payload: payload}
}

// MarshalJSON flattens the payload into the envelope object.
func (e Event) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(e.Payload)+2)
	for k, v := range e.Payload {
		flat[k] = v
	}
	flat["event"] = e.Type
	flat["debate_id"] = e.DebateID
	return json.Marshal(flat)
}
