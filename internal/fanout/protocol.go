package fanout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charleschow/humanoid-referee/internal/events"
)

// Envelope is the wire format for events sent over the fanout WebSocket.
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	MatchID   string          `json:"match_id,omitempty"`
	TimeMs    int             `json:"time_ms"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalEvent serializes an Event into a JSON-encoded Envelope.
func MarshalEvent(evt events.Event) ([]byte, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		Type:      string(evt.Type),
		ID:        evt.ID,
		MatchID:   evt.MatchID,
		TimeMs:    evt.TimeMs,
		Timestamp: evt.Timestamp,
		Payload:   payload,
	}
	return json.Marshal(env)
}

func decode[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

var payloadDecoders = map[events.EventType]func(json.RawMessage) (any, error){
	events.EventStateChanged:     decode[events.StateChange],
	events.EventSecondaryChanged: decode[events.SecondaryChange],
	events.EventScoreChanged:     decode[events.ScoreChange],
	events.EventClockChanged:     decode[events.ClockChange],
	events.EventKickoff:          decode[events.Kickoff],
	events.EventGoal:             decode[events.Goal],
	events.EventThrowIn:          decode[events.ThrowIn],
	events.EventPenalized:        decode[events.Penalization],
	events.EventUnpenalized:      decode[events.Penalization],
	events.EventBallTouched:      decode[events.BallTouch],
	events.EventSidesFlipped:     decode[events.SidesFlipped],
	events.EventCommand:          decode[events.Command],
	events.EventMatchOver:        decode[events.MatchOver],
	events.EventPlayerSnapshot:   decode[events.PlayerSnapshot],
	events.EventLabels:           decode[events.Labels],
	events.EventLog:              decode[events.LogLine],
}

// UnmarshalEvent deserializes a JSON Envelope back into a typed Event.
func UnmarshalEvent(data []byte) (events.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	evt := events.Event{
		ID:        env.ID,
		Type:      events.EventType(env.Type),
		MatchID:   env.MatchID,
		TimeMs:    env.TimeMs,
		Timestamp: env.Timestamp,
	}

	dec, ok := payloadDecoders[evt.Type]
	if !ok {
		return evt, fmt.Errorf("unknown event type: %s", env.Type)
	}
	payload, err := dec(env.Payload)
	if err != nil {
		return evt, fmt.Errorf("unmarshal %s: %w", env.Type, err)
	}
	evt.Payload = payload
	return evt, nil
}
