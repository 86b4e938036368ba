package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the envelope that flows through the event bus.
// Every match event (state change, goal, penalty, label refresh) is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	MatchID   string
	TimeMs    int // simulated time
	Timestamp time.Time
	Payload   any
}

// New stamps a payload with a fresh id and the wall clock.
func New(t EventType, matchID string, timeMs int, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		MatchID:   matchID,
		TimeMs:    timeMs,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

type EventType string

const (
	// GameController snapshot diffs
	EventStateChanged     EventType = "state_changed"
	EventSecondaryChanged EventType = "secondary_changed"
	EventScoreChanged     EventType = "score_changed"
	EventClockChanged     EventType = "clock_changed"
	// Referee decisions
	EventKickoff      EventType = "kickoff"
	EventGoal         EventType = "goal"
	EventThrowIn      EventType = "throw_in"
	EventPenalized    EventType = "penalized"
	EventUnpenalized  EventType = "unpenalized"
	EventBallTouched  EventType = "ball_touched"
	EventSidesFlipped EventType = "sides_flipped"
	EventCommand      EventType = "command"
	EventMatchOver    EventType = "match_over"
	// Periodic
	EventPlayerSnapshot EventType = "player_snapshot"
	EventLabels         EventType = "labels"
	EventLog            EventType = "log"
)

// Persisted lists the event types written to the match history.
var Persisted = []EventType{
	EventStateChanged,
	EventSecondaryChanged,
	EventScoreChanged,
	EventKickoff,
	EventGoal,
	EventThrowIn,
	EventPenalized,
	EventUnpenalized,
	EventBallTouched,
	EventSidesFlipped,
	EventCommand,
	EventMatchOver,
}

// Broadcast lists the event types forwarded to live board clients.
var Broadcast = append([]EventType{EventLabels, EventLog, EventPlayerSnapshot}, Persisted...)
