package display

import (
	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/world"
)

// Triggers are the match events after which the score board is recomposed.
var Triggers = []events.EventType{
	events.EventStateChanged,
	events.EventSecondaryChanged,
	events.EventScoreChanged,
	events.EventClockChanged,
	events.EventKickoff,
	events.EventSidesFlipped,
	events.EventPenalized,
	events.EventUnpenalized,
}

// Observer pushes the score board to a label sink. Only labels whose
// content changed are drawn and published as an EventLabels event.
type Observer struct {
	st      *match.State
	sink    world.LabelSink
	bus     *events.Bus
	tracker *Tracker
}

func NewObserver(st *match.State, sink world.LabelSink, bus *events.Bus) *Observer {
	return &Observer{st: st, sink: sink, bus: bus, tracker: NewTracker()}
}

// Subscribe registers the observer for Triggers on its bus.
func (o *Observer) Subscribe() {
	o.bus.Subscribe(o.OnEvent, Triggers...)
}

func (o *Observer) OnEvent(events.Event) error {
	o.Refresh()
	return nil
}

// Refresh recomposes every label and draws the changed ones.
func (o *Observer) Refresh() {
	labels := append(Scoreboard(o.st), Details(o.st)...)
	changed := o.tracker.Changed(labels)
	if len(changed) == 0 {
		return
	}
	payload := events.Labels{Labels: make([]events.Label, 0, len(changed))}
	for _, l := range changed {
		o.sink.SetLabel(l)
		payload.Labels = append(payload.Labels, events.Label{ID: l.ID, Text: l.Text, X: l.X, Y: l.Y, Color: l.Color})
	}
	if o.bus != nil {
		o.bus.Publish(events.New(events.EventLabels, o.st.MatchID, o.st.TimeMs, payload))
	}
}
