package history

import (
	"fmt"

	"github.com/charleschow/humanoid-referee/internal/events"
)

// Observer writes bus events to the store: persisted match events as JSON
// rows and player snapshots into their own table.
type Observer struct {
	store *Store
}

func NewObserver(store *Store) *Observer {
	return &Observer{store: store}
}

// Subscribe registers the observer on bus. Store errors surface through the
// bus error callback.
func (o *Observer) Subscribe(bus *events.Bus) {
	bus.Subscribe(o.onEvent, events.Persisted...)
	bus.Subscribe(o.onSnapshot, events.EventPlayerSnapshot)
}

func (o *Observer) onEvent(evt events.Event) error {
	return o.store.InsertEvent(evt)
}

func (o *Observer) onSnapshot(evt events.Event) error {
	p, ok := evt.Payload.(events.PlayerSnapshot)
	if !ok {
		return fmt.Errorf("history: unexpected snapshot payload %T", evt.Payload)
	}
	return o.store.InsertSnapshot(evt.MatchID, evt.TimeMs, p)
}
