package display

import (
	"sync"

	"github.com/charleschow/humanoid-referee/internal/world"
)

// Tracker remembers the last label pushed for each id so unchanged labels
// are not redrawn.
type Tracker struct {
	mu    sync.Mutex
	shown map[int]world.Label
}

func NewTracker() *Tracker {
	return &Tracker{
		shown: make(map[int]world.Label),
	}
}

// Changed records labels and returns those that differ from what was last
// shown under the same id.
func (t *Tracker) Changed(labels []world.Label) []world.Label {
	t.mu.Lock()
	defer t.mu.Unlock()
	var changed []world.Label
	for _, l := range labels {
		if prev, ok := t.shown[l.ID]; ok && prev == l {
			continue
		}
		t.shown[l.ID] = l
		changed = append(changed, l)
	}
	return changed
}

// Shown returns the label currently displayed under id.
func (t *Tracker) Shown(id int) (world.Label, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.shown[id]
	return l, ok
}
