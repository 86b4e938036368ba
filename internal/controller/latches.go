package controller

import (
	"fmt"
	"strings"

	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
)

// applyLatches records the state a command is expected to produce.
func (l *Link) applyLatches(command string) {
	st := l.st
	set := func(s gamestate.PrimaryState) {
		st.WaitForState = &s
		telemetry.Infof("Waiting for state %s.", s)
	}

	switch {
	case command == "STATE:READY":
		set(gamestate.StateReady)
	case command == "STATE:SET":
		set(gamestate.StateSet)
	case command == "STATE:PLAY":
		set(gamestate.StatePlaying)
	case command == "STATE:PENALTY-SHOOTOUT":
		set(gamestate.StateInitial)
	case strings.HasPrefix(command, "SCORE:") || command == "DROPPEDBALL":
		if st.Secondary() == gamestate.SecondaryPenaltyShoot {
			set(gamestate.StateFinished)
		} else {
			set(gamestate.StateReady)
		}
	}

	kind, _, ok := strings.Cut(command, ":")
	if !ok {
		return
	}
	sec, ok := gamestate.InterruptionFromCommand(kind)
	if !ok {
		return
	}
	phase := gamestate.PhaseAwarded
	switch {
	case strings.Contains(command, "ABORT") || strings.Contains(command, "EXECUTE"):
		sec = gamestate.SecondaryNormal
	case strings.Contains(command, "READY"):
		phase = gamestate.PhasePrepare
	case strings.Contains(command, "PREPARE"):
		phase = gamestate.PhaseExecute
	}
	st.WaitForSecState = &sec
	st.WaitForSecPhase = &phase
	telemetry.Infof("Waiting for secondary state %s:%d.", sec, phase)
}

func (l *Link) latches() string {
	var parts []string
	if s := l.st.WaitForState; s != nil {
		parts = append(parts, s.String())
	}
	if s := l.st.WaitForSecState; s != nil {
		parts = append(parts, s.String())
	}
	if p := l.st.WaitForSecPhase; p != nil {
		parts = append(parts, fmt.Sprintf("phase %d", *p))
	}
	return strings.Join(parts, " ")
}

// reconcile diffs a new snapshot against the previous one, clears satisfied
// latches and publishes the changes.
func (l *Link) reconcile(prev, cur *gamestate.GameState) {
	st := l.st

	if prev == nil || prev.State != cur.State {
		telemetry.Infof("New state received from GameController: %s.", cur.State)
		change := events.StateChange{
			Current:          cur.State.String(),
			FirstHalf:        cur.FirstHalf,
			SecondsRemaining: int(cur.SecondsRemaining),
		}
		if prev != nil {
			change.Previous = prev.State.String()
		}
		if w := st.WaitForState; w != nil {
			change.Expected = w.String()
			if *w != cur.State {
				telemetry.Warnf("Received unexpected state from GameController: %s while expecting %s", cur.State, *w)
			} else {
				telemetry.Infof("State has successfully changed to %s", cur.State)
				st.WaitForState = nil
			}
		}
		l.publish(events.EventStateChanged, change)
	}

	if prev == nil || prev.Secondary != cur.Secondary || prev.Phase() != cur.Phase() {
		telemetry.Infof("New secondary state received from GameController: %s, phase %d.", cur.Secondary, cur.Phase())
		if st.WaitForSecState != nil || st.WaitForSecPhase != nil {
			if secondaryMatches(st.WaitForSecState, st.WaitForSecPhase, cur) {
				telemetry.Infof("Secondary state has successfully changed to %s:%d", cur.Secondary, cur.Phase())
				st.WaitForSecState = nil
				st.WaitForSecPhase = nil
			} else {
				telemetry.Warnf("Received unexpected secondary state from GameController: %s:%d while expecting %s",
					cur.Secondary, cur.Phase(), l.latches())
			}
		}
		change := events.SecondaryChange{
			Current: cur.Secondary.String(),
			Phase:   cur.Phase(),
			Team:    cur.SecondaryTeam(),
		}
		if prev != nil {
			change.Previous = prev.Secondary.String()
			change.PreviousPhase = prev.Phase()
		}
		l.publish(events.EventSecondaryChanged, change)
	}

	if prev == nil || prev.SecondsRemaining != cur.SecondsRemaining ||
		prev.SecondarySecondsRemaining != cur.SecondarySecondsRemaining {
		l.publish(events.EventClockChanged, events.ClockChange{
			SecondsRemaining:          int(cur.SecondsRemaining),
			SecondarySecondsRemaining: int(cur.SecondarySecondsRemaining),
		})
	}

	red, blue := score(cur, st.Red.ID), score(cur, st.Blue.ID)
	prevRed, prevBlue := score(prev, st.Red.ID), score(prev, st.Blue.ID)
	if red != prevRed || blue != prevBlue {
		l.publish(events.EventScoreChanged, events.ScoreChange{
			RedScore:      red,
			BlueScore:     blue,
			PrevRedScore:  prevRed,
			PrevBlueScore: prevBlue,
		})
	}
}

func secondaryMatches(sec *gamestate.SecondaryState, phase *int, gs *gamestate.GameState) bool {
	if sec != nil && *sec != gs.Secondary {
		return false
	}
	if phase != nil && *phase != gs.Phase() {
		return false
	}
	return true
}

func score(gs *gamestate.GameState, teamID int) int {
	if gs == nil {
		return 0
	}
	if ts, ok := gs.Team(teamID); ok {
		return int(ts.Score)
	}
	return 0
}
