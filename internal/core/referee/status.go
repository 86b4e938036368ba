package referee

import (
	"context"
	"fmt"
	"time"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
)

// advanceInterruption moves a free kick style interruption to its next phase
// once the GameController's secondary timer ran out. Each (kind, team, phase)
// step is acted on once.
func (r *Referee) advanceInterruption(ctx context.Context) error {
	gs := r.st.Current
	if !gs.Secondary.IsInterruption() {
		r.lastStep = interruptionStep{}
		return nil
	}
	step := interruptionStep{kind: gs.Secondary, team: gs.SecondaryTeam(), phase: gs.Phase()}
	if step == r.lastStep || gs.SecondarySecondsRemaining > 0 {
		return nil
	}

	var action string
	switch step.phase {
	case gamestate.PhasePrepare:
		action = "PREPARE"
	case gamestate.PhaseExecute:
		action = "EXECUTE"
	default:
		return nil
	}
	r.lastStep = step
	telemetry.Infof("%s for team %d: sending %s.", gs.Secondary.Description(), step.team, action)
	return r.gc.Send(ctx, fmt.Sprintf("%s:%d:%s", gs.Secondary, step.team, action))
}

// recordHistory samples every player once per simulated second.
func (r *Referee) recordHistory() {
	if r.st.TimeMs-r.lastHistoryMs < historyPeriodMs {
		return
	}
	r.lastHistoryMs = r.st.TimeMs
	for _, t := range r.st.Teams() {
		for _, p := range t.Players {
			s := p.Record(r.st.TimeMs)
			r.publish(events.EventPlayerSnapshot, events.PlayerSnapshot{
				Color:              string(t.Color),
				Number:             p.Number,
				Position:           s.Position.Array(),
				Asleep:             s.Asleep,
				Fallen:             s.Fallen,
				Penalized:          s.Penalized,
				InsideField:        s.Flags.InsideField,
				OutsideField:       s.Flags.OutsideField,
				OnOuterLine:        s.Flags.OnOuterLine,
				OutsideCircle:      s.Flags.OutsideCircle,
				InsideOwnSide:      s.Flags.InsideOwnSide,
				OutsideGoalArea:    s.Flags.OutsideGoalArea,
				OutsidePenaltyArea: s.Flags.OutsidePenaltyArea,
			})
		}
	}
}

func (r *Referee) reportStatus() {
	r.status.Do(func() {
		now := time.Now()
		if r.statusAt.IsZero() {
			r.statusAt, r.statusTimeMs = now, r.st.TimeMs
			return
		}
		wall := now.Sub(r.statusAt)
		sim := time.Duration(r.st.TimeMs-r.statusTimeMs) * time.Millisecond
		r.statusAt, r.statusTimeMs = now, r.st.TimeMs
		for _, line := range r.statusLines(sim, wall) {
			telemetry.Infof("STATUS: %s", line)
		}
	})
}

// statusLines is the periodic status report: pacing over the last period,
// the GameController state and the shoot-out trial.
func (r *Referee) statusLines(sim, wall time.Duration) []string {
	factor := 0.0
	if wall > 0 {
		factor = sim.Seconds() / wall.Seconds()
	}
	lines := []string{fmt.Sprintf("Avg speed factor: %.3f (over last %.2f seconds)", factor, wall.Seconds())}

	gs := r.st.Current
	if gs == nil {
		return append(lines, "No messages received from GameController yet")
	}
	lines = append(lines, fmt.Sprintf("state: %s, remaining time: %d", gs.State, gs.SecondsRemaining))
	if gs.Secondary.IsInterruption() {
		lines = append(lines, fmt.Sprintf("  sec_state: %s phase: %d", gs.Secondary, gs.Phase()))
	}
	if r.st.Type == config.GamePenalty || gs.Secondary == gamestate.SecondaryPenaltyShoot {
		lines = append(lines, shootoutMessage(r.st.ShootoutCount))
	}
	return lines
}

// shootoutMessage names the current shoot-out trial; trials past the tenth
// belong to the extended shoot-out.
func shootoutMessage(count int) string {
	trial := count + 1
	name := "penalty shoot-out"
	if count >= 10 {
		name = "extended " + name
		trial -= 10
	}
	return fmt.Sprintf("%s %d/10", name, trial)
}
