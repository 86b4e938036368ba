package referee

import (
	"context"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
	"github.com/charleschow/humanoid-referee/internal/world"
)

// enter runs the entry action of gs.State. It is called once per visit.
func (r *Referee) enter(ctx context.Context, gs *gamestate.GameState) error {
	switch gs.State {
	case gamestate.StateInitial:
		r.enterInitial(gs)
	case gamestate.StateReady:
		r.kickoff()
	case gamestate.StateSet:
		r.enterSet(gs)
	case gamestate.StatePlaying:
		r.finishRequested = false
	case gamestate.StateFinished:
		return r.enterFinished(ctx, gs)
	}
	return nil
}

func (r *Referee) enterInitial(gs *gamestate.GameState) {
	telemetry.Infof("Entering INITIAL, first_half = %t, sec_state = %s, sec_phase = %d.",
		gs.FirstHalf, gs.Secondary, gs.Phase())
	if (gs.Secondary == gamestate.SecondaryNormal && !gs.FirstHalf) || gs.Secondary == gamestate.SecondaryOvertime {
		r.flipSides()
	}
	r.resetTeams(match.PoseBorder)
	r.moveBallAway()
}

func (r *Referee) flipSides() {
	r.st.FlipSides()
	left := r.st.LeftTeam()
	telemetry.Infof("Flipping sides: %s team now plays on the left side.", left.Color)
	r.publish(events.EventSidesFlipped, events.SidesFlipped{SideLeft: left.ID, SideLeftColor: string(left.Color)})
}

// kickoff prepares a kick-off by the GameController's kicking team.
func (r *Referee) kickoff() {
	r.st.KickSpot = world.Vec3{}
	r.st.CanScore = false
	r.st.CanScoreOwn = false
	r.st.BallLeftCircle = false
	r.st.KickingPlayerNumber = nil
	r.moveBallAway()

	t, ok := r.st.TeamByID(r.st.Kickoff)
	if !ok {
		return
	}
	telemetry.Infof("Kick-off is %s.", t.Color)
	r.publish(events.EventKickoff, events.Kickoff{
		Team:           t.ID,
		Color:          string(t.Color),
		CanScore:       r.st.CanScore,
		CanScoreOwn:    r.st.CanScoreOwn,
		BallLeftCircle: r.st.BallLeftCircle,
		KickingPlayer:  r.st.KickingPlayerNumber,
	})
}

func (r *Referee) enterSet(gs *gamestate.GameState) {
	telemetry.Infof("Entering SET, sec_state = %s.", gs.Secondary)
	switch gs.Secondary {
	case gamestate.SecondaryNormal, gamestate.SecondaryOvertime:
		for _, t := range r.st.Teams() {
			for _, p := range t.Players {
				if p.NeedsPlacement {
					r.resetPlayer(t, p, p.Pose(match.PoseReady), "ready pose")
				}
			}
		}
		r.placeBall(r.st.KickSpot)
	case gamestate.SecondaryPenaltyShoot:
		r.setPenaltyPositions()
		r.placeBall(r.st.KickSpot)
	}
}

// setPenaltyPositions lines up one shoot-out trial: a single kicker of the
// kicking team, the defending goalkeeper, and everyone else locked on the
// border until the next reset.
func (r *Referee) setPenaltyPositions() {
	attacker, ok := r.st.TeamByID(r.st.Kickoff)
	if !ok {
		attacker = r.st.Red
	}
	defender := r.st.Opponent(attacker)
	telemetry.Infof("Setting positions for %s.", shootoutMessage(r.st.ShootoutCount))

	kicker := r.pick(attacker, false)
	for _, p := range attacker.Players {
		if p == kicker {
			r.resetPlayer(attacker, p, p.Pose(match.PoseShootout), "shootout pose")
			continue
		}
		r.resetPlayer(attacker, p, p.Pose(match.PoseBorder), "border pose")
		r.hold(p)
	}
	keeper := r.pick(defender, true)
	for _, p := range defender.Players {
		if p == keeper {
			r.resetPlayer(defender, p, p.Pose(match.PoseGoalkeeper), "goalkeeper pose")
			continue
		}
		r.resetPlayer(defender, p, p.Pose(match.PoseBorder), "border pose")
		r.hold(p)
	}

	x := r.st.Field.PenaltyMarkX
	if r.st.SideLeft != r.st.Kickoff {
		x = -x
	}
	r.st.KickSpot = world.Vec3{X: x}
	r.st.CanScore = true
	r.st.CanScoreOwn = false
	r.st.BallLeftCircle = true
	r.st.KickingPlayerNumber = nil
	r.st.ResetBallTouched()
}

// pick returns the lowest-numbered player whose GameController goalkeeper
// flag equals goalkeeper, falling back to the lowest-numbered player.
func (r *Referee) pick(t *match.Team, goalkeeper bool) *match.Player {
	if len(t.Players) == 0 {
		return nil
	}
	for _, p := range t.Players {
		ps, ok := r.st.PlayerState(t, p.Number)
		if ok && ps.Goalkeeper == goalkeeper {
			return p
		}
	}
	return t.Players[0]
}

func (r *Referee) enterFinished(ctx context.Context, gs *gamestate.GameState) error {
	if gs.Secondary == gamestate.SecondaryPenaltyShoot {
		telemetry.Infof("End of %s.", shootoutMessage(r.st.ShootoutCount))
		r.st.ShootoutCount++
		return r.gc.Send(ctx, "STATE:SET")
	}

	red, blue := r.scores()
	if gs.FirstHalf {
		telemetry.Infof("End of %s.", halfName(gs))
		return nil
	}
	if r.st.Type == config.GameKnockout && red == blue && gs.Secondary == gamestate.SecondaryOvertime {
		telemetry.Infof("Tie after extra time, starting the penalty shoot-out.")
		return r.gc.Send(ctx, "STATE:PENALTY-SHOOTOUT")
	}
	if r.st.Type == config.GameNormal || red != blue {
		r.finish(red, blue, "end of "+halfName(gs))
		return nil
	}
	telemetry.Infof("Tie at the end of %s.", halfName(gs))
	return nil
}

func (r *Referee) finish(red, blue int, reason string) {
	r.st.Over = true
	telemetry.Infof("Match over (%s): red %d - %d blue.", reason, red, blue)
	r.publish(events.EventMatchOver, events.MatchOver{RedScore: red, BlueScore: blue, Reason: reason})
}

func (r *Referee) scores() (red, blue int) {
	if ts, ok := r.st.TeamState(r.st.Red); ok {
		red = int(ts.Score)
	}
	if ts, ok := r.st.TeamState(r.st.Blue); ok {
		blue = int(ts.Score)
	}
	return red, blue
}

func halfName(gs *gamestate.GameState) string {
	half := "second half"
	if gs.FirstHalf {
		half = "first half"
	}
	if gs.Secondary == gamestate.SecondaryOvertime {
		half += " of extra time"
	}
	return half
}
