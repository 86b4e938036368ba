package referee

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
	"github.com/charleschow/humanoid-referee/internal/world"
)

// play runs the PLAYING tick: end-of-period request, contact update and
// ball-out adjudication.
func (r *Referee) play(ctx context.Context, gs *gamestate.GameState) error {
	if gs.SecondsRemaining <= 0 && !r.finishRequested {
		r.finishRequested = true
		telemetry.Infof("Sending automated PLAYING -> FINISH because seconds remaining = %d.", gs.SecondsRemaining)
		if err := r.gc.Send(ctx, "STATE:FINISH"); err != nil {
			return err
		}
	}

	r.obs.Update()
	if r.ballParked {
		return nil
	}
	ball, ok := r.obs.BallPosition()
	if !ok || !r.st.Field.BallOut(ball.X, ball.Y) {
		return nil
	}
	return r.ballOut(ctx, ball)
}

// ballOut decides between a goal and a throw-in for a ball that fully
// crossed a boundary line at exit.
func (r *Referee) ballOut(ctx context.Context, exit world.Vec3) error {
	f := r.st.Field
	left := exit.X < 0
	defender := r.st.DefenderOf(left)
	attacker := r.st.Opponent(defender)
	last := r.st.LastTouch

	telemetry.Infof("Ball left the field at (%.2f %.2f %.2f) after being touched by %s.",
		exit.X, exit.Y, exit.Z, touchString(last))

	attackerTouchedLast := last != nil && last.Color == attacker.Color
	if f.ThroughGoalLine(exit.X) && f.BetweenPosts(exit.Y) && exit.Z < f.GoalHeight && attackerTouchedLast {
		return r.goal(ctx, attacker, defender, *last, exit)
	}

	defenderTouchedLast := last != nil && last.Color == defender.Color
	r.throwIn(defenderTouchedLast, left, exit)
	return nil
}

func (r *Referee) goal(ctx context.Context, attacker, defender *match.Team, scorer match.Touch, exit world.Vec3) error {
	telemetry.Infof("Score in %s goal by %s player %d.", defender.Color, scorer.Color, scorer.Number)
	if err := r.gc.Send(ctx, "SCORE:"+strconv.Itoa(attacker.ID)); err != nil {
		return fmt.Errorf("score for team %d: %w", attacker.ID, err)
	}
	telemetry.Metrics.Goals.Inc()
	r.publish(events.EventGoal, events.Goal{
		Team:        attacker.ID,
		Color:       string(attacker.Color),
		ScorerColor: string(scorer.Color),
		Scorer:      scorer.Number,
		Exit:        exit.Array(),
	})
	r.st.KickSpot = world.Vec3{}
	r.moveBallAway()
	return nil
}

// throwIn puts the ball back in play. After a defender's touch it goes to the
// centre line, otherwise to the penalty-mark line on the exit side. The
// first of three spots clear of robots is used.
func (r *Referee) throwIn(centerLine, left bool, exit world.Vec3) {
	x := 0.0
	if !centerLine {
		x = r.st.Field.PenaltyMarkX
		if left {
			x = -x
		}
	}
	candidates := [...]world.Vec3{
		{X: x},
		{X: x, Y: restartMarkerWidth},
		{X: x, Y: -restartMarkerWidth},
	}
	spot := candidates[len(candidates)-1]
	for _, c := range candidates {
		if !r.obs.RobotNear(c, r.st.Field.PlaceBallSafetyDist) {
			spot = c
			break
		}
	}

	spot.Z = r.st.Field.BallRadius
	telemetry.Metrics.ThrowIns.Inc()
	r.placeBall(spot)
	r.publish(events.EventThrowIn, events.ThrowIn{
		Spot:                spot.Array(),
		CenterLine:          centerLine,
		LeftSide:            left,
		DefenderTouchedLast: centerLine,
		Exit:                exit.Array(),
	})
}

func touchString(t *match.Touch) string {
	if t == nil {
		return "nobody"
	}
	return fmt.Sprintf("%s player %d", t.Color, t.Number)
}
