package referee

import (
	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
)

// penaltyAreaX is where penalized robots wait, far outside the field.
const penaltyAreaX = 50

// syncPenalties mirrors GameController penalties onto the robots and releases
// actuator locks that have expired.
func (r *Referee) syncPenalties() {
	if r.st.Current == nil {
		return
	}
	for _, t := range r.st.Teams() {
		sign := 1.0
		if t.Color == match.Blue {
			sign = -1
		}
		for _, p := range t.Players {
			robot, ok := r.host.Node(p.NodeName)
			if !ok || p.Held {
				continue
			}
			ps, ok := r.st.PlayerState(t, p.Number)
			if !ok {
				continue
			}

			if ps.Penalty != 0 && p.Penalized == "" {
				telemetry.Infof("%s player %d penalized by GameController (penalty %d).", t.Color.Title(), p.Number, ps.Penalty)
				p.Penalized = match.PenalizedByGameController
				pose := p.Pose(match.PoseReentry)
				pose.Translation.X = penaltyAreaX
				pose.Translation.Y = float64(10+p.Number) * sign
				r.resetPlayer(t, p, pose, "penalty area")
				telemetry.Metrics.Penalizations.Inc()
				r.publish(events.EventPenalized, events.Penalization{
					Color:   string(t.Color),
					Number:  p.Number,
					Reason:  p.Penalized,
					Penalty: int(ps.Penalty),
				})
			}

			if p.EnableActuatorsAt == nil || r.st.TimeMs < *p.EnableActuatorsAt {
				continue
			}
			if p.Penalized != "" && ps.Penalty != 0 {
				continue
			}
			telemetry.Infof("Enabling actuators of %s player %d.", t.Color, p.Number)
			robot.SetCustomData("")
			p.EnableActuatorsAt = nil
			if p.Penalized == "" {
				continue
			}
			p.Penalized = ""
			pose := p.Pose(match.PoseReentry)
			robot.SetTranslation(pose.Translation)
			robot.SetRotation(pose.Rotation)
			robot.ResetPhysics()
			p.Position = pose.Translation
			telemetry.Infof("%s player %d back at reentry pose.", t.Color.Title(), p.Number)
			r.publish(events.EventUnpenalized, events.Penalization{Color: string(t.Color), Number: p.Number})
		}
	}
}
