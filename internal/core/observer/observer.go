// Package observer derives match facts from simulated contacts: who touched
// the ball last and where each standing robot is relative to the field
// markings.
package observer

import (
	"math"

	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
	"github.com/charleschow/humanoid-referee/internal/world"
)

// BallNode is the name of the ball in the world.
const BallNode = "BALL"

// touchTolerance is the distance under which a robot contact point and the
// ball contact point are considered the same.
const touchTolerance = 0.001

// minGroundContacts is the number of contacts of a robot standing on its feet.
const minGroundContacts = 3

type Observer struct {
	host world.Host
	st   *match.State
	bus  *events.Bus

	// ballContact is the ball's first non-ground contact of this tick.
	ballContact *world.Vec3
}

func New(host world.Host, st *match.State, bus *events.Bus) *Observer {
	return &Observer{host: host, st: st, bus: bus}
}

// Update refreshes the ball contact and both teams.
func (o *Observer) Update() {
	o.UpdateBallContacts()
	o.UpdateTeamContacts(o.st.Red)
	o.UpdateTeamContacts(o.st.Blue)
}

func (o *Observer) UpdateBallContacts() {
	o.ballContact = nil
	ball, ok := o.host.Node(BallNode)
	if !ok {
		return
	}
	for _, c := range ball.ContactPoints() {
		if c.Point.Z <= o.st.Field.TurfDepth {
			continue
		}
		p := c.Point
		o.ballContact = &p
		return
	}
}

// BallContact is the ball contact kept by the last UpdateBallContacts.
func (o *Observer) BallContact() (world.Vec3, bool) {
	if o.ballContact == nil {
		return world.Vec3{}, false
	}
	return *o.ballContact, true
}

func (o *Observer) UpdateTeamContacts(team *match.Team) {
	for _, p := range team.Players {
		robot, ok := o.host.Node(p.NodeName)
		if !ok {
			continue
		}
		contacts := robot.ContactPoints()
		if len(contacts) == 0 {
			p.Asleep = true
			continue
		}
		p.Asleep = false
		p.Position = robot.CenterOfMass()

		if len(contacts) >= minGroundContacts {
			p.Fallen = false
			o.updateFlags(team, p, contacts)
		} else {
			p.Fallen = true
		}

		for _, c := range contacts {
			if c.Point.Z <= o.st.Field.TurfDepth {
				continue
			}
			if o.ballContact == nil || distance(c.Point, *o.ballContact) > touchTolerance {
				continue
			}
			last := o.st.LastTouch
			if last == nil || last.Color != team.Color || last.Number != p.Number {
				o.st.SetBallTouched(match.Touch{Color: team.Color, Number: p.Number})
				telemetry.Infof("Ball touched by %s player %d.", team.Color, p.Number)
				o.publish(events.EventBallTouched, events.BallTouch{Color: string(team.Color), Number: p.Number})
			}
			break
		}
	}
}

// updateFlags recomputes region flags from ground contact points. Without
// any ground contact the previous flags are kept.
func (o *Observer) updateFlags(team *match.Team, p *match.Player, contacts []world.ContactPoint) {
	f := o.st.Field
	flags := match.Flags{
		InsideField:        true,
		OutsideField:       true,
		OutsideCircle:      true,
		InsideOwnSide:      true,
		OutsideGoalArea:    true,
		OutsidePenaltyArea: true,
	}
	ownLeft := o.st.SideLeft == team.ID
	ground := 0
	for _, c := range contacts {
		x, y := c.Point.X, c.Point.Y
		if c.Point.Z > f.TurfDepth {
			continue
		}
		ground++
		if f.Inside(x, y) {
			flags.OutsideField = false
		} else {
			flags.InsideField = false
		}
		if f.OnOuterLine(x, y) {
			flags.OnOuterLine = true
		}
		if f.InsideCircle(x, y) {
			flags.OutsideCircle = false
		}
		if (ownLeft && x > 0) || (!ownLeft && x < 0) {
			flags.InsideOwnSide = false
		}
		if f.InsideGoalArea(x, y) {
			flags.OutsideGoalArea = false
		}
		if f.InsidePenaltyArea(x, y) {
			flags.OutsidePenaltyArea = false
		}
	}
	if ground > 0 {
		p.Flags = flags
	}
}

// RobotNear reports whether any player's last known centre lies within
// dist of position on the ground plane.
func (o *Observer) RobotNear(position world.Vec3, dist float64) bool {
	for _, t := range o.st.Teams() {
		for _, p := range t.Players {
			if world.Distance2D(position, p.Position) < dist {
				return true
			}
		}
	}
	return false
}

// BallPosition returns the ball translation, false when no ball exists.
func (o *Observer) BallPosition() (world.Vec3, bool) {
	ball, ok := o.host.Node(BallNode)
	if !ok {
		return world.Vec3{}, false
	}
	return ball.Translation(), true
}

func (o *Observer) publish(t events.EventType, payload any) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(events.New(t, o.st.MatchID, o.st.TimeMs, payload))
}

func distance(a, b world.Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
