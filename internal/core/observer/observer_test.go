package observer

import (
	"testing"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/world"
	"github.com/charleschow/humanoid-referee/internal/world/worldfakes"
)

func setup(t *testing.T) (*Observer, *worldfakes.Host, *match.State, *events.Bus) {
	t.Helper()
	cfg, err := config.LoadMatch("../../config/testdata/game.yaml")
	if err != nil {
		t.Fatalf("LoadMatch: %v", err)
	}
	st := match.New(cfg)
	host := worldfakes.NewHost()
	bus := events.NewBus()
	return New(host, st, bus), host, st, bus
}

func TestBallContactKeepsFirstAboveTurf(t *testing.T) {
	o, host, _, _ := setup(t)
	ball := host.Add(BallNode, world.Vec3{X: 1, Z: 0.04})
	ball.Contacts = []world.ContactPoint{
		{Point: world.Vec3{X: 1, Y: 0, Z: 0}},
		{Point: world.Vec3{X: 1.03, Y: 0, Z: 0.05}, Node: "RED_PLAYER_1"},
		{Point: world.Vec3{X: 0.97, Y: 0, Z: 0.05}, Node: "BLUE_PLAYER_1"},
	}
	o.UpdateBallContacts()
	got, ok := o.BallContact()
	if !ok || got.X != 1.03 {
		t.Fatalf("BallContact = %+v, %v", got, ok)
	}

	ball.Contacts = ball.Contacts[:1]
	o.UpdateBallContacts()
	if _, ok := o.BallContact(); ok {
		t.Fatal("ground contact kept as ball contact")
	}
}

func TestLastToucherShifts(t *testing.T) {
	o, host, st, bus := setup(t)
	var touches []events.BallTouch
	bus.Subscribe(func(e events.Event) error {
		touches = append(touches, e.Payload.(events.BallTouch))
		return nil
	}, events.EventBallTouched)

	touch := world.Vec3{X: 1.03, Z: 0.05}
	ball := host.Add(BallNode, world.Vec3{X: 1, Z: 0.04})
	ball.Contacts = []world.ContactPoint{{Point: touch}}

	red := host.Add("RED_PLAYER_1", world.Vec3{X: 1.2, Z: 0.24})
	red.Standing(1.2, 0, 4)
	red.Contacts = append(red.Contacts, world.ContactPoint{Point: world.Vec3{X: 1.0305, Z: 0.05}})

	o.Update()
	o.Update() // same toucher again is not a new touch
	if st.LastTouch == nil || *st.LastTouch != (match.Touch{Color: match.Red, Number: 1}) {
		t.Fatalf("LastTouch = %+v", st.LastTouch)
	}

	red.Contacts = red.Contacts[:4]
	blue := host.Add("BLUE_PLAYER_2", world.Vec3{X: 0.8, Z: 0.24})
	blue.Standing(0.8, 0, 4)
	blue.Contacts = append(blue.Contacts, world.ContactPoint{Point: touch})
	o.Update()

	if *st.LastTouch != (match.Touch{Color: match.Blue, Number: 2}) {
		t.Fatalf("LastTouch = %+v", st.LastTouch)
	}
	if st.PreviousTouch == nil || *st.PreviousTouch != (match.Touch{Color: match.Red, Number: 1}) {
		t.Fatalf("PreviousTouch = %+v", st.PreviousTouch)
	}
	if len(touches) != 2 {
		t.Fatalf("touch events = %+v", touches)
	}
}

func TestAsleepAndFallen(t *testing.T) {
	o, host, st, _ := setup(t)
	host.Add("RED_PLAYER_1", world.Vec3{X: 1})
	fallen := host.Add("RED_PLAYER_2", world.Vec3{X: 2})
	fallen.Standing(2, 0, 2)

	p2 := st.Red.Players[1]
	p2.Flags.InsideField = true
	p2.Flags.OutsideCircle = true

	o.UpdateTeamContacts(st.Red)
	if !st.Red.Players[0].Asleep {
		t.Fatal("robot without contacts should be asleep")
	}
	if !p2.Fallen || p2.Asleep {
		t.Fatalf("player 2 fallen=%v asleep=%v", p2.Fallen, p2.Asleep)
	}
	if !p2.Flags.InsideField || !p2.Flags.OutsideCircle {
		t.Fatalf("fallen robot flags recomputed: %+v", p2.Flags)
	}
	if p2.Position.X != 2 {
		t.Fatalf("position = %+v", p2.Position)
	}
}

func TestRegionFlags(t *testing.T) {
	// junior field 3 x 2 half extents, blue defends the left half
	tests := []struct {
		name string
		x, y float64
		want match.Flags
	}{
		{"own goal area", 2.7, 0, match.Flags{
			InsideField: true, OutsideCircle: true, InsideOwnSide: true,
		}},
		{"centre circle", -0.1, 0.1, match.Flags{
			InsideField: true, OutsideGoalArea: true, OutsidePenaltyArea: true,
		}},
		{"on touch line", 1, 2.0, match.Flags{
			OnOuterLine: true, OutsideCircle: true, InsideOwnSide: true,
			OutsideGoalArea: true, OutsidePenaltyArea: true,
		}},
		{"beyond touch line", 1, 2.5, match.Flags{
			OutsideField: true, OutsideCircle: true, InsideOwnSide: true,
			OutsideGoalArea: true, OutsidePenaltyArea: true,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, host, st, _ := setup(t)
			n := host.Add("RED_PLAYER_1", world.Vec3{X: tt.x, Y: tt.y})
			n.Standing(tt.x, tt.y, 4)
			o.UpdateTeamContacts(st.Red)
			if got := st.Red.Players[0].Flags; got != tt.want {
				t.Fatalf("flags = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFlagsKeptWithoutGroundContact(t *testing.T) {
	o, host, st, _ := setup(t)
	n := host.Add("BLUE_PLAYER_1", world.Vec3{X: -1})
	for i := 0; i < 3; i++ {
		n.Contacts = append(n.Contacts, world.ContactPoint{Point: world.Vec3{X: -1, Z: 0.3}})
	}
	p := st.Blue.Players[0]
	p.Flags = match.Flags{InsideField: true}
	p.Fallen = true
	o.UpdateTeamContacts(st.Blue)
	if p.Fallen {
		t.Fatal("three contacts means standing")
	}
	if p.Flags != (match.Flags{InsideField: true}) {
		t.Fatalf("flags = %+v", p.Flags)
	}
}

func TestRobotNear(t *testing.T) {
	o, _, st, _ := setup(t)
	for _, team := range st.Teams() {
		for _, p := range team.Players {
			p.Position = world.Vec3{X: 100, Y: 100}
		}
	}
	st.Blue.Players[1].Position = world.Vec3{X: 2, Y: 0.2, Z: 0.3}
	if !o.RobotNear(world.Vec3{X: 2}, 0.3) {
		t.Fatal("robot 0.2 m away not near")
	}
	if o.RobotNear(world.Vec3{X: 2, Y: 0.65}, 0.3) {
		t.Fatal("robot 0.45 m away reported near")
	}
}

func TestBallPosition(t *testing.T) {
	o, host, _, _ := setup(t)
	if _, ok := o.BallPosition(); ok {
		t.Fatal("ball position without a ball")
	}
	host.Add(BallNode, world.Vec3{X: 1, Y: 2, Z: 0.04})
	if p, ok := o.BallPosition(); !ok || p.Y != 2 {
		t.Fatalf("BallPosition = %+v, %v", p, ok)
	}
}
