package match

import (
	"math"
	"testing"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
	"github.com/charleschow/humanoid-referee/internal/world"
)

func loadState(t *testing.T) *State {
	t.Helper()
	cfg, err := config.LoadMatch("../../../config/testdata/game.yaml")
	if err != nil {
		t.Fatalf("LoadMatch: %v", err)
	}
	return New(cfg)
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewBuildsRosters(t *testing.T) {
	s := loadState(t)
	if s.MatchID == "" {
		t.Fatal("missing match id")
	}
	if len(s.Red.Players) != 2 || len(s.Blue.Players) != 2 {
		t.Fatalf("rosters: red=%d blue=%d", len(s.Red.Players), len(s.Blue.Players))
	}
	p, ok := s.Red.Player(2)
	if !ok || p.Number != 2 || p.NodeName != "RED_PLAYER_2" {
		t.Fatalf("red player 2 = %+v", p)
	}
	if p.NeedsPlacement {
		t.Fatal("red player 2 has needs_placement: false")
	}
	if _, ok := s.Blue.Player(3); ok {
		t.Fatal("blue player 3 should not exist")
	}
	if s.SideLeft != 9 || s.Kickoff != 5 {
		t.Fatalf("side_left=%d kickoff=%d", s.SideLeft, s.Kickoff)
	}
}

func TestRightTeamPosesMirrored(t *testing.T) {
	s := loadState(t)
	// blue defends the left half, red plays on the right
	red := s.Red.Players[0].Pose(PoseReady)
	if !near(red.Translation.X, 0.6) || !near(red.Rotation.Angle, math.Pi) {
		t.Fatalf("red ready pose = %+v", red)
	}
	blue := s.Blue.Players[0].Pose(PoseReady)
	if !near(blue.Translation.X, -0.6) || !near(blue.Rotation.Angle, 0) {
		t.Fatalf("blue ready pose = %+v", blue)
	}

	s.FlipSides()
	if s.SideLeft != s.Red.ID {
		t.Fatalf("SideLeft = %d after flip", s.SideLeft)
	}
	red = s.Red.Players[0].Pose(PoseReady)
	if !near(red.Translation.X, -0.6) || !near(red.Rotation.Angle, 0) {
		t.Fatalf("red ready pose after flip = %+v", red)
	}
	if s.DefenderOf(true) != s.Red || s.DefenderOf(false) != s.Blue {
		t.Fatal("DefenderOf does not follow SideLeft")
	}
}

func TestFlipKeepsRotationAxis(t *testing.T) {
	tests := []struct {
		name string
		rot  world.Rotation
		want float64
	}{
		{"negative vertical", world.Rotation{Z: -1, Angle: math.Pi / 2}, math.Pi / 2},
		{"tilted", world.Rotation{X: 0.1, Y: 0.2, Z: 0.97, Angle: 0.5}, math.Pi - 0.5},
		{"facing goal", world.Rotation{Z: 1}, math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Pose{Translation: world.Vec3{X: 1, Y: 2}, Rotation: tt.rot}
			f := p.Flip()
			if !near(f.Translation.X, -1) || f.Translation.Y != 2 {
				t.Fatalf("Flip translation = %+v", f.Translation)
			}
			if f.Rotation.X != tt.rot.X || f.Rotation.Y != tt.rot.Y || f.Rotation.Z != tt.rot.Z {
				t.Fatalf("Flip changed the axis: %+v", f.Rotation)
			}
			if !near(f.Rotation.Angle, tt.want) {
				t.Fatalf("Flip angle = %v, want %v", f.Rotation.Angle, tt.want)
			}
			if back := f.Flip(); !near(back.Rotation.Angle, tt.rot.Angle) || !near(back.Translation.X, 1) {
				t.Fatalf("double Flip = %+v", back)
			}
		})
	}
}

func TestBallTouchShifts(t *testing.T) {
	s := loadState(t)
	s.SetBallTouched(Touch{Color: Red, Number: 1})
	s.SetBallTouched(Touch{Color: Blue, Number: 2})
	if s.LastTouch == nil || *s.LastTouch != (Touch{Blue, 2}) {
		t.Fatalf("LastTouch = %+v", s.LastTouch)
	}
	if s.PreviousTouch == nil || *s.PreviousTouch != (Touch{Red, 1}) {
		t.Fatalf("PreviousTouch = %+v", s.PreviousTouch)
	}
	s.ResetBallTouched()
	if s.LastTouch != nil || s.PreviousTouch != nil {
		t.Fatal("touches not cleared")
	}
}

func TestLatches(t *testing.T) {
	s := loadState(t)
	if s.Waiting() {
		t.Fatal("fresh state is waiting")
	}
	st := gamestate.StateReady
	s.WaitForState = &st
	if !s.Waiting() {
		t.Fatal("expected waiting")
	}
	s.ClearLatches()
	if s.Waiting() {
		t.Fatal("latches not cleared")
	}
}

func TestPlayerStateLookup(t *testing.T) {
	s := loadState(t)
	if _, ok := s.PlayerState(s.Red, 1); ok {
		t.Fatal("player state before first packet")
	}
	s.Current = &gamestate.GameState{}
	s.Current.Teams[0].TeamNumber = 9
	s.Current.Teams[1].TeamNumber = 5
	s.Current.Teams[1].Players[1].Penalty = 4
	ps, ok := s.PlayerState(s.Red, 2)
	if !ok || ps.Penalty != 4 {
		t.Fatalf("red 2 = %+v, %v", ps, ok)
	}
	if _, ok := s.PlayerState(s.Red, 0); ok {
		t.Fatal("number 0 resolved")
	}
}

func TestHistoryBounded(t *testing.T) {
	p := &Player{Number: 1}
	for i := 0; i < MaxHistory+25; i++ {
		p.Record(i * 1000)
	}
	if len(p.History) != MaxHistory {
		t.Fatalf("len(History) = %d", len(p.History))
	}
	if first := p.History[0].TimeMs; first != 25*1000 {
		t.Fatalf("oldest snapshot at %d", first)
	}
	if last := p.History[MaxHistory-1].TimeMs; last != (MaxHistory+24)*1000 {
		t.Fatalf("newest snapshot at %d", last)
	}
}

func TestColorNames(t *testing.T) {
	if Red.Title() != "Red" || Blue.Title() != "Blue" {
		t.Fatalf("titles %q %q", Red.Title(), Blue.Title())
	}
	if Red.Opponent() != Blue || Blue.Opponent() != Red {
		t.Fatal("Opponent")
	}
}
