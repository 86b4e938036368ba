package match

import (
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
	"github.com/charleschow/humanoid-referee/internal/world"
)

type Color string

const (
	Red  Color = "red"
	Blue Color = "blue"
)

func (c Color) Opponent() Color {
	if c == Red {
		return Blue
	}
	return Red
}

// Title is the display form of the color ("Red", "Blue").
func (c Color) Title() string { return cases.Title(language.English).String(string(c)) }

// Touch identifies the robot that last touched the ball.
type Touch struct {
	Color  Color
	Number int
}

// State is the single owner of mutable match state. Only the referee loop
// mutates it; the controller link updates latches from the same goroutine.
type State struct {
	MatchID string
	Type    config.GameType
	Field   config.Field

	Red  *Team
	Blue *Team

	// Current is nil until the first GameController packet arrives.
	Current *gamestate.GameState

	// SideLeft is the id of the team defending the left half.
	SideLeft int
	Kickoff  int

	// LastTouch and PreviousTouch are nil when nobody touched the ball.
	LastTouch     *Touch
	PreviousTouch *Touch

	// Latches set by outgoing commands, cleared by matching snapshots.
	WaitForState    *gamestate.PrimaryState
	WaitForSecState *gamestate.SecondaryState
	WaitForSecPhase *int

	KickSpot world.Vec3

	// Kick-off eligibility, reset by kick-offs and shoot-out trials and
	// carried on the kickoff event. Goals are decided from the last toucher.
	CanScore            bool
	CanScoreOwn         bool
	BallLeftCircle      bool
	KickingPlayerNumber *int

	ShootoutCount int
	Over          bool

	// TimeMs is the simulated time.
	TimeMs int
}

// New builds the match state from a validated config. Poses are stored for
// the side each team currently plays on: the team starting on the right gets
// mirrored poses.
func New(cfg *config.MatchConfig) *State {
	s := &State{
		MatchID:  uuid.NewString(),
		Type:     cfg.Type,
		Field:    cfg.Field,
		Red:      newTeam(Red, cfg.Red),
		Blue:     newTeam(Blue, cfg.Blue),
		SideLeft: cfg.SideLeftID(),
		Kickoff:  cfg.KickoffID(),
	}
	s.RightTeam().flip()
	return s
}

func (s *State) Team(c Color) *Team {
	if c == Red {
		return s.Red
	}
	return s.Blue
}

func (s *State) Teams() [2]*Team { return [2]*Team{s.Red, s.Blue} }

func (s *State) TeamByID(id int) (*Team, bool) {
	switch id {
	case s.Red.ID:
		return s.Red, true
	case s.Blue.ID:
		return s.Blue, true
	}
	return nil, false
}

func (s *State) Opponent(t *Team) *Team { return s.Team(t.Color.Opponent()) }

func (s *State) LeftTeam() *Team {
	if s.SideLeft == s.Red.ID {
		return s.Red
	}
	return s.Blue
}

func (s *State) RightTeam() *Team { return s.Opponent(s.LeftTeam()) }

// DefenderOf returns the team defending the left half when left is true,
// otherwise the team defending the right half.
func (s *State) DefenderOf(left bool) *Team {
	if left {
		return s.LeftTeam()
	}
	return s.RightTeam()
}

// FlipSides swaps the halves and mirrors every pose.
func (s *State) FlipSides() {
	s.SideLeft = s.RightTeam().ID
	s.Red.flip()
	s.Blue.flip()
}

// Waiting reports whether any latch is pending.
func (s *State) Waiting() bool {
	return s.WaitForState != nil || s.WaitForSecState != nil || s.WaitForSecPhase != nil
}

func (s *State) ClearLatches() {
	s.WaitForState = nil
	s.WaitForSecState = nil
	s.WaitForSecPhase = nil
}

// SetBallTouched records t as the last toucher; the former last toucher
// becomes the previous one.
func (s *State) SetBallTouched(t Touch) {
	s.PreviousTouch = s.LastTouch
	s.LastTouch = &t
}

func (s *State) ResetBallTouched() {
	s.LastTouch = nil
	s.PreviousTouch = nil
}

// TeamState returns the GameController entry for t from the current snapshot.
func (s *State) TeamState(t *Team) (*gamestate.TeamState, bool) {
	if s.Current == nil {
		return nil, false
	}
	return s.Current.Team(t.ID)
}

// PlayerState returns the GameController entry for player number of team t.
func (s *State) PlayerState(t *Team, number int) (*gamestate.PlayerState, bool) {
	ts, ok := s.TeamState(t)
	if !ok || number < 1 || number > len(ts.Players) {
		return nil, false
	}
	return &ts.Players[number-1], true
}

// Secondary is the current secondary state, NORMAL before the first packet.
func (s *State) Secondary() gamestate.SecondaryState {
	if s.Current == nil {
		return gamestate.SecondaryNormal
	}
	return s.Current.Secondary
}
