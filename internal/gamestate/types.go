package gamestate

import "fmt"

// PrimaryState is the committed match phase reported by the GameController.
type PrimaryState uint8

const (
	StateInitial PrimaryState = iota
	StateReady
	StateSet
	StatePlaying
	StateFinished
)

var primaryNames = [...]string{"INITIAL", "READY", "SET", "PLAYING", "FINISHED"}

func (s PrimaryState) String() string {
	if int(s) < len(primaryNames) {
		return primaryNames[s]
	}
	return fmt.Sprintf("STATE(%d)", uint8(s))
}

func (s PrimaryState) valid() bool { return int(s) < len(primaryNames) }

// SecondaryState overlays the primary state with interruptions and
// special periods.
type SecondaryState uint8

const (
	SecondaryNormal           SecondaryState = 0
	SecondaryPenaltyShoot     SecondaryState = 1
	SecondaryOvertime         SecondaryState = 2
	SecondaryTimeout          SecondaryState = 3
	SecondaryDirectFreeKick   SecondaryState = 4
	SecondaryIndirectFreeKick SecondaryState = 5
	SecondaryPenaltyKick      SecondaryState = 6
	SecondaryCornerKick       SecondaryState = 7
	SecondaryGoalKick         SecondaryState = 8
	SecondaryThrowIn          SecondaryState = 9
	SecondaryDropBall         SecondaryState = 128
	SecondaryUnknown          SecondaryState = 255
)

var secondaryNames = map[SecondaryState]string{
	SecondaryNormal:           "NORMAL",
	SecondaryPenaltyShoot:     "PENALTYSHOOT",
	SecondaryOvertime:         "OVERTIME",
	SecondaryTimeout:          "TIMEOUT",
	SecondaryDirectFreeKick:   "DIRECT_FREEKICK",
	SecondaryIndirectFreeKick: "INDIRECT_FREEKICK",
	SecondaryPenaltyKick:      "PENALTYKICK",
	SecondaryCornerKick:       "CORNERKICK",
	SecondaryGoalKick:         "GOALKICK",
	SecondaryThrowIn:          "THROWIN",
	SecondaryDropBall:         "DROPBALL",
	SecondaryUnknown:          "UNKNOWN",
}

// interruption kinds requiring a free kick procedure
var interruptionDescriptions = map[SecondaryState]string{
	SecondaryDirectFreeKick:   "direct free kick",
	SecondaryIndirectFreeKick: "indirect free kick",
	SecondaryPenaltyKick:      "penalty kick",
	SecondaryCornerKick:       "corner kick",
	SecondaryGoalKick:         "goal kick",
	SecondaryThrowIn:          "throw in",
}

func (s SecondaryState) String() string {
	if name, ok := secondaryNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SECONDARY(%d)", uint8(s))
}

func (s SecondaryState) valid() bool {
	_, ok := secondaryNames[s]
	return ok
}

// IsInterruption reports whether s is one of the six free-kick style
// interruptions that run through phases 0..2.
func (s SecondaryState) IsInterruption() bool {
	_, ok := interruptionDescriptions[s]
	return ok
}

// Description is the human-readable name of an interruption kind.
func (s SecondaryState) Description() string {
	if d, ok := interruptionDescriptions[s]; ok {
		return d
	}
	return s.String()
}

// InterruptionFromCommand maps a command prefix such as "CORNERKICK" to its
// secondary state.
func InterruptionFromCommand(prefix string) (SecondaryState, bool) {
	for s := range interruptionDescriptions {
		if s.String() == prefix {
			return s, true
		}
	}
	return SecondaryUnknown, false
}

// Interruption phases carried in SecondaryInfo[1].
const (
	PhaseAwarded = 0
	PhasePrepare = 1
	PhaseExecute = 2
)

type TeamColor uint8

const (
	ColorBlue TeamColor = iota
	ColorRed
	ColorYellow
	ColorBlack
	ColorWhite
	ColorGreen
	ColorOrange
	ColorPurple
	ColorBrown
	ColorGray
)

var colorNames = [...]string{"BLUE", "RED", "YELLOW", "BLACK", "WHITE", "GREEN", "ORANGE", "PURPLE", "BROWN", "GRAY"}

func (c TeamColor) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("COLOR(%d)", uint8(c))
}

func (c TeamColor) valid() bool { return int(c) < len(colorNames) }

// PlayerState is the GameController's view of one roster slot.
type PlayerState struct {
	Penalty             uint8
	SecsTillUnpenalized uint8
	Warnings            uint8
	YellowCards         uint8
	RedCards            uint8
	Goalkeeper          bool
}

type TeamState struct {
	TeamNumber    uint8
	Color         TeamColor
	Score         uint8
	PenaltyShot   uint8
	SingleShots   uint16
	CoachSequence uint8
	CoachMessage  string
	Coach         PlayerState
	Players       [MaxPlayers]PlayerState
}

// GameState is one decoded snapshot of the GameController's broadcast.
type GameState struct {
	PacketNumber              uint8
	PlayersPerTeam            uint8
	GameType                  uint8
	State                     PrimaryState
	FirstHalf                 bool
	KickoffTeam               uint8
	Secondary                 SecondaryState
	SecondaryInfo             [4]uint8
	DropInTeam                uint8
	DropInTime                uint16
	SecondsRemaining          int16
	SecondarySecondsRemaining int16
	Teams                     [2]TeamState
}

// Phase is the interruption phase (0 awarded, 1 prepare, 2 execute).
func (g *GameState) Phase() int { return int(g.SecondaryInfo[1]) }

// SecondaryTeam is the team id the current interruption was awarded to.
func (g *GameState) SecondaryTeam() int { return int(g.SecondaryInfo[0]) }

// Team returns the team entry carrying the given team number.
func (g *GameState) Team(teamNumber int) (*TeamState, bool) {
	for i := range g.Teams {
		if int(g.Teams[i].TeamNumber) == teamNumber {
			return &g.Teams[i], true
		}
	}
	return nil, false
}
