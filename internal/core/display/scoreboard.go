// Package display composes the overlay score board from match state and
// keeps the simulation labels in sync with it.
package display

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
	"github.com/charleschow/humanoid-referee/internal/world"
)

const (
	RedColor   uint32 = 0xd62929
	BlueColor  uint32 = 0x2943d6
	WhiteColor uint32 = 0xffffff
	BlackColor uint32 = 0x000000

	warningColor    uint32 = 0x0000ff
	yellowCardColor uint32 = 0xffff00
	redCardColor    uint32 = 0xff0000

	FontSize     = 0.096
	Transparency = 0.2
	Font         = "Lucida Console"

	// vertical position of the second line
	detailsY = 0.0465
)

// Label ids.
const (
	LabelLeftBackground = iota + 2
	LabelRightBackground
	LabelNames
	LabelScore
	LabelTime
	LabelState
)

const (
	LabelDetailsLeft = iota + 10
	LabelDetailsRight
	LabelDetailsWhite
	LabelWarnings
	LabelYellowCards
	LabelRedCards
	LabelPenaltyTimes
	LabelSecondary
)

const block = "█"

func TeamColor(c match.Color) uint32 {
	if c == match.Red {
		return RedColor
	}
	return BlueColor
}

func label(id int, text string, y float64, color uint32) world.Label {
	return world.Label{ID: id, Text: text, Y: y, Size: FontSize, Color: color, Transparency: Transparency, Font: Font}
}

// repeat is strings.Repeat that yields "" for non-positive counts.
func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}

// FormatTime renders seconds as mm:ss.
func FormatTime(s int) string {
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// Scoreboard is the first overlay line: team colors, names, score, clock
// and primary state. The team playing on the left is shown first.
func Scoreboard(st *match.State) []world.Label {
	left, right := st.LeftTeam(), st.RightTeam()
	gs := st.Current

	names := repeat(block, 7) + repeat(" ", 13-utf8.RuneCountInString(left.Name)) + left.Name +
		" █████ " + right.Name + repeat(" ", 13-utf8.RuneCountInString(right.Name)) + repeat(block, 22)

	leftScore, rightScore := "0", "0"
	if gs != nil {
		leftScore, rightScore = teamScore(st, left), teamScore(st, right)
	}
	offset := 22
	if len(leftScore) == 2 {
		offset = 21
	}

	clock := " --:--"
	if gs != nil {
		s, sign := int(gs.SecondsRemaining), " "
		if s < 0 {
			s, sign = -s, "-"
		}
		clock = sign + FormatTime(s)
	}

	state, stateColor := "", BlackColor
	if gs != nil {
		state = gs.State.String()
		if gs.State == gamestate.StateReady || gs.State == gamestate.StateSet {
			if t, ok := st.TeamByID(st.Kickoff); ok {
				stateColor = TeamColor(t.Color)
			}
		}
	}

	return []world.Label{
		label(LabelLeftBackground, repeat(" ", 7)+repeat(block, 14), 0, TeamColor(left.Color)),
		label(LabelRightBackground, repeat(" ", 26)+repeat(block, 14), 0, TeamColor(right.Color)),
		label(LabelNames, names, 0, WhiteColor),
		label(LabelScore, repeat(" ", offset)+leftScore+"-"+rightScore, 0, BlackColor),
		label(LabelTime, clock, 0, BlackColor),
		label(LabelState, repeat(" ", 41)+state, 0, stateColor),
	}
}

func teamScore(st *match.State, t *match.Team) string {
	ts, ok := st.TeamState(t)
	if !ok {
		return "0"
	}
	return strconv.Itoa(int(ts.Score))
}

type detailLines struct {
	background strings.Builder
	warning    strings.Builder
	yellow     strings.Builder
	red        strings.Builder
	white      strings.Builder
	foreground strings.Builder
}

// pad appends n spaces to the card and penalty lines.
func (d *detailLines) pad(n int) {
	for _, b := range []*strings.Builder{&d.warning, &d.yellow, &d.red, &d.foreground} {
		b.WriteString(repeat(" ", n))
	}
}

func (d *detailLines) team(st *match.State, t *match.Team) {
	for _, p := range t.Players {
		var ps gamestate.PlayerState
		if s, ok := st.PlayerState(t, p.Number); ok {
			ps = *s
		}
		d.background.WriteString(block + "  ")
		// a robot can have both a warning and a yellow card
		if ps.Warnings > 0 {
			d.warning.WriteString("■  ")
			d.yellow.WriteString(mark(ps.YellowCards > 0, " ■ "))
		} else {
			d.warning.WriteString("   ")
			d.yellow.WriteString(mark(ps.YellowCards > 0, "■  "))
		}
		d.red.WriteString(mark(ps.RedCards > 0, "■  "))
		d.white.WriteString(strconv.Itoa(p.Number) + block + block)
		if ps.SecsTillUnpenalized != 0 {
			fmt.Fprintf(&d.foreground, "%02d ", ps.SecsTillUnpenalized)
		} else {
			d.foreground.WriteString("   ")
		}
	}
}

func mark(on bool, s string) string {
	if on {
		return s
	}
	return "   "
}

// Details is the second overlay line: per-player penalty countdowns and
// cards, the secondary state and its phase. Nil before the first
// GameController snapshot.
func Details(st *match.State) []world.Label {
	gs := st.Current
	if gs == nil {
		return nil
	}
	left, right := st.LeftTeam(), st.RightTeam()

	var d detailLines
	if gs.SecondarySecondsRemaining > 0 {
		d.foreground.WriteString(" " + FormatTime(int(gs.SecondarySecondsRemaining)) + "  ")
	} else {
		d.foreground.WriteString(repeat(" ", 8))
	}
	d.background.WriteString(repeat(" ", 7))
	for _, b := range []*strings.Builder{&d.warning, &d.yellow, &d.red} {
		b.WriteString(repeat(" ", 7))
	}
	d.white.WriteString(repeat(block, 7))

	d.team(st, left)
	leftBackground := d.background.String()

	d.background.Reset()
	d.background.WriteString(repeat(" ", 28))
	space := 21 - 3*len(left.Players)
	d.white.WriteString(repeat(block, space))
	d.pad(space)

	d.team(st, right)
	rightBackground := d.background.String()
	d.white.WriteString(repeat(block, 22+12-3*len(right.Players)))

	secondary := repeat(" ", 41) + gs.Secondary.String()
	if gs.Secondary != gamestate.SecondaryNormal || gs.Phase() != 0 {
		secondary += " [" + strconv.Itoa(gs.Phase()) + "]"
	}
	secondaryColor := BlackColor
	if gs.Secondary.IsInterruption() {
		if t, ok := st.TeamByID(gs.SecondaryTeam()); ok {
			secondaryColor = TeamColor(t.Color)
		}
	}

	return []world.Label{
		label(LabelDetailsLeft, leftBackground, detailsY, TeamColor(left.Color)),
		label(LabelDetailsRight, rightBackground, detailsY, TeamColor(right.Color)),
		label(LabelDetailsWhite, d.white.String(), detailsY, WhiteColor),
		label(LabelWarnings, d.warning.String(), 2*detailsY, warningColor),
		label(LabelYellowCards, d.yellow.String(), 2*detailsY, yellowCardColor),
		label(LabelRedCards, d.red.String(), 2*detailsY, redCardColor),
		label(LabelPenaltyTimes, d.foreground.String(), detailsY, BlackColor),
		label(LabelSecondary, secondary, detailsY, secondaryColor),
	}
}
