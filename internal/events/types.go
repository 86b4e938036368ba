package events

// StateChange is published when the GameController reports a new primary state.
type StateChange struct {
	Previous         string `json:"previous,omitempty"` // empty on the first snapshot
	Current          string `json:"current"`
	FirstHalf        bool   `json:"first_half"`
	SecondsRemaining int    `json:"seconds_remaining"`
	// Expected is the state the referee was waiting for, if any.
	Expected string `json:"expected,omitempty"`
}

// SecondaryChange is published when the secondary state or its phase changes.
type SecondaryChange struct {
	Previous      string `json:"previous,omitempty"`
	PreviousPhase int    `json:"previous_phase"`
	Current       string `json:"current"`
	Phase         int    `json:"phase"`
	Team          int    `json:"team"`
}

type ScoreChange struct {
	RedScore      int `json:"red_score"`
	BlueScore     int `json:"blue_score"`
	PrevRedScore  int `json:"prev_red_score"`
	PrevBlueScore int `json:"prev_blue_score"`
}

type ClockChange struct {
	SecondsRemaining          int `json:"seconds_remaining"`
	SecondarySecondsRemaining int `json:"secondary_seconds_remaining"`
}

type Kickoff struct {
	Team           int    `json:"team"`
	Color          string `json:"color"`
	CanScore       bool   `json:"can_score"`
	CanScoreOwn    bool   `json:"can_score_own"`
	BallLeftCircle bool   `json:"ball_left_circle"`
	KickingPlayer  *int   `json:"kicking_player,omitempty"`
}

// Goal is published after the SCORE command was acknowledged.
type Goal struct {
	Team        int        `json:"team"`
	Color       string     `json:"color"`
	ScorerColor string     `json:"scorer_color,omitempty"`
	Scorer      int        `json:"scorer,omitempty"`
	Exit        [3]float64 `json:"exit"`
}

type ThrowIn struct {
	Spot                [3]float64 `json:"spot"`
	CenterLine          bool       `json:"center_line"`
	LeftSide            bool       `json:"left_side"`
	DefenderTouchedLast bool       `json:"defender_touched_last"`
	Exit                [3]float64 `json:"exit"`
}

type Penalization struct {
	Color   string `json:"color"`
	Number  int    `json:"number"`
	Reason  string `json:"reason,omitempty"`
	Penalty int    `json:"penalty"`
}

type BallTouch struct {
	Color  string `json:"color"`
	Number int    `json:"number"`
}

type SidesFlipped struct {
	SideLeft      int    `json:"side_left"`
	SideLeftColor string `json:"side_left_color"`
}

// Command records one acknowledged controller command (keep-alives excluded).
type Command struct {
	ID      int    `json:"id"`
	Command string `json:"command"`
	Result  string `json:"result"`
}

type MatchOver struct {
	RedScore  int    `json:"red_score"`
	BlueScore int    `json:"blue_score"`
	Reason    string `json:"reason"`
}

// PlayerSnapshot is the 1 Hz history record of one player.
type PlayerSnapshot struct {
	Color              string     `json:"color"`
	Number             int        `json:"number"`
	Position           [3]float64 `json:"position"`
	Asleep             bool       `json:"asleep"`
	Fallen             bool       `json:"fallen"`
	Penalized          string     `json:"penalized,omitempty"`
	InsideField        bool       `json:"inside_field"`
	OutsideField       bool       `json:"outside_field"`
	OnOuterLine        bool       `json:"on_outer_line"`
	OutsideCircle      bool       `json:"outside_circle"`
	InsideOwnSide      bool       `json:"inside_own_side"`
	OutsideGoalArea    bool       `json:"outside_goal_area"`
	OutsidePenaltyArea bool       `json:"outside_penalty_area"`
}

// Label is one overlay text line.
type Label struct {
	ID    int     `json:"id"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color uint32  `json:"color"`
}

type Labels struct {
	Labels []Label `json:"labels"`
}

type LogLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
