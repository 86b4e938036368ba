package match

import (
	"fmt"
	"math"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/world"
)

// MaxHistory bounds the per-player snapshot log (ten minutes at 1 Hz).
const MaxHistory = 600

// PenalizedByGameController is the reason recorded when the GC hands out a
// penalty the referee did not initiate.
const PenalizedByGameController = "penalized_by_gamecontroller"

// LockedCustomData is written to a robot's custom data while its actuators
// are disabled.
const LockedCustomData = "penalized"

type PoseKind int

const (
	PoseBorder PoseKind = iota
	PoseReady
	PoseReentry
	PoseShootout
	PoseGoalkeeper
	numPoseKinds
)

func (k PoseKind) String() string {
	switch k {
	case PoseBorder:
		return "border"
	case PoseReady:
		return "ready"
	case PoseReentry:
		return "reentry"
	case PoseShootout:
		return "shootout"
	case PoseGoalkeeper:
		return "goalkeeper"
	}
	return fmt.Sprintf("pose(%d)", int(k))
}

type Pose struct {
	Translation world.Vec3
	Rotation    world.Rotation
}

func poseFromConfig(p *config.Pose) Pose {
	t, r := p.Translation, p.Rotation
	return Pose{
		Translation: world.Vec3{X: t[0], Y: t[1], Z: t[2]},
		Rotation:    world.Rotation{X: r[0], Y: r[1], Z: r[2], Angle: r[3]},
	}
}

// Flip mirrors the pose to the other half: x is negated and the rotation
// angle becomes pi - angle around the same axis.
func (p Pose) Flip() Pose {
	rot := p.Rotation
	rot.Angle = normalizeAngle(math.Pi - rot.Angle)
	return Pose{
		Translation: world.Vec3{X: -p.Translation.X, Y: p.Translation.Y, Z: p.Translation.Z},
		Rotation:    rot,
	}
}

func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Flags are the region flags computed from a standing robot's ground contacts.
type Flags struct {
	InsideField        bool
	OutsideField       bool
	OnOuterLine        bool
	OutsideCircle      bool
	InsideOwnSide      bool
	OutsideGoalArea    bool
	OutsidePenaltyArea bool
}

// Snapshot is one entry of a player's history.
type Snapshot struct {
	TimeMs    int
	Position  world.Vec3
	Flags     Flags
	Asleep    bool
	Fallen    bool
	Penalized string
}

// Player is the referee's local view of one roster slot. The robot itself is
// looked up by NodeName.
type Player struct {
	Number         int
	NodeName       string
	Proto          string
	NeedsPlacement bool

	Poses [numPoseKinds]Pose

	Position world.Vec3
	Flags    Flags
	Asleep   bool
	Fallen   bool

	// EnableActuatorsAt is the simulated time (ms) after which a lock may be
	// released. Nil while unlocked or locked indefinitely.
	EnableActuatorsAt *int
	// Penalized is the reason of the current penalty, "" when none.
	Penalized string
	// Held pins a shoot-out bystander on the border until its next reset.
	Held bool

	History []Snapshot
}

func (p *Player) Pose(kind PoseKind) Pose { return p.Poses[kind] }

func (p *Player) flip() {
	for i := range p.Poses {
		p.Poses[i] = p.Poses[i].Flip()
	}
}

// Record appends a history snapshot, dropping the oldest beyond MaxHistory.
func (p *Player) Record(timeMs int) Snapshot {
	s := Snapshot{
		TimeMs:    timeMs,
		Position:  p.Position,
		Flags:     p.Flags,
		Asleep:    p.Asleep,
		Fallen:    p.Fallen,
		Penalized: p.Penalized,
	}
	if len(p.History) >= MaxHistory {
		p.History = append(p.History[:0], p.History[len(p.History)-MaxHistory+1:]...)
	}
	p.History = append(p.History, s)
	return s
}

type Team struct {
	Color   Color
	Name    string
	ID      int
	Players []*Player // indexed by number-1
}

func newTeam(color Color, tc config.TeamConfig) *Team {
	t := &Team{Color: color, Name: tc.Name, ID: tc.ID}
	for _, n := range tc.Numbers() {
		pc := tc.Players[n]
		p := &Player{
			Number:         n,
			NodeName:       NodeName(color, n),
			Proto:          pc.Proto,
			NeedsPlacement: pc.Placed(),
		}
		p.Poses[PoseBorder] = poseFromConfig(pc.BorderPose)
		p.Poses[PoseReady] = poseFromConfig(pc.ReadyPose)
		p.Poses[PoseReentry] = poseFromConfig(pc.ReentryPose)
		p.Poses[PoseShootout] = poseFromConfig(pc.ShootoutPose)
		p.Poses[PoseGoalkeeper] = poseFromConfig(pc.GoalkeeperPose)
		t.Players = append(t.Players, p)
	}
	return t
}

// NodeName is the name of the robot node spawned for a player.
func NodeName(color Color, number int) string {
	if color == Red {
		return fmt.Sprintf("RED_PLAYER_%d", number)
	}
	return fmt.Sprintf("BLUE_PLAYER_%d", number)
}

// Player returns the roster entry with the given 1-based number.
func (t *Team) Player(number int) (*Player, bool) {
	if number < 1 || number > len(t.Players) {
		return nil, false
	}
	return t.Players[number-1], true
}

func (t *Team) flip() {
	for _, p := range t.Players {
		p.flip()
	}
}
