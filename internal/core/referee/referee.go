// Package referee runs the match: it reacts to GameController snapshots with
// edge-triggered entry actions, adjudicates goals and balls out of bounds,
// and keeps robot actuator locks in sync with GameController penalties.
package referee

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/core/observer"
	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
	"github.com/charleschow/humanoid-referee/internal/world"
)

const (
	// DisableActuatorsMinDuration is how long a repositioned robot stays locked.
	DisableActuatorsMinDuration = 1000 // ms
	DefaultStatusPeriod         = 20 * time.Second
	historyPeriodMs             = 1000

	// lateral offset of the alternative restart spots
	restartMarkerWidth = 0.65
	robotRadius        = 0.1
	ballAwayX          = 100
	ballAwayY          = 100
)

// Controller is the GameController side of the referee.
type Controller interface {
	Send(ctx context.Context, command string) error
	Receive() *gamestate.GameState
}

type Options struct {
	// InterruptionProcedure lets the referee advance free kick style
	// interruptions through their phases.
	InterruptionProcedure bool
	StatusPeriod          time.Duration
}

type interruptionStep struct {
	kind  gamestate.SecondaryState
	team  int
	phase int
}

// Referee owns the match loop. All methods run on the loop goroutine.
type Referee struct {
	st   *match.State
	host world.Host
	gc   Controller
	bus  *events.Bus
	obs  *observer.Observer
	opts Options

	// entered is the primary state whose entry action already ran.
	entered         *gamestate.PrimaryState
	finishRequested bool
	lastStep        interruptionStep
	ballParked      bool

	status        rate.Sometimes
	statusAt      time.Time
	statusTimeMs  int
	lastHistoryMs int
}

func New(st *match.State, host world.Host, gc Controller, bus *events.Bus, opts Options) *Referee {
	if opts.StatusPeriod <= 0 {
		opts.StatusPeriod = DefaultStatusPeriod
	}
	return &Referee{
		st:            st,
		host:          host,
		gc:            gc,
		bus:           bus,
		obs:           observer.New(host, st, bus),
		opts:          opts,
		status:        rate.Sometimes{Interval: opts.StatusPeriod},
		lastHistoryMs: -historyPeriodMs,
	}
}

// SpawnTeams imports every robot at its border pose and the ball away from
// the field.
func (r *Referee) SpawnTeams() error {
	for _, t := range r.st.Teams() {
		for _, p := range t.Players {
			pose := p.Pose(match.PoseBorder)
			_, err := r.host.Spawn(world.SpawnSpec{
				Name:        p.NodeName,
				Proto:       p.Proto,
				Translation: pose.Translation,
				Rotation:    pose.Rotation,
				Radius:      robotRadius,
				Height:      2 * pose.Translation.Z,
			})
			if err != nil {
				return fmt.Errorf("spawn %s: %w", p.NodeName, err)
			}
			p.Position = pose.Translation
			tr, rot := pose.Translation, pose.Rotation
			telemetry.Infof("Spawned %s %s at border pose: translation (%g %g %g), rotation (%g %g %g %g).",
				p.NodeName, p.Proto, tr.X, tr.Y, tr.Z, rot.X, rot.Y, rot.Z, rot.Angle)
		}
	}
	if _, ok := r.host.Node(observer.BallNode); !ok {
		_, err := r.host.Spawn(world.SpawnSpec{
			Name:        observer.BallNode,
			Proto:       world.BallProto,
			Translation: r.ballAway(),
			Radius:      r.st.Field.BallRadius,
			Height:      2 * r.st.Field.BallRadius,
		})
		if err != nil {
			return fmt.Errorf("spawn ball: %w", err)
		}
		r.ballParked = true
	}
	return nil
}

// Start performs the GameController handshake. The first command blocks
// until the GameController reports INITIAL.
func (r *Referee) Start(ctx context.Context) error {
	initial := gamestate.StateInitial
	r.st.WaitForState = &initial

	telemetry.Infof("Game type is %s.", r.st.Type)
	for _, t := range r.st.Teams() {
		side := "right"
		if t == r.st.LeftTeam() {
			side = "left"
		}
		telemetry.Infof("%s team is %q, playing on %s side.", t.Color.Title(), t.Name, side)
	}

	if err := r.gc.Send(ctx, "SIDE_LEFT:"+strconv.Itoa(r.st.SideLeft)); err != nil {
		return fmt.Errorf("set side left: %w", err)
	}
	if t, ok := r.st.TeamByID(r.st.Kickoff); ok && r.st.Type == config.GamePenalty {
		telemetry.Infof("%s team will start the penalty shoot-out.", t.Color.Title())
	}
	if err := r.gc.Send(ctx, "KICKOFF:"+strconv.Itoa(r.st.Kickoff)); err != nil {
		return fmt.Errorf("set kickoff: %w", err)
	}
	return nil
}

// Run steps the simulation until the match is over, the host stops or a
// fatal error occurs.
func (r *Referee) Run(ctx context.Context) error {
	step := r.host.BasicTimeStep()
	for !r.st.Over {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.host.Step(step) {
			telemetry.Infof("Simulation stopped at %d ms.", r.st.TimeMs)
			return nil
		}
		r.st.TimeMs += step
		telemetry.Metrics.SimulatedMs.Set(int64(r.st.TimeMs))
		if err := r.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step runs one loop iteration at the current simulated time.
func (r *Referee) Step(ctx context.Context) error {
	if err := r.gc.Send(ctx, "CLOCK:"+strconv.Itoa(r.st.TimeMs)); err != nil {
		return err
	}
	r.gc.Receive()

	gs := r.st.Current
	if gs == nil {
		r.reportStatus()
		return nil
	}
	// the GameController decides who kicks off
	if _, ok := r.st.TeamByID(int(gs.KickoffTeam)); ok {
		r.st.Kickoff = int(gs.KickoffTeam)
	}

	r.syncPenalties()

	if r.entered == nil || *r.entered != gs.State {
		state := gs.State
		r.entered = &state
		if err := r.enter(ctx, gs); err != nil {
			return err
		}
	}

	if gs := r.st.Current; gs.State == gamestate.StatePlaying {
		if err := r.play(ctx, gs); err != nil {
			return err
		}
		if r.opts.InterruptionProcedure {
			if err := r.advanceInterruption(ctx); err != nil {
				return err
			}
		}
	}

	r.recordHistory()
	r.reportStatus()
	return nil
}

// OnSnapshot keeps penalties in sync for snapshots consumed outside Step.
func (r *Referee) OnSnapshot(*gamestate.GameState) {
	r.syncPenalties()
}

// resetPlayer teleports p to pose and locks its actuators for
// DisableActuatorsMinDuration.
func (r *Referee) resetPlayer(t *match.Team, p *match.Player, pose match.Pose, name string) {
	robot, ok := r.host.Node(p.NodeName)
	if !ok {
		return
	}
	robot.SetTranslation(pose.Translation)
	robot.SetRotation(pose.Rotation)
	robot.ResetPhysics()
	p.Position = pose.Translation

	tr, rot := pose.Translation, pose.Rotation
	telemetry.Infof("%s player %d reset to %s: translation (%g %g %g), rotation (%g %g %g %g).",
		t.Color.Title(), p.Number, name, tr.X, tr.Y, tr.Z, rot.X, rot.Y, rot.Z, rot.Angle)
	telemetry.Infof("Disabling actuators of %s player %d.", t.Color, p.Number)
	robot.SetCustomData(match.LockedCustomData)
	at := r.st.TimeMs + DisableActuatorsMinDuration
	p.EnableActuatorsAt = &at
	p.Held = false
}

// hold locks p where it stands until the next reset.
func (r *Referee) hold(p *match.Player) {
	p.EnableActuatorsAt = nil
	p.Held = true
}

func (r *Referee) resetTeams(kind match.PoseKind) {
	for _, t := range r.st.Teams() {
		for _, p := range t.Players {
			r.resetPlayer(t, p, p.Pose(kind), kind.String()+" pose")
		}
	}
}

func (r *Referee) ballAway() world.Vec3 {
	return world.Vec3{X: ballAwayX, Y: ballAwayY, Z: r.st.Field.BallRadius + 0.05}
}

// placeBall puts the ball on the turf at spot and forgets who touched it.
func (r *Referee) placeBall(spot world.Vec3) {
	ball, ok := r.host.Node(observer.BallNode)
	if !ok {
		return
	}
	spot.Z = r.st.Field.BallRadius
	ball.ResetPhysics()
	ball.SetTranslation(spot)
	r.ballParked = false
	r.st.ResetBallTouched()
	telemetry.Infof("Ball respawned at %g %g %g.", spot.X, spot.Y, spot.Z)
}

// moveBallAway parks the ball off the field while the referee holds it.
func (r *Referee) moveBallAway() {
	ball, ok := r.host.Node(observer.BallNode)
	if !ok {
		return
	}
	ball.ResetPhysics()
	ball.SetTranslation(r.ballAway())
	r.ballParked = true
	telemetry.Infof("Moved ball out of the field temporarily")
}

func (r *Referee) publish(t events.EventType, payload any) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.New(t, r.st.MatchID, r.st.TimeMs, payload))
}
