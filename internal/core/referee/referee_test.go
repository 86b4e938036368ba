package referee

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/core/observer"
	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
	"github.com/charleschow/humanoid-referee/internal/world"
	"github.com/charleschow/humanoid-referee/internal/world/worldfakes"
)

// fakeGC answers every command and hands out queued snapshots one per Receive.
type fakeGC struct {
	st     *match.State
	queue  []*gamestate.GameState
	sent   []string
	clocks int
	failOn string
	err    error
}

func (f *fakeGC) Send(_ context.Context, cmd string) error {
	if strings.HasPrefix(cmd, "CLOCK:") {
		f.clocks++
	} else {
		f.sent = append(f.sent, cmd)
	}
	if f.failOn != "" && strings.HasPrefix(cmd, f.failOn) {
		return f.err
	}
	return nil
}

func (f *fakeGC) Receive() *gamestate.GameState {
	if len(f.queue) == 0 {
		return nil
	}
	gs := f.queue[0]
	f.queue = f.queue[1:]
	f.st.Current = gs
	return gs
}

func (f *fakeGC) push(gs ...*gamestate.GameState) { f.queue = append(f.queue, gs...) }

// snapshot is a GameController packet for red team 5 and blue team 9.
func snapshot(state gamestate.PrimaryState) *gamestate.GameState {
	gs := &gamestate.GameState{State: state, FirstHalf: true, KickoffTeam: 5, SecondsRemaining: 600}
	gs.Teams[0].TeamNumber = 5
	gs.Teams[0].Color = gamestate.ColorRed
	gs.Teams[1].TeamNumber = 9
	gs.Teams[1].Color = gamestate.ColorBlue
	return gs
}

func setup(t *testing.T, opts Options) (*Referee, *fakeGC, *worldfakes.Host, *match.State) {
	t.Helper()
	cfg, err := config.LoadMatch("../../config/testdata/game.yaml")
	if err != nil {
		t.Fatalf("LoadMatch: %v", err)
	}
	st := match.New(cfg)
	host := worldfakes.NewHost()
	gc := &fakeGC{st: st}
	r := New(st, host, gc, events.NewBus(), opts)
	if err := r.SpawnTeams(); err != nil {
		t.Fatalf("SpawnTeams: %v", err)
	}
	return r, gc, host, st
}

func tick(t *testing.T, r *Referee) {
	t.Helper()
	r.st.TimeMs += r.host.BasicTimeStep()
	if err := r.Step(context.Background()); err != nil {
		t.Fatalf("Step at %d ms: %v", r.st.TimeMs, err)
	}
}

func node(t *testing.T, host *worldfakes.Host, name string) *worldfakes.Node {
	t.Helper()
	n, ok := host.Nodes[name]
	if !ok {
		t.Fatalf("node %s not spawned", name)
	}
	return n
}

// startPlay walks the match to PLAYING with the ball on the kick-off spot.
func startPlay(t *testing.T, r *Referee, gc *fakeGC) {
	t.Helper()
	gc.push(snapshot(gamestate.StateSet))
	tick(t, r)
	gc.push(snapshot(gamestate.StatePlaying))
	tick(t, r)
}

func TestSpawnTeams(t *testing.T) {
	_, _, host, st := setup(t, Options{})
	if len(host.Spawned) != 5 {
		t.Fatalf("spawned %d nodes, want 4 robots and the ball", len(host.Spawned))
	}
	for _, team := range st.Teams() {
		for _, p := range team.Players {
			n := node(t, host, p.NodeName)
			if n.Pos != p.Pose(match.PoseBorder).Translation || p.Position != n.Pos {
				t.Fatalf("%s at %+v, position %+v", p.NodeName, n.Pos, p.Position)
			}
		}
	}
	if ball := node(t, host, observer.BallNode); ball.Pos.X != ballAwayX {
		t.Fatalf("ball spawned at %+v", ball.Pos)
	}
}

func TestSpawnDuplicateFails(t *testing.T) {
	r, _, _, _ := setup(t, Options{})
	if err := r.SpawnTeams(); err == nil {
		t.Fatal("second spawn succeeded")
	}
}

func TestStartHandshake(t *testing.T) {
	r, gc, _, st := setup(t, Options{})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if want := []string{"SIDE_LEFT:9", "KICKOFF:5"}; !slices.Equal(gc.sent, want) {
		t.Fatalf("sent %v, want %v", gc.sent, want)
	}
	if st.WaitForState == nil || *st.WaitForState != gamestate.StateInitial {
		t.Fatalf("WaitForState = %v", st.WaitForState)
	}
}

func TestEntryActionsRunOncePerVisit(t *testing.T) {
	r, gc, host, st := setup(t, Options{})

	gc.push(snapshot(gamestate.StateInitial))
	tick(t, r)
	for _, team := range st.Teams() {
		for _, p := range team.Players {
			n := node(t, host, p.NodeName)
			if n.Moves != 1 || n.Pos != p.Pose(match.PoseBorder).Translation {
				t.Fatalf("%s moves=%d pos=%+v after INITIAL", p.NodeName, n.Moves, n.Pos)
			}
			if n.Data != match.LockedCustomData {
				t.Fatalf("%s not locked after reset", p.NodeName)
			}
		}
	}
	if st.SideLeft != 9 {
		t.Fatalf("first half INITIAL flipped sides")
	}

	gc.push(snapshot(gamestate.StateReady), snapshot(gamestate.StateSet), snapshot(gamestate.StatePlaying))
	for i := 0; i < 6; i++ {
		tick(t, r)
	}

	for _, team := range st.Teams() {
		for _, p := range team.Players {
			n := node(t, host, p.NodeName)
			wantMoves, wantPose := 2, p.Pose(match.PoseReady)
			if !p.NeedsPlacement {
				wantMoves, wantPose = 1, p.Pose(match.PoseBorder)
			}
			if n.Moves != wantMoves || n.Pos != wantPose.Translation {
				t.Fatalf("%s moves=%d pos=%+v, want %d at %+v", p.NodeName, n.Moves, n.Pos, wantMoves, wantPose.Translation)
			}
		}
	}
	ball := node(t, host, observer.BallNode)
	if ball.Pos != (world.Vec3{Z: st.Field.BallRadius}) {
		t.Fatalf("ball at %+v, want kick-off spot", ball.Pos)
	}
}

func TestSecondHalfInitialFlipsSides(t *testing.T) {
	r, gc, host, st := setup(t, Options{})
	gs := snapshot(gamestate.StateInitial)
	gs.FirstHalf = false
	gc.push(gs)
	tick(t, r)

	if st.SideLeft != 5 {
		t.Fatalf("SideLeft = %d, want red on the left", st.SideLeft)
	}
	// red border poses are configured for the left half
	if n := node(t, host, "RED_PLAYER_1"); n.Pos.X != -1 {
		t.Fatalf("red player 1 at %+v", n.Pos)
	}
}

func TestKickoffFollowsGameController(t *testing.T) {
	r, gc, _, st := setup(t, Options{})
	var kickoffs []events.Kickoff
	r.bus.Subscribe(func(e events.Event) error {
		kickoffs = append(kickoffs, e.Payload.(events.Kickoff))
		return nil
	}, events.EventKickoff)

	st.CanScore, st.BallLeftCircle = true, true
	gs := snapshot(gamestate.StateReady)
	gs.KickoffTeam = 9
	gc.push(gs)
	tick(t, r)
	if st.Kickoff != 9 {
		t.Fatalf("Kickoff = %d", st.Kickoff)
	}
	if st.CanScore || st.CanScoreOwn || st.BallLeftCircle || st.KickingPlayerNumber != nil {
		t.Fatal("eligibility flags not reset by the kick-off")
	}
	if len(kickoffs) != 1 || kickoffs[0].Team != 9 || kickoffs[0].CanScore || kickoffs[0].BallLeftCircle {
		t.Fatalf("kickoff events = %+v", kickoffs)
	}
}

func TestBallOutAdjudication(t *testing.T) {
	blue1 := &match.Touch{Color: match.Blue, Number: 1}
	red1 := &match.Touch{Color: match.Red, Number: 1}
	// blue defends the left half, red the right one
	tests := []struct {
		name      string
		exit      world.Vec3
		touch     *match.Touch
		wantScore bool
		wantSpot  world.Vec3
	}{
		{"attacker scores", world.Vec3{X: 3.1, Y: 0.2, Z: 0.04}, blue1, true, world.Vec3{}},
		{"defender touch restarts on centre line", world.Vec3{X: 3.1, Y: 0.2, Z: 0.04}, red1, false, world.Vec3{}},
		{"untouched ball is no goal", world.Vec3{X: 3.1, Z: 0.04}, nil, false, world.Vec3{X: 2}},
		{"over the crossbar", world.Vec3{X: 3.1, Z: 0.6}, blue1, false, world.Vec3{X: 2}},
		{"wide of the post", world.Vec3{X: 3.1, Y: 0.8, Z: 0.04}, blue1, false, world.Vec3{X: 2}},
		{"touch line in left half", world.Vec3{X: -1, Y: 2.1, Z: 0.04}, red1, false, world.Vec3{X: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, gc, host, st := setup(t, Options{})
			var goals []events.Goal
			r.bus.Subscribe(func(e events.Event) error {
				goals = append(goals, e.Payload.(events.Goal))
				return nil
			}, events.EventGoal)
			startPlay(t, r, gc)
			gc.sent = nil

			ball := node(t, host, observer.BallNode)
			ball.Pos = tt.exit
			st.LastTouch = tt.touch
			tick(t, r)

			scored := slices.Contains(gc.sent, "SCORE:9")
			if scored != tt.wantScore {
				t.Fatalf("sent %v, want score %v", gc.sent, tt.wantScore)
			}
			if tt.wantScore {
				if ball.Pos.X != ballAwayX || len(goals) != 1 || goals[0].Scorer != 1 {
					t.Fatalf("ball %+v goals %+v", ball.Pos, goals)
				}
				return
			}
			want := tt.wantSpot
			want.Z = st.Field.BallRadius
			if ball.Pos != want {
				t.Fatalf("ball at %+v, want %+v", ball.Pos, want)
			}
			if st.LastTouch != nil {
				t.Fatal("touch kept after throw-in")
			}
		})
	}
}

func TestThrowInAvoidsRobots(t *testing.T) {
	tests := []struct {
		name    string
		blocked []world.Vec3
		wantY   float64
	}{
		{"free", nil, 0},
		{"centre blocked", []world.Vec3{{X: 2, Y: 0.1}}, restartMarkerWidth},
		{"two blocked", []world.Vec3{{X: 2, Y: 0.1}, {X: 2, Y: 0.7}}, -restartMarkerWidth},
		{"all blocked", []world.Vec3{{X: 2}, {X: 2, Y: 0.6}, {X: 2, Y: -0.6}}, -restartMarkerWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, gc, host, st := setup(t, Options{})
			startPlay(t, r, gc)

			players := append(slices.Clone(st.Red.Players), st.Blue.Players...)
			for i, pos := range tt.blocked {
				players[i].Position = pos
			}
			ball := node(t, host, observer.BallNode)
			ball.Pos = world.Vec3{X: 3.1, Y: 1.5, Z: 0.04}
			tick(t, r)

			if ball.Pos.X != 2 || ball.Pos.Y != tt.wantY {
				t.Fatalf("ball at %+v, want y %v", ball.Pos, tt.wantY)
			}
		})
	}
}

func TestParkedBallIsNotAdjudicated(t *testing.T) {
	r, gc, host, _ := setup(t, Options{})
	gc.push(snapshot(gamestate.StatePlaying))
	tick(t, r)
	tick(t, r)
	if ball := node(t, host, observer.BallNode); ball.Pos.X != ballAwayX {
		t.Fatalf("parked ball moved to %+v", ball.Pos)
	}
}

func TestGameControllerPenaltyUnlocksAfterMinimumDuration(t *testing.T) {
	r, gc, host, st := setup(t, Options{})
	gc.push(snapshot(gamestate.StateReady))
	tick(t, r)

	penalized := snapshot(gamestate.StateReady)
	penalized.Teams[0].Players[0].Penalty = 1
	gc.push(penalized)
	tick(t, r)

	p := st.Red.Players[0]
	n := node(t, host, p.NodeName)
	if p.Penalized != match.PenalizedByGameController || n.Data != match.LockedCustomData {
		t.Fatalf("penalized=%q data=%q", p.Penalized, n.Data)
	}
	if n.Pos.X != penaltyAreaX || n.Pos.Y != 11 {
		t.Fatalf("penalized robot at %+v", n.Pos)
	}

	gc.push(snapshot(gamestate.StateReady))
	for i := 1; i < 50; i++ {
		tick(t, r)
		if n.Data != match.LockedCustomData {
			t.Fatalf("unlocked after %d steps", i)
		}
	}
	tick(t, r)
	if n.Data != "" || p.EnableActuatorsAt != nil || p.Penalized != "" {
		t.Fatalf("still locked after 50 steps: data=%q penalized=%q", n.Data, p.Penalized)
	}
	if n.Pos != p.Pose(match.PoseReentry).Translation {
		t.Fatalf("unpenalized robot at %+v", n.Pos)
	}
}

func TestActivePenaltyKeepsLock(t *testing.T) {
	r, gc, host, st := setup(t, Options{})
	penalized := snapshot(gamestate.StateReady)
	penalized.Teams[1].Players[1].Penalty = 2
	gc.push(penalized)
	for i := 0; i < 100; i++ {
		tick(t, r)
	}
	n := node(t, host, "BLUE_PLAYER_2")
	if n.Data != match.LockedCustomData || st.Blue.Players[1].Penalized == "" {
		t.Fatal("lock released while the penalty is active")
	}
	if n.Pos.Y != -12 {
		t.Fatalf("blue robot waits at %+v", n.Pos)
	}
}

func TestPenaltyShootoutPositions(t *testing.T) {
	r, gc, host, st := setup(t, Options{})
	gs := snapshot(gamestate.StateSet)
	gs.Secondary = gamestate.SecondaryPenaltyShoot
	gs.Teams[0].Players[0].Goalkeeper = true
	gc.push(gs)
	tick(t, r)

	red1, red2 := st.Red.Players[0], st.Red.Players[1]
	blue1, blue2 := st.Blue.Players[0], st.Blue.Players[1]
	if n := node(t, host, red2.NodeName); n.Pos != red2.Pose(match.PoseShootout).Translation {
		t.Fatalf("kicker at %+v", n.Pos)
	}
	if n := node(t, host, blue1.NodeName); n.Pos != blue1.Pose(match.PoseGoalkeeper).Translation {
		t.Fatalf("goalkeeper at %+v", n.Pos)
	}
	for _, p := range []*match.Player{red1, blue2} {
		n := node(t, host, p.NodeName)
		if n.Pos != p.Pose(match.PoseBorder).Translation || p.EnableActuatorsAt != nil {
			t.Fatalf("%s at %+v, unlock at %v", p.NodeName, n.Pos, p.EnableActuatorsAt)
		}
	}
	if !st.CanScore || st.CanScoreOwn || !st.BallLeftCircle {
		t.Fatalf("can_score=%v can_score_own=%v left_circle=%v", st.CanScore, st.CanScoreOwn, st.BallLeftCircle)
	}
	// red kicks towards the left goal defended by blue
	if ball := node(t, host, observer.BallNode); ball.Pos.X != -st.Field.PenaltyMarkX || ball.Pos.Y != 0 {
		t.Fatalf("ball at %+v", ball.Pos)
	}

	for i := 0; i < 100; i++ {
		tick(t, r)
	}
	if n := node(t, host, red1.NodeName); n.Data != match.LockedCustomData {
		t.Fatal("bystander unlocked during the trial")
	}
	if n := node(t, host, red2.NodeName); n.Data != "" {
		t.Fatal("kicker still locked")
	}
}

func TestShootoutBystanderStaysHeldWhenPenalized(t *testing.T) {
	r, gc, host, st := setup(t, Options{})
	gs := snapshot(gamestate.StateSet)
	gs.Secondary = gamestate.SecondaryPenaltyShoot
	gs.Teams[0].Players[0].Goalkeeper = true
	gc.push(gs)
	tick(t, r)

	red1 := st.Red.Players[0]
	if !red1.Held {
		t.Fatal("bystander not held")
	}
	penalized := snapshot(gamestate.StateSet)
	penalized.Secondary = gamestate.SecondaryPenaltyShoot
	penalized.Teams[0].Players[0].Goalkeeper = true
	penalized.Teams[0].Players[0].Penalty = 14
	gc.push(penalized, gs)
	for i := 0; i < 60; i++ {
		tick(t, r)
	}

	n := node(t, host, red1.NodeName)
	if n.Data != match.LockedCustomData || red1.EnableActuatorsAt != nil {
		t.Fatalf("bystander released: data=%q unlock at %v", n.Data, red1.EnableActuatorsAt)
	}
	if n.Pos != red1.Pose(match.PoseBorder).Translation {
		t.Fatalf("bystander moved to %+v", n.Pos)
	}

	// the next trial resets everyone, which ends the hold of the new kicker
	next := snapshot(gamestate.StateSet)
	next.Secondary = gamestate.SecondaryPenaltyShoot
	next.KickoffTeam = 9
	gc.push(snapshot(gamestate.StateFinished), next)
	tick(t, r)
	tick(t, r)
	if red1.Held {
		t.Fatal("red goalkeeper still held as bystander")
	}
}

func TestFinishedShootoutTrialRequestsNextSet(t *testing.T) {
	r, gc, _, st := setup(t, Options{})
	gs := snapshot(gamestate.StateFinished)
	gs.Secondary = gamestate.SecondaryPenaltyShoot
	gc.push(gs)
	tick(t, r)
	tick(t, r)
	if !slices.Equal(gc.sent, []string{"STATE:SET"}) || st.ShootoutCount != 1 {
		t.Fatalf("sent %v, count %d", gc.sent, st.ShootoutCount)
	}
	if st.Over {
		t.Fatal("shoot-out trial ended the match")
	}
}

func TestFinishedDecidesMatchOver(t *testing.T) {
	tests := []struct {
		name      string
		gameType  config.GameType
		firstHalf bool
		secondary gamestate.SecondaryState
		red, blue uint8
		wantOver  bool
		wantSent  []string
	}{
		{"first half", config.GameNormal, true, gamestate.SecondaryNormal, 1, 0, false, nil},
		{"normal second half", config.GameNormal, false, gamestate.SecondaryNormal, 1, 1, true, nil},
		{"knockout tie goes to extra time", config.GameKnockout, false, gamestate.SecondaryNormal, 2, 2, false, nil},
		{"knockout winner", config.GameKnockout, false, gamestate.SecondaryNormal, 2, 1, true, nil},
		{"knockout tie after extra time", config.GameKnockout, false, gamestate.SecondaryOvertime, 0, 0, false, []string{"STATE:PENALTY-SHOOTOUT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, gc, _, st := setup(t, Options{})
			st.Type = tt.gameType
			gs := snapshot(gamestate.StateFinished)
			gs.FirstHalf = tt.firstHalf
			gs.Secondary = tt.secondary
			gs.Teams[0].Score = tt.red
			gs.Teams[1].Score = tt.blue
			gc.push(gs)
			tick(t, r)
			if st.Over != tt.wantOver || !slices.Equal(gc.sent, tt.wantSent) {
				t.Fatalf("over=%v sent=%v", st.Over, gc.sent)
			}
		})
	}
}

func TestRunStopsWhenMatchIsOver(t *testing.T) {
	r, gc, host, st := setup(t, Options{})
	var over []events.MatchOver
	r.bus.Subscribe(func(e events.Event) error {
		over = append(over, e.Payload.(events.MatchOver))
		return nil
	}, events.EventMatchOver)
	gs := snapshot(gamestate.StateFinished)
	gs.FirstHalf = false
	gs.Teams[1].Score = 3
	gc.push(snapshot(gamestate.StatePlaying), gs)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !st.Over || host.Elapsed != 40 || len(over) != 1 || over[0].BlueScore != 3 {
		t.Fatalf("over=%v elapsed=%d events=%+v", st.Over, host.Elapsed, over)
	}
}

func TestRunStopsWithSimulation(t *testing.T) {
	r, _, host, st := setup(t, Options{})
	host.StepsLeft = 3
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.TimeMs != 60 {
		t.Fatalf("TimeMs = %d", st.TimeMs)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	r, _, _, _ := setup(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
}

func TestStepPropagatesSendErrors(t *testing.T) {
	r, gc, _, _ := setup(t, Options{})
	boom := errors.New("connection closed")
	gc.failOn, gc.err = "CLOCK", boom
	if err := r.Step(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Step = %v", err)
	}
}

func TestFinishRequestedOncePerVisit(t *testing.T) {
	r, gc, _, _ := setup(t, Options{})
	gs := snapshot(gamestate.StatePlaying)
	gs.SecondsRemaining = 0
	gc.push(gs)
	for i := 0; i < 5; i++ {
		tick(t, r)
	}
	if !slices.Equal(gc.sent, []string{"STATE:FINISH"}) {
		t.Fatalf("sent %v", gc.sent)
	}

	gc.push(snapshot(gamestate.StateSet), gs)
	tick(t, r)
	tick(t, r)
	if len(gc.sent) != 2 {
		t.Fatalf("second visit sent %v", gc.sent)
	}
}

func TestInterruptionProcedure(t *testing.T) {
	interruption := func(phase uint8, remaining int16) *gamestate.GameState {
		gs := snapshot(gamestate.StatePlaying)
		gs.Secondary = gamestate.SecondaryCornerKick
		gs.SecondaryInfo[0] = 5
		gs.SecondaryInfo[1] = phase
		gs.SecondarySecondsRemaining = remaining
		return gs
	}

	r, gc, _, _ := setup(t, Options{InterruptionProcedure: true})
	gc.push(interruption(gamestate.PhasePrepare, 3))
	tick(t, r)
	if len(gc.sent) != 0 {
		t.Fatalf("acted before the timer ran out: %v", gc.sent)
	}

	gc.push(interruption(gamestate.PhasePrepare, 0))
	tick(t, r)
	tick(t, r)
	gc.push(interruption(gamestate.PhaseExecute, 0))
	tick(t, r)
	tick(t, r)
	want := []string{"CORNERKICK:5:PREPARE", "CORNERKICK:5:EXECUTE"}
	if !slices.Equal(gc.sent, want) {
		t.Fatalf("sent %v, want %v", gc.sent, want)
	}
}

func TestInterruptionProcedureDisabled(t *testing.T) {
	r, gc, _, _ := setup(t, Options{})
	gs := snapshot(gamestate.StatePlaying)
	gs.Secondary = gamestate.SecondaryGoalKick
	gs.SecondaryInfo = [4]uint8{9, gamestate.PhasePrepare}
	gc.push(gs)
	tick(t, r)
	if len(gc.sent) != 0 {
		t.Fatalf("sent %v", gc.sent)
	}
}

func TestHistoryIsSampledEverySecond(t *testing.T) {
	r, gc, _, st := setup(t, Options{})
	var snaps int
	r.bus.Subscribe(func(events.Event) error {
		snaps++
		return nil
	}, events.EventPlayerSnapshot)
	gc.push(snapshot(gamestate.StateInitial))
	for i := 0; i < 51; i++ {
		tick(t, r)
	}
	if n := len(st.Red.Players[0].History); n != 2 {
		t.Fatalf("history length %d, want 2", n)
	}
	if snaps != 8 {
		t.Fatalf("published %d snapshots, want 8", snaps)
	}
}

func TestStatusLines(t *testing.T) {
	r, _, _, st := setup(t, Options{})
	lines := r.statusLines(60*time.Second, 20*time.Second)
	want := []string{
		"Avg speed factor: 3.000 (over last 20.00 seconds)",
		"No messages received from GameController yet",
	}
	if !slices.Equal(lines, want) {
		t.Fatalf("lines = %q", lines)
	}

	gs := snapshot(gamestate.StatePlaying)
	gs.Secondary = gamestate.SecondaryThrowIn
	gs.SecondaryInfo[1] = gamestate.PhasePrepare
	st.Current = gs
	lines = r.statusLines(time.Second, time.Second)
	if lines[1] != "state: PLAYING, remaining time: 600" || lines[2] != "  sec_state: THROWIN phase: 1" {
		t.Fatalf("lines = %q", lines)
	}

	st.Type = config.GamePenalty
	st.ShootoutCount = 3
	lines = r.statusLines(time.Second, time.Second)
	if lines[len(lines)-1] != "penalty shoot-out 4/10" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestShootoutMessage(t *testing.T) {
	tests := map[int]string{
		0:  "penalty shoot-out 1/10",
		9:  "penalty shoot-out 10/10",
		10: "extended penalty shoot-out 1/10",
		13: "extended penalty shoot-out 4/10",
	}
	for count, want := range tests {
		if got := shootoutMessage(count); got != want {
			t.Errorf("shootoutMessage(%d) = %q, want %q", count, got, want)
		}
	}
}
