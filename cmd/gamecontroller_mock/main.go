// gamecontroller_mock is a local GameController for running the referee
// without the real one. It acknowledges every numbered command on TCP and
// broadcasts GameState snapshots over UDP twice a second.
//
// The match runs on a fixed script: INITIAL, READY, SET, PLAYING for each
// half, then FINISHED. SCORE commands add a goal and send the match back to
// READY with the conceding team kicking off; STATE commands are applied as
// they arrive.
//
// Usage:
//
//	go run ./cmd/gamecontroller_mock -config game.yaml -half 120
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
)

const (
	broadcastInterval = 500 * time.Millisecond
	shootoutSeconds   = 60
)

// seconds spent in each pre-play state
var stateDurations = map[gamestate.PrimaryState]int{
	gamestate.StateInitial: 3,
	gamestate.StateReady:   5,
	gamestate.StateSet:     2,
}

type mock struct {
	mu       sync.Mutex
	gs       gamestate.GameState
	half     int
	inState  int // seconds spent in the current pre-play state
	redID    int
	blueID   int
	finished bool
}

func main() {
	cfgPath := flag.String("config", "game.yaml", "match document")
	port := flag.Int("port", config.DefaultControllerPort, "TCP port for referee commands")
	udpTarget := flag.String("udp", fmt.Sprintf("127.0.0.1:%d", config.DefaultUDPPort), "snapshot destination")
	half := flag.Int("half", 600, "seconds per half")
	flag.Parse()

	mc, err := config.LoadMatch(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *cfgPath, err)
		os.Exit(1)
	}

	m := newMock(mc, *half)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	udp, err := net.Dial("udp", *udpTarget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "udp %s: %v\n", *udpTarget, err)
		os.Exit(1)
	}
	defer udp.Close()

	fmt.Println("=== GameController Mock ===")
	fmt.Printf("  %s (%d) vs %s (%d), %ds halves\n", mc.Red.Name, mc.Red.ID, mc.Blue.Name, mc.Blue.ID, *half)
	fmt.Printf("  commands on :%d, snapshots to %s\n\n", *port, *udpTarget)

	go m.broadcast(ctx, udp)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println("\nDone!")
				return
			}
			fmt.Fprintf(os.Stderr, "accept: %v\n", err)
			continue
		}
		fmt.Printf("── Referee connected from %s ──\n", conn.RemoteAddr())
		go m.serve(conn)
	}
}

func newMock(mc *config.MatchConfig, half int) *mock {
	m := &mock{
		half:   half,
		redID:  mc.Red.ID,
		blueID: mc.Blue.ID,
	}
	m.gs = gamestate.GameState{
		PlayersPerTeam:   uint8(max(len(mc.Red.Players), len(mc.Blue.Players))),
		State:            gamestate.StateInitial,
		FirstHalf:        true,
		KickoffTeam:      uint8(mc.KickoffID()),
		SecondsRemaining: int16(half),
	}
	m.gs.Teams[0] = gamestate.TeamState{TeamNumber: uint8(mc.Red.ID), Color: gamestate.ColorRed}
	m.gs.Teams[1] = gamestate.TeamState{TeamNumber: uint8(mc.Blue.ID), Color: gamestate.ColorBlue}
	if mc.Type == config.GamePenalty {
		m.gs.Secondary = gamestate.SecondaryPenaltyShoot
	}
	return m
}

// serve answers "<id>:<command>" lines with "<id>:OK", or INVALID for
// commands it cannot parse.
func (m *mock) serve(conn net.Conn) {
	defer conn.Close()
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		idText, command, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if !ok {
			continue
		}
		result := "OK"
		if !m.apply(command) {
			result = "INVALID"
		}
		if !strings.HasPrefix(command, "CLOCK:") {
			fmt.Printf("  %s:%s -> %s\n", idText, command, result)
		}
		if _, err := fmt.Fprintf(conn, "%s:%s\n", idText, result); err != nil {
			return
		}
	}
	fmt.Println("── Referee disconnected ──")
}

func (m *mock) apply(command string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	name, arg, _ := strings.Cut(command, ":")
	switch name {
	case "CLOCK", "SIDE_LEFT":
		return true
	case "KICKOFF":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return false
		}
		m.gs.KickoffTeam = uint8(id)
	case "SCORE":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return false
		}
		ts, ok := m.gs.Team(id)
		if !ok {
			return false
		}
		ts.Score++
		if !m.shootout() {
			m.gs.KickoffTeam = uint8(m.opponent(id))
			m.enter(gamestate.StateReady)
		}
	case "STATE":
		switch arg {
		case "FINISH":
			m.enter(gamestate.StateFinished)
		case "SET":
			m.enter(gamestate.StateSet)
		case "READY":
			m.enter(gamestate.StateReady)
		case "PLAY":
			m.enter(gamestate.StatePlaying)
		case "PENALTY-SHOOTOUT":
			m.gs.Secondary = gamestate.SecondaryPenaltyShoot
			m.finished = false
			m.enter(gamestate.StateInitial)
		default:
			return false
		}
	default:
		// interruption procedures
		if _, ok := gamestate.InterruptionFromCommand(name); !ok {
			return false
		}
	}
	return true
}

func (m *mock) opponent(id int) int {
	if id == m.redID {
		return m.blueID
	}
	return m.redID
}

// enter must be called with m.mu held.
func (m *mock) enter(s gamestate.PrimaryState) {
	m.gs.State = s
	m.inState = 0
	if s == gamestate.StateSet && m.shootout() {
		m.gs.SecondsRemaining = shootoutSeconds
	}
}

func (m *mock) shootout() bool { return m.gs.Secondary == gamestate.SecondaryPenaltyShoot }

// tick advances the script by one second. Must be called with m.mu held.
func (m *mock) tick() {
	switch m.gs.State {
	case gamestate.StatePlaying:
		m.gs.SecondsRemaining--
		for i := range m.gs.Teams {
			for j := range m.gs.Teams[i].Players {
				if p := &m.gs.Teams[i].Players[j]; p.SecsTillUnpenalized > 0 {
					p.SecsTillUnpenalized--
					if p.SecsTillUnpenalized == 0 {
						p.Penalty = 0
					}
				}
			}
		}
	case gamestate.StateFinished:
		if m.gs.FirstHalf && !m.shootout() {
			m.gs.FirstHalf = false
			m.gs.SecondsRemaining = int16(m.half)
			m.gs.KickoffTeam = uint8(m.opponent(int(m.gs.KickoffTeam)))
			m.enter(gamestate.StateInitial)
		} else if !m.finished {
			m.finished = true
			fmt.Printf("── Full time %d-%d ──\n", m.gs.Teams[0].Score, m.gs.Teams[1].Score)
		}
	default:
		m.inState++
		if m.inState < stateDurations[m.gs.State] {
			break
		}
		next := m.gs.State + 1
		if next == gamestate.StateReady && m.shootout() {
			next = gamestate.StateSet
		}
		m.enter(next)
	}
}

func (m *mock) broadcast(ctx context.Context, udp net.Conn) {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()
	beats := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		beats++
		if beats%int(time.Second/broadcastInterval) == 0 {
			m.tick()
		}
		m.gs.PacketNumber++
		pkt, err := gamestate.Encode(&m.gs)
		m.mu.Unlock()

		if err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			continue
		}
		if _, err := udp.Write(pkt); err != nil {
			fmt.Fprintf(os.Stderr, "udp write: %v\n", err)
		}
	}
}
