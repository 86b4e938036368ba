// Ping the GameController and the referee's live board to measure latency.
//
// Measures TCP connect time and command acknowledgment round-trips against
// the GameController, the interval between its UDP snapshots, and optionally
// WebSocket ping/pong latency of a running referee's fanout server.
//
// Usage:
//
//	go run ./ping_services                   # default: 20 samples each
//	go run ./ping_services -n 50             # 50 samples per measurement
//	go run ./ping_services --ws              # also ping the fanout WebSocket
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
)

const (
	dialTimeout = 5 * time.Second
	ackTimeout  = 5 * time.Second
	udpTimeout  = 5 * time.Second
)

func main() {
	n := flag.Int("n", 20, "Number of samples per measurement")
	ws := flag.Bool("ws", false, "Also measure fanout WebSocket ping/pong latency")
	skipUDP := flag.Bool("no-udp", false, "Skip the snapshot interval measurement (port busy with a referee)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	mc, err := config.LoadMatch(cfg.GameConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "match config: %v\n", err)
		os.Exit(1)
	}

	pingGameController(mc.ControllerAddr(), *n)
	if !*skipUDP {
		measureSnapshots(mc.UDPAddr(), *n)
	}
	if *ws {
		pingFanout(fmt.Sprintf("ws://localhost:%d/ws", cfg.FanoutPort), *n)
	}
	fmt.Println()
}

func header(title string) {
	fmt.Printf("\n%s\n", strings.Repeat("=", 55))
	fmt.Printf("  %s\n", title)
	fmt.Printf("%s\n", strings.Repeat("=", 55))
}

func pingGameController(addr string, n int) {
	header("GAMECONTROLLER (TCP) " + addr)

	fmt.Println("\n  Connect:")
	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		fmt.Printf("    FAILED: %v\n", err)
		return
	}
	defer conn.Close()
	fmt.Printf("    %.1f ms\n", ms(time.Since(start)))

	fmt.Printf("\n  Command round-trip (%d CLOCK commands):\n", n)
	r := bufio.NewReader(conn)
	latencies := make([]float64, 0, n)
	pad := len(fmt.Sprintf("%d", n))
	for i := 1; i <= n; i++ {
		start := time.Now()
		if _, err := fmt.Fprintf(conn, "%d:CLOCK:0\n", i); err != nil {
			fmt.Printf("  [%*d/%d]  FAILED: %v\n", pad, i, n, err)
			break
		}
		conn.SetReadDeadline(time.Now().Add(ackTimeout))
		line, err := r.ReadString('\n')
		if err != nil {
			fmt.Printf("  [%*d/%d]  FAILED: %v\n", pad, i, n, err)
			break
		}
		elapsed := ms(time.Since(start))
		latencies = append(latencies, elapsed)
		fmt.Printf("  [%*d/%d]  %7.2f ms  (%s)\n", pad, i, n, elapsed, strings.TrimSpace(line))
	}
	printStats(latencies, "GameController ack")
}

func measureSnapshots(addr string, n int) {
	header("GAMECONTROLLER (UDP) " + addr)

	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		fmt.Printf("\n  [!] Cannot listen: %v\n", err)
		return
	}
	defer pc.Close()

	fmt.Printf("\n  Snapshot interval (%d packets):\n", n)
	buf := make([]byte, 4096)
	var last time.Time
	intervals := make([]float64, 0, n)
	pad := len(fmt.Sprintf("%d", n))
	for i := 0; i <= n; i++ {
		pc.SetReadDeadline(time.Now().Add(udpTimeout))
		size, _, err := pc.ReadFrom(buf)
		if err != nil {
			fmt.Printf("  [!] No snapshot: %v\n", err)
			break
		}
		now := time.Now()
		gs, err := gamestate.Decode(buf[:size])
		if err != nil {
			fmt.Printf("  [!] Bad packet: %v\n", err)
			continue
		}
		if !last.IsZero() {
			interval := ms(now.Sub(last))
			intervals = append(intervals, interval)
			fmt.Printf("  [%*d/%d]  %7.1f ms  (#%d %s %ds)\n", pad, i, n, interval, gs.PacketNumber, gs.State, gs.SecondsRemaining)
		}
		last = now
	}
	printStats(intervals, "Snapshot interval")
}

func pingFanout(wsURL string, n int) {
	header("FANOUT " + wsURL)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		fmt.Printf("\n  [!] WebSocket dial failed: %v\n", err)
		return
	}
	defer conn.Close()

	pongCh := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pongCh <- struct{}{}:
		default:
		}
		return nil
	})

	// control frames are only handled while reading
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	fmt.Printf("\n  WebSocket ping/pong latency (%d pings):\n", n)
	latencies := make([]float64, 0, n)
pings:
	for i := 0; i < n; i++ {
		start := time.Now()
		if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(5*time.Second)); err != nil {
			fmt.Printf("  [!] WS ping failed: %v\n", err)
			break
		}
		select {
		case <-pongCh:
			latencies = append(latencies, ms(time.Since(start)))
		case <-time.After(5 * time.Second):
			fmt.Printf("  [!] WS pong timeout\n")
			break pings
		}
	}
	printStats(latencies, "Fanout WebSocket")
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

func printStats(latencies []float64, label string) {
	if len(latencies) < 2 {
		fmt.Printf("\n  Not enough %s samples for statistics.\n", label)
		return
	}
	sorted := make([]float64, len(latencies))
	copy(sorted, latencies)
	sort.Float64s(sorted)

	mean := 0.0
	for _, v := range latencies {
		mean += v
	}
	mean /= float64(len(latencies))

	variance := 0.0
	for _, v := range latencies {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(latencies) - 1)

	p95Idx := min(int(float64(len(sorted))*0.95), len(sorted)-1)
	p99Idx := min(int(float64(len(sorted))*0.99), len(sorted)-1)

	fmt.Printf("\n  --- %s Stats (%d samples) ---\n", label, len(latencies))
	fmt.Printf("  Min:    %7.2f ms\n", sorted[0])
	fmt.Printf("  Max:    %7.2f ms\n", sorted[len(sorted)-1])
	fmt.Printf("  Mean:   %7.2f ms\n", mean)
	fmt.Printf("  Median: %7.2f ms\n", sorted[len(sorted)/2])
	fmt.Printf("  Stdev:  %7.2f ms\n", math.Sqrt(variance))
	fmt.Printf("  p95:    %7.2f ms\n", sorted[p95Idx])
	fmt.Printf("  p99:    %7.2f ms\n", sorted[p99Idx])
}
