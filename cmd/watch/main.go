// watch follows a referee's live board over the fanout WebSocket and prints
// match events as they happen.
//
// Usage:
//
//	go run ./cmd/watch -addr localhost:9100 [-match <id>] [-labels]
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/charleschow/humanoid-referee/internal/core/display"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/fanout"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
)

func main() {
	addr := flag.String("addr", "localhost:9100", "referee fanout address")
	matchID := flag.String("match", "", "follow one match id (default: all)")
	labels := flag.Bool("labels", false, "also print score board label updates")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	bus.Subscribe(printEvent, events.Persisted...)
	bus.Subscribe(printLog, events.EventLog)
	if *labels {
		bus.Subscribe(printLabels, events.EventLabels)
	}

	telemetry.Infof("Watching %s", *addr)
	fanout.NewClient(*addr, *matchID, bus).ConnectWithRetry(ctx)
}

func stamp(e events.Event) string {
	return display.FormatTime(e.TimeMs / 1000)
}

func printEvent(e events.Event) error {
	switch p := e.Payload.(type) {
	case events.StateChange:
		fmt.Printf("[%s] state %s -> %s (%ds left)\n", stamp(e), orNone(p.Previous), p.Current, p.SecondsRemaining)
	case events.SecondaryChange:
		fmt.Printf("[%s] secondary %s:%d -> %s:%d team %d\n", stamp(e), orNone(p.Previous), p.PreviousPhase, p.Current, p.Phase, p.Team)
	case events.ScoreChange:
		fmt.Printf("[%s] score red %d - %d blue\n", stamp(e), p.RedScore, p.BlueScore)
	case events.Goal:
		fmt.Printf("[%s] GOAL %s (team %d) scorer %s %d\n", stamp(e), p.Color, p.Team, p.ScorerColor, p.Scorer)
	case events.ThrowIn:
		fmt.Printf("[%s] throw-in at (%.2f, %.2f)\n", stamp(e), p.Spot[0], p.Spot[1])
	case events.Penalization:
		fmt.Printf("[%s] %s %s %d penalty %d\n", stamp(e), e.Type, p.Color, p.Number, p.Penalty)
	case events.Command:
		fmt.Printf("[%s] sent %d:%s %s\n", stamp(e), p.ID, p.Command, p.Result)
	case events.MatchOver:
		fmt.Printf("[%s] MATCH OVER red %d - %d blue (%s)\n", stamp(e), p.RedScore, p.BlueScore, p.Reason)
	default:
		fmt.Printf("[%s] %s %+v\n", stamp(e), e.Type, e.Payload)
	}
	return nil
}

func printLog(e events.Event) error {
	if l, ok := e.Payload.(events.LogLine); ok {
		fmt.Printf("  referee %s: %s\n", l.Level, l.Message)
	}
	return nil
}

func printLabels(e events.Event) error {
	if p, ok := e.Payload.(events.Labels); ok {
		for _, l := range p.Labels {
			fmt.Printf("  label %2d %q\n", l.ID, l.Text)
		}
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
