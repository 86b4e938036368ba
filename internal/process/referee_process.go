// Package process wires the referee's shared infrastructure: match config,
// simulation host, controller link, display, history and live board.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/controller"
	"github.com/charleschow/humanoid-referee/internal/core/display"
	"github.com/charleschow/humanoid-referee/internal/core/referee"
	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/fanout"
	"github.com/charleschow/humanoid-referee/internal/history"
	"github.com/charleschow/humanoid-referee/internal/simworld"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
)

const (
	serviceName = "humanoid-referee"
	logBuffer   = 256
)

// Run referees one match until it is over, the simulation stops or ctx is
// cancelled. A cancelled ctx is not an error.
func Run(ctx context.Context, cfg *config.Config) error {
	mc, err := config.LoadMatch(cfg.GameConfigPath)
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		telemetry.Warnf("Tracing disabled: %v", err)
	}
	defer shutdownTracing(context.Background())

	st := match.New(mc)
	bus := events.NewBus()
	bus.OnError(func(e events.Event, err error) {
		telemetry.Warnf("%s handler: %v", e.Type, err)
	})
	telemetry.Infof("Match %s: %s vs %s (%s field)", st.MatchID, mc.Red.Name, mc.Blue.Name, mc.Class)

	// ── History ────────────────────────────────────────────────
	if cfg.HistoryEnabled {
		store, err := history.OpenStore(cfg.HistoryDBPath)
		if err != nil {
			return fmt.Errorf("history store: %w", err)
		}
		defer store.Close()
		if err := store.InsertMatch(history.Match{
			ID:        st.MatchID,
			GameType:  string(mc.Type),
			RedTeam:   mc.Red.Name,
			RedID:     mc.Red.ID,
			BlueTeam:  mc.Blue.Name,
			BlueID:    mc.Blue.ID,
			StartedAt: time.Now(),
		}); err != nil {
			return err
		}
		history.NewObserver(store).Subscribe(bus)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// ── Live board ─────────────────────────────────────────────
	if cfg.FanoutEnabled {
		srv := fanout.NewServer(bus)
		g.Go(func() error { return srv.ListenAndServe(ctx, cfg.FanoutPort) })

		// warnings can be logged while a bus handler holds a lock, so they
		// are published from a goroutine of their own
		logs := make(chan events.LogLine, logBuffer)
		telemetry.SetMirror(func(level slog.Level, msg string) {
			select {
			case logs <- events.LogLine{Level: level.String(), Message: msg}:
			default:
			}
		})
		defer telemetry.SetMirror(nil)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case l := <-logs:
					bus.Publish(events.New(events.EventLog, st.MatchID, 0, l))
				}
			}
		})
	}

	// ── Simulation host & score board ──────────────────────────
	host := simworld.New(simworld.Options{MinRealTimeFactor: mc.RealTimeFactor()})
	board := display.NewObserver(st, host, bus)
	board.Subscribe()
	board.Refresh()

	// ── GameController ─────────────────────────────────────────
	link, err := controller.Dial(ctx, controller.Endpoint{
		ControllerAddr: mc.ControllerAddr(),
		UDPAddr:        mc.UDPAddr(),
		Retries:        cfg.ConnectRetries,
		RetryDelay:     cfg.ConnectRetryDelay,
	}, st, bus, func() int { return st.TimeMs }, controller.Options{
		AckTimeout:   cfg.AckTimeout,
		LatchTimeout: cfg.LatchTimeout,
	})
	if err != nil {
		cancel()
		g.Wait()
		return err
	}
	defer link.Close()

	// ── Referee ────────────────────────────────────────────────
	ref := referee.New(st, host, link, bus, referee.Options{InterruptionProcedure: mc.InterruptionProcedure})
	link.SetSnapshotHook(ref.OnSnapshot)

	g.Go(func() error {
		defer cancel()
		if err := ref.SpawnTeams(); err != nil {
			return err
		}
		if err := ref.Start(ctx); err != nil {
			return err
		}
		return ref.Run(ctx)
	})

	err = g.Wait()
	summary(st)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func summary(st *match.State) {
	simulated := time.Duration(st.TimeMs) * time.Millisecond
	telemetry.Infof("Referee shutdown complete  simulated=%s  packets=%s  commands=%s  goals=%d  throw-ins=%d  penalties=%d",
		simulated.Round(time.Second),
		humanize.Comma(telemetry.Metrics.PacketsReceived.Value()),
		humanize.Comma(telemetry.Metrics.CommandsSent.Value()),
		telemetry.Metrics.Goals.Value(),
		telemetry.Metrics.ThrowIns.Value(),
		telemetry.Metrics.Penalizations.Value(),
	)
	if p99 := telemetry.Metrics.AckLatency.P99(); p99 > 0 {
		telemetry.Infof("Acknowledgment latency  p50=%s  p99=%s", telemetry.Metrics.AckLatency.P50(), p99)
	}
	if st.Over && st.ShootoutCount > 0 {
		telemetry.Infof("Match decided after %d penalty shoot-out kicks", st.ShootoutCount)
	}
}
