package controller

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
)

type Endpoint struct {
	ControllerAddr string
	UDPAddr        string
	Retries        int
	// RetryDelay grows linearly: attempt n waits n*RetryDelay.
	RetryDelay time.Duration
}

// Dial connects to the GameController, retrying with a linearly increasing
// delay, and binds the UDP broadcast socket.
func Dial(ctx context.Context, ep Endpoint, st *match.State, bus *events.Bus, clock func() int, opts Options) (*Link, error) {
	if ep.Retries <= 0 {
		ep.Retries = 1
	}

	var d net.Dialer
	var conn net.Conn
	for attempt := 1; ; attempt++ {
		var err error
		conn, err = d.DialContext(ctx, "tcp", ep.ControllerAddr)
		if err == nil {
			break
		}
		if attempt >= ep.Retries {
			return nil, fmt.Errorf("controller: could not connect to GameController at %s after %d attempts: %w",
				ep.ControllerAddr, attempt, err)
		}
		wait := time.Duration(attempt) * ep.RetryDelay
		telemetry.Warnf("Could not connect to GameController at %s (attempt %d/%d): %v, retrying in %s",
			ep.ControllerAddr, attempt, ep.Retries, err, wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	udp, err := net.ListenPacket("udp", ep.UDPAddr)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("controller: listen udp %s: %w", ep.UDPAddr, err)
	}

	telemetry.Infof("Connected to GameController at %s, listening on udp %s", ep.ControllerAddr, udp.LocalAddr())
	return New(conn, udp, st, bus, clock, opts), nil
}
