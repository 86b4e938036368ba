// Package controller speaks the GameController protocol: numbered text
// commands over TCP answered by OK/INVALID/ILLEGAL, and fixed-layout state
// broadcasts over UDP.
package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/charleschow/humanoid-referee/internal/core/state/match"
	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/gamestate"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
)

var (
	ErrProtocolViolation = errors.New("game controller protocol violation")
	ErrIllegalCommand    = errors.New("game controller rejected command as illegal")
	ErrAckTimeout        = errors.New("game controller did not acknowledge command")
)

const (
	DefaultAckTimeout   = 30 * time.Second
	DefaultLatchTimeout = 30 * time.Second
	DefaultKeepAlive    = 200 * time.Millisecond

	lineBuffer     = 64
	datagramBuffer = 64
)

type Options struct {
	AckTimeout   time.Duration
	LatchTimeout time.Duration
	// KeepAlive is the CLOCK period while an acknowledgment is outstanding.
	KeepAlive time.Duration
}

func (o Options) withDefaults() Options {
	if o.AckTimeout <= 0 {
		o.AckTimeout = DefaultAckTimeout
	}
	if o.LatchTimeout <= 0 {
		o.LatchTimeout = DefaultLatchTimeout
	}
	if o.KeepAlive <= 0 {
		o.KeepAlive = DefaultKeepAlive
	}
	return o
}

// Link owns the TCP control connection and the UDP broadcast socket.
//
// Reader goroutines turn blocking socket reads into channel deliveries.
// Everything else runs on the caller's goroutine, which must be the one that
// owns the match state.
type Link struct {
	conn net.Conn
	udp  net.PacketConn
	st   *match.State
	bus  *events.Bus
	// clock returns the simulated time sent in keep-alives.
	clock func() int
	opts  Options

	lastID  int
	pending map[int]string
	// awaiting is the id Send is blocked on, 0 when none.
	awaiting int

	lines     chan string
	readErr   error
	datagrams chan []byte
	done      chan struct{}
	closeOnce sync.Once

	onSnapshot func(*gamestate.GameState)
	tracer     trace.Tracer
}

// New wraps already connected sockets. udp may be nil when snapshots are fed
// by other means.
func New(conn net.Conn, udp net.PacketConn, st *match.State, bus *events.Bus, clock func() int, opts Options) *Link {
	l := &Link{
		conn:      conn,
		udp:       udp,
		st:        st,
		bus:       bus,
		clock:     clock,
		opts:      opts.withDefaults(),
		pending:   make(map[int]string),
		lines:     make(chan string, lineBuffer),
		datagrams: make(chan []byte, datagramBuffer),
		done:      make(chan struct{}),
		tracer:    telemetry.Tracer("referee/controller"),
	}
	go l.readLines()
	if udp != nil {
		go l.readDatagrams()
	}
	return l
}

// SetSnapshotHook registers fn to run after every decoded snapshot, including
// those consumed while Send waits for latches.
func (l *Link) SetSnapshotHook(fn func(*gamestate.GameState)) { l.onSnapshot = fn }

func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.conn.Close()
		if l.udp != nil {
			if uerr := l.udp.Close(); err == nil {
				err = uerr
			}
		}
	})
	return err
}

func (l *Link) readLines() {
	defer close(l.lines)
	sc := bufio.NewScanner(l.conn)
	for sc.Scan() {
		select {
		case l.lines <- sc.Text():
		case <-l.done:
			l.readErr = net.ErrClosed
			return
		}
	}
	select {
	case <-l.done:
		l.readErr = net.ErrClosed
	default:
		l.readErr = sc.Err()
		if l.readErr == nil {
			l.readErr = io.EOF
		}
	}
}

func (l *Link) readDatagrams() {
	// one spare byte so oversized datagrams fail the length check
	buf := make([]byte, gamestate.PacketSize+1)
	for {
		n, _, err := l.udp.ReadFrom(buf)
		if err != nil {
			select {
			case <-l.done:
			default:
				telemetry.Errorf("controller: UDP input failure: %v", err)
			}
			return
		}
		select {
		case l.datagrams <- slices.Clone(buf[:n]):
		default:
			telemetry.Metrics.PacketsDropped.Inc()
		}
	}
}

// Send transmits command and waits for its acknowledgment, then for any
// state the command latched. CLOCK commands only drain acknowledgments that
// are already buffered.
func (l *Link) Send(ctx context.Context, command string) (err error) {
	keepAlive := strings.HasPrefix(command, "CLOCK:")
	if !keepAlive {
		var span trace.Span
		ctx, span = l.tracer.Start(ctx, "controller.send",
			trace.WithAttributes(attribute.String("gc.command", command)))
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
	}

	l.applyLatches(command)
	id, err := l.write(command)
	if err != nil {
		return err
	}
	if !keepAlive {
		telemetry.Infof("Sending %d:%s to GameController.", id, command)
	}

	start := time.Now()
	if err := l.awaitAck(ctx, id, command, keepAlive); err != nil {
		return err
	}
	if !keepAlive {
		telemetry.Metrics.AckLatency.Record(time.Since(start))
		telemetry.Metrics.CommandsSent.Inc()
		l.publish(events.EventCommand, events.Command{ID: id, Command: command, Result: "OK"})
	}
	return l.awaitLatches(ctx)
}

func (l *Link) write(command string) (int, error) {
	l.lastID++
	id := l.lastID
	if _, err := fmt.Fprintf(l.conn, "%d:%s\n", id, command); err != nil {
		return id, fmt.Errorf("controller: write %d:%s: %w", id, command, err)
	}
	l.pending[id] = command
	return id, nil
}

func (l *Link) awaitAck(ctx context.Context, id int, command string, keepAlive bool) error {
	if !keepAlive {
		l.awaiting = id
		defer func() { l.awaiting = 0 }()
	}
	answered, err := l.drain(id)
	if err != nil {
		return err
	}
	if keepAlive || (answered && !l.outstandingFrom(id)) {
		return nil
	}

	deadline := time.NewTimer(l.opts.AckTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(l.opts.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-l.lines:
			if !ok {
				return l.connectionLost()
			}
			acked, err := l.handleFrame(line)
			if err != nil {
				return err
			}
			if acked == id {
				answered = true
			}
			if answered && !l.outstandingFrom(id) {
				return nil
			}
		case <-ticker.C:
			if answered {
				continue
			}
			telemetry.Infof("Waiting for GameController to answer to %d:%s.", id, command)
			telemetry.Metrics.KeepAlives.Inc()
			if _, err := l.write("CLOCK:" + strconv.Itoa(l.clock())); err != nil {
				return err
			}
		case <-deadline.C:
			return fmt.Errorf("%w: %d:%s after %s", ErrAckTimeout, id, command, l.opts.AckTimeout)
		}
	}
}

// drain handles every frame already buffered without blocking.
func (l *Link) drain(id int) (answered bool, err error) {
	for {
		select {
		case line, ok := <-l.lines:
			if !ok {
				return answered, l.connectionLost()
			}
			acked, err := l.handleFrame(line)
			if err != nil {
				return answered, err
			}
			if acked == id {
				answered = true
			}
		default:
			return answered, nil
		}
	}
}

// outstandingFrom reports whether any id >= from still awaits an answer.
func (l *Link) outstandingFrom(from int) bool {
	for id := range l.pending {
		if id >= from {
			return true
		}
	}
	return false
}

func (l *Link) connectionLost() error {
	return fmt.Errorf("controller: connection to GameController lost: %w", l.readErr)
}

// handleFrame processes one "{id}:{result}" line and returns the acknowledged
// id (0 for blank lines).
func (l *Link) handleFrame(line string) (int, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, nil
	}
	idText, result, ok := strings.Cut(line, ":")
	if !ok {
		return 0, fmt.Errorf("%w: cannot split %q", ErrProtocolViolation, line)
	}
	id, err := strconv.Atoi(idText)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id in %q", ErrProtocolViolation, line)
	}
	command, ok := l.pending[id]
	if !ok {
		return id, fmt.Errorf("%w: acknowledgment for unknown message %d", ErrProtocolViolation, id)
	}
	delete(l.pending, id)

	switch result {
	case "OK":
		l.prune(id)
		return id, nil
	case "INVALID":
		return id, fmt.Errorf("%w: invalid answer for message %s", ErrProtocolViolation, command)
	case "ILLEGAL":
		if strings.Contains(command, "YELLOW") {
			telemetry.Warnf("Received illegal answer from GameController for message %s.", command)
			l.prune(id)
			return id, nil
		}
		return id, fmt.Errorf("%w: %s", ErrIllegalCommand, command)
	default:
		return id, fmt.Errorf("%w: unknown answer %q", ErrProtocolViolation, line)
	}
}

// prune forgets ids older than an accepted one. The GameController answers in
// order, so those keep-alives will never be acknowledged. The command Send
// is waiting for stays pending.
func (l *Link) prune(accepted int) {
	for id := range l.pending {
		if id < accepted && id != l.awaiting {
			delete(l.pending, id)
		}
	}
}

// awaitLatches consumes snapshots until every latch clears or LatchTimeout
// elapses. A timeout drops the latches and is not an error.
func (l *Link) awaitLatches(ctx context.Context) error {
	if !l.st.Waiting() {
		return nil
	}
	timer := time.NewTimer(l.opts.LatchTimeout)
	defer timer.Stop()

	for l.st.Waiting() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt := <-l.datagrams:
			l.consume(pkt)
		case <-timer.C:
			telemetry.Metrics.LatchTimeouts.Inc()
			telemetry.Warnf("GameController did not reach %s within %s, giving up waiting.", l.latches(), l.opts.LatchTimeout)
			l.st.ClearLatches()
			return nil
		}
	}
	return nil
}

// Receive consumes at most one pending snapshot without blocking. It returns
// nil when nothing is pending or the packet was malformed.
func (l *Link) Receive() *gamestate.GameState {
	select {
	case pkt := <-l.datagrams:
		return l.consume(pkt)
	default:
		return nil
	}
}

func (l *Link) consume(pkt []byte) *gamestate.GameState {
	gs, err := gamestate.Decode(pkt)
	if err != nil {
		telemetry.Metrics.PacketDecodeErrors.Inc()
		telemetry.Warnf("controller: dropping packet: %v", err)
		return nil
	}
	telemetry.Metrics.PacketsReceived.Inc()

	prev := l.st.Current
	l.st.Current = gs
	l.reconcile(prev, gs)
	if l.onSnapshot != nil {
		l.onSnapshot(gs)
	}
	return gs
}

func (l *Link) publish(t events.EventType, payload any) {
	if l.bus == nil {
		return
	}
	l.bus.Publish(events.New(t, l.st.MatchID, l.st.TimeMs, payload))
}
