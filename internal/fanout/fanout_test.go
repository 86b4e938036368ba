package fanout

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/humanoid-referee/internal/events"
)

func TestEnvelopeKeepsTypedPayload(t *testing.T) {
	goal := events.Goal{Team: 5, Color: "red", ScorerColor: "red", Scorer: 2, Exit: [3]float64{4.5, 0.3, 0.04}}
	data, err := MarshalEvent(events.New(events.EventGoal, "m1", 12340, goal))
	if err != nil {
		t.Fatalf("MarshalEvent: %v", err)
	}
	if !strings.Contains(string(data), `"match_id":"m1"`) {
		t.Fatalf("envelope %s", data)
	}

	evt, err := UnmarshalEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalEvent: %v", err)
	}
	if evt.Type != events.EventGoal || evt.MatchID != "m1" || evt.TimeMs != 12340 {
		t.Fatalf("event = %+v", evt)
	}
	if got, ok := evt.Payload.(events.Goal); !ok || got != goal {
		t.Fatalf("payload = %#v", evt.Payload)
	}
}

func TestUnmarshalRejectsUnknownType(t *testing.T) {
	if _, err := UnmarshalEvent([]byte(`{"type":"odds","payload":{}}`)); err == nil {
		t.Fatal("unknown type accepted")
	}
	if _, err := UnmarshalEvent([]byte(`{"type":"goal","payload":"x"}`)); err == nil {
		t.Fatal("bad payload accepted")
	}
	if _, err := UnmarshalEvent([]byte(`not json`)); err == nil {
		t.Fatal("garbage accepted")
	}
}

func startServer(t *testing.T) (*events.Bus, *Server, string) {
	t.Helper()
	bus := events.NewBus()
	s := NewServer(bus)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return bus, s, strings.TrimPrefix(ts.URL, "http://")
}

func waitClients(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", s.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServerForwardsOnlyTheSubscribedMatch(t *testing.T) {
	bus, s, addr := startServer(t)
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws?match=m1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, s, 1)

	bus.Publish(events.New(events.EventKickoff, "other", 0, events.Kickoff{Team: 9, Color: "blue"}))
	bus.Publish(events.New(events.EventKickoff, "m1", 20, events.Kickoff{Team: 5, Color: "red"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	evt, err := UnmarshalEvent(msg)
	if err != nil {
		t.Fatal(err)
	}
	if evt.MatchID != "m1" || evt.Payload.(events.Kickoff).Team != 5 {
		t.Fatalf("received %+v", evt)
	}
}

func TestClientRepublishesOnLocalBus(t *testing.T) {
	bus, s, addr := startServer(t)

	local := events.NewBus()
	got := make(chan events.Event, 1)
	local.Subscribe(func(e events.Event) error {
		got <- e
		return nil
	}, events.EventScoreChanged)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewClient(addr, "", local).ConnectWithRetry(ctx)
		close(done)
	}()
	waitClients(t, s, 1)

	bus.Publish(events.New(events.EventScoreChanged, "m1", 0, events.ScoreChange{RedScore: 1}))
	select {
	case e := <-got:
		if e.Payload.(events.ScoreChange).RedScore != 1 {
			t.Fatalf("payload %+v", e.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not republished")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
}
