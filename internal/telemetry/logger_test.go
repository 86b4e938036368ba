package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFileSinkAndMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := InitWithFile(slog.LevelInfo, path); err != nil {
		t.Fatalf("InitWithFile: %v", err)
	}
	defer Init(slog.LevelInfo)

	var mirrored []string
	SetMirror(func(level slog.Level, msg string) {
		mirrored = append(mirrored, level.String()+" "+msg)
		// nested logging from inside the mirror must not recurse
		Warnf("nested %s", msg)
	})
	defer SetMirror(nil)

	Infof("kick-off is %s", "red")
	Warnf("unexpected state %s", "SET")
	Errorf("invalid answer")
	Debugf("hidden")

	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{"Info: kick-off is red\n", "Warning: unexpected state SET\n", "Error: invalid answer\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("log file missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "hidden") {
		t.Errorf("debug line written at info level:\n%s", got)
	}

	if len(mirrored) != 2 || mirrored[0] != "WARN unexpected state SET" || mirrored[1] != "ERROR invalid answer" {
		t.Fatalf("mirrored = %q", mirrored)
	}
}

func TestPrettyHandlerConsoleFormat(t *testing.T) {
	var b strings.Builder
	h := &prettyHandler{console: &b, level: slog.LevelInfo}
	r := slog.NewRecord(time.Date(2026, 3, 1, 17, 10, 39, 0, time.UTC), slog.LevelWarn, "ball left the field", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if got, want := b.String(), "[2026-03-01 5:10:39 PM UTC] WARN: ball left the field\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLatencyPercentiles(t *testing.T) {
	lt := NewLatencyTracker(3)
	for _, ms := range []int{50, 10, 30, 20} {
		lt.Record(time.Duration(ms) * time.Millisecond)
	}
	// oldest sample (50ms) evicted
	if got := lt.P50(); got != 20*time.Millisecond {
		t.Fatalf("P50 = %s", got)
	}
	if got := lt.P99(); got != 20*time.Millisecond {
		t.Fatalf("P99 = %s", got)
	}
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "referee", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}
