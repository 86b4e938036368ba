package telemetry

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-isatty"
)

const (
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiReset  = "\033[0m"
)

var (
	logger  *slog.Logger
	handler *prettyHandler

	mirror    atomic.Pointer[func(level slog.Level, msg string)]
	mirroring atomic.Bool
)

// Init logs to stderr only.
func Init(level slog.Level) {
	install(&prettyHandler{console: os.Stderr, color: isTerminal(os.Stderr), level: level})
}

// InitWithFile logs to stderr and to the persistent log file at path. The file
// is truncated, each record is flushed as it is written.
func InitWithFile(level slog.Level, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	install(&prettyHandler{
		console: os.Stderr,
		color:   isTerminal(os.Stderr),
		file:    bufio.NewWriter(f),
		closer:  f,
		level:   level,
	})
	return nil
}

func install(h *prettyHandler) {
	handler = h
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func L() *slog.Logger {
	if logger == nil {
		Init(slog.LevelInfo)
	}
	return logger
}

// Close flushes and closes the log file sink. Safe to call more than once.
func Close() error {
	if handler == nil {
		return nil
	}
	return handler.close()
}

// SetMirror registers a callback receiving every warning and error, used to
// forward them to the live board. Pass nil to remove it.
func SetMirror(fn func(level slog.Level, msg string)) {
	if fn == nil {
		mirror.Store(nil)
		return
	}
	mirror.Store(&fn)
}

func Infof(format string, args ...any)  { L().Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { L().Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { L().Error(fmt.Sprintf(format, args...)) }
func Debugf(format string, args ...any) { L().Debug(fmt.Sprintf(format, args...)) }
func Plainf(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }

// ParseLogLevel converts a string level name to slog.Level.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// prettyHandler outputs: [2026-02-21 5:10:39 PM PST] WARN: message
// and mirrors "Warning: message" lines into the log file.
type prettyHandler struct {
	console io.Writer
	color   bool
	file    *bufio.Writer
	closer  io.Closer
	level   slog.Level
	mu      sync.Mutex
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.Format("2006-01-02 3:04:05 PM MST")

	var prefix, filePrefix, color string
	switch {
	case r.Level >= slog.LevelError:
		prefix, filePrefix, color = "ERROR: ", "Error: ", ansiRed
	case r.Level >= slog.LevelWarn:
		prefix, filePrefix, color = "WARN: ", "Warning: ", ansiYellow
	case r.Level >= slog.LevelInfo:
		filePrefix = "Info: "
	default:
		filePrefix = "Debug: "
	}

	h.mu.Lock()
	var err error
	if h.color && color != "" {
		_, err = fmt.Fprintf(h.console, "%s[%s] %s%s%s\n", color, ts, prefix, r.Message, ansiReset)
	} else {
		_, err = fmt.Fprintf(h.console, "[%s] %s%s\n", ts, prefix, r.Message)
	}
	if h.file != nil {
		fmt.Fprintf(h.file, "%s%s\n", filePrefix, r.Message)
		if ferr := h.file.Flush(); ferr != nil && err == nil {
			err = ferr
		}
	}
	h.mu.Unlock()

	if r.Level >= slog.LevelWarn {
		forward(r.Level, r.Message)
	}
	return err
}

// forward hands the record to the mirror unless we are already inside it.
func forward(level slog.Level, msg string) {
	fn := mirror.Load()
	if fn == nil || !mirroring.CompareAndSwap(false, true) {
		return
	}
	defer mirroring.Store(false)
	(*fn)(level, msg)
}

func (h *prettyHandler) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return nil
	}
	err := h.file.Flush()
	if cerr := h.closer.Close(); err == nil {
		err = cerr
	}
	h.file = nil
	h.closer = nil
	return err
}

func (h *prettyHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *prettyHandler) WithGroup(_ string) slog.Handler       { return h }
