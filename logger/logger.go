// Package logger provides a small leveled logger used by the benchmark
// engine on error and lifecycle paths. Log lines carry the component that
// emitted them so client, worker and coordinator output can be told apart.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is safe for concurrent use by all workers.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
}

// Default writes to stderr so the measurement output on stdout stays clean.
var Default = New(os.Stderr, LevelInfo)

func New(out io.Writer, minLevel Level) *Logger {
	return &Logger{out: out, minLevel: minLevel}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

func (l *Logger) log(level Level, component string, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(l.out, "[%s] [%s] [%s] %s\n", timestamp, level, component, msg)
}

func (l *Logger) Debug(component, format string, args ...any) {
	l.log(LevelDebug, component, format, args...)
}

func (l *Logger) Info(component, format string, args ...any) {
	l.log(LevelInfo, component, format, args...)
}

func (l *Logger) Warn(component, format string, args ...any) {
	l.log(LevelWarn, component, format, args...)
}

func (l *Logger) Error(component, format string, args ...any) {
	l.log(LevelError, component, format, args...)
}
