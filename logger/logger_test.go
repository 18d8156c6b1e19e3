package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("worker", "dropped")
	l.Info("worker", "dropped")
	l.Warn("worker", "kept warn")
	l.Error("worker", "kept error")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("messages below the minimum level leaked:\n%s", out)
	}
	if !strings.Contains(out, "kept warn") || !strings.Contains(out, "kept error") {
		t.Errorf("expected warn and error messages:\n%s", out)
	}
}

func TestLogLineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)
	l.Error("client", "connect failed: %s", "refused")

	out := buf.String()
	if !strings.Contains(out, "[ERROR]") || !strings.Contains(out, "[client]") {
		t.Errorf("expected level and component tags:\n%s", out)
	}
	if !strings.Contains(out, "connect failed: refused") {
		t.Errorf("expected formatted message:\n%s", out)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError)
	l.Info("bench", "hidden")
	l.SetLevel(LevelDebug)
	l.Info("bench", "visible")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "visible") {
		t.Errorf("SetLevel did not take effect:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"ERROR":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
