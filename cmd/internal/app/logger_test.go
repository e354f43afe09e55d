package app

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"trace":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_SetsDefault(t *testing.T) {
	log := NewLogger("debug", "json")
	if log == nil {
		t.Fatal("NewLogger returned nil")
	}
	if slog.Default() != log {
		t.Fatal("NewLogger must install itself as the default logger")
	}
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug level must be enabled")
	}
}
