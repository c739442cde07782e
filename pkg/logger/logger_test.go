package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := InitWithFormat(FormatJSON); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after json initialization")
	}

	if err := InitWithFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}
	namedLogger.Info(context.Background(), "test message")
}

func TestLoggerJSONFields(t *testing.T) {
	SetLevel(slog.LevelInfo)
	var buf bytes.Buffer
	l := New(&buf, FormatJSON).With(String("component", "scoring"))

	l.Info(context.Background(), "scored",
		String("participant", "Sonnet 4"),
		Int("valid", 12),
		Float64("score", 91.3),
		Bool("persisted", true),
		Duration("took", 2*time.Second),
		Any("skipped", []string{"GPT 5"}),
		Error(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "scored" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["component"] != "scoring" {
		t.Errorf("component = %v", rec["component"])
	}
	if rec["participant"] != "Sonnet 4" {
		t.Errorf("participant = %v", rec["participant"])
	}
	if rec["valid"] != float64(12) {
		t.Errorf("valid = %v", rec["valid"])
	}
	if skipped, _ := rec["skipped"].([]any); len(skipped) != 1 || skipped[0] != "GPT 5" {
		t.Errorf("skipped = %v", rec["skipped"])
	}
	if src, _ := rec["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source = %v, want caller file", rec["source"])
	}
}

func TestSetLevelString(t *testing.T) {
	defer SetLevel(slog.LevelInfo)

	var buf bytes.Buffer
	l := New(&buf, FormatText)

	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("SetLevelString(warn): %v", err)
	}
	l.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
	l.Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn not logged: %q", buf.String())
	}

	for _, lvl := range []string{"debug", "INFO", " warning ", "error", ""} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q): %v", lvl, err)
		}
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
