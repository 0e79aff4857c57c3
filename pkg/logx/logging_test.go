package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "test"))
	log.Info("hello", Int("n", 3), Err(errors.New("boom")))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal log line: %v (%q)", err, buf.String())
	}
	if m["message"] != "hello" {
		t.Fatalf("message = %v", m["message"])
	}
	if m["comp"] != "test" {
		t.Fatalf("comp = %v", m["comp"])
	}
	if m["n"] != float64(3) {
		t.Fatalf("n = %v", m["n"])
	}
	if m["err"] != "boom" {
		t.Fatalf("err = %v", m["err"])
	}
}

func TestWriterLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
	if log.Enabled(LevelInfo) {
		t.Fatal("info should not be enabled at warn level")
	}
	log.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("expected warn line")
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	l.Error("nothing happens")
	if Nop().IsZero() {
		t.Fatal("Nop logger should not be zero")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" INFO ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in, zerolog.InfoLevel); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestErrorFieldSameForEveryConstructor(t *testing.T) {
	line := func() map[string]any {
		var buf bytes.Buffer
		NewWriter(&buf, "info").Error("failed", Err(errors.New("boom")))
		var m map[string]any
		if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
			t.Fatalf("unmarshal log line: %v (%q)", err, buf.String())
		}
		return m
	}
	if m := line(); m["err"] != "boom" {
		t.Fatalf("before New: %v", m)
	}
	svc, _ := New(Config{Level: "error"})
	defer svc.Close()
	if m := line(); m["err"] != "boom" {
		t.Fatalf("after New: %v", m)
	}
}

func TestNewConsoleLevel(t *testing.T) {
	l := NewConsole("warn")
	if l.IsZero() {
		t.Fatal("console logger should not be zero")
	}
	if l.Enabled(LevelInfo) || !l.Enabled(LevelWarn) {
		t.Fatal("console logger ignores the requested level")
	}
}
