package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewHandlerVerbose(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := slog.New(NewHandler(Options{Verbose: true, Stdout: &stdout, Stderr: &stderr}))

	l.Debug("org.freedesktop.impl.portal.Test acquired")

	got := stdout.String()
	if !strings.Contains(got, "TST: org.freedesktop.impl.portal.Test acquired") {
		t.Errorf("stdout = %q, want prefixed debug message", got)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want empty", stderr.String())
	}
	if strings.Contains(got, "\x1b[") {
		t.Errorf("stdout contains color codes for a non-terminal writer: %q", got)
	}
}

func TestNewHandlerQuiet(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := slog.New(NewHandler(Options{Level: slog.LevelInfo, Stdout: &stdout, Stderr: &stderr}))

	l.Debug("hidden")
	l.Warn("shown")

	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	got := stderr.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug message leaked at info level: %q", got)
	}
	if !strings.Contains(got, "shown") {
		t.Errorf("stderr = %q, want warning", got)
	}
	if strings.Contains(got, DebugPrefix) {
		t.Errorf("quiet output carries the debug prefix: %q", got)
	}
}

func TestNewHandlerJSON(t *testing.T) {
	var stderr bytes.Buffer
	l := slog.New(NewHandler(Options{Format: "json", Stderr: &stderr}))

	l.Info("ready", "bus_name", "org.freedesktop.impl.portal.Test")

	var entry map[string]any
	if err := json.Unmarshal(stderr.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", stderr.String(), err)
	}
	if entry["msg"] != "ready" {
		t.Errorf("msg = %v, want ready", entry["msg"])
	}
	if entry["bus_name"] != "org.freedesktop.impl.portal.Test" {
		t.Errorf("bus_name = %v", entry["bus_name"])
	}
}

func TestPrintErr(t *testing.T) {
	tests := []struct {
		name  string
		color bool
		want  string
	}{
		{"plain", false, "error: No session bus: boom\n"},
		{"color", true, "\x1b[31m\x1b[1merror: \x1b[22m\x1b[0mNo session bus: boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintErr(&buf, tt.color, "No session bus: %s", "boom")
			if buf.String() != tt.want {
				t.Errorf("PrintErr = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestIsTerminalNonFile(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("bytes.Buffer reported as terminal")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCallLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewCallLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	id := NewRequestID()
	l.LogGetUserInformation(context.Background(), id, ":1.42", "gnome-shell", "org.example.App",
		[]string{"id", "name"}, "success", nil)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	checks := map[string]any{
		"msg":        "dbus_call",
		"request_id": id,
		"sender":     ":1.42",
		"method":     "GetUserInformation",
		"caller":     "gnome-shell",
		"app_id":     "org.example.App",
		"result":     "success",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s = %v, want %v", k, entry[k], want)
		}
	}
	if _, ok := entry["error"]; ok {
		t.Errorf("unexpected error attribute: %v", entry["error"])
	}
}

func TestNewRequestIDUnique(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if a == b {
		t.Errorf("request IDs collide: %s", a)
	}
	if len(a) != 36 {
		t.Errorf("request ID %q is not a UUID string", a)
	}
}
