package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "unknown", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		got := parseLogLevel(tc.in)
		if got != tc.want {
			t.Fatalf("parseLogLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewHandler_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, "info", "json"))
	log.Debug("hidden")
	log.Info("auth.login.ok", "user_id", "u1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "auth.login.ok" || rec["user_id"] != "u1" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewHandler_Pretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newHandler(&buf, "debug", "pretty")
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug must be enabled")
	}

	slog.New(h).Info("http.request", "status_class", "2xx", "path", "/login", "note", "two words")
	out := buf.String()
	for _, want := range []string{"lvl=[INFO]", "msg=http.request", "class=2xx", "path=/login", `note="two words"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("non-terminal output must not be colored: %q", out)
	}
}
