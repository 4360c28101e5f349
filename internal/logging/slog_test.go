package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	tests := []struct {
		level       string
		debugOn     bool
		infoOn      bool
		description string
	}{
		{"debug", true, true, "debug enables everything"},
		{"info", false, true, "info hides debug"},
		{"warn", false, false, "warn hides info"},
		{"error", false, false, "error hides info"},
		{"WARN", false, false, "level matching is case-insensitive"},
		{"verbose", false, true, "unknown levels fall back to info"},
		{"", false, true, "empty level falls back to info"},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := Setup(tt.level)
			if logger == nil {
				t.Fatal("Setup returned nil")
			}
			if got := logger.Handler().Enabled(ctx, slog.LevelDebug); got != tt.debugOn {
				t.Errorf("%s: debug enabled = %v, want %v", tt.description, got, tt.debugOn)
			}
			if got := logger.Handler().Enabled(ctx, slog.LevelInfo); got != tt.infoOn {
				t.Errorf("%s: info enabled = %v, want %v", tt.description, got, tt.infoOn)
			}
		})
	}
}

// logCapture returns a logger writing JSON records into the buffer, for
// asserting what an attribute actually renders as.
func logCapture() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decoding log record: %v\n%s", err, buf.String())
	}
	return record
}

func TestWithService(t *testing.T) {
	logger, buf := logCapture()
	WithService(logger, "calendar").Info("connected")

	record := decodeRecord(t, buf)
	if got := record[KeyService]; got != "calendar" {
		t.Errorf("record[%q] = %v, want %q", KeyService, got, "calendar")
	}
}

func TestErr(t *testing.T) {
	logger, buf := logCapture()
	logger.Info("failed", Err(errors.New("boom")))

	record := decodeRecord(t, buf)
	if got := record[KeyError]; got != "boom" {
		t.Errorf("record[%q] = %v, want %q", KeyError, got, "boom")
	}
}

func TestErr_NilOmitted(t *testing.T) {
	logger, buf := logCapture()
	logger.Info("fine", Err(nil))

	record := decodeRecord(t, buf)
	if _, ok := record[KeyError]; ok {
		t.Errorf("record carries %q for a nil error: %v", KeyError, record)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	got := AnonymizeEmail("jane@example.com")
	if !strings.HasPrefix(got, "user:") {
		t.Errorf("AnonymizeEmail() = %q, want a user: prefix", got)
	}
	if want := len("user:") + 16; len(got) != want {
		t.Errorf("AnonymizeEmail() length = %d, want %d", len(got), want)
	}
	if again := AnonymizeEmail("jane@example.com"); again != got {
		t.Errorf("AnonymizeEmail() is not stable: %q then %q", got, again)
	}
	if other := AnonymizeEmail("john@example.com"); other == got {
		t.Errorf("AnonymizeEmail() collides for distinct inputs: %q", got)
	}
	if empty := AnonymizeEmail(""); empty != "" {
		t.Errorf(`AnonymizeEmail("") = %q, want ""`, empty)
	}
}

func TestCalendarHash(t *testing.T) {
	attr := CalendarHash("jane@example.com")
	if attr.Key != KeyCalendarHash {
		t.Errorf("CalendarHash key = %q, want %q", attr.Key, KeyCalendarHash)
	}
	if got, want := attr.Value.String(), AnonymizeEmail("jane@example.com"); got != want {
		t.Errorf("CalendarHash value = %q, want %q", got, want)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "empty", token: "", want: "<empty>"},
		{name: "short", token: "abc123", want: "[token:6 chars]"},
		{name: "long", token: strings.Repeat("x", 128), want: "[token:128 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.want {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{name: "user calendar", email: "jane@example.com", want: "example.com"},
		{name: "group calendar", email: "team@group.calendar.google.com", want: "group.calendar.google.com"},
		{name: "primary alias", email: "primary", want: ""},
		{name: "empty", email: "", want: ""},
		{name: "bare separator", email: "@", want: ""},
		{name: "missing domain", email: "user@", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDomain(tt.email); got != tt.want {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	attr := Domain("jane@example.com")
	if attr.Key != KeyDomain {
		t.Errorf("Domain key = %q, want %q", attr.Key, KeyDomain)
	}
	if attr.Value.String() != "example.com" {
		t.Errorf("Domain value = %q, want %q", attr.Value.String(), "example.com")
	}
}
