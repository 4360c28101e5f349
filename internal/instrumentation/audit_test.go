package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

const (
	testCalendarID = "jane@example.com"
	testDomain     = "example.com"
)

// captureAuditLogger builds an AuditLogger over a buffer so tests can
// inspect the emitted records. The handler admits every level.
func captureAuditLogger(t *testing.T, config AuditLoggingConfig) (*AuditLogger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewAuditLoggerWithConfig(logger, config), &buf
}

// decodeLogRecord unmarshals the single JSON record in buf.
func decodeLogRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not one JSON record: %v\noutput: %s", err, buf.String())
	}
	return record
}

func TestToolInvocation_Lifecycle(t *testing.T) {
	ti := NewToolInvocation("get_calendar_events").
		WithCalendar(testCalendarID).
		WithService(ServiceCalendar, OperationList)

	if ti.StartTime.IsZero() {
		t.Error("StartTime is zero; NewToolInvocation must start the clock")
	}

	ti.CompleteSuccess()

	if !ti.Success {
		t.Error("Success = false after CompleteSuccess")
	}
	if ti.Error != "" {
		t.Errorf("Error = %q after CompleteSuccess, want empty", ti.Error)
	}
	if ti.Duration < 0 {
		t.Errorf("Duration = %v, want non-negative", ti.Duration)
	}
	if ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusSuccess)
	}
	if ti.CalendarID != testCalendarID || ti.ServiceName != ServiceCalendar || ti.Operation != OperationList {
		t.Errorf("builder chain lost fields: %+v", ti)
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation("create_meet_event").
		CompleteWithError(errors.New("permission denied"))

	if ti.Success {
		t.Error("Success = true after CompleteWithError")
	}
	if ti.Error != "permission denied" {
		t.Errorf("Error = %q, want %q", ti.Error, "permission denied")
	}
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusError)
	}
}

func TestToolInvocation_CalendarDomain(t *testing.T) {
	tests := []struct {
		calendarID string
		want       string
	}{
		{testCalendarID, testDomain},
		{"team@group.calendar.google.com", "group.calendar.google.com"},
		{"primary", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		ti := NewToolInvocation("test").WithCalendar(tt.calendarID)
		if got := ti.CalendarDomain(); got != tt.want {
			t.Errorf("CalendarDomain(%q) = %q, want %q", tt.calendarID, got, tt.want)
		}
	}
}

func TestToolInvocation_WithSpanContext(t *testing.T) {
	ti := NewToolInvocation("test").WithSpanContext(context.Background())
	if ti.TraceID != "" || ti.SpanID != "" {
		t.Errorf("span context without a span yielded trace_id=%q span_id=%q, want empty", ti.TraceID, ti.SpanID)
	}

	newSpanRecorder(t)
	ctx, span := StartToolSpan(context.Background(), "get_calendar_events", "")
	defer EndSpan(span, nil)

	ti = NewToolInvocation("get_calendar_events").WithSpanContext(ctx)
	if want := span.SpanContext().TraceID().String(); ti.TraceID != want {
		t.Errorf("TraceID = %q, want %q", ti.TraceID, want)
	}
	if want := span.SpanContext().SpanID().String(); ti.SpanID != want {
		t.Errorf("SpanID = %q, want %q", ti.SpanID, want)
	}
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation("get_calendar_events").
		WithCalendar(testCalendarID).
		WithService(ServiceCalendar, OperationList).
		CompleteSuccess()
	ti.TraceID = "abc123"
	ti.SpanID = "def456"

	toMap := func(attrs []slog.Attr) map[string]slog.Value {
		m := make(map[string]slog.Value, len(attrs))
		for _, attr := range attrs {
			m[attr.Key] = attr.Value
		}
		return m
	}

	t.Run("without PII", func(t *testing.T) {
		attrs := toMap(ti.LogAttrs(false))

		if got := attrs["calendar_domain"].String(); got != testDomain {
			t.Errorf("calendar_domain = %q, want %q", got, testDomain)
		}
		if _, ok := attrs["calendar_id"]; ok {
			t.Error("calendar_id present without PII opt-in")
		}
		if got := attrs["status"].String(); got != StatusSuccess {
			t.Errorf("status = %q, want %q", got, StatusSuccess)
		}
		if got := attrs["service"].String(); got != ServiceCalendar {
			t.Errorf("service = %q, want %q", got, ServiceCalendar)
		}
		if got := attrs["trace_id"].String(); got != "abc123" {
			t.Errorf("trace_id = %q, want %q", got, "abc123")
		}
	})

	t.Run("with PII", func(t *testing.T) {
		attrs := toMap(ti.LogAttrs(true))

		if got := attrs["calendar_id"].String(); got != testCalendarID {
			t.Errorf("calendar_id = %q, want %q", got, testCalendarID)
		}
		if _, ok := attrs["calendar_domain"]; ok {
			t.Error("calendar_domain present alongside the full calendar ID")
		}
		if got := attrs["span_id"].String(); got != "def456" {
			t.Errorf("span_id = %q, want %q", got, "def456")
		}
	})
}

func TestToolInvocation_LogAttrsOmitsEmptyFields(t *testing.T) {
	ti := NewToolInvocation("get_all_calendars").CompleteSuccess()

	for _, attr := range ti.LogAttrs(false) {
		switch attr.Key {
		case "service", "operation", "trace_id", "span_id", "error":
			t.Errorf("attribute %q present though the field was never set", attr.Key)
		}
	}
}

func TestAuditLogger_SuccessRecord(t *testing.T) {
	al, buf := captureAuditLogger(t, AuditLoggingConfig{Enabled: true, LogLevel: "info"})

	al.LogToolInvocation(NewToolInvocation("get_calendar_events").
		WithCalendar(testCalendarID).
		WithService(ServiceCalendar, OperationList).
		CompleteSuccess())

	record := decodeLogRecord(t, buf)
	if record["msg"] != "tool_executed" {
		t.Errorf("msg = %v, want %q", record["msg"], "tool_executed")
	}
	if record["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", record["level"])
	}
	if record["calendar_domain"] != testDomain {
		t.Errorf("calendar_domain = %v, want %q", record["calendar_domain"], testDomain)
	}
	if _, ok := record["calendar_id"]; ok {
		t.Error("record carries the full calendar ID without PII opt-in")
	}
}

func TestAuditLogger_FailureRecord(t *testing.T) {
	al, buf := captureAuditLogger(t, AuditLoggingConfig{Enabled: true, LogLevel: "info"})

	al.LogToolInvocation(NewToolInvocation("create_meet_event").
		WithCalendar(testCalendarID).
		CompleteWithError(errors.New("provider unavailable")))

	record := decodeLogRecord(t, buf)
	if record["msg"] != "tool_failed" {
		t.Errorf("msg = %v, want %q", record["msg"], "tool_failed")
	}
	if record["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", record["level"])
	}
	if record["error"] != "provider unavailable" {
		t.Errorf("error = %v, want %q", record["error"], "provider unavailable")
	}
	if record["status"] != StatusError {
		t.Errorf("status = %v, want %q", record["status"], StatusError)
	}
}

func TestAuditLogger_IncludePII(t *testing.T) {
	al, buf := captureAuditLogger(t, AuditLoggingConfig{
		Enabled:    true,
		IncludePII: true,
		LogLevel:   "info",
	})

	al.LogToolInvocation(NewToolInvocation("cancel_calendar_event").
		WithCalendar(testCalendarID).
		CompleteSuccess())

	record := decodeLogRecord(t, buf)
	if record["calendar_id"] != testCalendarID {
		t.Errorf("calendar_id = %v, want %q", record["calendar_id"], testCalendarID)
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	al, buf := captureAuditLogger(t, AuditLoggingConfig{Enabled: false})

	al.LogToolInvocation(NewToolInvocation("get_today_events").CompleteSuccess())

	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote a record: %s", buf.String())
	}
}

func TestAuditLogger_ConfiguredLevel(t *testing.T) {
	al, buf := captureAuditLogger(t, AuditLoggingConfig{Enabled: true, LogLevel: "debug"})

	al.LogToolInvocation(NewToolInvocation("get_upcoming_events").CompleteSuccess())

	record := decodeLogRecord(t, buf)
	if record["level"] != "DEBUG" {
		t.Errorf("level = %v, want DEBUG for a debug-configured audit logger", record["level"])
	}
}

func TestNewAuditLogger_Defaults(t *testing.T) {
	al := NewAuditLogger(nil)

	if al.logger == nil {
		t.Error("nil logger argument must fall back to slog.Default()")
	}
	if !al.enabled {
		t.Error("enabled = false, want true by default")
	}
	if al.includePII {
		t.Error("includePII = true, want false by default")
	}
	if al.level != slog.LevelInfo {
		t.Errorf("level = %v, want %v", al.level, slog.LevelInfo)
	}
}
