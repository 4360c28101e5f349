package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ToolInvocation is the audit record of one MCP tool call: what was
// invoked, against which calendar, how long it took, and how it ended.
//
// CalendarID is PII, since user calendar IDs are email addresses. CalendarDomain
// gives the reduced form for general logs; the full ID belongs only in
// audit streams with locked-down access.
type ToolInvocation struct {
	Tool string

	// Target of the call.
	CalendarID  string // "primary" or an email-shaped ID
	ServiceName string // calendar or auth_proxy
	Operation   string // list, get, create, update, delete

	// Execution outcome.
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing correlation.
	TraceID string
	SpanID  string
}

// NewToolInvocation starts the audit record for a tool call. Chain the
// With* setters, then close the record with one of the Complete methods.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

// WithCalendar sets the target calendar.
func (ti *ToolInvocation) WithCalendar(calendarID string) *ToolInvocation {
	ti.CalendarID = calendarID
	return ti
}

// WithService sets the service and operation the tool performs.
func (ti *ToolInvocation) WithService(serviceName, operation string) *ToolInvocation {
	ti.ServiceName = serviceName
	ti.Operation = operation
	return ti
}

// WithSpanContext copies the trace correlation IDs from the span in ctx,
// if any.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete closes the record with the final outcome and computes the
// duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError closes the record as failed with err.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess closes the record as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// CalendarDomain returns the domain portion of the calendar ID for
// lower-cardinality logging. Well-known IDs like "primary" map to "unknown".
func (ti *ToolInvocation) CalendarDomain() string {
	return ExtractUserDomain(ti.CalendarID)
}

// Status maps the outcome to the metric status label.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs renders the record as slog attributes. With includePII the
// record carries the full calendar ID, otherwise only its domain. Optional
// fields appear only when set.
func (ti *ToolInvocation) LogAttrs(includePII bool) []slog.Attr {
	target := slog.String("calendar_domain", ti.CalendarDomain())
	if includePII {
		target = slog.String("calendar_id", ti.CalendarID)
	}

	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		target,
		slog.String("status", ti.Status()),
		slog.Duration("duration", ti.Duration),
	}

	optional := [...]struct{ key, value string }{
		{"service", ti.ServiceName},
		{"operation", ti.Operation},
		{"trace_id", ti.TraceID},
		{"span_id", ti.SpanID},
		{"error", ti.Error},
	}
	for _, opt := range optional {
		if opt.value != "" {
			attrs = append(attrs, slog.String(opt.key, opt.value))
		}
	}
	return attrs
}

// AuditLogger writes tool invocation records through slog.
type AuditLogger struct {
	logger     *slog.Logger
	level      slog.Level
	includePII bool
	enabled    bool
}

// NewAuditLogger builds an AuditLogger with defaults: enabled, PII
// excluded, records at info. A nil logger means slog.Default().
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{
		Enabled:  true,
		LogLevel: "info",
	})
}

// NewAuditLoggerWithConfig builds an AuditLogger from configuration. A nil
// logger means slog.Default().
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	al := &AuditLogger{
		logger:     logger,
		level:      auditLogLevel(config.LogLevel),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
	if al.logger == nil {
		al.logger = slog.Default()
	}
	return al
}

// auditLogLevel maps the configured level name to a slog level. Unknown
// names fall back to info.
func auditLogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// LogToolInvocation writes one invocation record. Successful calls are
// emitted at the configured level, failures at warn. Whether the record
// carries the full calendar ID follows the IncludePII configuration.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includePII)
	if ti.Success {
		al.logger.LogAttrs(context.Background(), al.level, "tool_executed", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "tool_failed", attrs...)
	}
}
