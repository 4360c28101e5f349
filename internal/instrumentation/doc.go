// Package instrumentation provides OpenTelemetry metrics, tracing, and audit
// logging for the calbridge MCP server.
//
// A single Provider owns the meter and tracer providers plus the Metrics
// recorder built on them. When instrumentation is disabled the provider hands
// out no-op recorders, so calling code never branches on whether telemetry is
// on:
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//	provider.Metrics().RecordToolInvocation(ctx, "get_calendar_events",
//		instrumentation.StatusSuccess, calendarID, time.Since(start))
//
// # Metrics
//
// Four instrument pairs, each a counter plus a duration histogram:
//
//	mcp_tool_invocations_total / mcp_tool_duration_seconds         per tool call
//	provider_operations_total / provider_operation_duration_seconds per calendar API operation
//	auth_proxy_credential_fetch_total / ..._duration_seconds        per credential fetch
//	http_requests_total / http_request_duration_seconds             per HTTP transport request
//
// Calendar IDs are email addresses, so they stay out of metric labels unless
// METRICS_DETAILED_LABELS is set. ExtractUserDomain reduces them to a domain
// where a coarser label is wanted.
//
// # Tracing
//
// Spans cover MCP tool invocations (tool.<name>), the provider operations
// they perform (provider.<service>.<operation>), and the credential fetch
// against the auth proxy. Tracing is off by default; set TRACING_EXPORTER
// to otlp or stdout to enable it.
//
// # Configuration
//
// DefaultConfig reads the environment. INSTRUMENTATION_ENABLED gates the
// whole package (default true). METRICS_EXPORTER picks prometheus (default),
// otlp, or stdout; TRACING_EXPORTER picks otlp, stdout, or none (default).
// The OTLP exporters need OTEL_EXPORTER_OTLP_ENDPOINT, and sampling follows
// OTEL_TRACES_SAMPLER_ARG (0.0–1.0, default 0.1). OTEL_SERVICE_NAME
// overrides the reported service name. Audit logging has its own knobs,
// AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII and AUDIT_LOGGING_LEVEL;
// see AuditLoggingConfig.
package instrumentation
