package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys, shared across instruments.
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrCalendar  = "calendar_id"
)

// Metrics records the three layers a tool call passes through: the MCP
// tool itself, the credential fetch against the auth proxy, and the
// provider REST operation. The HTTP transport in front of them is
// covered too. A zero Metrics value is a safe no-op recorder.
type Metrics struct {
	// HTTP transport
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Provider (Google Calendar API) operations
	providerOperationsTotal   metric.Int64Counter
	providerOperationDuration metric.Float64Histogram

	// Auth proxy credential fetches
	credentialFetchTotal    metric.Int64Counter
	credentialFetchDuration metric.Float64Histogram

	// MCP tool invocations
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels (full
	// calendar IDs) are included
	detailedLabels bool
}

// NewMetrics creates a Metrics instance with all instruments registered on
// the meter. The detailedLabels parameter controls whether high-cardinality
// labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	var err error

	counter := func(name, description, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name,
			metric.WithDescription(description),
			metric.WithUnit(unit),
		)
		if err != nil {
			err = fmt.Errorf("failed to create %s counter: %w", name, err)
		}
		return c
	}
	histogram := func(name, description string, boundaries ...float64) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name,
			metric.WithDescription(description),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(boundaries...),
		)
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
		return h
	}

	m := &Metrics{
		detailedLabels: detailedLabels,

		httpRequestsTotal: counter("http_requests_total",
			"Total number of HTTP requests", "{request}"),
		httpRequestDuration: histogram("http_request_duration_seconds",
			"HTTP request duration in seconds",
			0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),

		providerOperationsTotal: counter("provider_operations_total",
			"Total number of calendar provider operations", "{operation}"),
		providerOperationDuration: histogram("provider_operation_duration_seconds",
			"Calendar provider operation duration in seconds",
			0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),

		credentialFetchTotal: counter("auth_proxy_credential_fetch_total",
			"Total number of credential fetches from the auth proxy", "{fetch}"),
		credentialFetchDuration: histogram("auth_proxy_credential_fetch_duration_seconds",
			"Credential fetch duration in seconds",
			0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),

		toolInvocationsTotal: counter("mcp_tool_invocations_total",
			"Total number of MCP tool invocations", "{invocation}"),
		toolDuration: histogram("mcp_tool_duration_seconds",
			"MCP tool execution duration in seconds",
			0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	}
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordHTTPRequest counts and times one request on the HTTP transport.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordProviderOperation records one REST call against the calendar
// provider.
//
// Parameters:
//   - service: service name ("calendar")
//   - operation: operation type (list, get, create, update, delete)
//   - status: result status ("success" or "error")
//   - duration: time taken for the operation
func (m *Metrics) RecordProviderOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.providerOperationsTotal == nil || m.providerOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.providerOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.providerOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordCredentialFetch records a credential fetch from the auth proxy.
// The result label is CredentialFetchSuccess or CredentialFetchFailure.
func (m *Metrics) RecordCredentialFetch(ctx context.Context, result string, duration time.Duration) {
	if m.credentialFetchTotal == nil || m.credentialFetchDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResult, result),
	}

	m.credentialFetchTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.credentialFetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation. The target calendar
// is attached as a label only when detailedLabels is enabled and the ID is
// non-empty; calendar IDs are email addresses, so by default they stay out
// of the metric stream.
//
// Parameters:
//   - toolName: name of the MCP tool (e.g., "get_calendar_events")
//   - status: result status ("success" or "error")
//   - calendarID: target calendar, or "" when the tool has none
//   - duration: time taken for the tool execution
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, calendarID string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	if m.detailedLabels && calendarID != "" {
		attrs = append(attrs, attribute.String(attrCalendar, calendarID))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
