package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/calendar"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/server"
)

// GetCalendarFromArgs extracts the target calendar from request arguments.
// Tools that omit the argument operate on the account's primary calendar.
func GetCalendarFromArgs(args map[string]interface{}) string {
	if calendarID, ok := args["calendar_id"].(string); ok && calendarID != "" {
		return calendarID
	}
	return calendar.PrimaryCalendarID
}

// InstrumentedToolHandler wraps a tool handler with a tracing span, metrics
// and audit logging. Each invocation is measured twice: as an MCP tool call
// and as the provider operation the tool performs (serviceName + operation,
// e.g. "calendar"/"list"). The span wraps the handler, so provider spans
// started further down nest under it.
//
// A handler returning a result with IsError set counts as an error even
// though the Go error is nil; domain failures travel inside the result
// envelope, not as transport errors.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler("get_calendar_events",
//		instrumentation.ServiceCalendar, instrumentation.OperationList, sc, handler))
func InstrumentedToolHandler(
	toolName string,
	serviceName string,
	operation string,
	sc *server.ServerContext,
	handler mcpserver.ToolHandlerFunc,
) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Both may be nil when instrumentation is not configured.
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()
		if auditLogger == nil && metrics == nil {
			return handler(ctx, request)
		}

		began := time.Now()
		calendarID := GetCalendarFromArgs(request.GetArguments())

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, calendarID)
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithService(serviceName, operation).
			WithCalendar(calendarID)

		res, err := handler(ctx, request)
		took := time.Since(began)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.EndSpan(span, err)
		case res != nil && res.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			instrumentation.EndSpanFailure(span, "tool returned an error result")
		default:
			invocation.CompleteSuccess()
			instrumentation.EndSpan(span, nil)
		}

		if metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, status, calendarID, took)
			metrics.RecordProviderOperation(ctx, serviceName, operation, status, took)
		}

		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return res, err
	}
}
