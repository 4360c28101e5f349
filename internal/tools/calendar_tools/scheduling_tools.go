package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/tools/common"
)

// RegisterSchedulingTools registers the day-window convenience tools with
// the MCP server. Both delegate to the same listing path as
// get_calendar_events; only the window differs.
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getTodayEventsTool := mcp.NewTool("get_today_events",
		mcp.WithDescription("Get today's events, midnight to midnight in the configured timezone"),
		mcp.WithString("calendar_id",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
	)

	s.AddTool(getTodayEventsTool, common.InstrumentedToolHandler(
		"get_today_events", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetTodayEvents(ctx, request, sc)
		}))

	getUpcomingEventsTool := mcp.NewTool("get_upcoming_events",
		mcp.WithDescription("Get upcoming events for the next N days"),
		mcp.WithNumber("days_ahead",
			mcp.Description("Number of days to look ahead (default: 7)"),
		),
		mcp.WithString("calendar_id",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
	)

	s.AddTool(getUpcomingEventsTool, common.InstrumentedToolHandler(
		"get_upcoming_events", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetUpcomingEvents(ctx, request, sc)
		}))

	return nil
}

func handleGetTodayEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	calendarID := common.GetCalendarFromArgs(request.GetArguments())

	gw, err := sc.Gateway()
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	events, err := gw.TodayEvents(ctx, calendarID)
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	return common.EnvelopeSuccess(eventListPayload{
		CalendarID:  calendarID,
		Events:      events,
		TotalEvents: len(events),
		Message:     fmt.Sprintf("Retrieved %d events successfully", len(events)),
	})
}

func handleGetUpcomingEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := common.GetCalendarFromArgs(args)

	daysAhead := 0
	if daysVal, ok := args["days_ahead"].(float64); ok {
		daysAhead = int(daysVal)
	}

	gw, err := sc.Gateway()
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	events, err := gw.UpcomingEvents(ctx, calendarID, daysAhead)
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	return common.EnvelopeSuccess(eventListPayload{
		CalendarID:  calendarID,
		Events:      events,
		TotalEvents: len(events),
		Message:     fmt.Sprintf("Retrieved %d events successfully", len(events)),
	})
}
