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

// RegisterCalendarListTools adds the get_all_calendars tool.
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getAllCalendarsTool := mcp.NewTool("get_all_calendars",
		mcp.WithDescription("Get all Google Calendars accessible to the user"),
	)

	s.AddTool(getAllCalendarsTool, common.InstrumentedToolHandler(
		"get_all_calendars", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAllCalendars(ctx, request, sc)
		}))

	return nil
}

func handleGetAllCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	gw, err := sc.Gateway()
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	calendars, err := gw.ListCalendars(ctx)
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	return common.EnvelopeSuccess(calendarListPayload{
		Calendars:      calendars,
		TotalCalendars: len(calendars),
		Message:        fmt.Sprintf("Retrieved %d calendars successfully", len(calendars)),
	})
}
