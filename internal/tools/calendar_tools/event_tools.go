package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/calendar"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/result"
	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/tools/common"
)

// RegisterEventTools adds the event tools: listing is always registered,
// create_meet_event and cancel_calendar_event only outside read-only mode.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getEventsTool := mcp.NewTool("get_calendar_events",
		mcp.WithDescription("Get events from a specific Google Calendar"),
		mcp.WithString("calendar_id",
			mcp.Required(),
			mcp.Description("Calendar ID (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("time_min",
			mcp.Description("Lower bound for event start time (RFC3339 format, e.g., '2025-01-01T00:00:00Z'). Defaults to now."),
		),
		mcp.WithString("time_max",
			mcp.Description("Upper bound for event start time (RFC3339 format, e.g., '2025-01-31T23:59:59Z'). Defaults to 30 days from now."),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of events to return (default: 10)"),
		),
	)

	s.AddTool(getEventsTool, common.InstrumentedToolHandler(
		"get_calendar_events", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetCalendarEvents(ctx, request, sc)
		}))

	if !readOnly {
		createMeetEventTool := mcp.NewTool("create_meet_event",
			mcp.WithDescription("Create a new Google Calendar event with Google Meet integration"),
			mcp.WithString("summary",
				mcp.Required(),
				mcp.Description("Event title/summary"),
			),
			mcp.WithString("start_datetime",
				mcp.Required(),
				mcp.Description("Start time (RFC3339 format, e.g., '2025-01-15T14:00:00Z')"),
			),
			mcp.WithString("end_datetime",
				mcp.Required(),
				mcp.Description("End time (RFC3339 format, e.g., '2025-01-15T15:00:00Z')"),
			),
			mcp.WithString("description",
				mcp.Description("Event description"),
			),
			mcp.WithString("attendees",
				mcp.Description("Comma-separated list of attendee email addresses"),
			),
			mcp.WithString("timezone",
				mcp.Description("Time zone for the event times (e.g., 'Europe/Berlin'). Defaults to UTC."),
			),
			mcp.WithString("calendar_id",
				mcp.Description("Calendar ID (default: 'primary')"),
			),
			mcp.WithBoolean("create_meeting_link",
				mcp.Description("Attach a Google Meet link to the event (default: true)"),
			),
		)

		s.AddTool(createMeetEventTool, common.InstrumentedToolHandler(
			"create_meet_event", instrumentation.ServiceCalendar, instrumentation.OperationCreate, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateMeetEvent(ctx, request, sc)
			}))

		cancelEventTool := mcp.NewTool("cancel_calendar_event",
			mcp.WithDescription("Cancel (delete) a specific event from Google Calendar"),
			mcp.WithString("calendar_id",
				mcp.Required(),
				mcp.Description("Calendar ID where the event exists"),
			),
			mcp.WithString("event_id",
				mcp.Required(),
				mcp.Description("The unique identifier of the event to cancel"),
			),
		)

		s.AddTool(cancelEventTool, common.InstrumentedToolHandler(
			"cancel_calendar_event", instrumentation.ServiceCalendar, instrumentation.OperationDelete, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCancelCalendarEvent(ctx, request, sc)
			}))
	}

	return nil
}

func handleGetCalendarEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query := calendar.EventQuery{}
	if calendarID, ok := args["calendar_id"].(string); ok {
		query.CalendarID = calendarID
	}
	if timeMin, ok := args["time_min"].(string); ok {
		query.TimeMin = timeMin
	}
	if timeMax, ok := args["time_max"].(string); ok {
		query.TimeMax = timeMax
	}
	if maxResults, ok := args["max_results"].(float64); ok {
		// Zero is indistinguishable from "unset" past this point, so the
		// bound is enforced here while presence is still known.
		if maxResults < 1 {
			return common.EnvelopeFailure(result.Errorf(result.KindValidation, "max_results must be positive"))
		}
		query.MaxResults = int64(maxResults)
	}

	gw, err := sc.Gateway()
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	events, err := gw.ListEvents(ctx, query)
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	return common.EnvelopeSuccess(eventListPayload{
		CalendarID:  query.CalendarID,
		Events:      events,
		TotalEvents: len(events),
		Message:     fmt.Sprintf("Retrieved %d events successfully", len(events)),
	})
}

func handleCreateMeetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	// The tool exists to make conferenced events, so the Meet link is
	// requested unless the caller opts out.
	input := calendar.EventInput{CreateMeetingLink: true}

	if summary, ok := args["summary"].(string); ok {
		input.Summary = summary
	}
	if start, ok := args["start_datetime"].(string); ok {
		input.StartDateTime = start
	}
	if end, ok := args["end_datetime"].(string); ok {
		input.EndDateTime = end
	}
	if description, ok := args["description"].(string); ok {
		input.Description = description
	}
	if timezone, ok := args["timezone"].(string); ok {
		input.TimeZone = timezone
	}
	if calendarID, ok := args["calendar_id"].(string); ok {
		input.CalendarID = calendarID
	}
	if attendeesStr, ok := args["attendees"].(string); ok {
		input.Attendees = parseAttendees(attendeesStr)
	}
	if createLink, ok := args["create_meeting_link"].(bool); ok {
		input.CreateMeetingLink = createLink
	}

	gw, err := sc.Gateway()
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	event, err := gw.CreateEvent(ctx, input)
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	return common.EnvelopeSuccess(createEventPayload{
		Event:   event,
		Message: "Event created successfully",
	})
}

func handleCancelCalendarEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID, _ := args["calendar_id"].(string)
	eventID, _ := args["event_id"].(string)

	gw, err := sc.Gateway()
	if err != nil {
		return common.EnvelopeFailure(err)
	}

	if err := gw.CancelEvent(ctx, calendarID, eventID); err != nil {
		return common.EnvelopeFailure(err)
	}

	return common.EnvelopeSuccess(cancelEventPayload{
		EventID:    eventID,
		CalendarID: calendarID,
		Message:    fmt.Sprintf("Event %s successfully cancelled", eventID),
	})
}
