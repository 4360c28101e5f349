package calendar_tools

import (
	"fmt"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/calendar"
	"github.com/calbridge/calbridge/internal/server"
)

// Success payloads, one per tool. Each carries the data branch of the
// result envelope in the shape clients parse, including the message
// string alongside the structured fields.

type calendarListPayload struct {
	Calendars      []calendar.CalendarInfo `json:"calendars"`
	TotalCalendars int                     `json:"total_calendars"`
	Message        string                  `json:"message"`
}

type eventListPayload struct {
	CalendarID  string                 `json:"calendar_id"`
	Events      []calendar.EventRecord `json:"events"`
	TotalEvents int                    `json:"total_events"`
	Message     string                 `json:"message"`
}

type createEventPayload struct {
	Event   *calendar.EventRecord `json:"event"`
	Message string                `json:"message"`
}

type cancelEventPayload struct {
	EventID    string `json:"event_id"`
	CalendarID string `json:"calendar_id"`
	Message    string `json:"message"`
}

// parseAttendees splits a comma-separated attendee argument, dropping
// whitespace and empty items. Nil when nothing usable remains.
func parseAttendees(raw string) []string {
	var attendees []string
	for email := range strings.SplitSeq(raw, ",") {
		if email = strings.TrimSpace(email); email != "" {
			attendees = append(attendees, email)
		}
	}
	return attendees
}

// RegisterCalendarTools registers all Calendar-related tools with the MCP
// server. In read-only mode the write tools (create_meet_event,
// cancel_calendar_event) stay unregistered.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterEventTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("registering event tools: %w", err)
	}
	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("registering calendar list tools: %w", err)
	}
	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("registering scheduling tools: %w", err)
	}
	return nil
}
