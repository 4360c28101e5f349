package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// EventInput is the caller-supplied shape for creating a meeting event.
// StartDateTime and EndDateTime are raw RFC 3339 strings; the gateway
// validates and parses them before anything touches the network.
type EventInput struct {
	CalendarID    string
	Summary       string
	Description   string
	StartDateTime string
	EndDateTime   string
	TimeZone      string
	Attendees     []string

	// CreateMeetingLink asks the provider to allocate a Meet link in the
	// same insert call.
	CreateMeetingLink bool
}

// EventQuery selects events from one calendar. Zero-valued bounds default
// to the documented policy window (now through now+30 days); a zero
// MaxResults defaults to DefaultMaxResults.
type EventQuery struct {
	CalendarID string
	TimeMin    string
	TimeMax    string
	MaxResults int64
}

// EventRecord is the normalized snapshot of a provider event as it appears
// inside response envelopes.
type EventRecord struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Status      string     `json:"status"`
	Attendees   []Attendee `json:"attendees"`
	MeetLink    string     `json:"meet_link,omitempty"`
	Created     string     `json:"created,omitempty"`
	Updated     string     `json:"updated,omitempty"`
	HTMLLink    string     `json:"html_link,omitempty"`
	CalendarID  string     `json:"calendar_id,omitempty"`
}

// Attendee is one invitee on an event.
type Attendee struct {
	Email          string `json:"email"`
	ResponseStatus string `json:"response_status,omitempty"`
}

// CalendarInfo describes one entry of the user's calendar list.
type CalendarInfo struct {
	ID              string `json:"id"`
	Summary         string `json:"summary"`
	Description     string `json:"description,omitempty"`
	TimeZone        string `json:"time_zone,omitempty"`
	Primary         bool   `json:"primary,omitempty"`
	AccessRole      string `json:"access_role"` // "owner", "writer", "reader", "freeBusyReader"
	BackgroundColor string `json:"background_color,omitempty"`
	ForegroundColor string `json:"foreground_color,omitempty"`
}

// fromGoogleEvent converts a provider event into an EventRecord. Events
// without a summary get the "No Title" placeholder clients expect.
func fromGoogleEvent(event *calendar.Event, calendarID string) EventRecord {
	if event == nil {
		return EventRecord{CalendarID: calendarID, Attendees: []Attendee{}}
	}

	record := EventRecord{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		Created:     event.Created,
		Updated:     event.Updated,
		HTMLLink:    event.HtmlLink,
		CalendarID:  calendarID,
		Attendees:   make([]Attendee, 0, len(event.Attendees)),
	}
	if record.Summary == "" {
		record.Summary = "No Title"
	}

	record.Start = parseEventTime(event.Start)
	record.End = parseEventTime(event.End)

	for _, att := range event.Attendees {
		record.Attendees = append(record.Attendees, Attendee{
			Email:          att.Email,
			ResponseStatus: att.ResponseStatus,
		})
	}

	record.MeetLink = meetLink(event)

	return record
}

// parseEventTime handles both timed events (DateTime) and all-day events
// (Date). An unparseable or absent time stays zero.
func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
		return time.Time{}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// meetLink extracts the video entry point of an event's conference data,
// falling back to the legacy hangout link.
func meetLink(event *calendar.Event) string {
	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				return ep.Uri
			}
		}
	}
	return event.HangoutLink
}

// fromGoogleCalendar converts a calendar list entry into a CalendarInfo.
func fromGoogleCalendar(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:              entry.Id,
		Summary:         entry.Summary,
		Description:     entry.Description,
		TimeZone:        entry.TimeZone,
		Primary:         entry.Primary,
		AccessRole:      entry.AccessRole,
		BackgroundColor: entry.BackgroundColor,
		ForegroundColor: entry.ForegroundColor,
	}
}
