package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/calbridge/calbridge/internal/config"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/logging"
	"github.com/calbridge/calbridge/internal/nango"
	"github.com/calbridge/calbridge/internal/result"
)

const (
	// PrimaryCalendarID is the provider alias for the account's main
	// calendar.
	PrimaryCalendarID = "primary"

	// DefaultMaxResults caps an event listing when the caller doesn't.
	DefaultMaxResults = 10

	// DefaultUpcomingDays is the horizon of the upcoming-events window.
	DefaultUpcomingDays = 7

	// dayWindowMaxResults caps the today/upcoming specializations; their
	// fixed windows warrant a higher ceiling than the listing default.
	dayWindowMaxResults = 50

	// defaultWindowDays is the listing window applied when the caller
	// gives no bounds.
	defaultWindowDays = 30
)

// CredentialSource supplies a fresh provider credential for one operation.
// The production implementation is the nango client; tests substitute a
// MockCredentialSource.
type CredentialSource interface {
	Credentials(ctx context.Context) (*nango.Credentials, error)
}

// Gateway executes the calendar operations. It holds no mutable state:
// every invocation validates its input, fetches a fresh credential, binds
// a provider client to it and normalizes the response, so concurrent
// invocations need no coordination.
type Gateway struct {
	creds    CredentialSource
	newAPI   APIFactory
	timezone *time.Location
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewGateway wires a gateway to its credential source. A nil factory
// selects the production Google Calendar API; a nil config falls back to
// UTC and the default request timeout.
func NewGateway(cfg *config.Config, creds CredentialSource, factory APIFactory) *Gateway {
	if factory == nil {
		factory = NewGoogleAPI
	}
	timezone := time.UTC
	timeout := config.DefaultRequestTimeout
	if cfg != nil {
		if cfg.Timezone != nil {
			timezone = cfg.Timezone
		}
		if cfg.RequestTimeout > 0 {
			timeout = cfg.RequestTimeout
		}
	}
	return &Gateway{
		creds:    creds,
		newAPI:   factory,
		timezone: timezone,
		timeout:  timeout,
		logger:   logging.WithService(slog.Default(), instrumentation.ServiceCalendar),
		now:      time.Now,
	}
}

// operationContext applies the per-operation deadline bounding the
// credential fetch and every provider request of one invocation.
func (g *Gateway) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

// connect obtains a fresh credential and binds a provider API to it.
// Nothing survives the operation; token lifetime is the proxy's concern.
func (g *Gateway) connect(ctx context.Context) (API, error) {
	creds, err := g.creds.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	api, err := g.newAPI(ctx, creds)
	if err != nil {
		return nil, result.Errorf(result.KindProvider, "connecting to calendar provider: %w", err)
	}
	return api, nil
}

// ListCalendars returns every calendar visible to the connection, in
// provider order. An empty list is a valid result.
func (g *Gateway) ListCalendars(ctx context.Context) (calendars []CalendarInfo, err error) {
	ctx, span := instrumentation.StartProviderSpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList)
	defer func() { instrumentation.EndSpan(span, err) }()

	ctx, cancel := g.operationContext(ctx)
	defer cancel()

	api, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}

	calendars = make([]CalendarInfo, 0)
	pageToken := ""
	for {
		page, err := api.ListCalendars(ctx, pageToken)
		if err != nil {
			return nil, fmt.Errorf("listing calendars: %w", err)
		}
		for _, entry := range page.Items {
			calendars = append(calendars, fromGoogleCalendar(entry))
		}
		if page.NextPageToken == "" {
			return calendars, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListEvents returns events matching the query, oldest first, following
// provider pagination until the window is exhausted or MaxResults records
// are collected.
func (g *Gateway) ListEvents(ctx context.Context, query EventQuery) (records []EventRecord, err error) {
	query, err = g.normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	// The span starts after validation: only traffic that reaches the
	// provider belongs in the trace.
	ctx, span := instrumentation.StartProviderSpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList)
	defer func() { instrumentation.EndSpan(span, err) }()

	ctx, cancel := g.operationContext(ctx)
	defer cancel()

	api, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}

	records, err = collectEvents(ctx, api, query)
	if err != nil {
		return nil, err
	}
	g.logger.DebugContext(ctx, "listed events",
		logging.Domain(query.CalendarID),
		slog.Int("count", len(records)))
	return records, nil
}

// TodayEvents lists the calendar's events for the current day, midnight to
// midnight in the gateway's timezone.
func (g *Gateway) TodayEvents(ctx context.Context, calendarID string) ([]EventRecord, error) {
	if calendarID == "" {
		calendarID = PrimaryCalendarID
	}
	start, end := g.todayWindow()
	return g.ListEvents(ctx, EventQuery{
		CalendarID: calendarID,
		TimeMin:    start.Format(time.RFC3339),
		TimeMax:    end.Format(time.RFC3339),
		MaxResults: dayWindowMaxResults,
	})
}

// UpcomingEvents lists events from now through now plus daysAhead days.
// A zero daysAhead means the default horizon.
func (g *Gateway) UpcomingEvents(ctx context.Context, calendarID string, daysAhead int) ([]EventRecord, error) {
	if calendarID == "" {
		calendarID = PrimaryCalendarID
	}
	if daysAhead == 0 {
		daysAhead = DefaultUpcomingDays
	}
	if daysAhead < 0 {
		return nil, result.Errorf(result.KindValidation, "days_ahead must be positive")
	}
	now := g.now().In(g.timezone)
	return g.ListEvents(ctx, EventQuery{
		CalendarID: calendarID,
		TimeMin:    now.Format(time.RFC3339),
		TimeMax:    now.AddDate(0, 0, daysAhead).Format(time.RFC3339),
		MaxResults: dayWindowMaxResults,
	})
}

// CreateEvent creates an event after validating the input, asking the
// provider for a Meet link in the same call when requested.
func (g *Gateway) CreateEvent(ctx context.Context, input EventInput) (rec *EventRecord, err error) {
	start, end, err := validateEventInput(&input)
	if err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartProviderSpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationCreate)
	defer func() { instrumentation.EndSpan(span, err) }()

	ctx, cancel := g.operationContext(ctx)
	defer cancel()

	api, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
	}
	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}
	if input.CreateMeetingLink {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: fmt.Sprintf("meet-%s", uuid.NewString()),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
	}

	created, err := api.InsertEvent(ctx, input.CalendarID, event)
	if err != nil {
		return nil, fmt.Errorf("creating event in %s: %w", input.CalendarID, err)
	}

	record := fromGoogleEvent(created, input.CalendarID)
	g.logger.DebugContext(ctx, "created event",
		slog.String("event_id", record.ID),
		logging.CalendarHash(input.CalendarID),
		slog.Bool("meet_link", record.MeetLink != ""))
	return &record, nil
}

// CancelEvent deletes an event, notifying attendees. Deleting an event
// that is already gone succeeds: cancellation is idempotent.
func (g *Gateway) CancelEvent(ctx context.Context, calendarID, eventID string) (err error) {
	if calendarID == "" {
		return result.Errorf(result.KindValidation, "calendar_id is required")
	}
	if eventID == "" {
		return result.Errorf(result.KindValidation, "event_id is required")
	}

	ctx, span := instrumentation.StartProviderSpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationDelete)
	defer func() { instrumentation.EndSpan(span, err) }()

	ctx, cancel := g.operationContext(ctx)
	defer cancel()

	api, err := g.connect(ctx)
	if err != nil {
		return err
	}

	if err := api.DeleteEvent(ctx, calendarID, eventID); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
			g.logger.DebugContext(ctx, "event already absent",
				slog.String("event_id", eventID),
				slog.Int("status", gerr.Code))
			return nil
		}
		return fmt.Errorf("cancelling event %s: %w", eventID, err)
	}
	return nil
}

// normalizeQuery applies the documented defaults and rejects malformed
// input before anything touches the network. Bounds default independently:
// a missing time_min becomes now, a missing time_max becomes now plus the
// default window.
func (g *Gateway) normalizeQuery(query EventQuery) (EventQuery, error) {
	if query.CalendarID == "" {
		return EventQuery{}, result.Errorf(result.KindValidation, "calendar_id is required")
	}
	if query.MaxResults < 0 {
		return EventQuery{}, result.Errorf(result.KindValidation, "max_results must be positive")
	}
	if query.MaxResults == 0 {
		query.MaxResults = DefaultMaxResults
	}

	now := g.now()
	timeMin := now
	if query.TimeMin != "" {
		t, err := time.Parse(time.RFC3339, query.TimeMin)
		if err != nil {
			return EventQuery{}, result.Errorf(result.KindValidation, "time_min must be an RFC 3339 timestamp, got %q", query.TimeMin)
		}
		timeMin = t
	}
	timeMax := now.AddDate(0, 0, defaultWindowDays)
	if query.TimeMax != "" {
		t, err := time.Parse(time.RFC3339, query.TimeMax)
		if err != nil {
			return EventQuery{}, result.Errorf(result.KindValidation, "time_max must be an RFC 3339 timestamp, got %q", query.TimeMax)
		}
		timeMax = t
	}
	// Ordering is only the caller's problem when the caller supplied both
	// bounds; a single bound pairs with a default and goes through as-is.
	if query.TimeMin != "" && query.TimeMax != "" && timeMax.Before(timeMin) {
		return EventQuery{}, result.Errorf(result.KindValidation, "time_min must not be after time_max")
	}

	query.TimeMin = timeMin.Format(time.RFC3339)
	query.TimeMax = timeMax.Format(time.RFC3339)
	return query, nil
}

// collectEvents follows pagination until the window is exhausted or the
// cap is reached, concatenating pages in provider order.
func collectEvents(ctx context.Context, api API, query EventQuery) ([]EventRecord, error) {
	records := make([]EventRecord, 0, query.MaxResults)
	pageToken := ""
	for {
		page, err := api.ListEvents(ctx, query.CalendarID, query.TimeMin, query.TimeMax, query.MaxResults, pageToken)
		if err != nil {
			return nil, fmt.Errorf("listing events in %s: %w", query.CalendarID, err)
		}
		for _, item := range page.Items {
			records = append(records, fromGoogleEvent(item, query.CalendarID))
			if int64(len(records)) >= query.MaxResults {
				return records, nil
			}
		}
		if page.NextPageToken == "" {
			return records, nil
		}
		pageToken = page.NextPageToken
	}
}

// todayWindow is the half-open interval from local midnight to the next
// local midnight in the gateway's timezone.
func (g *Gateway) todayWindow() (time.Time, time.Time) {
	now := g.now().In(g.timezone)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.timezone)
	return start, start.AddDate(0, 0, 1)
}

// validateEventInput enforces the create contract in order: summary, then
// time bounds, then attendee addresses. Defaults for calendar and timezone
// are applied last, once the input is known to be sound.
func validateEventInput(input *EventInput) (time.Time, time.Time, error) {
	if strings.TrimSpace(input.Summary) == "" {
		return time.Time{}, time.Time{}, result.Errorf(result.KindValidation, "summary is required")
	}
	if input.StartDateTime == "" {
		return time.Time{}, time.Time{}, result.Errorf(result.KindValidation, "start_datetime is required")
	}
	if input.EndDateTime == "" {
		return time.Time{}, time.Time{}, result.Errorf(result.KindValidation, "end_datetime is required")
	}
	start, err := time.Parse(time.RFC3339, input.StartDateTime)
	if err != nil {
		return time.Time{}, time.Time{}, result.Errorf(result.KindValidation, "start_datetime must be an RFC 3339 timestamp, got %q", input.StartDateTime)
	}
	end, err := time.Parse(time.RFC3339, input.EndDateTime)
	if err != nil {
		return time.Time{}, time.Time{}, result.Errorf(result.KindValidation, "end_datetime must be an RFC 3339 timestamp, got %q", input.EndDateTime)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, result.Errorf(result.KindValidation, "start_datetime must be before end_datetime")
	}
	for _, email := range input.Attendees {
		if !validAttendeeEmail(email) {
			return time.Time{}, time.Time{}, result.Errorf(result.KindValidation, "invalid attendee email %q", email)
		}
	}
	if input.CalendarID == "" {
		input.CalendarID = PrimaryCalendarID
	}
	if input.TimeZone == "" {
		input.TimeZone = "UTC"
	}
	return start, end, nil
}

// validAttendeeEmail accepts bare addresses only; display-name forms like
// "Jane <jane@example.com>" are rejected so the provider receives exactly
// what the caller wrote.
func validAttendeeEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
