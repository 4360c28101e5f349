package calendar

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/calbridge/calbridge/internal/nango"
)

// calendarListFields trims the calendar list response to the fields the
// envelope carries.
const calendarListFields = "nextPageToken,items(id,summary,description,primary,accessRole,backgroundColor,foregroundColor,timeZone)"

// API is the narrow provider surface the gateway calls. The real
// implementation wraps the Google Calendar service; tests substitute a
// MockAPI to count calls and inject failures without HTTP.
type API interface {
	// ListCalendars fetches one page of the user's calendar list.
	ListCalendars(ctx context.Context, pageToken string) (*calendar.CalendarList, error)
	// ListEvents fetches one page of events in [timeMin, timeMax),
	// expanded to single instances and ordered by start time.
	ListEvents(ctx context.Context, calendarID, timeMin, timeMax string, maxResults int64, pageToken string) (*calendar.Events, error)
	// InsertEvent creates an event, notifying attendees. An event carrying
	// conference data is sent with the conference version flag so the
	// provider allocates the Meet link in the same call.
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
	// DeleteEvent removes an event, notifying attendees.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// APIFactory builds a provider API bound to one invocation's credential.
type APIFactory func(ctx context.Context, creds *nango.Credentials) (API, error)

// NewGoogleAPI is the production APIFactory: it wraps the credential in a
// static token source and builds a Google Calendar service around it. When
// the auth proxy supplies a provider base URL it overrides the default
// endpoint.
func NewGoogleAPI(ctx context.Context, creds *nango.Credentials) (API, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken})
	client := oauth2.NewClient(ctx, tokenSource)

	// Force HTTP/1.1 by disabling HTTP/2; the events endpoints have been
	// seen to fail with HTTP/2 INTERNAL_ERROR.
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			ForceAttemptHTTP2: false,
		}
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if creds.ProviderBaseURL != "" {
		opts = append(opts, option.WithEndpoint(creds.ProviderBaseURL))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	return &googleAPI{svc: svc}, nil
}

// googleAPI adapts the generated Google Calendar client to the API surface.
type googleAPI struct {
	svc *calendar.Service
}

func (g *googleAPI) ListCalendars(ctx context.Context, pageToken string) (*calendar.CalendarList, error) {
	call := g.svc.CalendarList.List().
		Fields(googleapi.Field(calendarListFields)).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

func (g *googleAPI) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string, maxResults int64, pageToken string) (*calendar.Events, error) {
	call := g.svc.Events.List(calendarID).
		TimeMin(timeMin).
		TimeMax(timeMax).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

func (g *googleAPI) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	call := g.svc.Events.Insert(calendarID, event).
		SendUpdates("all").
		Context(ctx)
	if event.ConferenceData != nil {
		call = call.ConferenceDataVersion(1)
	}
	return call.Do()
}

func (g *googleAPI) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return g.svc.Events.Delete(calendarID, eventID).
		SendUpdates("all").
		Context(ctx).
		Do()
}
