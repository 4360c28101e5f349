package calendar

import (
	"context"
	"errors"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/calbridge/calbridge/internal/nango"
)

// MockAPI implements API with function fields and per-method call
// counters, so tests can inject provider behavior and assert how many
// network calls an operation would have made. A method whose function
// field is nil returns an error instead of silently succeeding.
type MockAPI struct {
	ListCalendarsFunc func(ctx context.Context, pageToken string) (*calendar.CalendarList, error)
	ListEventsFunc    func(ctx context.Context, calendarID, timeMin, timeMax string, maxResults int64, pageToken string) (*calendar.Events, error)
	InsertEventFunc   func(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
	DeleteEventFunc   func(ctx context.Context, calendarID, eventID string) error

	ListCalendarsCalls int
	ListEventsCalls    int
	InsertEventCalls   int
	DeleteEventCalls   int
}

var _ API = (*MockAPI)(nil)

func (m *MockAPI) ListCalendars(ctx context.Context, pageToken string) (*calendar.CalendarList, error) {
	m.ListCalendarsCalls++
	if m.ListCalendarsFunc == nil {
		return nil, errors.New("MockAPI.ListCalendarsFunc is not set")
	}
	return m.ListCalendarsFunc(ctx, pageToken)
}

func (m *MockAPI) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string, maxResults int64, pageToken string) (*calendar.Events, error) {
	m.ListEventsCalls++
	if m.ListEventsFunc == nil {
		return nil, errors.New("MockAPI.ListEventsFunc is not set")
	}
	return m.ListEventsFunc(ctx, calendarID, timeMin, timeMax, maxResults, pageToken)
}

func (m *MockAPI) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	m.InsertEventCalls++
	if m.InsertEventFunc == nil {
		return nil, errors.New("MockAPI.InsertEventFunc is not set")
	}
	return m.InsertEventFunc(ctx, calendarID, event)
}

func (m *MockAPI) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	m.DeleteEventCalls++
	if m.DeleteEventFunc == nil {
		return errors.New("MockAPI.DeleteEventFunc is not set")
	}
	return m.DeleteEventFunc(ctx, calendarID, eventID)
}

// MockCredentialSource implements CredentialSource with a function field
// and a call counter. A nil function yields a static test credential.
type MockCredentialSource struct {
	CredentialsFunc  func(ctx context.Context) (*nango.Credentials, error)
	CredentialsCalls int
}

var _ CredentialSource = (*MockCredentialSource)(nil)

func (m *MockCredentialSource) Credentials(ctx context.Context) (*nango.Credentials, error) {
	m.CredentialsCalls++
	if m.CredentialsFunc == nil {
		return &nango.Credentials{AccessToken: "mock-token"}, nil
	}
	return m.CredentialsFunc(ctx)
}

// MockFactory returns an APIFactory that always yields the given API.
func MockFactory(api API) APIFactory {
	return func(ctx context.Context, creds *nango.Credentials) (API, error) {
		return api, nil
	}
}
