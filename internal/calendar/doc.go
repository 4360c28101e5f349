// Package calendar implements the calendar-operation gateway: the
// component that turns one tool invocation into an authenticated Google
// Calendar call and a normalized response.
//
// Every operation runs the same stateless pipeline: validate the input,
// fetch a fresh credential from the auth proxy, bind a provider client to
// it, issue the request (following pagination where the provider pages),
// and map the raw response into the package's record types. Validation
// failures surface before any network call; a single context deadline
// bounds the credential fetch and all provider requests of one operation.
//
// The provider is reached through the narrow API interface so tests can
// count calls and inject failures without HTTP:
//
//	mock := &calendar.MockAPI{
//	    DeleteEventFunc: func(ctx context.Context, calendarID, eventID string) error {
//	        return &googleapi.Error{Code: http.StatusNotFound}
//	    },
//	}
//	gw := calendar.NewGateway(cfg, &calendar.MockCredentialSource{}, calendar.MockFactory(mock))
//
//	// Cancelling an event that is already gone is a success.
//	err := gw.CancelEvent(ctx, "primary", "abc123")
package calendar
