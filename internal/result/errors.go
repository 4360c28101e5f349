package result

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Kind places a failure in the error taxonomy. Kinds are part of the
// envelope contract: clients dispatch on them, so the values are stable.
type Kind string

const (
	// KindConfig marks a missing or invalid required setting. It is fatal
	// at startup and never appears inside a response envelope.
	KindConfig Kind = "ConfigError"

	// KindAuth marks a failed credential acquisition from the auth proxy.
	KindAuth Kind = "AuthError"

	// KindValidation marks malformed caller input, detected before any
	// network call is made.
	KindValidation Kind = "ValidationError"

	// KindProvider marks a non-success status or unusable response from
	// the calendar provider.
	KindProvider Kind = "ProviderError"

	// KindTimeout marks an operation that exceeded its deadline.
	KindTimeout Kind = "TimeoutError"
)

// Error is a failure classified against the taxonomy. Its JSON form is the
// error branch of the envelope.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`

	err error
}

// Errorf builds a classified error. The format string supports %w; a
// wrapped cause stays reachable through errors.Is and errors.As.
func Errorf(kind Kind, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Message: err.Error(), err: errors.Unwrap(err)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.err }

// Classify maps an arbitrary operation error onto the taxonomy. Deadline
// expiry wins over any earlier classification, so a timeout during the
// credential fetch still reports as TimeoutError rather than AuthError.
// Errors that carry no classification are attributed to the provider.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return &Error{Kind: KindTimeout, Message: "operation timed out: " + err.Error(), err: err}
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		return &Error{
			Kind:    KindProvider,
			Message: fmt.Sprintf("calendar API error %d: %s", gerr.Code, msg),
			err:     err,
		}
	}
	return &Error{Kind: KindProvider, Message: err.Error(), err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
