package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Attribute keys shared by everything that logs through this package.
const (
	KeyService      = "service"
	KeyCalendarHash = "calendar_hash"
	KeyDomain       = "calendar_domain"
	KeyError        = "error"
)

// Setup configures the process-wide default logger: text output on stderr
// so log lines never interleave with the stdio transport on stdout.
// Unknown level strings fall back to info.
func Setup(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}

// WithService returns a logger whose records name the component they come
// from, e.g. "calendar" for the provider gateway or "auth_proxy" for the
// Nango client.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// Err returns an error attribute, or an empty group that slog omits when
// err is nil. Callers can pass a maybe-nil error without guarding:
//
//	logger.Info("operation finished", logging.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail hashes an email-shaped identifier into a short stable
// token. Calendar IDs are the owner's email address, so log lines carry
// this form when entries must correlate without exposing the PII.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// CalendarHash returns the anonymized calendar ID as an attribute.
func CalendarHash(calendarID string) slog.Attr {
	return slog.String(KeyCalendarHash, AnonymizeEmail(calendarID))
}

// SanitizeToken masks a token down to a length indicator. Even a prefix
// can aid an attacker, so no token content survives.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// ExtractDomain returns the part after the "@" of an email-shaped
// identifier, or "" when there is none. Well-known calendar IDs like
// "primary" have no domain.
func ExtractDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return ""
	}
	return domain
}

// Domain returns the calendar's domain as an attribute: far fewer
// distinct values than full calendar IDs, and no PII.
func Domain(calendarID string) slog.Attr {
	return slog.String(KeyDomain, ExtractDomain(calendarID))
}
