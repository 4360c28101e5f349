// Package logging configures the process-wide slog logger and provides
// the attribute helpers shared across the codebase.
//
// Output goes to stderr as text, keeping stdout clean for the MCP stdio
// transport. Configure once at startup:
//
//	logging.Setup(cfg.LogLevel)
//
// Calendar IDs are email addresses, so log lines never carry them raw:
// CalendarHash gives a stable anonymized form when entries must
// correlate, Domain keeps only the part after the "@". Access tokens
// pass through SanitizeToken, which keeps nothing but the length.
package logging
