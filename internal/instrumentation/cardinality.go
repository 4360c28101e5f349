package instrumentation

import "strings"

// ExtractUserDomain reduces an email-shaped calendar identifier to its
// domain. Full calendar IDs are unbounded and would blow up metric
// cardinality, so metrics and audit records carry the domain (or "unknown")
// instead.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")                   // "example.com"
//	ExtractUserDomain("team@group.calendar.google.com")     // "group.calendar.google.com"
//	ExtractUserDomain("primary")                            // "unknown"
func ExtractUserDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "unknown"
	}
	return domain
}

// Operation names for provider operation metrics. Status, credential fetch,
// and service constants live in config.go.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)
