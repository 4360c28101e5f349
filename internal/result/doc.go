// Package result defines the response envelope shared by all calendar
// tools and the error taxonomy used to classify operation failures.
//
// Every tool returns either {"success": true, "data": {...}} or
// {"success": false, "error": {"kind": ..., "message": ...}}. Classify
// maps Go errors coming out of the gateway onto the stable error kinds
// so that callers can dispatch on the kind string.
package result
