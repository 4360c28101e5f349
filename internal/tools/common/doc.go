// Package common provides shared utilities for MCP tool implementations:
// the instrumented handler wrappers that record metrics and audit logs
// around every tool call, and the helpers that render the uniform result
// envelope as MCP tool output.
package common
