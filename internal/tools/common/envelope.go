package common

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/calbridge/calbridge/internal/result"
)

// EnvelopeSuccess wraps payload in the success envelope and renders it as
// MCP tool result text.
func EnvelopeSuccess(payload any) (*mcp.CallToolResult, error) {
	text, err := result.Success(payload).JSON()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// EnvelopeFailure classifies opErr into the envelope's error branch and
// renders it as an MCP error result. The returned Go error stays nil: a
// domain failure is a well-formed tool response, not a protocol failure.
func EnvelopeFailure(opErr error) (*mcp.CallToolResult, error) {
	text, err := result.Failure(opErr).JSON()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultError(text), nil
}
