package result

import (
	"encoding/json"
	"fmt"
)

// Envelope is the uniform return shape of every tool. Exactly one of Data
// or Error is populated, selected by Success.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Success wraps a payload in the success branch of the envelope.
func Success(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Failure classifies err and wraps it in the error branch.
func Failure(err error) Envelope {
	return Envelope{Success: false, Error: Classify(err)}
}

// JSON renders the envelope with two-space indentation, matching the
// format tool clients already parse.
func (e Envelope) JSON() (string, error) {
	raw, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result envelope: %w", err)
	}
	return string(raw), nil
}
