package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindArgsInvalid     ErrorKind = "ARGS_INVALID"
	KindInvalidID       ErrorKind = "INVALID_ID"
	KindToolLimit       ErrorKind = "TOOL_LIMIT"
	KindBackendError    ErrorKind = "BACKEND_ERROR"
	KindInvalidResponse ErrorKind = "INVALID_RESPONSE"
	KindUnknownTool     ErrorKind = "UNKNOWN_TOOL"
)

// ToolError is the structured rejection handed back to the model instead of a raised error.
type ToolError struct {
	Kind    ErrorKind `json:"error"`
	Message string    `json:"message,omitempty"`
	Tool    string    `json:"tool,omitempty"`
	Missing []string  `json:"missing,omitempty"`
	Limit   int       `json:"limit,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ToolError) ErrorKind() ErrorKind {
	return e.Kind
}

// JSON renders the payload the model sees.
func (e *ToolError) JSON() string {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, e.Kind)
	}
	return string(data)
}

// ToolErrorFrom converts any error into a ToolError, keeping its kind when it carries one.
func ToolErrorFrom(err error) *ToolError {
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	var kinded interface{ ErrorKind() ErrorKind }
	if errors.As(err, &kinded) {
		return &ToolError{Kind: kinded.ErrorKind(), Message: err.Error()}
	}
	return &ToolError{Kind: KindBackendError, Message: err.Error()}
}

// IsErrorPayload reports whether a tool result is a JSON object carrying a non-empty "error" field.
func IsErrorPayload(result string) bool {
	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(result), &probe); err != nil {
		return false
	}
	switch string(probe.Error) {
	case "", "null", "false", `""`:
		return false
	}
	return true
}
