package core

import (
	"context"
	"encoding/json"
)

const (
	SvimName      = "svim"
	SvimUserAgent = "svim-agent/0.1"
	SvimVersion   = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Invokable is a callable tool exposed to the model.
type Invokable interface {
	Definition() Tool
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// NewFunctionTool builds a function-type tool definition from a raw JSON schema.
func NewFunctionTool(name, description, schema string) Tool {
	return Tool{
		Type: "function",
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  json.RawMessage(schema),
		},
	}
}
