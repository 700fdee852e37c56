// Package llm wraps the hosted language models that write daily activities
// and spelling lists. Every provider returns JSON that has already been
// checked against the request's schema.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured output from a prompt.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set, Content is JSON that validates against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes a single-turn generation.
type Request struct {
	// Purpose labels the call in the request log, e.g. "daily-content".
	Purpose string

	System   string
	Messages []Message

	// Schema, when set, switches the provider to its native structured
	// output mode. Without it Content holds the raw text.
	Schema *Schema

	MaxTokens int

	// Temperature is in [0, 1]; zero leaves the provider default.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema the response must satisfy.
type Schema struct {
	// Name is kebab-case, e.g. "daily-activity". Anthropic and OpenAI both
	// require one.
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the model output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt is shorthand for a request with one user message.
func UserPrompt(purpose, system, prompt string, schema *Schema) Request {
	return Request{
		Purpose:  purpose,
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
		Schema:   schema,
	}
}
