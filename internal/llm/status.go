package llm

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// finish validates content against the request schema and assembles the
// Response. Truncated output is reported instead of validated.
func finish(req Request, content json.RawMessage, usage Usage, model, stop string) (*Response, error) {
	if stop == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	content = stripFences(content)
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	return &Response{
		Content:    content,
		Usage:      usage,
		Model:      model,
		StopReason: stop,
	}, nil
}

// resolveModel maps a friendly model name to a provider model ID. Unknown
// names pass through so direct IDs work.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}

var fence = regexp.MustCompile("(?i)```(json)?")

// stripFences removes markdown code fences that some models wrap around
// JSON even in structured output mode.
func stripFences(raw json.RawMessage) json.RawMessage {
	if !bytes.Contains(raw, []byte("```")) {
		return raw
	}
	return bytes.TrimSpace(fence.ReplaceAll(raw, nil))
}
