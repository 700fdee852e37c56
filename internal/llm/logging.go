package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RequestEvent is one logged model call.
type RequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventRecorder persists request events. The store implements it.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, ev RequestEvent) error
}

// LoggingProvider records every call made through it.
type LoggingProvider struct {
	inner    Provider
	provider string
	recorder EventRecorder
}

// WithLogging wraps a Provider with request logging.
func WithLogging(p Provider, providerName string, recorder EventRecorder) Provider {
	return &LoggingProvider{inner: p, provider: providerName, recorder: recorder}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := RequestEvent{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purposeOf(req),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.Model = resp.Model
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	// A failed log write never fails the request.
	if logErr := l.recorder.AppendLLMRequest(context.WithoutCancel(ctx), ev); logErr != nil {
		slog.WarnContext(ctx, "failed to record model request", "purpose", ev.Purpose, "error", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func purposeOf(req Request) string {
	if req.Purpose == "" {
		return "unknown"
	}
	return req.Purpose
}

// serializeRequest renders a request for the log.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}

	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}

	return b.String()
}
