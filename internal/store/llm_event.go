package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studybuddy/internal/llm"
)

const llmEventsTable = "llm_request_events"

// LLMEvent is one stored model request.
type LLMEvent struct {
	ID        int64
	Timestamp time.Time
	llm.RequestEvent
}

// LLMUsage aggregates requests sharing a purpose or model.
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// QueryOpts filters event listings.
type QueryOpts struct {
	Limit   int // 0 = unlimited
	Purpose string
}

// EventRepo stores model request events. It implements llm.EventRecorder.
type EventRepo struct {
	db *sql.DB
}

var _ llm.EventRecorder = (*EventRepo)(nil)

func (r *EventRepo) AppendLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	query, args := builder().
		Insert(llmEventsTable).
		Columns("timestamp", "provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "success", "error_message", "request_body", "response_body").
		Values(formatTime(time.Now()), ev.Provider, ev.Model, ev.Purpose, ev.InputTokens, ev.OutputTokens,
			ev.LatencyMs, ev.Success, ev.ErrorMessage, ev.RequestBody, ev.ResponseBody).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save model request event: %w", err)
	}
	return nil
}

var llmEventColumns = []string{
	"id", "timestamp", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

// QueryLLMEvents lists events, newest first.
func (r *EventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	sel := builder().
		Select(llmEventColumns...).
		From(builder().Table(llmEventsTable)).
		OrderBy(entsql.Desc("id"))
	if opts.Purpose != "" {
		sel.Where(entsql.EQ("purpose", opts.Purpose))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query model request events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetLLMEvent returns the event with id, or nil if there is none.
func (r *EventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	query, args := builder().
		Select(llmEventColumns...).
		From(builder().Table(llmEventsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	e, err := scanLLMEvent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// LLMUsageByPurpose aggregates token usage per request purpose.
func (r *EventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "purpose")
}

// LLMUsageByModel aggregates token usage per model.
func (r *EventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "model")
}

func (r *EventRepo) usage(ctx context.Context, key string) ([]LLMUsage, error) {
	query, args := builder().
		Select(
			key,
			entsql.Count("*"),
			entsql.Sum("input_tokens"),
			entsql.Sum("output_tokens"),
			entsql.Avg("latency_ms"),
		).
		From(builder().Table(llmEventsTable)).
		GroupBy(key).
		OrderBy(key).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate usage by %s: %w", key, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var (
			u   LLMUsage
			avg float64
		)
		if err := rows.Scan(&u.Key, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanLLMEvent(s scanner) (*LLMEvent, error) {
	var (
		e  LLMEvent
		ts string
	)
	err := s.Scan(&e.ID, &ts, &e.Provider, &e.Model, &e.Purpose, &e.InputTokens, &e.OutputTokens,
		&e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	if err != nil {
		return nil, err
	}
	if e.Timestamp, err = parseTime(ts); err != nil {
		return nil, err
	}
	return &e, nil
}
