package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/studybuddy/internal/difficulty"
	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/metrics"
)

// Config tunes LLMSource.
type Config struct {
	// QuizLength is the number of questions or words requested.
	QuizLength  int
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		QuizLength:  QuizLength,
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// LLMSource implements Source on top of a language model.
type LLMSource struct {
	provider llm.Provider
	config   Config
	metrics  *metrics.Metrics
}

// NewLLMSource creates a Source backed by provider. m may be nil.
func NewLLMSource(provider llm.Provider, cfg Config, m *metrics.Metrics) *LLMSource {
	if cfg.QuizLength <= 0 {
		cfg.QuizLength = QuizLength
	}
	return &LLMSource{provider: provider, config: cfg, metrics: m}
}

func (s *LLMSource) GenerateDailyContent(ctx context.Context, grade string, level difficulty.Level) (*DailyContent, error) {
	fail := func(err error) error {
		return &GenerationError{Op: "generate daily content", Grade: grade, Level: level, Err: err}
	}

	req := s.request("daily-content", dailyActivityPrompt(grade, level, s.config.QuizLength), DailyActivitySchema)
	raw, err := s.generate(ctx, "daily", req)
	if err != nil {
		return nil, fail(err)
	}

	var out DailyContent
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fail(fmt.Errorf("parse response: %w", err))
	}
	if !out.Complete() {
		return nil, fail(fmt.Errorf("incomplete activity returned"))
	}
	if err := checkQuestions(out.MathQuestions); err != nil {
		return nil, fail(fmt.Errorf("math questions: %w", err))
	}
	if err := checkQuestions(out.ReadingQuestions); err != nil {
		return nil, fail(fmt.Errorf("reading questions: %w", err))
	}
	return &out, nil
}

func (s *LLMSource) GenerateSpellingWords(ctx context.Context, grade string, level difficulty.Level) ([]string, error) {
	fail := func(err error) error {
		return &GenerationError{Op: "generate spelling words", Grade: grade, Level: level, Err: err}
	}

	req := s.request("spelling-words", spellingWordsPrompt(grade, level, s.config.QuizLength), SpellingWordsSchema)
	raw, err := s.generate(ctx, "spelling", req)
	if err != nil {
		return nil, fail(err)
	}

	var out struct {
		Words []string `json:"words"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fail(fmt.Errorf("parse response: %w", err))
	}
	words, err := NormalizeWords(out.Words)
	if err != nil {
		return nil, fail(err)
	}
	return words, nil
}

func (s *LLMSource) request(purpose, prompt string, schema *llm.Schema) llm.Request {
	req := llm.UserPrompt(purpose, systemPrompt, prompt, schema)
	req.MaxTokens = s.config.MaxTokens
	req.Temperature = s.config.Temperature
	return req
}

func (s *LLMSource) generate(ctx context.Context, kind string, req llm.Request) (json.RawMessage, error) {
	start := time.Now()
	resp, err := s.provider.Generate(ctx, req)
	s.metrics.ObserveGeneration(kind, time.Since(start))
	if err != nil {
		slog.WarnContext(ctx, "content generation failed", "kind", kind, "model", s.provider.ModelID(), "error", err)
		return nil, err
	}
	return resp.Content, nil
}

func checkQuestions(qs []Question) error {
	for i, q := range qs {
		if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
			return fmt.Errorf("question %d is missing text or answer", i+1)
		}
	}
	return nil
}

// NormalizeWords lower-cases and trims a spelling list. It rejects empty
// lists and entries that are not purely alphabetic, since those could
// never be matched against a spoken answer.
func NormalizeWords(words []string) ([]string, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("empty spelling list")
	}
	out := make([]string, len(words))
	for i, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || strings.IndexFunc(w, func(r rune) bool { return r < 'a' || r > 'z' }) >= 0 {
			return nil, fmt.Errorf("invalid spelling word %q", words[i])
		}
		out[i] = w
	}
	return out, nil
}
