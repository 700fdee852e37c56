// Package config loads studybuddy settings from an optional YAML file and
// STUDYBUDDY_* environment variables.
package config

import (
	"time"

	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/retry"
	"github.com/abhisek/studybuddy/internal/spelling"
)

// Config holds all application configuration.
type Config struct {
	DB       DBConfig       `mapstructure:"db"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Spelling SpellingConfig `mapstructure:"spelling"`
	Content  ContentConfig  `mapstructure:"content"`
}

// DBConfig locates the SQLite database. Empty means the default data dir.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// LLMConfig selects and configures the content provider.
type LLMConfig struct {
	Provider   string         `mapstructure:"provider" validate:"oneof=anthropic openai gemini openrouter mock"`
	Timeout    time.Duration  `mapstructure:"timeout" validate:"gt=0"`
	Anthropic  ProviderConfig `mapstructure:"anthropic"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	Gemini     ProviderConfig `mapstructure:"gemini"`
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
	Retry      RetryConfig    `mapstructure:"retry"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model" validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	InitialWait time.Duration `mapstructure:"initial_wait" validate:"gte=0"`
	MaxWait     time.Duration `mapstructure:"max_wait" validate:"gtefield=InitialWait"`
}

// SpellingConfig paces practice sessions.
type SpellingConfig struct {
	WordCount      int           `mapstructure:"word_count" validate:"gte=1,lte=50"`
	AutoListen     bool          `mapstructure:"auto_listen"`
	PromptDelay    time.Duration `mapstructure:"prompt_delay" validate:"gte=0"`
	CorrectDelay   time.Duration `mapstructure:"correct_delay" validate:"gte=0"`
	IncorrectDelay time.Duration `mapstructure:"incorrect_delay" validate:"gte=0"`
	ListenTimeout  time.Duration `mapstructure:"listen_timeout" validate:"gte=0"`
}

type ContentConfig struct {
	QuizLength int `mapstructure:"quiz_length" validate:"gte=1,lte=25"`
}

// Provider maps the llm section onto llm.Config. When the selected provider has no
// key configured, the vendors' standard key variables are probed instead.
func (c *Config) Provider() llm.Config {
	base := llm.DefaultConfig()
	policy := retry.Policy{
		MaxAttempts: c.LLM.Retry.MaxAttempts,
		InitialWait: c.LLM.Retry.InitialWait,
		MaxWait:     c.LLM.Retry.MaxWait,
		Multiplier:  base.Retry.Multiplier,
		Jitter:      base.Retry.Jitter,
	}

	out := llm.Config{
		Provider:   c.LLM.Provider,
		Anthropic:  llm.AnthropicConfig{APIKey: c.LLM.Anthropic.APIKey, Model: c.LLM.Anthropic.Model},
		OpenAI:     llm.OpenAIConfig{APIKey: c.LLM.OpenAI.APIKey, Model: c.LLM.OpenAI.Model, BaseURL: c.LLM.OpenAI.BaseURL},
		Gemini:     llm.GeminiConfig{APIKey: c.LLM.Gemini.APIKey, Model: c.LLM.Gemini.Model},
		OpenRouter: llm.OpenRouterConfig{APIKey: c.LLM.OpenRouter.APIKey, Model: c.LLM.OpenRouter.Model, BaseURL: c.LLM.OpenRouter.BaseURL},
		Retry:      policy,
		Timeout:    c.LLM.Timeout,
	}
	if out.HasKey() {
		return out
	}

	found, ok := llm.DiscoverConfig()
	if !ok {
		return out
	}
	found.Retry = out.Retry
	found.Timeout = out.Timeout
	return found
}

// SpellingSession returns session pacing. OnFinished is left for the caller.
func (c *Config) SpellingSession() spelling.Config {
	return spelling.Config{
		WordCount:      c.Spelling.WordCount,
		AutoListen:     c.Spelling.AutoListen,
		PromptDelay:    c.Spelling.PromptDelay,
		CorrectDelay:   c.Spelling.CorrectDelay,
		IncorrectDelay: c.Spelling.IncorrectDelay,
		ListenTimeout:  c.Spelling.ListenTimeout,
	}
}

// ContentSource returns generation settings for content.NewLLMSource.
func (c *Config) ContentSource() content.Config {
	cfg := content.DefaultConfig()
	cfg.QuizLength = c.Content.QuizLength
	return cfg
}
