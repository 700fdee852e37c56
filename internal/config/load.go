package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STUDYBUDDY_LLM_PROVIDER.
const EnvPrefix = "STUDYBUDDY"

var defaults = map[string]any{
	"db.path":     "",
	"server.addr": "127.0.0.1:8080",
	"log.level":   "info",
	"log.format":  "text",

	"llm.provider":            "gemini",
	"llm.timeout":             "60s",
	"llm.anthropic.api_key":   "",
	"llm.anthropic.model":     "claude-haiku",
	"llm.anthropic.base_url":  "",
	"llm.openai.api_key":      "",
	"llm.openai.model":        "gpt-4o-mini",
	"llm.openai.base_url":     "",
	"llm.gemini.api_key":      "",
	"llm.gemini.model":        "gemini-flash",
	"llm.gemini.base_url":     "",
	"llm.openrouter.api_key":  "",
	"llm.openrouter.model":    "google/gemini-2.0-flash-exp",
	"llm.openrouter.base_url": "",
	"llm.retry.max_attempts":  3,
	"llm.retry.initial_wait":  "1s",
	"llm.retry.max_wait":      "10s",

	"spelling.word_count":      10,
	"spelling.auto_listen":     true,
	"spelling.prompt_delay":    "500ms",
	"spelling.correct_delay":   "1s",
	"spelling.incorrect_delay": "1500ms",
	"spelling.listen_timeout":  "10s",

	"content.quiz_length": 10,
}

// Load reads configuration. path names a YAML file; when empty the default
// location is used if it exists. Environment variables take precedence over
// the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetConfigType("yaml")
	explicit := path != ""
	if !explicit {
		path = defaultPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// The default file is optional; an explicit one must exist.
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// defaultPath returns $XDG_CONFIG_HOME/studybuddy/config.yaml (or the
// ~/.config equivalent), or "" when no home can be found.
func defaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "studybuddy", "config.yaml")
}
