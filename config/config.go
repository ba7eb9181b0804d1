// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

// Backends selectable through AGENTCHAT_BACKEND.
const (
	BackendKnowledge = "knowledge"
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendA4S       = "a4s"
	BackendEcho      = "echo"
)

var validate = validator.New()

// Config is the environment of the agentchat CLI.
type Config struct {
	LogLevel  string `env:"AGENTCHAT_LOG_LEVEL,default=warn" validate:"oneof=debug info warn warning error"`
	LogFormat string `env:"AGENTCHAT_LOG_FORMAT,default=text" validate:"oneof=text json"`

	Backend       string `env:"AGENTCHAT_BACKEND,default=knowledge" validate:"oneof=knowledge openai anthropic a4s echo"`
	DirectoryFile string `env:"AGENTCHAT_DIRECTORY"`
	WatchDir      bool   `env:"AGENTCHAT_WATCH_DIRECTORY,default=false"`

	// TranscriptPath selects a badger directory. Empty keeps transcripts in memory.
	TranscriptPath string `env:"AGENTCHAT_TRANSCRIPT_PATH"`

	IncludeContext      bool          `env:"AGENTCHAT_INCLUDE_CONTEXT,default=true"`
	MaxHistoryExchanges int           `env:"AGENTCHAT_MAX_HISTORY,default=10" validate:"gte=0,lte=1000"`
	AgentTimeout        time.Duration `env:"AGENTCHAT_AGENT_TIMEOUT,default=60s" validate:"gte=0"`
	CancelGrace         time.Duration `env:"AGENTCHAT_CANCEL_GRACE,default=2s" validate:"gte=0"`

	MaxRetries int     `env:"AGENTCHAT_MAX_RETRIES,default=2" validate:"gte=0,lte=10"`
	RateLimit  float64 `env:"AGENTCHAT_RATE_LIMIT,default=0" validate:"gte=0"`
	RateBurst  int     `env:"AGENTCHAT_RATE_BURST,default=1" validate:"gte=1"`

	A4SBaseURL string `env:"AGENTCHAT_A4S_URL,default=http://localhost:8000/api/v1" validate:"omitempty,url"`

	OpenAIAPIKey    string `env:"OPENAI_API_KEY" validate:"required_if=Backend openai"`
	OpenAIModel     string `env:"AGENTCHAT_OPENAI_MODEL"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" validate:"required_if=Backend anthropic"`
	AnthropicModel  string `env:"AGENTCHAT_ANTHROPIC_MODEL"`

	// FeedAddr, when set, serves the transcript WebSocket feed.
	FeedAddr string `env:"AGENTCHAT_FEED_ADDR" validate:"omitempty,hostname_port"`
}

// Load reads the process environment.
func Load() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromMap reads configuration from set instead of the process environment.
func FromMap(set map[string]string) (*Config, error) {
	var cfg Config
	if err := env.Unmarshal(env.EnvSet(set), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
