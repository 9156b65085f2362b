package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/z-interview/backend/internal/service/ai/openaimodel"
)

// ErrMissingCredential is returned when the chat API key is absent. The
// process cannot start without it.
var ErrMissingCredential = errors.New("OPENAI_API_KEY is required")

const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// Config aggregates every setting of the service.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Session SessionConfig
	Log     LogConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	Addr           string   `env:"-"`
}

// AIConfig describes the chat completion endpoint.
type AIConfig struct {
	Provider       string `env:"LLM_PROVIDER" envDefault:"openai"`
	APIKey         string `env:"OPENAI_API_KEY"`
	BaseURL        string `env:"OPENAI_BASE_URL"`
	InterviewModel string `env:"INTERVIEW_MODEL" envDefault:"gpt-4o"`
	FeedbackModel  string `env:"FEEDBACK_MODEL" envDefault:"gpt-3.5-turbo"`
	Region         string `env:"ARK_REGION" envDefault:"cn-beijing"`

	// Sampling options stay nil unless set.
	Temperature *float64 `env:"LLM_TEMPERATURE"`
	TopP        *float64 `env:"LLM_TOP_P"`
	MaxTokens   *int     `env:"LLM_MAX_TOKENS"`
}

// SessionConfig controls the in-memory session registry.
type SessionConfig struct {
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	SweepSchedule string        `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 5m"`
}

// LogConfig selects the logger encoding and level.
type LogConfig struct {
	JSON  bool `env:"LOG_JSON" envDefault:"false"`
	Debug bool `env:"LOG_DEBUG" envDefault:"false"`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from the supplied variables only.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	addr, err := serverAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.AI.APIKey = strings.TrimSpace(cfg.AI.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AI.APIKey) == "" {
		return ErrMissingCredential
	}
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderArk:
	default:
		return fmt.Errorf("invalid LLM_PROVIDER value %q", c.AI.Provider)
	}
	if c.AI.InterviewModel == "" || c.AI.FeedbackModel == "" {
		return fmt.Errorf("INTERVIEW_MODEL and FEEDBACK_MODEL cannot be empty")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	return nil
}

// serverAddr accepts "8080", ":8080" or "127.0.0.1:8080".
func serverAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// NewChatModel creates the one chat model instance shared by the process.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if c.APIKey == "" {
		return nil, ErrMissingCredential
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	switch c.Provider {
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			Model:       c.InterviewModel,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	default:
		return openaimodel.New(openaimodel.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.InterviewModel,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	}
}
