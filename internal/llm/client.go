package llm

import (
	"context"
	"errors"
	"time"
)

// Client defines the interface for completion providers.
type Client interface {
	// Complete sends one system and one user message and returns the raw reply.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds the provider settings.
type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
	Timeout            time.Duration
	MaxTokens          int
	// RateLimit caps outbound requests per minute; zero disables limiting.
	RateLimit int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:            "https://api.openai.com",
		Model:              "gpt-3.5-turbo",
		TranscriptionModel: "whisper-1",
		Timeout:            60 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("OpenAI API key is required")
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if c.MaxTokens < 0 {
		return errors.New("max tokens cannot be negative")
	}
	if c.RateLimit < 0 {
		return errors.New("rate limit cannot be negative")
	}
	return nil
}
