// Package llm sends extraction prompts to a hosted chat-completion model and
// returns the raw reply text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cv-talent/config"
	"cv-talent/pkg/apperr"

	"go.uber.org/zap"
)

// systemPrompt is sent alongside every extraction prompt.
const systemPrompt = "You are a precise CV data extraction assistant. Reply with valid JSON only, no prose and no markdown."

// ModelConfig carries the per-call model options.
type ModelConfig struct {
	Model           string
	MaxOutputTokens int
	Temperature     float32
}

// Gateway is a completion backend.
type Gateway interface {
	Send(ctx context.Context, prompt string, cfg ModelConfig) (string, error)
}

// ModelConfigFrom builds the call options from the environment configuration.
func ModelConfigFrom(cfg config.LLMConfig) ModelConfig {
	return ModelConfig{
		Model:           cfg.Model,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
	}
}

// New returns the backend selected by cfg.Provider, wrapped with retries when
// cfg.MaxRetries is positive.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey() == "" {
		return nil, fmt.Errorf("no API key configured for LLM provider %q", cfg.Provider)
	}

	var (
		g   Gateway
		err error
	)
	switch cfg.Provider {
	case "openai":
		g = NewOpenAI(cfg.OpenAIKey, cfg.Timeout, logger)
	case "gemini":
		g, err = NewGemini(ctx, cfg.GeminiKey, cfg.Timeout, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if cfg.MaxRetries > 0 {
		g = WithRetry(g, cfg.MaxRetries, 2*time.Second, logger)
	}
	return g, nil
}

// Disabled is a Gateway that fails every call. It stands in when no provider
// credentials are configured so the rest of the API can still serve.
type Disabled struct {
	Reason string
}

func (d Disabled) Send(ctx context.Context, prompt string, cfg ModelConfig) (string, error) {
	return "", apperr.Gateway("send", errors.New(d.Reason))
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// gatewayError folds a backend failure into a single GatewayError, naming the
// timeout when the deadline was the cause.
func gatewayError(ctx context.Context, op string, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Gateway(op, fmt.Errorf("timed out after %s: %w", timeout, err))
	}
	return apperr.Gateway(op, err)
}
