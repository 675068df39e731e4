package llm

import (
	"context"
	"errors"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIGateway calls the OpenAI chat completions API in JSON mode.
type OpenAIGateway struct {
	client  *openai.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewOpenAI(apiKey string, timeout time.Duration, logger *zap.Logger) *OpenAIGateway {
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), timeout, logger)
}

// NewOpenAIWithConfig allows pointing the client at a different base URL.
func NewOpenAIWithConfig(cfg openai.ClientConfig, timeout time.Duration, logger *zap.Logger) *OpenAIGateway {
	return &OpenAIGateway{
		client:  openai.NewClientWithConfig(cfg),
		timeout: timeout,
		logger:  logger.Named("openai"),
	}
}

func (g *OpenAIGateway) Send(ctx context.Context, prompt string, cfg ModelConfig) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   cfg.MaxOutputTokens,
		Temperature: temperature(cfg.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		g.logger.Warn("Chat completion failed",
			zap.String("model", cfg.Model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", gatewayError(ctx, "openai", g.timeout, err)
	}

	if len(resp.Choices) == 0 {
		return "", gatewayError(ctx, "openai", g.timeout, errors.New("empty response from OpenAI"))
	}

	g.logger.Info("Chat completion",
		zap.String("model", cfg.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	return resp.Choices[0].Message.Content, nil
}

// temperature maps 0 to the smallest positive float so the field survives omitempty.
func temperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
