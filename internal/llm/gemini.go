package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiGateway calls Gemini with a JSON response MIME type.
type GeminiGateway struct {
	client  *genai.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewGemini(ctx context.Context, apiKey string, timeout time.Duration, logger *zap.Logger) (*GeminiGateway, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGateway{client: client, timeout: timeout, logger: logger.Named("gemini")}, nil
}

func (g *GeminiGateway) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiGateway) Send(ctx context.Context, prompt string, cfg ModelConfig) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	model := g.client.GenerativeModel(cfg.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(cfg.Temperature)
	if cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxOutputTokens))
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.logger.Warn("Generate content failed",
			zap.String("model", cfg.Model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", gatewayError(ctx, "gemini", g.timeout, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", gatewayError(ctx, "gemini", g.timeout, errors.New("empty response from Gemini"))
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", gatewayError(ctx, "gemini", g.timeout, errors.New("unexpected response format from Gemini"))
	}

	if resp.UsageMetadata != nil {
		g.logger.Info("Generate content",
			zap.String("model", cfg.Model),
			zap.Int32("input_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	return sb.String(), nil
}
