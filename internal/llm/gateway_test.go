package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cv-talent/config"
	"cv-talent/pkg/apperr"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *OpenAIGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIWithConfig(cfg, timeout, zap.NewNop())
}

func TestOpenAIGateway_Send(t *testing.T) {
	var got openai.ChatCompletionRequest
	var raw map[string]any
	g := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		require.NoError(t, json.Unmarshal(body, &raw))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4.1",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": `[{"name":"Ana"}]`},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}, time.Second)

	out, err := g.Send(context.Background(), "extract this", ModelConfig{Model: "gpt-4.1", MaxOutputTokens: 500})
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Ana"}]`, out)

	assert.Equal(t, "gpt-4.1", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "extract this", got.Messages[1].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, got.ResponseFormat.Type)

	temp, ok := raw["temperature"]
	require.True(t, ok, "temperature must be sent even when zero")
	assert.InDelta(t, 0, temp, 1e-6)
}

func TestTemperature(t *testing.T) {
	assert.Greater(t, temperature(0), float32(0))
	assert.Equal(t, float32(0.7), temperature(0.7))
}

func TestOpenAIGateway_ProviderError(t *testing.T) {
	g := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}, time.Second)

	_, err := g.Send(context.Background(), "p", ModelConfig{Model: "gpt-4.1"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindGateway))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenAIGateway_EmptyChoices(t *testing.T) {
	g := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}, time.Second)

	_, err := g.Send(context.Background(), "p", ModelConfig{Model: "gpt-4.1"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindGateway))
}

func TestOpenAIGateway_Timeout(t *testing.T) {
	g := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := g.Send(context.Background(), "p", ModelConfig{Model: "gpt-4.1"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindGateway))
	assert.Contains(t, err.Error(), "timed out")
}

type flakyGateway struct {
	failures int
	calls    int
}

func (f *flakyGateway) Send(ctx context.Context, prompt string, cfg ModelConfig) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", apperr.Gateway("fake", errors.New("unavailable"))
	}
	return "ok", nil
}

func TestWithRetry(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		fake := &flakyGateway{failures: 2}
		g := WithRetry(fake, 2, time.Millisecond, zap.NewNop())

		out, err := g.Send(context.Background(), "p", ModelConfig{})
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, 3, fake.calls)
	})

	t.Run("gives_up", func(t *testing.T) {
		fake := &flakyGateway{failures: 5}
		g := WithRetry(fake, 1, time.Millisecond, zap.NewNop())

		_, err := g.Send(context.Background(), "p", ModelConfig{})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindGateway))
		assert.Equal(t, 2, fake.calls)
	})

	t.Run("zero_retries_is_passthrough", func(t *testing.T) {
		fake := &flakyGateway{}
		assert.Same(t, Gateway(fake), WithRetry(fake, 0, time.Second, nil))
	})
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "openai"}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(context.Background(), config.LLMConfig{Provider: "mistral", OpenAIKey: "k"}, zap.NewNop())
	assert.Error(t, err)

	g, err := New(context.Background(), config.LLMConfig{Provider: "openai", OpenAIKey: "k", Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGateway{}, g)

	g, err = New(context.Background(), config.LLMConfig{Provider: "openai", OpenAIKey: "k", MaxRetries: 2}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &retryGateway{}, g)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{Reason: "no key"}.Send(context.Background(), "p", ModelConfig{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindGateway))
}
