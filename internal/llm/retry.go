package llm

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
)

type retryGateway struct {
	next     Gateway
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// WithRetry re-sends a failed prompt up to retries more times, doubling the
// wait between attempts. Cancellation of ctx stops the loop.
func WithRetry(g Gateway, retries int, backoff time.Duration, logger *zap.Logger) Gateway {
	if retries <= 0 {
		return g
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryGateway{next: g, attempts: retries, backoff: backoff, logger: logger}
}

func (r *retryGateway) Send(ctx context.Context, prompt string, cfg ModelConfig) (string, error) {
	wait := r.backoff
	var lastErr error

	for attempt := 0; attempt <= r.attempts; attempt++ {
		if attempt > 0 {
			r.logger.Warn("Retrying completion",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", lastErr
			case <-time.After(wait):
			}
			wait *= 2
		}

		out, err := r.next.Send(ctx, prompt, cfg)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// Close releases the wrapped gateway when it holds a connection.
func (r *retryGateway) Close() error {
	if c, ok := r.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
