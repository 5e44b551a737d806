package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/redline/internal/grammar"
)

const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *grammar.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// RetryingGrammar wraps a grammar source with the backoff policy. The
// collector behind it still degrades to zero matches once retries are
// exhausted, so a flaky checker slows a line down but never fails it.
type RetryingGrammar struct {
	Source interface {
		Check(ctx context.Context, text, language string) ([]grammar.Match, error)
	}
	Log *slog.Logger
}

func (g RetryingGrammar) Check(ctx context.Context, text, language string) ([]grammar.Match, error) {
	var matches []grammar.Match
	var lastErr error
	for attempt := range MaxRetries {
		matches, lastErr = g.Source.Check(ctx, text, language)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		g.Log.Warn("retryable grammar error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return matches, lastErr
}
