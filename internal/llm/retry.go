package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/parley/internal/logging"
)

// RetryProvider retries transient failures with exponential backoff. The
// number of attempts depends on the request purpose.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger logging.Logger

	// sleep waits for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps p with retry logic.
func WithRetry(p Provider, cfg RetryConfig, logger logging.Logger) Provider {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RetryProvider{inner: p, config: cfg, logger: logger, sleep: sleepCtx}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)
	budget := r.config.attemptsFor(purpose)
	var state attemptState

	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= budget || !state.retryable(err) {
			return nil, err
		}

		wait := r.backoff(attempt-1, err)
		r.logger.Debug("retrying llm request",
			"purpose", purpose, "attempt", attempt, "of", budget, "wait", wait, "error", err)
		if serr := r.sleep(ctx, wait); serr != nil {
			return nil, serr
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// attemptState tracks what has already been retried within one request.
type attemptState struct {
	invalidSeen bool
}

// retryable reports whether err deserves another attempt. Cancellation and
// truncated output never do. A malformed structured reply gets one more try.
func (s *attemptState) retryable(err error) bool {
	var (
		maxTok  *ErrMaxTokensExceeded
		invalid *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.As(err, &maxTok):
		return false
	case errors.As(err, &invalid):
		if s.invalidSeen {
			return false
		}
		s.invalidSeen = true
	}
	return true
}

// backoff returns the wait before retry n (zero based). A server-provided
// Retry-After wins over the computed delay.
func (r *RetryProvider) backoff(n int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	mult := r.config.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(r.config.InitialWait) * math.Pow(mult, float64(n))
	if r.config.MaxWait > 0 {
		wait = math.Min(wait, float64(r.config.MaxWait))
	}
	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(wait * jitter)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
