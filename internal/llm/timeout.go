package llm

import (
	"context"
	"time"
)

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds every Generate call, retries included, by d.
// A zero d returns inner unchanged.
func WithTimeout(inner Provider, d time.Duration) Provider {
	if d <= 0 {
		return inner
	}
	return &timeoutProvider{inner: inner, timeout: d}
}

func (p *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.inner.Generate(ctx, req)
}

func (p *timeoutProvider) ModelID() string {
	return p.inner.ModelID()
}
