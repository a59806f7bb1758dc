package embedding

import (
	"context"
	"time"

	"ai-tutor-be/pkg/apperror"

	"github.com/cenkalti/backoff/v5"
)

// RetryingProvider bounds each call with a timeout and retries once.
// Exhausted calls surface as apperror.KindEmbedding.
type RetryingProvider struct {
	inner   EmbeddingProvider
	timeout time.Duration
	backoff time.Duration
}

func NewRetryingProvider(inner EmbeddingProvider, timeout time.Duration) *RetryingProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RetryingProvider{inner: inner, timeout: timeout, backoff: 300 * time.Millisecond}
}

func (p *RetryingProvider) WithBackoff(d time.Duration) *RetryingProvider {
	p.backoff = d
	return p
}

func (p *RetryingProvider) Generate(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	op := func() ([][]float32, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return p.inner.Generate(callCtx, texts, taskType)
	}

	vectors, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.backoff)),
		backoff.WithMaxTries(2),
	)
	if err != nil {
		return nil, apperror.Embedding(err)
	}
	return vectors, nil
}
