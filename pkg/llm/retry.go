package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-tutor-be/pkg/apperror"

	"github.com/cenkalti/backoff/v5"
)

var errEmptyCompletion = errors.New("model returned an empty completion")

// RetryingProvider bounds every call with a timeout and retries a failed call
// once. Exhausted calls surface as apperror.KindGeneration.
type RetryingProvider struct {
	inner   LLMProvider
	timeout time.Duration
	tries   uint
	backoff time.Duration
}

func NewRetryingProvider(inner LLMProvider, timeout time.Duration) *RetryingProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RetryingProvider{
		inner:   inner,
		timeout: timeout,
		tries:   2,
		backoff: 300 * time.Millisecond,
	}
}

// WithBackoff overrides the delay before the retry. Tests use zero.
func (p *RetryingProvider) WithBackoff(d time.Duration) *RetryingProvider {
	p.backoff = d
	return p
}

func (p *RetryingProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	op := func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		out, err := p.inner.Chat(callCtx, history, options...)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(out) == "" {
			return "", errEmptyCompletion
		}
		return strings.TrimSpace(out), nil
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.backoff)),
		backoff.WithMaxTries(p.tries),
	)
	if err != nil {
		return "", apperror.Generation(err)
	}
	return out, nil
}

func (p *RetryingProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}
