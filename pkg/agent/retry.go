package agent

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"ai-companion-be/pkg/errs"
)

const maxAttempts = 3

// Retrying wraps a persona with exponential backoff on transient provider
// failures. Timeouts, validation and other permanent errors surface
// immediately.
type Retrying struct {
	inner Processor
}

func NewRetrying(inner Processor) *Retrying {
	return &Retrying{inner: inner}
}

func (r *Retrying) ID() string { return r.inner.ID() }

func (r *Retrying) Process(ctx context.Context, in Input) (*Output, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second

	return backoff.Retry(ctx, func() (*Output, error) {
		out, err := r.inner.Process(ctx, in)
		if err != nil {
			if errs.IsTransient(err) && !errs.IsTimeout(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return out, nil
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(maxAttempts),
	)
}
