package services

import (
	"context"
	"time"

	"github.com/Xeladesign/shok/internal/config"
	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/cenkalti/backoff/v4"
)

// CallPolicy bounds every store call with a timeout. Reads and idempotent
// updates are retried on transient failures; inserts never are.
type CallPolicy struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

func DefaultPolicy() CallPolicy {
	return CallPolicy{Timeout: 10 * time.Second, Retries: 3, Backoff: 100 * time.Millisecond}
}

func PolicyFromConfig(cfg *config.Config) CallPolicy {
	p := DefaultPolicy()
	if cfg == nil {
		return p
	}
	if cfg.RequestTimeout > 0 {
		p.Timeout = cfg.RequestTimeout
	}
	if cfg.ReadRetries >= 0 {
		p.Retries = cfg.ReadRetries
	}
	return p
}

func (p CallPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(ctx)
}

// Read runs fn, retrying transient errors with exponential backoff.
func (p CallPolicy) Read(ctx context.Context, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	if p.Backoff > 0 {
		b.InitialInterval = p.Backoff
	}
	b.MaxElapsedTime = 0
	retries := p.Retries
	if retries < 0 {
		retries = 0
	}

	op := func() error {
		err := p.attempt(ctx, fn)
		if err != nil && !apperrors.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx))
}

// Write runs fn once under the timeout.
func (p CallPolicy) Write(ctx context.Context, fn func(ctx context.Context) error) error {
	return p.attempt(ctx, fn)
}

func readValue[T any](ctx context.Context, p CallPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Read(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
