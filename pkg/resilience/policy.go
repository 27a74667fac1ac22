package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

type Config struct {
	// Timeout bounds each attempt, not the whole call.
	Timeout         time.Duration
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
	Burst             int
}

func DefaultConfig() Config {
	return Config{
		Timeout:         60 * time.Second,
		MaxTries:        3,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
	}
}

// Policy wraps collaborator calls with a per-attempt timeout, exponential
// backoff retries and an optional shared rate limit.
type Policy struct {
	config  Config
	limiter *rate.Limiter
	notify  func(op string, err error, next time.Duration)
}

func NewPolicy(config Config) *Policy {
	if config.MaxTries == 0 {
		config.MaxTries = 1
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = time.Second
	}
	if config.MaxInterval < config.InitialInterval {
		config.MaxInterval = config.InitialInterval
	}

	p := &Policy{config: config}
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	return p
}

// OnRetry registers a hook called before each retry sleep.
func (p *Policy) OnRetry(fn func(op string, err error, next time.Duration)) *Policy {
	p.notify = fn
	return p
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a permanent error, the parent context
// ends, or the attempts run out.
func Do[T any](ctx context.Context, p *Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	if p == nil {
		return op(ctx)
	}

	attempt := func() (T, error) {
		var zero T
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return zero, backoff.Permanent(err)
			}
		}

		callCtx := ctx
		if p.config.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
			defer cancel()
		}

		res, err := op(callCtx)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return zero, backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, fmt.Errorf("%s timed out after %s: %w", name, p.config.Timeout, err)
		}
		return zero, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.config.InitialInterval
	b.MaxInterval = p.config.MaxInterval

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.config.MaxTries),
		backoff.WithMaxElapsedTime(0),
	}
	if p.notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			p.notify(name, err, next)
		}))
	}
	return backoff.Retry(ctx, attempt, opts...)
}
