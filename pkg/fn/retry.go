package fn

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryOpts configures Retry. The vPIC client (engine/vpic) is the main
// caller: it retries 5xx, 429 and transport failures and sets Retryable to
// give up on 4xx answers straight away.
type RetryOpts struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	// Jitter scales each wait by a random factor in [0.5, 1.5).
	Jitter bool
	// Retryable reports whether err is worth another attempt. Nil retries everything.
	Retryable func(error) bool
}

// backoff returns the pause before attempt n+1 (n counts from 0).
func (o RetryOpts) backoff(n int) time.Duration {
	d := o.InitialWait
	if n < 32 {
		d <<= n
	}
	if n >= 32 || d <= 0 || (o.MaxWait > 0 && d > o.MaxWait) {
		d = o.MaxWait
	}
	if o.Jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()))
	}
	if o.MaxWait > 0 && d > o.MaxWait {
		d = o.MaxWait
	}
	return d
}

// Retry calls f until it succeeds, MaxAttempts is reached, Retryable rejects
// the error, or ctx ends. Context cancellation wins over the last error.
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	var last Result[T]
	for n := 0; n < max(opts.MaxAttempts, 1); n++ {
		if n > 0 {
			t := time.NewTimer(opts.backoff(n - 1))
			select {
			case <-ctx.Done():
				t.Stop()
				return Err[T](ctx.Err())
			case <-t.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return Err[T](err)
		}

		last = f(ctx)
		if last.IsOk() {
			return last
		}
		if opts.Retryable != nil && !opts.Retryable(last.Error()) {
			return last
		}
	}
	return last
}

// RetryStage wraps a Stage with retry logic.
func RetryStage[In, Out any](opts RetryOpts, stage Stage[In, Out]) Stage[In, Out] {
	return func(ctx context.Context, in In) Result[Out] {
		return Retry(ctx, opts, func(ctx context.Context) Result[Out] {
			return stage(ctx, in)
		})
	}
}
