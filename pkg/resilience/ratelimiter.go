package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/WessleyAI/towline/pkg/fn"
)

var ErrRateLimited = errors.New("rate limited")

// LimiterOpts configures a token bucket.
type LimiterOpts struct {
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the maximum number of tokens (bucket capacity).
	Burst int
	// IdleTTL evicts per-key buckets that have not been used for this long.
	// Zero keeps them forever.
	IdleTTL time.Duration
}

// NewLimiter creates a single token bucket.
func NewLimiter(opts LimiterOpts) *rate.Limiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst)
}

type keyedEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// KeyedLimiter keeps one token bucket per key (client IP, tenant, ...).
// When IdleTTL is set, a background sweep drops idle keys every IdleTTL/2;
// call Close to stop it.
type KeyedLimiter struct {
	mu      sync.Mutex
	opts    LimiterOpts
	buckets map[string]*keyedEntry
	now     func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewKeyedLimiter creates a per-key limiter.
func NewKeyedLimiter(opts LimiterOpts) *KeyedLimiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	k := &KeyedLimiter{
		opts:    opts,
		buckets: make(map[string]*keyedEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if opts.IdleTTL > 0 {
		go k.sweepLoop(opts.IdleTTL / 2)
	}
	return k
}

// Allow reports whether key may proceed now.
func (k *KeyedLimiter) Allow(key string) bool {
	return k.get(key).AllowN(k.now(), 1)
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// Close stops the idle sweep. It is safe to call more than once.
func (k *KeyedLimiter) Close() {
	k.closeOnce.Do(func() { close(k.stop) })
}

func (k *KeyedLimiter) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.buckets[key]
	if !ok {
		e = &keyedEntry{lim: rate.NewLimiter(rate.Limit(k.opts.Rate), k.opts.Burst)}
		k.buckets[key] = e
	}
	e.seen = k.now()
	return e.lim
}

func (k *KeyedLimiter) sweepLoop(every time.Duration) {
	if every <= 0 {
		every = k.opts.IdleTTL
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-k.stop:
			return
		case <-t.C:
			k.sweep()
		}
	}
}

// sweep drops buckets idle for longer than IdleTTL.
func (k *KeyedLimiter) sweep() {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	for key, e := range k.buckets {
		if now.Sub(e.seen) > k.opts.IdleTTL {
			delete(k.buckets, key)
		}
	}
}

// LimiterStageWait wraps an fn.Stage with rate limiting (blocking, waits for token).
func LimiterStageWait[In, Out any](l *rate.Limiter, stage fn.Stage[In, Out]) fn.Stage[In, Out] {
	return func(ctx context.Context, in In) fn.Result[Out] {
		if err := l.Wait(ctx); err != nil {
			return fn.Err[Out](err)
		}
		return stage(ctx, in)
	}
}
