// Package vpic is a client for the NHTSA vPIC VIN decoding API. VINs are
// checked locally before any request is made.
package vpic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/WessleyAI/towline/engine/vin"
	"github.com/WessleyAI/towline/pkg/fn"
	"github.com/WessleyAI/towline/pkg/resilience"
)

const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles"

// maxBody caps how much of a response we read; a decode payload is a few KB.
const maxBody = 1 << 20

// Client decodes VINs against vPIC.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	bopts   resilience.BreakerOpts
	retry   fn.RetryOpts
	cache   Cache
	ttl     time.Duration
	log     *slog.Logger

	decode fn.Stage[string, Result]
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLimiter(l *rate.Limiter) Option { return func(c *Client) { c.limiter = l } }

// WithBreakerOpts configures the circuit breaker. A nil IsFailure ignores
// client errors (4xx other than 429).
func WithBreakerOpts(opts resilience.BreakerOpts) Option { return func(c *Client) { c.bopts = opts } }

func WithRetry(opts fn.RetryOpts) Option { return func(c *Client) { c.retry = opts } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// WithCache stores successful decodes in cache for ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.ttl = ttl
	}
}

// New creates a Client. An empty base uses DefaultBaseURL.
func New(base string, opts ...Option) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		base:    base,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: resilience.NewLimiter(resilience.LimiterOpts{Rate: 5, Burst: 5}),
		retry: fn.RetryOpts{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Jitter:      true,
		},
		ttl: 24 * time.Hour,
		log: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.bopts.IsFailure == nil {
		c.bopts.IsFailure = countsAgainstBreaker
	}
	c.breaker = resilience.NewBreaker(c.bopts)
	if c.retry.Retryable == nil {
		c.retry.Retryable = retryable
	}

	c.decode = fn.TracedStage("vpic.decode",
		resilience.BreakerStage(c.breaker,
			fn.RetryStage(c.retry,
				resilience.LimiterStageWait(c.limiter, c.fetch))),
		attribute.String("vpic.base_url", c.base))
	return c
}

// Breaker exposes the client's circuit breaker so callers can report its state.
func (c *Client) Breaker() *resilience.Breaker { return c.breaker }

// Decode normalises and validates raw, then asks vPIC about it. Invalid VINs
// fail with ErrInvalidVIN without a network call.
func (c *Client) Decode(ctx context.Context, raw string) (Result, error) {
	v := vin.Normalize(raw)
	if err := vin.Validate(v); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidVIN, err)
	}

	if c.cache != nil {
		if res, ok, err := c.cache.Get(ctx, v); err != nil {
			c.log.Warn("vpic cache get failed", "vin", v, "err", err)
		} else if ok {
			return res, nil
		}
	}

	res, err := c.decode(ctx, v).Unwrap()
	if err != nil {
		return Result{}, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, v, res, c.ttl); err != nil {
			c.log.Warn("vpic cache set failed", "vin", v, "err", err)
		}
	}
	return res, nil
}

func (c *Client) fetch(ctx context.Context, v string) fn.Result[Result] {
	url := fmt.Sprintf("%s/DecodeVinValues/%s?format=json", c.base, v)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fn.Err[Result](err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "towline/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fn.Err[Result](err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return fn.Err[Result](&StatusError{Code: resp.StatusCode})
	}

	var ar apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&ar); err != nil {
		return fn.Err[Result](fmt.Errorf("vpic: decode response: %w", err))
	}
	if len(ar.Results) == 0 {
		return fn.Err[Result](ErrNoResult)
	}
	return fn.Ok(toResult(v, ar.Results[0]))
}

func toResult(v string, r apiResult) Result {
	year, _ := strconv.Atoi(r.ModelYear)
	return Result{
		VIN:          v,
		Make:         r.Make,
		Model:        r.Model,
		ModelYear:    year,
		Manufacturer: r.Manufacturer,
		BodyClass:    r.BodyClass,
		VehicleType:  r.VehicleType,
		GVWR:         r.GVWR,
		PlantCountry: r.PlantCountry,
		ErrorCode:    r.ErrorCode,
		ErrorText:    r.ErrorText,
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return !errors.Is(err, ErrNoResult)
}

// A 4xx says the request was wrong, not that vPIC is down.
func countsAgainstBreaker(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return !errors.Is(err, context.Canceled)
}
