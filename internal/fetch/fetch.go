// Package fetch provides the shared resilient HTTP primitive used by every
// outbound provider adapter. Retries, backoff, rate limiting and circuit
// breaking live here so individual adapters never reimplement them.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"solguard/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultUserAgent   = "SolanaGuard/1.0"
)

// Status tags the outcome of a fetch. An empty result is a normal outcome,
// not an error: callers treat anything but StatusSuccess as an absent
// contribution.
type Status string

const (
	StatusSuccess     Status = "success"      // payload holds valid JSON
	StatusEmpty       Status = "empty"        // nothing usable after all attempts
	StatusRateLimited Status = "rate_limited" // attempts exhausted while throttled
)

// Result is the tagged outcome of Do.
type Result struct {
	Status  Status
	Payload []byte // valid JSON when Status == StatusSuccess
}

// OK reports whether the fetch produced a payload.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Request describes one outbound call.
type Request struct {
	Method string // defaults to GET
	URL    string
	Header http.Header
	Body   []byte
}

// Client is a resilient JSON fetcher for one provider.
type Client struct {
	provider    string
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
	userAgent   string
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	sleep       func(ctx context.Context, d time.Duration) error
	log         zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxAttempts sets the total attempt budget per fetch.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the delay unit between attempts.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithLimiter sets a client-side rate limiter applied before every attempt.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the attempt logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithSleep replaces the inter-attempt sleep, used by tests to observe
// backoff without waiting.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = fn
	}
}

// NewClient creates a fetcher for the named provider. The name shows up in
// logs, metrics and the circuit breaker state.
func NewClient(provider string, opts ...Option) *Client {
	c := &Client{
		provider:    provider,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		userAgent:   DefaultUserAgent,
		sleep:       sleepContext,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = newBreaker(provider, c.log)
	}
	return c
}

// newBreaker builds the per-provider circuit breaker: trips after five
// consecutive failures, probes again after 30s.
func newBreaker(provider string, log zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        provider,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
}

// attemptClass classifies a single attempt for retry handling.
type attemptClass int

const (
	classOK          attemptClass = iota // usable payload
	classRetry                           // transient: timeout, connection, 5xx, bad body
	classRateLimited                     // HTTP 429
	classFatal                           // non-retryable client error (404 etc.)
)

// attemptResult carries one attempt's outcome through the breaker.
type attemptResult struct {
	class   attemptClass
	payload []byte
	detail  string
}

// Provider returns the provider name the client was built for.
func (c *Client) Provider() string {
	return c.provider
}

// Get fetches a URL with optional extra headers.
func (c *Client) Get(ctx context.Context, url string, header http.Header) Result {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url, Header: header})
}

// Do runs the request with the client's retry policy. Rate-limited attempts
// back off exponentially (baseDelay * 2^attempt); other transient failures
// wait a constant baseDelay. Client errors other than 429 do not retry.
func (c *Client) Do(ctx context.Context, req Request) Result {
	start := time.Now()
	res := c.do(ctx, req)
	observability.RecordProviderRequest(c.provider, string(res.Status), time.Since(start).Seconds())
	return res
}

func (c *Client) do(ctx context.Context, req Request) Result {
	last := classRetry
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay
			if last == classRateLimited {
				delay = c.baseDelay * (1 << (attempt - 1))
			}
			if err := c.sleep(ctx, delay); err != nil {
				c.log.Debug().Str("provider", c.provider).Err(err).Msg("fetch canceled during backoff")
				return Result{Status: StatusEmpty}
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				c.log.Debug().Str("provider", c.provider).Err(err).Msg("fetch canceled waiting for rate limiter")
				return Result{Status: StatusEmpty}
			}
		}

		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.attempt(ctx, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				c.log.Warn().Str("provider", c.provider).Str("url", req.URL).Msg("circuit open, skipping fetch")
				return Result{Status: StatusEmpty}
			}
			// Breaker-counted failure; outcome class rides in the message.
			last = classRetry
			if errors.Is(err, errRateLimited) {
				last = classRateLimited
			}
			c.log.Warn().Str("provider", c.provider).Str("url", req.URL).
				Int("attempt", attempt+1).Err(err).Msg("fetch attempt failed")
			continue
		}

		outcome := res.(attemptResult)
		switch outcome.class {
		case classOK:
			c.log.Debug().Str("provider", c.provider).Str("url", req.URL).
				Int("attempt", attempt+1).Msg("fetch succeeded")
			return Result{Status: StatusSuccess, Payload: outcome.payload}
		case classFatal:
			c.log.Debug().Str("provider", c.provider).Str("url", req.URL).
				Int("attempt", attempt+1).Str("detail", outcome.detail).Msg("fetch returned no data")
			return Result{Status: StatusEmpty}
		}
	}

	c.log.Warn().Str("provider", c.provider).Str("url", req.URL).
		Int("attempts", c.maxAttempts).Msg("fetch attempts exhausted")
	if last == classRateLimited {
		return Result{Status: StatusRateLimited}
	}
	return Result{Status: StatusEmpty}
}

// errRateLimited marks a 429 attempt inside the breaker.
var errRateLimited = errors.New("rate limited (429)")

// errTransient wraps transient attempt failures for the breaker.
type errTransient struct {
	detail string
}

func (e *errTransient) Error() string {
	return e.detail
}

// attempt performs one HTTP round trip. It returns an error only for
// failures the circuit breaker should count; a non-retryable 4xx is a
// healthy provider conversation and comes back as classFatal with nil error.
func (c *Client) attempt(ctx context.Context, req Request) (attemptResult, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return attemptResult{}, &errTransient{detail: "create request: " + err.Error()}
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return attemptResult{}, &errTransient{detail: "http request: " + err.Error()}
	}
	payload, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return attemptResult{}, &errTransient{detail: "read response: " + err.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return attemptResult{}, errRateLimited
	case resp.StatusCode >= 500:
		return attemptResult{}, &errTransient{detail: "server status " + resp.Status}
	case resp.StatusCode >= 400:
		return attemptResult{class: classFatal, detail: resp.Status}, nil
	}

	if !json.Valid(payload) {
		return attemptResult{}, &errTransient{detail: "malformed JSON body"}
	}

	return attemptResult{class: classOK, payload: payload}, nil
}

// sleepContext waits for d unless ctx is done first.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
