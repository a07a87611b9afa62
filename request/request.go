// Package request is the http layer underneath the scraper. A Client paces
// and bounds its requests with a limiter, applies a per-request timeout, and
// classifies failures into FetchError, TimeoutError, and NetworkError. It
// never retries.
package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/amonks/soundscout/limiter"
	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/metrics"
	"github.com/amonks/soundscout/readthrough"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultTimeout   = 30 * time.Second

	maxBodyBytes = 10 << 20
)

type Option func(*Client)

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLimiter(lim *limiter.Limiter) Option {
	return func(c *Client) { c.limiter = lim }
}

// WithTransport replaces the pooled transport. Tests use it to observe
// outbound traffic.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithCache serves repeated fetches of the same url from disk.
func WithCache(rt *readthrough.ReadThrough) Option {
	return func(c *Client) { c.cache = rt }
}

func New(opts ...Option) *Client {
	c := &Client{
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = limiter.New(time.Second, 5)
	}
	return c
}

// Client is safe for concurrent use. All requests share one connection pool
// and one limiter.
type Client struct {
	userAgent string
	timeout   time.Duration
	limiter   *limiter.Limiter
	transport http.RoundTripper
	cache     *readthrough.ReadThrough

	once sync.Once
	http *http.Client
}

// HTTP returns the client's pooled *http.Client, creating it on first use.
// Every call returns the same value.
func (c *Client) HTTP() *http.Client {
	c.once.Do(func() {
		transport := c.transport
		if transport == nil {
			transport = &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: c.limiter.MaxConcurrent(),
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			}
		}
		c.http = &http.Client{Transport: transport}
	})
	return c.http
}

func (c *Client) Limiter() *limiter.Limiter { return c.limiter }

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.HTTP().CloseIdleConnections()
}

const (
	outcomeOK       = "ok"
	outcomeCacheHit = "cache_hit"
	outcomeHTTP     = "http_error"
	outcomeTimeout  = "timeout"
	outcomeNetwork  = "network_error"
	outcomeCanceled = "canceled"
)

// Fetch does an HTTP GET on the given URL and returns the response body.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	if c.cache != nil {
		if bs, err := c.cache.Get(url); err == nil {
			c.record(ctx, url, outcomeCacheHit, 0, start, nil)
			return bs, nil
		}
	}

	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		c.record(ctx, url, outcomeCanceled, 0, start, err)
		return nil, fmt.Errorf("waiting to fetch '%s': %w", url, err)
	}
	defer release()

	metrics.FetchInFlight.Inc()
	defer metrics.FetchInFlight.Dec()

	sent := time.Now()
	bs, status, err := c.get(ctx, url)
	metrics.FetchDuration.Observe(time.Since(sent).Seconds())

	if err != nil {
		var outcome string
		err, outcome = c.classify(ctx, url, err)
		c.record(ctx, url, outcome, status, start, err)
		return nil, err
	}

	c.record(ctx, url, outcomeOK, status, start, nil)
	if c.cache != nil {
		if err := c.cache.Set(url, bs); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("url", url).Msg("page cache write failed")
		}
	}
	return bs, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("error building request for '%s': %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.HTTP().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if err := Error(resp); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp.StatusCode, err
	}

	bs, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return bs, resp.StatusCode, nil
}

// classify maps a failed request onto the package's error types. A done
// caller context wins over everything: the caller gave up, so the result is
// their own cancellation error rather than a timeout.
func (c *Client) classify(ctx context.Context, url string, err error) (error, string) {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return err, outcomeHTTP
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("fetching '%s': %w", url, ctxErr), outcomeCanceled
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{URL: url, Timeout: c.timeout}, outcomeTimeout
	}
	return &NetworkError{URL: url, Err: err}, outcomeNetwork
}

func (c *Client) record(ctx context.Context, url, outcome string, status int, start time.Time, err error) {
	metrics.FetchRequests.WithLabelValues(outcome).Inc()

	log := logging.Ctx(ctx)
	ev := log.Debug()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	if status != 0 {
		ev = ev.Int("status", status)
	}
	ev.Str("url", url).
		Str("outcome", outcome).
		Dur("latency", time.Since(start)).
		Msg("fetch")
}
