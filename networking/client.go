package networking

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rafabd1/LeakHound/utils"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRetries   = 2
	DefaultRetryDelay   = 500 * time.Millisecond
	DefaultRateLimit    = 5.0
	DefaultBurst        = 5
	DefaultMaxBodyBytes = 5 * 1024 * 1024
	DefaultBlockPeriod  = 30 * time.Second
	DefaultUserAgent    = "LeakHound/1.0 (+https://github.com/rafabd1/LeakHound)"
)

// Response is a fetched resource. Body is already read and capped.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        string
	Duration    time.Duration
}

// Fetcher retrieves one resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

type ClientConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	RateLimit    float64 // requests per second per host
	Burst        int
	MaxBodyBytes int64
	UserAgent    string
	Headers      map[string]string
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// Client is an HTTP Fetcher with a token bucket per host, retries for
// transient failures and host blocking on rate limit or WAF responses.
type Client struct {
	httpClient *http.Client
	config     ClientConfig
	domains    *DomainManager
	logger     zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithDomainManager(dm *DomainManager) ClientOption {
	return func(c *Client) { c.domains = dm }
}

func WithClientLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = l.With().Str("component", "networking").Logger() }
}

func NewClient(config ClientConfig, opts ...ClientOption) *Client {
	config = config.withDefaults()
	c := &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config:   config,
		logger:   zerolog.Nop(),
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.domains == nil {
		c.domains = NewDomainManager()
	}
	return c
}

func (c *Client) Domains() *DomainManager {
	return c.domains
}

func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(c.config.RateLimit), c.config.Burst)
		c.limiters[host] = l
	}
	return l
}

/*
   Fetches a URL, retrying network errors and 5xx responses with a linear
   backoff. 429 and 403 block the host for DefaultBlockPeriod and are not
   retried.
*/
func (c *Client) Fetch(ctx context.Context, target string) (*Response, error) {
	host, err := utils.ExtractDomain(target)
	if err != nil {
		return nil, utils.NewError(utils.NetworkError, "invalid URL "+target, err)
	}
	if c.domains.IsBlocked(host) {
		return nil, utils.NewError(utils.RateLimitError, "host temporarily blocked: "+host, nil)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.limiter(host).Wait(ctx); err != nil {
			return nil, utils.NewError(utils.NetworkError, "rate limiter wait", err)
		}

		start := time.Now()
		resp, err := c.do(ctx, target)
		elapsed := time.Since(start)
		if err == nil {
			resp.Duration = elapsed
			c.domains.RecordURLProcessed(host, true, elapsed)
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) || attempt == c.config.MaxRetries {
			break
		}
		c.logger.Debug().Err(err).Str("url", target).Int("attempt", attempt+1).Msg("retrying fetch")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.config.RetryDelay * time.Duration(attempt+1)):
		}
	}

	c.domains.RecordURLProcessed(host, false, 0)
	if utils.IsRateLimitError(lastErr) || utils.IsWAFError(lastErr) {
		c.domains.AddBlockedDomain(host, DefaultBlockPeriod)
		c.logger.Warn().Str("host", host).Err(lastErr).Msg("blocking host")
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, utils.NewError(utils.NetworkError, "failed to create request", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/javascript,*/*;q=0.8")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewError(utils.NetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	if appErr := statusError(resp.StatusCode); appErr != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, appErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	if err != nil {
		return nil, utils.NewError(utils.NetworkError, "failed to read body", err)
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}

func statusError(code int) *utils.AppError {
	var appErr *utils.AppError
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		appErr = utils.NewError(utils.RateLimitError, "rate limited", nil)
	case code == http.StatusForbidden:
		appErr = utils.NewError(utils.WAFError, "forbidden", nil)
	case code >= 500:
		appErr = utils.NewError(utils.TemporaryError, fmt.Sprintf("server error %d", code), nil)
	default:
		appErr = utils.NewError(utils.NetworkError, fmt.Sprintf("unexpected status %d", code), nil)
	}
	appErr.StatusCode = code
	return appErr
}

func retryable(err error) bool {
	if utils.IsRateLimitError(err) || utils.IsWAFError(err) || utils.IsNotFoundError(err) {
		return false
	}
	return utils.IsTemporaryError(err) || utils.IsTimeoutError(err) || utils.IsNetworkStatusless(err)
}
