package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/proxy"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Default client settings.
const (
	// DefaultUserAgent identifies indextree in server logs.
	DefaultUserAgent = "indextree/1.0 (+https://github.com/nao1215/indextree)"

	// DefaultInitialInterval is the first backoff delay when retries are enabled.
	DefaultInitialInterval = 500 * time.Millisecond

	// DefaultMaxInterval caps the backoff delay between retries.
	DefaultMaxInterval = 5 * time.Second
)

// Client fetches listing pages.
type Client struct {
	// httpClient performs the requests.
	httpClient *http.Client

	// timeout applies to the whole request. Zero means no timeout.
	timeout time.Duration

	// proxyAddress is an optional SOCKS5 proxy in "host:port" form.
	proxyAddress string

	// userAgent is sent with every request.
	userAgent string

	// headers are extra request headers.
	headers map[string]string

	// maxBodySize limits the body size in bytes. Zero means unlimited.
	maxBodySize int64

	// retries is the number of additional attempts after a failure.
	retries uint64

	// initialInterval and maxInterval shape the exponential backoff.
	initialInterval time.Duration
	maxInterval     time.Duration

	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
// Proxy and timeout options are ignored when a client is supplied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithProxy routes requests through the SOCKS5 proxy at address.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHeaders adds request headers.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithMaxBodySize limits the response body size. Zero means unlimited.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithRetries enables up to n retries with exponential backoff.
// Only connection errors and 5xx responses are retried.
func WithRetries(n uint64) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithBackoff sets the backoff intervals used between retries.
func WithBackoff(initial, maxInterval time.Duration) Option {
	return func(c *Client) {
		c.initialInterval = initial
		c.maxInterval = maxInterval
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. It fails only when the proxy address is invalid.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		userAgent:       DefaultUserAgent,
		headers:         make(map[string]string),
		initialInterval: DefaultInitialInterval,
		maxInterval:     DefaultMaxInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
		if c.proxyAddress != "" {
			dialer, err := socksDialer(c.proxyAddress)
			if err != nil {
				return nil, err
			}
			transport.Proxy = nil
			transport.DialContext = dialer.DialContext
		}
		c.httpClient = &http.Client{
			Transport: transport,
			Timeout:   c.timeout,
		}
	}

	return c, nil
}

// socksDialer builds a SOCKS5 dialer for address.
func socksDialer(address string) (proxy.ContextDialer, error) {
	if !IsValidProxyAddress(address) {
		return nil, ErrInvalidProxyAddress
	}

	dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	cd, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}
	return cd, nil
}

// IsValidProxyAddress reports whether address is a "host:port" pair with
// a non-empty host and a port in 1..65535.
func IsValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// Fetch returns the body of url decoded as UTF-8 text.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	if c.retries == 0 {
		return c.fetchOnce(ctx, url)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = c.maxInterval
	bo := backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)

	var body string
	attempt := 0
	op := func() error {
		attempt++
		var err error
		body, err = c.fetchOnce(ctx, url)
		if err == nil {
			return nil
		}
		if !isRetryable(ctx, err) {
			return backoff.Permanent(err)
		}
		c.logger.Debug("fetch failed, retrying", "url", url, "attempt", attempt, "error", err)
		return err
	}

	if err := backoff.Retry(op, bo); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return "", perm.Err
		}
		return "", err
	}
	return body, nil
}

// isRetryable reports whether err is worth another attempt.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	if errors.Is(err, ErrInvalidUTF8) || errors.Is(err, ErrBodyTooLarge) {
		return false
	}
	return true
}

// fetchOnce performs a single GET request.
func (c *Client) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	var reader io.Reader = resp.Body
	if c.maxBodySize > 0 {
		reader = io.LimitReader(resp.Body, c.maxBodySize+1)
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	if c.maxBodySize > 0 && int64(len(raw)) > c.maxBodySize {
		return "", fmt.Errorf("%s: %w (%d bytes)", url, ErrBodyTooLarge, c.maxBodySize)
	}

	text, err := DecodeUTF8(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", url, err)
	}

	c.logger.Debug("fetched listing", "url", url, "status", resp.StatusCode, "bytes", len(raw))
	return text, nil
}

// DecodeUTF8 validates raw as UTF-8 and returns it as a string.
func DecodeUTF8(raw []byte) (string, error) {
	if _, _, err := transform.Bytes(encoding.UTF8Validator, raw); err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return "", ErrInvalidUTF8
		}
		return "", err
	}
	return string(raw), nil
}
