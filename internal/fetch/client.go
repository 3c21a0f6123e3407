package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// Default client settings.
const (
	// DefaultUserAgent identifies the tool to the target.
	DefaultUserAgent = "stacksniffer/1.0 (+https://github.com/nao1215/stacksniffer)"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxBodySize limits how much of a page body is read.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024 // 5 MiB

	// DefaultMaxRedirects is the number of redirects followed for the main page.
	DefaultMaxRedirects = 10

	// DefaultProbeConcurrency is the number of probes in flight at once.
	DefaultProbeConcurrency = 4

	// DefaultRateLimit is the maximum number of requests per second.
	DefaultRateLimit = 10.0
)

// acceptHeader is sent with every request.
const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// Client fetches pages and probes. A Client is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	probeClient *http.Client

	userAgent        string
	timeout          time.Duration
	maxBodySize      int64
	maxRedirects     int
	probeConcurrency int
	rateLimit        float64
	headOnly         bool

	proxyAddress string
	headers      map[string]string
	cookie       string
	transport    http.RoundTripper

	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per page.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithMaxRedirects sets how many redirects the main page request follows.
// Zero disables redirect following.
func WithMaxRedirects(n int) Option {
	return func(c *Client) {
		c.maxRedirects = n
	}
}

// WithProbeConcurrency sets how many probes run in parallel.
func WithProbeConcurrency(n int) Option {
	return func(c *Client) {
		c.probeConcurrency = n
	}
}

// WithRateLimit sets the maximum number of requests per second across the
// page and its probes. Zero or a negative value disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.rateLimit = rps
	}
}

// WithHeadOnly makes Fetch issue HEAD instead of GET. Only headers are
// collected in this mode.
func WithHeadOnly(headOnly bool) Option {
	return func(c *Client) {
		c.headOnly = headOnly
	}
}

// WithProxy routes all traffic through the SOCKS5 proxy at address
// ("host:port"), e.g. a local Tor daemon on 127.0.0.1:9050.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithCookie adds a raw cookie string (e.g. "session=abc") to every request.
func WithCookie(cookie string) Option {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithTransport replaces the base transport. It is mainly useful in tests;
// WithProxy is ignored when a transport is set.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithLogger sets the logger used for probe diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. It validates the proxy address but does not
// connect to anything.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		userAgent:        DefaultUserAgent,
		timeout:          DefaultTimeout,
		maxBodySize:      DefaultMaxBodySize,
		maxRedirects:     DefaultMaxRedirects,
		probeConcurrency: DefaultProbeConcurrency,
		rateLimit:        DefaultRateLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.probeConcurrency < 1 {
		c.probeConcurrency = 1
	}

	limit := rate.Inf
	if c.rateLimit > 0 {
		limit = rate.Limit(c.rateLimit)
	}
	c.limiter = rate.NewLimiter(limit, 1)

	base := c.transport
	if base == nil {
		t, err := c.newTransport()
		if err != nil {
			return nil, err
		}
		base = t
	}
	if c.cookie != "" || len(c.headers) > 0 {
		base = &headerInjectingTransport{base: base, cookie: c.cookie, headers: c.headers}
	}

	// cookiejar.New only fails with invalid options.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck

	maxRedirects := c.maxRedirects
	c.httpClient = &http.Client{
		Transport: base,
		Timeout:   c.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	c.probeClient = &http.Client{
		Transport: base,
		Timeout:   c.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return c, nil
}

// newTransport builds the base transport, dialing through the SOCKS5 proxy
// when one is configured.
func (c *Client) newTransport() (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	t.MaxIdleConnsPerHost = c.probeConcurrency

	if c.proxyAddress == "" {
		return t, nil
	}
	if !IsValidProxyAddress(c.proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	dialer, err := proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	t.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		t.DialContext = cd.DialContext
	} else {
		t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return t, nil
}

// ProxyAddress returns the configured proxy address, or "".
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// IsValidProxyAddress reports whether address is in "host:port" form with a
// port between 1 and 65535.
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

// headerInjectingTransport adds configured headers and cookies to every
// request, including redirects and probes.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}
