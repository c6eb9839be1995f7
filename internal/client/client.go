// Package client implements the resilient HTTP transport shared by all
// catalog providers: per-attempt timeouts, bounded retry with capped
// exponential backoff, a same-origin cookie jar, and failure classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/subseek/subseek/internal/apperrors"
	"github.com/subseek/subseek/internal/config"
	"github.com/subseek/subseek/internal/metrics"
)

// SleepFunc pauses between retry attempts. Test code substitutes it to
// record backoff durations without waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures a Client. Zero durations fall back to the package
// defaults; Retries is taken as-is (DefaultOptions sets the default of 2,
// meaning up to 3 total attempts).
type Options struct {
	// BaseURL is the catalog origin, e.g. "https://subku.example".
	// Relative request paths resolve against it; the cookie jar is scoped
	// to its origin.
	BaseURL string

	// Catalog is the owning catalog id, attached to every classified error.
	Catalog string

	Timeout     time.Duration
	Retries     int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	UserAgent   string

	// Transport substitutes the HTTP round tripper in tests. When nil,
	// a decompressing wrapper around http.DefaultTransport is used.
	Transport http.RoundTripper

	// Sleep substitutes the inter-attempt pause in tests.
	Sleep SleepFunc
}

// DefaultOptions returns Options with the documented defaults applied.
func DefaultOptions(baseURL, catalog string) Options {
	return Options{
		BaseURL:     baseURL,
		Catalog:     catalog,
		Timeout:     config.DefaultClientTimeout,
		Retries:     config.DefaultRetries,
		BaseBackoff: config.DefaultBaseBackoff,
		MaxBackoff:  config.DefaultMaxBackoff,
		UserAgent:   config.GetUserAgent(),
	}
}

// Response is a fully-read upstream HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client performs logical HTTP exchanges against one catalog origin.
// The embedded cookie jar is private to the instance and not safe for
// concurrent mutation; use one Client per logical session.
type Client struct {
	opts    Options
	base    *url.URL
	httpc   *http.Client
	jar     *cookieJar
	sleep   SleepFunc
}

// New creates a Client for the given options. The base URL must be absolute.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if !base.IsAbs() {
		return nil, errors.New("client: base URL must be absolute")
	}

	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultClientTimeout
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = config.DefaultBaseBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = config.DefaultMaxBackoff
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.GetUserAgent()
	}

	transport := opts.Transport
	if transport == nil {
		transport = newDecompressTransport(http.DefaultTransport)
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	return &Client{
		opts:  opts,
		base:  base,
		httpc: &http.Client{Transport: transport},
		jar:   newCookieJar(),
		sleep: sleep,
	}, nil
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Request performs one logical exchange: it resolves the target, attaches
// same-origin cookies, and retries retriable failures up to the configured
// bound with capped exponential backoff. Every failure surfaces as a
// classified *apperrors.Error.
func (c *Client) Request(ctx context.Context, method, pathOrURL string, headers map[string]string, body []byte) (*Response, error) {
	target, err := c.resolve(pathOrURL)
	if err != nil {
		return nil, apperrors.NewUnknown(c.opts.Catalog, err)
	}

	logger := config.GetLogger()

	var lastErr error
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			logger.Debug().
				Str("catalog", c.opts.Catalog).
				Str("url", target.String()).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Retrying upstream request")
			metrics.UpstreamRetriesTotal.WithLabelValues(c.opts.Catalog).Inc()
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, apperrors.NewTimeout(c.opts.Catalog, target.String(), err)
			}
		}

		resp, err := c.attempt(ctx, method, target, headers, body)
		if err == nil {
			metrics.UpstreamAttemptsTotal.WithLabelValues(c.opts.Catalog, "success").Inc()
			return resp, nil
		}

		lastErr = err
		metrics.UpstreamAttemptsTotal.WithLabelValues(c.opts.Catalog, outcomeLabel(err)).Inc()

		if !apperrors.IsRetriable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// backoff computes the pause before the given 1-based retry attempt:
// min(maxBackoff, baseBackoff << (attempt-1)).
func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.BaseBackoff << (attempt - 1)
	if d > c.opts.MaxBackoff || d <= 0 {
		return c.opts.MaxBackoff
	}
	return d
}

// attempt performs a single HTTP call under the per-attempt timeout.
// The timeout timer is released on every exit path.
func (c *Client) attempt(ctx context.Context, method string, target *url.URL, headers map[string]string, body []byte) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, target.String(), reader)
	if err != nil {
		return nil, apperrors.NewUnknown(c.opts.Catalog, err)
	}

	req.Header.Set("User-Agent", c.opts.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	// Cookies never cross origins.
	if c.sameOrigin(target) {
		if cookie := c.jar.header(); cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(target.String(), err)
	}
	defer resp.Body.Close()

	if c.sameOrigin(target) {
		c.jar.merge(resp.Header.Values("Set-Cookie"))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classifyTransportError(target.String(), err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{
			Status: resp.StatusCode,
			Header: resp.Header,
			Body:   respBody,
		}, nil
	}

	snippet := bodySnippet(respBody)
	class := Classify(resp.StatusCode, snippet)
	msg := "upstream returned non-success status"
	if snippet != "" {
		msg += ": " + snippet
	}
	return nil, apperrors.NewBadResponse(c.opts.Catalog, target.String(), resp.StatusCode, class, msg)
}

// classifyTransportError separates timeouts from other transport failures.
func (c *Client) classifyTransportError(targetURL string, err error) *apperrors.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeout(c.opts.Catalog, targetURL, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewTimeout(c.opts.Catalog, targetURL, err)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.NewTimeout(c.opts.Catalog, targetURL, err)
	}
	return apperrors.NewNetwork(c.opts.Catalog, targetURL, err)
}

// resolve turns a path or absolute URL into the target URL.
func (c *Client) resolve(pathOrURL string) (*url.URL, error) {
	u, err := url.Parse(pathOrURL)
	if err != nil {
		return nil, err
	}
	if u.IsAbs() {
		return u, nil
	}
	return c.base.ResolveReference(u), nil
}

func (c *Client) sameOrigin(u *url.URL) bool {
	return u.Scheme == c.base.Scheme && u.Host == c.base.Host
}

func outcomeLabel(err error) string {
	switch apperrors.KindOf(err) {
	case apperrors.KindTimeout:
		return "timeout"
	case apperrors.KindNetwork:
		return "network"
	case apperrors.KindBadResponse:
		return "bad_response"
	default:
		return "unknown"
	}
}

// snippetLimit bounds how much of a failure body is carried in error detail.
const snippetLimit = 320

// bodySnippet collapses whitespace in the body and truncates it for
// inclusion in classified errors.
func bodySnippet(body []byte) string {
	collapsed := strings.Join(strings.Fields(string(body)), " ")
	if len(collapsed) > snippetLimit {
		collapsed = collapsed[:snippetLimit]
	}
	return collapsed
}

// GetText fetches a path and returns the body as text.
func (c *Client) GetText(ctx context.Context, pathOrURL string, headers map[string]string) (string, error) {
	resp, err := c.Request(ctx, http.MethodGet, pathOrURL, headers, nil)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// GetBytes fetches a path and returns the raw body.
func (c *Client) GetBytes(ctx context.Context, pathOrURL string, headers map[string]string) ([]byte, error) {
	resp, err := c.Request(ctx, http.MethodGet, pathOrURL, headers, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// PostJSON posts a JSON body and decodes the JSON response into out.
// A decode failure classifies as bad-response.
func (c *Client) PostJSON(ctx context.Context, pathOrURL string, reqBody interface{}, out interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return apperrors.NewUnknown(c.opts.Catalog, err)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	resp, err := c.Request(ctx, http.MethodPost, pathOrURL, headers, payload)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		appErr := apperrors.NewBadResponse(c.opts.Catalog, c.Absolute(pathOrURL), resp.Status,
			apperrors.ClassBadResponse, "failed to decode JSON response")
		appErr.Cause = err
		return appErr
	}
	return nil
}

// Absolute renders the resolved target URL, for referer headers and error
// detail; it falls back to the raw input when parsing fails.
func (c *Client) Absolute(pathOrURL string) string {
	u, err := c.resolve(pathOrURL)
	if err != nil {
		return pathOrURL
	}
	return u.String()
}

// Cookie returns the current jar value for name, for session assertions.
func (c *Client) Cookie(name string) (string, bool) {
	return c.jar.get(name)
}
