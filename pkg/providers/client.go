package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/errors"
	"github.com/finbridge/investor-agent/pkg/httputil"
)

// httpTimeout is the per-request timeout for provider calls. Generous on
// purpose: a timed-out request is classified as transient and retried.
const httpTimeout = 30 * time.Second

// BrowserHeaders are sent to public quote sites that reject the default Go
// user agent.
var BrowserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Client provides shared HTTP functionality for all provider API clients.
// It handles caching, retry logic, transient-fault classification, and
// common request headers.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	namespace string
	ttl       time.Duration
	headers   map[string]string
}

// NewClient creates a Client with the given cache backend and default headers.
// The namespace prefixes every cache key so providers never collide.
// Pass a [cache.NullCache] to disable caching and nil headers if no default
// headers are needed.
func NewClient(backend cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Client{
		http:      NewHTTPClient(),
		cache:     backend,
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
	}
}

// NewHTTPClient creates an HTTP client with the standard provider timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// Cached retrieves a value from cache or executes fetch under the retry
// policy and caches the result. If refresh is true the cache is bypassed.
// The fetch function should populate v; on success, v is stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	fullKey := cache.Key(c.namespace, key)
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, fullKey); ok {
			if err := json.Unmarshal(data, v); err == nil {
				return nil
			}
			// Corrupt entry: drop it and fall through to a fresh fetch.
			_ = c.cache.Delete(ctx, fullKey)
		}
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, fullKey, data, c.ttl)
	}
	return nil
}

// Do executes fetch under the standard retry policy without caching.
// Used for brokerage operations where account data must always be fresh.
func (c *Client) Do(ctx context.Context, fetch func() error) error {
	return httputil.RetryWithBackoff(ctx, fetch)
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers. Transport failures come back wrapped
// as retryable so the surrounding retry policy can act on them.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with
// defaults. Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, http.MethodGet, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeUpstreamData, err, "malformed response from %s", url)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build request for %s", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection failures and client-side timeouts are transient.
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeUpstream, err, "request to %s failed", url))
	}

	if err := ClassifyStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// ClassifyStatus maps an HTTP status code to the error taxonomy.
// 408, 429, and 5xx are marked retryable; auth and not-found failures are
// permanent. A 2xx status returns nil.
func ClassifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUpstreamAuth, "authentication rejected (status %d)", code)
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "resource not found")
	case code == http.StatusRequestTimeout:
		return httputil.Retryable(errors.New(errors.ErrCodeTimeout, "upstream timed out (status %d)", code))
	case code == http.StatusTooManyRequests:
		return httputil.Retryable(errors.New(errors.ErrCodeRateLimited, "rate limited (status %d)", code))
	case code >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeUpstream, "upstream error (status %d)", code))
	default:
		return errors.New(errors.ErrCodeUpstream, "unexpected status %d", code)
	}
}

// ExpectKey converts a missing required response field into the uniform
// upstream-data error. Call it with the pointer-typed field that carries an
// operation's expected top-level key; a nil pointer means the provider
// returned a null body or dropped the key, which is treated as a hard
// failure and never returned to the caller.
func ExpectKey[T any](field *T, provider, key string) error {
	if field == nil {
		return errors.New(errors.ErrCodeUpstreamData, "%s response missing %q", provider, key)
	}
	return nil
}
