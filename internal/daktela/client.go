// Package daktela implements the authenticated gateway to a Daktela REST API
// v6 instance: session lifecycle (login, refresh, expiry), read operations
// with reference-data caching, and the uniform error taxonomy for provider
// failures.
package daktela

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/daktela/daktela-mcp-server/internal/cache"
)

const (
	apiPrefix      = "/api/v6/"
	requestTimeout = 30 * time.Second

	// maxRetries bounds automatic retries of transient provider failures
	// (429 and 5xx) on read operations. Login and refresh are never retried.
	maxRetries = 3
)

// API is the read surface consumed by the tool catalog. Implemented by
// Client; faked in tests.
type API interface {
	List(ctx context.Context, req ListRequest) (*ListResult, error)
	Get(ctx context.Context, endpoint, name string) (Record, error)
	BaseURL() string
}

// Client combines one validated Connection with its session state and the
// shared reference-data cache.
//
// A Client is bound to a single in-flight request: session state is mutated
// in place without synchronization, so instances must never be shared across
// goroutines or reused for another tenant's request. The cache, by contrast,
// is process-wide shared state and is safe to pass to every Client.
type Client struct {
	conn    Connection
	cache   *cache.Reference[ListResult]
	http    *http.Client
	limiter *rate.Limiter
	session session
	now     func() time.Time
}

// Option adjusts Client construction, mainly for tests.
type Option func(*Client)

// WithHTTPClient substitutes the transport, dropping the default timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock substitutes the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a gateway for the connection. refCache may be nil, which
// disables cache consultation entirely. A connection carrying a pre-issued
// access token starts authenticated and unmanaged; a username/password
// connection logs in on first use.
func NewClient(conn Connection, refCache *cache.Reference[ListResult], opts ...Option) *Client {
	c := &Client{
		conn:  conn,
		cache: refCache,
		http:  &http.Client{Timeout: requestTimeout},
		// Modest client-side pacing; the provider rate-limits aggressively
		// and answers bursts with 429.
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		session: session{token: conn.token},
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the normalized instance URL.
func (c *Client) BaseURL() string { return c.conn.url }

// Identity returns the cache-scoping identity of the connection.
func (c *Client) Identity() string { return c.conn.Identity() }

// List performs one paginated read. Filter-free, search-free,
// projection-free pages of allow-listed endpoints are answered from the
// shared cache when possible and stored after a successful fetch.
func (c *Client) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	if err := c.EnsureSession(ctx); err != nil {
		return nil, err
	}

	key := cache.Key{
		Identity: c.conn.Identity(),
		Endpoint: req.Endpoint,
		Skip:     req.Skip,
		Take:     req.Take,
		Sort:     req.Sort,
		SortDir:  req.SortDir,
	}
	cacheable := c.cache != nil && req.Cacheable()

	if cacheable {
		if page, ok := c.cache.Get(key); ok {
			return &page, nil
		}
	}

	resp, err := c.doRetry(ctx, c.endpointURL(req.Endpoint, "")+"?"+c.withToken(req.query()).Encode())
	if err != nil {
		return nil, &APIError{Endpoint: req.Endpoint, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(req.Endpoint, resp)
	}

	var decoded struct {
		Result ListResult `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &APIError{Endpoint: req.Endpoint, Message: fmt.Sprintf("decode response: %v", err)}
	}

	result := decoded.Result
	if result.Records == nil {
		result.Records = []Record{}
	}

	if cacheable {
		c.cache.Put(key, result)
	}

	return &result, nil
}

// Get fetches a single record by name. A 404 from the provider is the "not
// found" signal and yields (nil, nil) rather than an error.
func (c *Client) Get(ctx context.Context, endpoint, name string) (Record, error) {
	if err := c.EnsureSession(ctx); err != nil {
		return nil, err
	}

	resp, err := c.doRetry(ctx, c.endpointURL(endpoint, name)+"?"+c.withToken(url.Values{}).Encode())
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, responseError(endpoint, resp)
	}

	var decoded struct {
		Result Record `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &APIError{Endpoint: endpoint, Message: fmt.Sprintf("decode response: %v", err)}
	}

	if len(decoded.Result) == 0 {
		return nil, nil
	}

	return decoded.Result, nil
}

func (c *Client) endpointURL(endpoint, name string) string {
	if name == "" {
		return c.conn.url + apiPrefix + endpoint + ".json"
	}
	return c.conn.url + apiPrefix + endpoint + "/" + url.PathEscape(name) + ".json"
}

func (c *Client) withToken(q url.Values) url.Values {
	if c.session.token != "" {
		q.Set("accessToken", c.session.token)
	}
	return q
}

// send issues one request with pacing but no retries; used for login and
// refresh, whose failure semantics are handled by the session layer.
func (c *Client) send(ctx context.Context, method, rawURL string, body []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

// doRetry issues a GET with the fixed retry budget for transient provider
// failures, backing off between attempts.
func (c *Client) doRetry(ctx context.Context, rawURL string) (*http.Response, error) {
	backoff := 250 * time.Millisecond

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = c.send(ctx, http.MethodGet, rawURL, nil)
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt == maxRetries {
			break
		}
		if err == nil {
			// drain so the connection can be reused
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if err != nil {
		return nil, err
	}
	// retry budget exhausted: hand the final response to the error mapping
	return resp, nil
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// responseError maps a non-success provider response into the error
// taxonomy, salvaging the provider's error message when the body carries
// one.
func responseError(endpoint string, resp *http.Response) *APIError {
	message := http.StatusText(resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	if err == nil && len(body) > 0 {
		var decoded struct {
			Error any `json:"error"`
		}
		if json.Unmarshal(body, &decoded) == nil && decoded.Error != nil {
			switch e := decoded.Error.(type) {
			case string:
				if e != "" {
					message = e
				}
			case []any:
				if len(e) > 0 {
					if s, ok := e[0].(string); ok && s != "" {
						message = s
					}
				}
			}
		}
	}

	return &APIError{Endpoint: endpoint, Status: resp.StatusCode, Message: message}
}
