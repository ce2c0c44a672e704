package callcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Request is one outbound POST.
type Request struct {
	Headers  map[string]string
	Endpoint string
	Payload  []byte
}

// Key returns the cache key: the endpoint followed by the exact payload bytes.
// Semantically equal payloads serialized differently get different keys.
func (r Request) Key() string {
	return r.Endpoint + string(r.Payload)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint   string
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Caller performs memoized calls against a Store.
type Caller struct {
	store      *Store
	httpClient *http.Client
	limiter    Limiter
	logger     *slog.Logger
}

// Option configures a Caller.
type Option func(*Caller)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(caller *Caller) { caller.httpClient = c }
}

// WithLimiter gates network calls through l.
func WithLimiter(l Limiter) Option {
	return func(caller *Caller) { caller.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(caller *Caller) { caller.logger = l }
}

// NewCaller creates a Caller over store.
func NewCaller(store *Store, opts ...Option) *Caller {
	c := &Caller{
		store: store,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient exposes the underlying client for non-memoized requests such as
// job polling.
func (c *Caller) HTTPClient() *http.Client {
	return c.httpClient
}

// Store returns the backing cache.
func (c *Caller) Store() *Store {
	return c.store
}

// Call POSTs req.Payload to req.Endpoint unless an identical call is cached.
// With useCache false the lookup is skipped but a successful result is still
// stored.
func (c *Caller) Call(ctx context.Context, req Request, useCache bool) ([]byte, error) {
	return c.Memoize(ctx, req.Key(), useCache, func(ctx context.Context) ([]byte, error) {
		return c.post(ctx, req)
	})
}

// Memoize returns the cached value for key or runs fetch and stores its result.
// Errors from fetch are returned unchanged and never cached. A failure to
// persist the cache is logged; the fresh result is still returned.
func (c *Caller) Memoize(ctx context.Context, key string, useCache bool, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if useCache {
		if cached, ok := c.store.Get(key); ok {
			return cached, nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.store.Put(key, body); err != nil {
		c.logger.Error("failed to persist cache", "error", err)
	}

	return body, nil
}

func (c *Caller) post(ctx context.Context, r Request) ([]byte, error) {
	reqID := uuid.NewString()
	logger := c.logger.With("req_id", reqID, "endpoint", r.Endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(r.Payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	logger.Debug("http.request", "bytes", len(r.Payload))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("http.error", "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug("http.response",
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: r.Endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
