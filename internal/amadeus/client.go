// Package amadeus is the authenticated gateway to the upstream travel API.
package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dharmasatrya/skysearch/internal/credential"
	"github.com/dharmasatrya/skysearch/internal/ratelimit"
)

// MaxAuthRetries bounds how many times a request is replayed after the
// upstream rejects its credential.
const MaxAuthRetries = 1

// CredentialSource hands out bearer credentials and forgets a rejected one.
type CredentialSource interface {
	Acquire(ctx context.Context) (credential.Credential, error)
	InvalidateIf(token string)
}

type Config struct {
	BaseURL     string
	Credentials CredentialSource
	HTTPClient  *http.Client
	RateLimiter *ratelimit.EndpointLimiter
	Logger      zerolog.Logger
}

type Client struct {
	baseURL     string
	credentials CredentialSource
	httpClient  *http.Client
	rateLimiter *ratelimit.EndpointLimiter
	logger      zerolog.Logger
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		credentials: cfg.Credentials,
		httpClient:  httpClient,
		rateLimiter: cfg.RateLimiter,
		logger:      cfg.Logger,
	}
}

type retryPolicy struct {
	maxRetries  int
	retryable   func(error) bool
	beforeRetry func()
}

// withRetry runs fn and replays it while the policy deems the error
// retryable, at most maxRetries times. The last error is returned.
func withRetry(ctx context.Context, policy retryPolicy, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= policy.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if attempt > 0 && policy.beforeRetry != nil {
			policy.beforeRetry()
		}

		lastErr = fn(ctx)
		if lastErr == nil || !policy.retryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func isUnauthorized(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusUnauthorized
}

// get performs an authenticated GET and decodes the JSON body into out.
// endpoint names the rate limit bucket.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	// Only the token the failed attempt carried is dropped; a late 401 must
	// not evict a credential another request already renewed.
	var used string
	policy := retryPolicy{
		maxRetries: MaxAuthRetries,
		retryable:  isUnauthorized,
		beforeRetry: func() {
			c.logger.Warn().Str("endpoint", endpoint).Msg("upstream rejected credential, re-authenticating")
			c.credentials.InvalidateIf(used)
		},
	}

	return withRetry(ctx, policy, func(ctx context.Context) error {
		cred, err := c.credentials.Acquire(ctx)
		if err != nil {
			return err
		}
		used = cred.Token
		return c.do(ctx, endpoint, target, cred.Token, out)
	})
}

func (c *Client) do(ctx context.Context, endpoint, target, token string, out any) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, endpoint); err != nil {
			return fmt.Errorf("rate limit wait for %s: %w", endpoint, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("upstream request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newRequestError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func newRequestError(resp *http.Response) *RequestError {
	reqErr := &RequestError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return reqErr
	}
	if json.Valid(data) {
		reqErr.Body = json.RawMessage(data)
	}
	return reqErr
}
