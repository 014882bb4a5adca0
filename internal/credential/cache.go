// Package credential caches the upstream OAuth2 client-credentials token.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	TokenPath = "/v1/security/oauth2/token"

	// DefaultSafetyMargin renews a token this long before the server says it expires.
	DefaultSafetyMargin = 300 * time.Second
)

var ErrAuthentication = errors.New("authentication failed")

// AuthenticationError reports a failed token exchange. StatusCode is zero
// when the identity endpoint could not be reached.
type AuthenticationError struct {
	StatusCode int
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed: status %d: %v", e.StatusCode, e.Err)
	}
	return "authentication failed: " + e.Err.Error()
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the credential may still be presented at now.
func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && now.Before(c.ExpiresAt)
}

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	SafetyMargin time.Duration
	HTTPClient   *http.Client
	Now          func() time.Time
	Logger       zerolog.Logger
}

type Cache struct {
	baseURL      string
	clientID     string
	clientSecret string
	safetyMargin time.Duration
	httpClient   *http.Client
	now          func() time.Time
	logger       zerolog.Logger

	mu      sync.Mutex
	current *Credential
	group   singleflight.Group
}

func NewCache(cfg Config) *Cache {
	c := &Cache{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		safetyMargin: cfg.SafetyMargin,
		httpClient:   cfg.HTTPClient,
		now:          cfg.Now,
		logger:       cfg.Logger,
	}
	if c.safetyMargin == 0 {
		c.safetyMargin = DefaultSafetyMargin
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Acquire returns the cached credential while it is valid and otherwise
// exchanges the client credentials for a new one. Concurrent callers share a
// single in-flight exchange.
func (c *Cache) Acquire(ctx context.Context) (Credential, error) {
	c.mu.Lock()
	if c.current != nil && c.current.Valid(c.now()) {
		cred := *c.current
		c.mu.Unlock()
		return cred, nil
	}
	c.mu.Unlock()

	// The shared exchange must not die with whichever caller started it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("token", func() (interface{}, error) {
		cred, err := c.fetch(fetchCtx)
		if err != nil {
			return Credential{}, err
		}

		c.mu.Lock()
		c.current = &cred
		c.mu.Unlock()
		return cred, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	}
}

// Invalidate drops the cached credential so the next Acquire re-authenticates.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	c.logger.Debug().Msg("credential invalidated")
}

// InvalidateIf drops the cached credential only while it still carries
// token. A rejection reported after a renewal leaves the newer one in place.
func (c *Cache) InvalidateIf(token string) {
	c.mu.Lock()
	stale := c.current != nil && c.current.Token == token
	if stale {
		c.current = nil
	}
	c.mu.Unlock()

	if stale {
		c.logger.Debug().Msg("credential invalidated")
	}
}

func (c *Cache) fetch(ctx context.Context) (Credential, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+TokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, &AuthenticationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("identity endpoint unreachable")
		return Credential{}, &AuthenticationError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error().Int("status", resp.StatusCode).Msg("identity endpoint rejected credentials")
		return Credential{}, &AuthenticationError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("identity endpoint returned %s", strings.TrimSpace(string(body))),
		}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Credential{}, &AuthenticationError{Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return Credential{}, &AuthenticationError{Err: errors.New("token response carried no access_token")}
	}

	ttl := time.Duration(tr.ExpiresIn) * time.Second
	cred := Credential{
		Token:     tr.AccessToken,
		ExpiresAt: c.now().Add(ttl - c.safetyMargin),
	}

	c.logger.Info().Time("expires_at", cred.ExpiresAt).Msg("acquired upstream credential")
	return cred, nil
}
