package dlrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"bbgflow/config"
	"bbgflow/logger"
)

const (
	apiVersion = "2"
	// tokenSafetyMargin keeps a cached token from being used right at the
	// edge of its server-reported lifetime.
	tokenSafetyMargin = 60 * time.Second

	maxErrorBodyBytes = 1 << 20
)

// Token is a bearer token obtained through the client-credentials grant.
// It lives in memory only and is owned by the Session.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the token can still be used at the given time,
// respecting the safety margin.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-tokenSafetyMargin))
}

// Session authenticates requests against the DL REST API. It caches the
// access token, refreshes it on expiry, and performs exactly one
// refresh-and-retry when a request comes back 401. Non-2xx responses are
// returned as *APIError so call sites decide what is fatal.
type Session struct {
	clientID      string
	clientSecret  string
	oauthEndpoint string

	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Log

	mu    sync.Mutex
	token Token
}

// NewSession creates a Session from the configured credentials. No network
// call is made until the first request needs a token.
func NewSession(cfg *config.Config) *Session {
	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateLimit.BurstSize
	if burst <= 0 {
		burst = 1
	}

	return &Session{
		clientID:      cfg.Bloomberg.ClientID,
		clientSecret:  cfg.Bloomberg.ClientSecret,
		oauthEndpoint: cfg.Bloomberg.OAuthEndpoint,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
		limiter:       rate.NewLimiter(rate.Limit(rps), burst),
		log:           logger.GetLogger(),
	}
}

// Token returns the cached token, fetching a fresh one when the cache is
// empty or inside the safety margin.
func (s *Session) Token(ctx context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.Valid(time.Now()) {
		return s.token, nil
	}

	tok, err := s.fetchToken(ctx)
	if err != nil {
		return Token{}, err
	}
	s.token = tok
	return tok, nil
}

// ForceRefresh discards the cached token and fetches a new one.
func (s *Session) ForceRefresh(ctx context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.fetchToken(ctx)
	if err != nil {
		return Token{}, err
	}
	s.token = tok
	return tok, nil
}

func (s *Session) fetchToken(ctx context.Context) (Token, error) {
	log := s.log.WithComponent("session")

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauthEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Token{}, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return Token{}, &AuthError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, &AuthError{Err: fmt.Errorf("token endpoint returned %s: %s", resp.Status, body)}
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &grant); err != nil {
		return Token{}, &AuthError{Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if grant.AccessToken == "" {
		return Token{}, &AuthError{Err: fmt.Errorf("token endpoint returned no access token")}
	}

	lifetime := time.Duration(grant.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	tok := Token{
		AccessToken: grant.AccessToken,
		ExpiresAt:   time.Now().Add(lifetime),
	}

	log.WithFields(logger.Fields{"expires_at": tok.ExpiresAt.Format(time.RFC3339)}).Info("obtained access token")
	return tok, nil
}

// Do issues an authenticated request. The body, when not nil, must be
// replayable, which is why it is taken as a byte slice: a 401 triggers one
// token refresh and one re-send of the original request. A second 401 is
// returned as *AuthError. Any other non-2xx status is returned as
// *APIError with the response body attached.
func (s *Session) Do(ctx context.Context, method, rawURL string, body []byte, extra http.Header) (*http.Response, error) {
	resp, err := s.send(ctx, method, rawURL, body, extra)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drainAndClose(resp)
		s.log.WithComponent("session").Info("access token rejected, refreshing")

		if _, err := s.ForceRefresh(ctx); err != nil {
			return nil, err
		}
		resp, err = s.send(ctx, method, rawURL, body, extra)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			apiErr := newAPIError(resp)
			return nil, &AuthError{Err: apiErr}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp)
	}

	return resp, nil
}

func (s *Session) send(ctx context.Context, method, rawURL string, body []byte, extra http.Header) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	tok, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("api-version", apiVersion)
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	log := s.log.WithComponent("session").WithFields(logger.Fields{
		"method": method,
		"url":    rawURL,
	})
	log.Debug("request being sent to HTTP server")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"status":       resp.Status,
		"x_request_id": resp.Header.Get("x-request-id"),
	}).Info("response received")

	return resp, nil
}

func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	resp.Body.Close()
	return &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		RequestID:  resp.Header.Get("x-request-id"),
		Body:       body,
	}
}

func drainAndClose(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	resp.Body.Close()
}
