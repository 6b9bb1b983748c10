// Package auth implements the OAuth2 JWT-bearer token lifecycle for the
// vendor's REST surface: a signed client assertion exchanged for a
// short-lived bearer token that is cached and refreshed under a single
// in-flight request.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/clearskye/epic-connector/core"
)

const (
	assertionTTL            = 5 * time.Minute
	clientAssertionTypeJWT  = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	grantTypeClientCreds    = "client_credentials"
	defaultTokenCacheTTL    = time.Hour
	defaultHTTPTimeout      = 30 * time.Second
	maxTokenResponseBodyLen = 1 << 20
)

type TokenSourceConfig struct {
	// TokenURL is the OAuth2 token endpoint; it is also the audience of
	// every signed assertion.
	TokenURL string

	// ClientID is issuer and subject of the assertion.
	ClientID string

	// PrivateKey is the base64-encoded PKCS#8 DER of the RSA signing key.
	PrivateKey string

	// CacheTTL caps the cached token lifetime; the effective expiry is
	// the earlier of this and the server-reported expires_in.
	CacheTTL time.Duration

	Client core.HTTPDoer
	Logger core.Logger

	// Now and NewID exist for tests; they default to the UTC clock and
	// random UUIDs.
	Now   func() time.Time
	NewID func() string
}

// TokenSource caches one bearer token and refreshes it when expired. A
// single mutex guards the cache, so concurrent callers wait for the one
// in-flight refresh instead of stampeding the token endpoint.
type TokenSource struct {
	config TokenSourceConfig
	key    *rsa.PrivateKey

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenSource(cfg TokenSourceConfig) (*TokenSource, error) {
	if strings.TrimSpace(cfg.TokenURL) == "" {
		return nil, fmt.Errorf("auth: token url is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("auth: client id is required")
	}
	key, err := parseRSAPrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultTokenCacheTTL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = glog.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)

	return &TokenSource{config: cfg, key: key}, nil
}

// Token returns the cached bearer token, refreshing it first when the
// cache is empty or expired.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if s == nil {
		return "", fmt.Errorf("auth: token source is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.config.Now()
	if s.token != "" && now.Before(s.expiresAt) {
		return s.token, nil
	}

	token, expiresAt, err := s.refresh(ctx, now)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expiresAt = expiresAt
	return token, nil
}

// Invalidate drops the cached token so the next call refreshes.
func (s *TokenSource) Invalidate() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

func (s *TokenSource) refresh(ctx context.Context, now time.Time) (string, time.Time, error) {
	assertion, err := s.buildAssertion(now)
	if err != nil {
		return "", time.Time{}, core.WrapInternalError(err, "auth: build client assertion", nil)
	}

	form := url.Values{}
	form.Set("grant_type", grantTypeClientCreds)
	form.Set("client_assertion_type", clientAssertionTypeJWT)
	form.Set("client_assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, core.WrapInternalError(err, "auth: create token request", nil)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.config.Client.Do(req)
	if err != nil {
		return "", time.Time{}, core.WrapTransportError(err, "auth: execute token request", map[string]any{
			"token_url": s.config.TokenURL,
		})
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxTokenResponseBodyLen))
	if err != nil {
		return "", time.Time{}, core.WrapTransportError(err, "auth: read token response", map[string]any{
			"status_code": res.StatusCode,
		})
	}

	if res.StatusCode != http.StatusOK {
		s.config.Logger.Error("token endpoint rejected assertion",
			"status_code", res.StatusCode,
			"client_id", s.config.ClientID,
		)
		return "", time.Time{}, core.NewCredentialError("auth: token endpoint rejected credentials", map[string]any{
			"status_code": res.StatusCode,
			"client_id":   s.config.ClientID,
		})
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", time.Time{}, core.WrapTransportError(err, "auth: decode token response", map[string]any{
			"status_code": res.StatusCode,
		})
	}

	token, _ := payload["access_token"].(string)
	if strings.TrimSpace(token) == "" {
		return "", time.Time{}, core.NewCredentialError("auth: token response is missing access_token", map[string]any{
			"status_code": res.StatusCode,
			"client_id":   s.config.ClientID,
		})
	}

	lifetime := s.config.CacheTTL
	if serverTTL, ok := readExpiresIn(payload["expires_in"]); ok && serverTTL < lifetime {
		lifetime = serverTTL
	}

	s.config.Logger.Debug("vendor access token refreshed",
		"client_id", s.config.ClientID,
		"expires_at", now.Add(lifetime).Format(time.RFC3339),
	)
	return token, now.Add(lifetime), nil
}

func (s *TokenSource) buildAssertion(now time.Time) (string, error) {
	claims := map[string]any{
		"iss": s.config.ClientID,
		"sub": s.config.ClientID,
		"aud": s.config.TokenURL,
		"jti": s.config.NewID(),
		"iat": now.Unix(),
		"exp": now.Add(assertionTTL).Unix(),
	}
	return buildRS256JWT(s.key, claims)
}

func readExpiresIn(value any) (time.Duration, bool) {
	switch typed := value.(type) {
	case float64:
		if typed <= 0 {
			return 0, false
		}
		return time.Duration(typed) * time.Second, true
	case json.Number:
		seconds, err := typed.Int64()
		if err != nil || seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	case string:
		seconds, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil || seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	default:
		return 0, false
	}
}

var _ core.TokenSource = (*TokenSource)(nil)
