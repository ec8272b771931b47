package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nyckel/nyckel-go/internal/constants"
	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// TokenManager provides bearer tokens for API requests.
type TokenManager interface {
	// GetToken returns a valid access token, renewing it first if the
	// cached one is past its renewal deadline.
	GetToken(ctx context.Context) (string, error)
	// RefreshToken forces a renewal regardless of the cached deadline.
	RefreshToken(ctx context.Context) error
	// SetToken manually installs a token, mostly for tests.
	SetToken(token string, renewAt time.Time)
}

// OAuth2Config holds the client-credentials grant parameters.
type OAuth2Config struct {
	// TokenURL is the full token endpoint URL.
	TokenURL string
	// ClientID and ClientSecret are the credentials issued by the console.
	ClientID     string
	ClientSecret string
	// RenewMargin is subtracted from expires_in when computing the renewal
	// deadline. Defaults to 10 minutes.
	RenewMargin time.Duration
	// HTTPClient is used for the token request. Defaults to a plain client.
	HTTPClient *http.Client
}

// OAuth2TokenManager renews bearer tokens using the client_credentials
// grant. Renewal is serialized with a mutex so concurrent callers never
// trigger duplicate token requests.
type OAuth2TokenManager struct {
	config  *OAuth2Config
	store   tokenStore
	renewMu sync.Mutex
}

// NewOAuth2TokenManager creates a token manager.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	if config.RenewMargin == 0 {
		config.RenewMargin = constants.TokenRenewMargin
	}

	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &OAuth2TokenManager{config: config}
}

// NewTokenManagerForServer creates a token manager pointed at the standard
// token endpoint of the given API host.
func NewTokenManagerForServer(serverURL, clientID, clientSecret string) *OAuth2TokenManager {
	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     strings.TrimSuffix(serverURL, "/") + "/connect/token",
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// GetToken implements TokenManager.GetToken. The renewed token is taken from
// renew's return value, not re-read from the store, so a concurrent
// RefreshToken clearing the store cannot be observed here.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token != nil && token.Valid() {
		return token.AccessToken, nil
	}

	fresh, err := m.renew(ctx)
	if err != nil {
		return "", err
	}

	return fresh.AccessToken, nil
}

// RefreshToken implements TokenManager.RefreshToken.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.store.Set(nil)

	_, err := m.renew(ctx)

	return err
}

// SetToken implements TokenManager.SetToken.
func (m *OAuth2TokenManager) SetToken(token string, renewAt time.Time) {
	m.store.Set(&Token{
		AccessToken: token,
		TokenType:   "bearer",
		RenewAt:     renewAt,
	})
}

// renew fetches a fresh token unless another caller already did so while we
// were waiting for the lock, and returns the token that is now current.
func (m *OAuth2TokenManager) renew(ctx context.Context) (*Token, error) {
	m.renewMu.Lock()
	defer m.renewMu.Unlock()

	token := m.store.Get()
	if token != nil && token.Valid() {
		return token, nil
	}

	if m.config.ClientID == "" || m.config.ClientSecret == "" {
		return nil, nyckel.ErrCredentialsRequired
	}

	form := url.Values{
		"client_id":     []string{m.config.ClientID},
		"client_secret": []string{m.config.ClientSecret},
		"grant_type":    []string{"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to token endpoint: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d: %s",
			nyckel.ErrAuthenticationFailed, m.config.TokenURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var fresh Token

	err = json.Unmarshal(body, &fresh)
	if err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}

	fresh.RenewAt = time.Now().Add(time.Duration(fresh.ExpiresIn)*time.Second - m.config.RenewMargin)
	m.store.Set(&fresh)

	return &fresh, nil
}
