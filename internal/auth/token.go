package auth

import (
	"sync"
	"time"
)

// Token holds a bearer token as returned by the token endpoint, plus the
// renewal deadline computed client-side.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`

	// RenewAt is when the token should be renewed. It is set to the expiry
	// time minus a safety margin, so renewal happens before the token
	// actually stops working.
	RenewAt time.Time `json:"-"`
}

// Valid reports whether the token can still be used without renewal.
func (t *Token) Valid() bool {
	return t.AccessToken != "" && time.Now().Before(t.RenewAt)
}

// tokenStore guards the cached token. Renewal may be triggered from any
// caller goroutine; the store guarantees readers never observe a
// half-updated token/deadline pair.
type tokenStore struct {
	mu    sync.RWMutex
	token *Token
}

func (s *tokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

func (s *tokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}
