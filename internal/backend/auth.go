package backend

import (
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	adminTokenIssuer   = "kpop-ranker-bff"
	adminTokenLifetime = 15 * time.Minute
	adminTokenRefresh  = 12 * time.Minute
)

// tokenSource signs short-lived HS256 service tokens for admin endpoints
// and reuses them until shortly before they expire.
type tokenSource struct {
	key []byte
	now func() time.Time

	mu     sync.RWMutex
	token  string
	expiry time.Time
}

func newTokenSource(signingKey string) *tokenSource {
	if signingKey == "" {
		return nil
	}
	return &tokenSource{key: []byte(signingKey), now: time.Now}
}

// Token returns a valid token, signing a new one when needed
func (s *tokenSource) Token() (string, error) {
	s.mu.RLock()
	if s.token != "" && s.now().Before(s.expiry) {
		token := s.token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if s.token != "" && s.now().Before(s.expiry) {
		return s.token, nil
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    adminTokenIssuer,
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenLifetime)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", &APIError{Operation: "auth", Kind: KindTransport, Message: "failed to sign admin token", Err: err}
	}

	s.token = token
	s.expiry = now.Add(adminTokenRefresh)
	slog.Debug("Admin service token refreshed", "expires_at", now.Add(adminTokenLifetime))

	return token, nil
}
