// services/session.go - Remote session tracking
package services

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession means a flow that needs a signed-in user ran without one.
var ErrNoSession = errors.New("no active user session")

// Session holds the bearer token the UI handed to the agent after the user
// signed in against the CivicReport service. The agent attaches it to every
// remote call and refuses to drain without it.
type Session struct {
	mu        sync.RWMutex
	token     string
	userID    string
	expiresAt time.Time
}

// NewSession creates an empty session holder.
func NewSession() *Session {
	return &Session{}
}

// Set validates and stores a session token. Tokens are HMAC-signed by the
// service; the shared secret comes from CIVIC_JWT_SECRET.
func (s *Session) Set(tokenString string) error {
	secret := os.Getenv("CIVIC_JWT_SECRET")
	if secret == "" {
		return errors.New("CIVIC_JWT_SECRET not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return errors.New("invalid or expired session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("invalid token claims")
	}

	var expiresAt time.Time
	if exp, ok := claims["exp"].(float64); ok {
		expiresAt = time.Unix(int64(exp), 0)
		if expiresAt.Before(time.Now()) {
			return errors.New("session token expired")
		}
	}

	userID, _ := claims["user_id"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tokenString
	s.userID = userID
	s.expiresAt = expiresAt
	return nil
}

// Clear drops the session, e.g. on sign-out.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userID = ""
	s.expiresAt = time.Time{}
}

// Token returns the current bearer token, empty when no valid session exists.
// Usable directly as a remote.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.expiresAt.IsZero() && s.expiresAt.Before(time.Now()) {
		return ""
	}
	return s.token
}

// UserID returns the session user's id, empty without a session.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Active reports whether a non-expired session exists.
func (s *Session) Active() bool {
	return s.Token() != ""
}
