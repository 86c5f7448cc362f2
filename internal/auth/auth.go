// Package auth issues and verifies session tokens. Identity verification
// itself is delegated to the hosted identity provider; this package only
// mints HS256 tokens for verified users and guests.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// Session describes the authenticated caller of one request.
type Session struct {
	UserID string
	Name   string
	Guest  bool
}

type sessionClaims struct {
	Name  string `json:"name,omitempty"`
	Guest bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// Manager mints and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a session manager. The secret must be non-empty.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue mints a token for a verified user.
func (m *Manager) Issue(userID, name string) (string, error) {
	return m.sign(userID, name, false)
}

// IssueGuest mints a token for an anonymous session. The guest id is
// random; guests own no stored secrets and no persisted history.
func (m *Manager) IssueGuest() (string, *Session, error) {
	userID := "guest_" + core.GenerateID()
	token, err := m.sign(userID, "Guest", true)
	if err != nil {
		return "", nil, err
	}
	return token, &Session{UserID: userID, Name: "Guest", Guest: true}, nil
}

func (m *Manager) sign(userID, name string, guest bool) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Name:  name,
		Guest: guest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its session.
func (m *Manager) Verify(tokenStr string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	return &Session{
		UserID: claims.Subject,
		Name:   claims.Name,
		Guest:  claims.Guest,
	}, nil
}
