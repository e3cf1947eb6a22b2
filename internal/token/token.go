// Package token issues and verifies the signed bearer tokens that establish
// a session's identity.
package token

import (
	"errors"
	"fmt"
	"time"

	"sucrelinda/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded token payload: the subject account id plus the
// email and role denormalized at issuance time. The role claim is a
// snapshot; authorization decisions use the live account instead.
type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// Manager signs and verifies access tokens with a single shared HMAC secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// New creates a Manager. An empty secret is refused so the service can
// never silently run with a guessable default.
func New(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret must not be empty")
	}
	return &Manager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue mints a signed token for the account, valid for the configured TTL.
func (m *Manager) Issue(a *domain.Account) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Email: a.Email,
		Role:  a.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature and expiry together and returns the claims.
// Every failure collapses to domain.ErrInvalidToken so callers cannot
// leak the reason to the client. Verification is side-effect free.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
