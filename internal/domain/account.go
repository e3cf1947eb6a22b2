// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"time"
)

// Role is the permission tier attached to an account.
type Role string

const (
	// RoleUser is the default tier for registered accounts.
	RoleUser Role = "USER"
	// RoleAdmin grants access to account administration endpoints.
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account represents a registered principal. The password hash is never
// serialized in any response.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken is a server-stored, revocable credential used to mint new
// access tokens. Unlike access tokens it can be invalidated before expiry.
type RefreshToken struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// that responses never disclose whether the email exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAccountInactive indicates a valid identity whose account has been
	// deactivated by an administrator.
	ErrAccountInactive = errors.New("account is deactivated")
	// ErrInvalidToken is the single outcome for every token failure mode:
	// bad signature, malformed payload, or expiry.
	ErrInvalidToken = errors.New("invalid token")
)

// AccountRepository defines the port for account persistence operations.
// Lookups return ErrNotFound when no row matches.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]Account, error)
	Count(ctx context.Context) (int, error)
}

// RefreshTokenRepository defines the port for refresh-token persistence.
type RefreshTokenRepository interface {
	Create(ctx context.Context, t *RefreshToken) error
	GetByToken(ctx context.Context, tok string) (*RefreshToken, error)
	Delete(ctx context.Context, tok string) error
	DeleteForAccount(ctx context.Context, accountID string) error
	DeleteExpired(ctx context.Context) error
}
