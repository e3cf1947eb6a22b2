// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"sucrelinda/internal/domain"
	"sucrelinda/internal/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	// ErrInvalidEmail indicates the submitted email is not a parseable address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrPasswordTooShort indicates the password fails the length policy.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// TokenPair bundles the stateless access token handed to the client and the
// server-stored, revocable refresh token.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// AuthService handles registration, login, token refresh, and resolving
// bearer tokens to live accounts.
type AuthService struct {
	accounts   domain.AccountRepository
	refresh    domain.RefreshTokenRepository
	tokens     *token.Manager
	refreshTTL time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(accounts domain.AccountRepository, refresh domain.RefreshTokenRepository, tokens *token.Manager, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		accounts:   accounts,
		refresh:    refresh,
		tokens:     tokens,
		refreshTTL: refreshTTL,
	}
}

// Register creates an active USER account and returns it with a fresh token
// pair.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.Account, *TokenPair, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, nil, ErrPasswordTooShort
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// Login verifies the credentials and returns the account with a fresh token
// pair. Unknown email and wrong password yield the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Account, *TokenPair, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	// A malformed stored hash also fails the comparison, never panics.
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	if !account.Active {
		return nil, nil, domain.ErrAccountInactive
	}

	pair, err := s.issuePair(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// LoginWithProvisioning logs in an identity already authenticated by an
// external provider, creating an active USER account on first sight.
func (s *AuthService) LoginWithProvisioning(ctx context.Context, email, name string) (*domain.Account, *TokenPair, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		now := time.Now()
		account = &domain.Account{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      name,
			Role:      domain.RoleUser,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		// An empty password hash can never verify, so the account stays
		// SSO-only until a password is set.
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, nil, err
		}
	} else if err != nil {
		return nil, nil, err
	}

	if !account.Active {
		return nil, nil, domain.ErrAccountInactive
	}

	pair, err := s.issuePair(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// Refresh rotates a refresh token: the presented token is deleted and a new
// pair is issued. Unknown or expired tokens yield ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.refresh.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.refresh.Delete(ctx, refreshToken)
		return nil, domain.ErrInvalidToken
	}

	account, err := s.accounts.GetByID(ctx, stored.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if !account.Active {
		return nil, domain.ErrAccountInactive
	}

	if err := s.refresh.Delete(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issuePair(ctx, account)
}

// Logout invalidates a refresh token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.refresh.Delete(ctx, refreshToken)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// Resolve verifies a bearer access token and re-checks the account against
// the store, so a deleted account rejects as invalid and a deactivated one
// as inactive even while the token itself is still cryptographically valid.
func (s *AuthService) Resolve(ctx context.Context, bearer string) (*domain.Account, error) {
	claims, err := s.tokens.Verify(bearer)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if !account.Active {
		return nil, domain.ErrAccountInactive
	}
	return account, nil
}

// BootstrapAdmin ensures an ADMIN account with the given credentials exists.
// It is a no-op when the email is already registered.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password string) error {
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now()
	return s.accounts.Create(ctx, &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *AuthService) issuePair(ctx context.Context, account *domain.Account) (*TokenPair, error) {
	access, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}

	refresh, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.refresh.Create(ctx, &domain.RefreshToken{
		Token:     refresh,
		AccountID: account.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
