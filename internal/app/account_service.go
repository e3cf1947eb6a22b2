package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sucrelinda/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ErrOwnAccount indicates an administrator tried to change the role of,
// deactivate, or delete their own account.
var ErrOwnAccount = errors.New("cannot modify own account")

// AccountService covers profile edits and the administrative account
// lifecycle: listing, role changes, deactivation, and deletion.
type AccountService struct {
	accounts domain.AccountRepository
	refresh  domain.RefreshTokenRepository
}

// NewAccountService creates a new account management service.
func NewAccountService(accounts domain.AccountRepository, refresh domain.RefreshTokenRepository) *AccountService {
	return &AccountService{accounts: accounts, refresh: refresh}
}

// Get returns the account with the given id.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// UpdateProfile changes the display name of the account.
func (s *AccountService) UpdateProfile(ctx context.Context, id, name string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	account.Name = strings.TrimSpace(name)
	account.UpdatedAt = time.Now()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// List returns a page of accounts plus the total count. Limit is clamped to
// [1, maxListLimit] and a negative offset is treated as zero.
func (s *AccountService) List(ctx context.Context, limit, offset int) ([]domain.Account, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.accounts.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// SetRole changes an account's role. Administrators cannot change their own
// role, so at least one admin always remains.
func (s *AccountService) SetRole(ctx context.Context, actorID, id string, role domain.Role) (*domain.Account, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if actorID == id {
		return nil, ErrOwnAccount
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	account.Role = role
	account.UpdatedAt = time.Now()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// SetActive activates or deactivates an account. Deactivation also revokes
// the account's refresh tokens, so it can no longer mint access tokens; its
// outstanding access tokens are rejected by the live re-check in the guard.
func (s *AccountService) SetActive(ctx context.Context, actorID, id string, active bool) (*domain.Account, error) {
	if actorID == id && !active {
		return nil, ErrOwnAccount
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	account.Active = active
	account.UpdatedAt = time.Now()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	if !active {
		if err := s.refresh.DeleteForAccount(ctx, id); err != nil {
			return nil, err
		}
	}
	return account, nil
}

// Delete removes an account and its refresh tokens.
func (s *AccountService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrOwnAccount
	}
	if err := s.refresh.DeleteForAccount(ctx, id); err != nil {
		return err
	}
	return s.accounts.Delete(ctx, id)
}
