// Package memory implements an in-memory repository for development and
// testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"sucrelinda/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	tokens   map[string]*domain.RefreshToken
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		accounts: make(map[string]*domain.Account),
		tokens:   make(map[string]*domain.RefreshToken),
	}
}

// Ensure interfaces are met.
var _ domain.AccountRepository = (*DB)(nil)
var _ domain.RefreshTokenRepository = (*RefreshTokenRepo)(nil)

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

// --- AccountRepository ---

// GetByEmail retrieves an account by email (byte-wise comparison).
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByID retrieves an account by id.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	a, ok := db.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAccount(a), nil
}

// Create inserts a new account.
func (db *DB) Create(ctx context.Context, a *domain.Account) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.accounts {
		if existing.Email == a.Email {
			return domain.ErrEmailTaken
		}
	}
	db.accounts[a.ID] = cloneAccount(a)
	return nil
}

// Update replaces a stored account.
func (db *DB) Update(ctx context.Context, a *domain.Account) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.accounts[a.ID]; !ok {
		return domain.ErrNotFound
	}
	db.accounts[a.ID] = cloneAccount(a)
	return nil
}

// Delete removes an account and cascades to its refresh tokens, mirroring
// the foreign-key behavior of the PostgreSQL adapter.
func (db *DB) Delete(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(db.accounts, id)
	for tok, t := range db.tokens {
		if t.AccountID == id {
			delete(db.tokens, tok)
		}
	}
	return nil
}

// List returns a page of accounts ordered by creation time.
func (db *DB) List(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	all := make([]domain.Account, 0, len(db.accounts))
	for _, a := range db.accounts {
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []domain.Account{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Count returns the total number of accounts.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.accounts), nil
}

// --- RefreshTokenRepository ---

// RefreshTokenRepo implements refresh-token repository operations on DB.
type RefreshTokenRepo struct {
	db *DB
}

// NewRefreshTokenRepo wraps a DB as a RefreshTokenRepository.
func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

// Create stores a new refresh token.
func (r *RefreshTokenRepo) Create(ctx context.Context, t *domain.RefreshToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c := *t
	r.db.tokens[t.Token] = &c
	return nil
}

// GetByToken retrieves a refresh token.
func (r *RefreshTokenRepo) GetByToken(ctx context.Context, tok string) (*domain.RefreshToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tokens[tok]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *t
	return &c, nil
}

// Delete removes a refresh token.
func (r *RefreshTokenRepo) Delete(ctx context.Context, tok string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tokens[tok]; !ok {
		return domain.ErrNotFound
	}
	delete(r.db.tokens, tok)
	return nil
}

// DeleteForAccount revokes every refresh token of an account.
func (r *RefreshTokenRepo) DeleteForAccount(ctx context.Context, accountID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for tok, t := range r.db.tokens {
		if t.AccountID == accountID {
			delete(r.db.tokens, tok)
		}
	}
	return nil
}

// DeleteExpired deletes all expired refresh tokens.
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now()
	for tok, t := range r.db.tokens {
		if t.ExpiresAt.Before(now) {
			delete(r.db.tokens, tok)
		}
	}
	return nil
}
