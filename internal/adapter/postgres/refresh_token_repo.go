package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sucrelinda/internal/domain"
)

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
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO refresh_tokens (token, account_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		t.Token, t.AccountID, t.ExpiresAt, t.CreatedAt,
	)
	return err
}

// GetByToken retrieves a refresh token.
func (r *RefreshTokenRepo) GetByToken(ctx context.Context, tok string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT token, account_id, expires_at, created_at FROM refresh_tokens WHERE token = $1",
		tok,
	).Scan(&t.Token, &t.AccountID, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes a refresh token.
func (r *RefreshTokenRepo) Delete(ctx context.Context, tok string) error {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token = $1", tok)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteForAccount revokes every refresh token of an account.
func (r *RefreshTokenRepo) DeleteForAccount(ctx context.Context, accountID string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE account_id = $1", accountID)
	return err
}

// DeleteExpired deletes all expired refresh tokens.
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at < $1", time.Now())
	return err
}
