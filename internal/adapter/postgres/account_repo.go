package postgres

import (
	"context"
	"database/sql"
	"errors"

	"sucrelinda/internal/domain"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const accountColumns = "id, email, name, password_hash, role, active, created_at, updated_at"

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByEmail retrieves an account by email. The lookup is byte-wise
// case-sensitive, matching the unique index.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return scanAccount(d.sql.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email = $1", email))
}

// GetByID retrieves an account by id.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(d.sql.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1", id))
}

// Create inserts a new account. A duplicate email maps to ErrEmailTaken.
func (d *DB) Create(ctx context.Context, a *domain.Account) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO accounts (id, email, name, password_hash, role, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		a.ID, a.Email, a.Name, a.PasswordHash, a.Role, a.Active, a.CreatedAt, a.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	return err
}

// Update persists the mutable account fields.
func (d *DB) Update(ctx context.Context, a *domain.Account) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE accounts SET name = $2, password_hash = $3, role = $4, active = $5, updated_at = $6 WHERE id = $1",
		a.ID, a.Name, a.PasswordHash, a.Role, a.Active, a.UpdatedAt,
	)
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

// Delete removes an account; dependent refresh tokens go with it via the
// foreign-key cascade.
func (d *DB) Delete(ctx context.Context, id string) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM accounts WHERE id = $1", id)
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

// List returns a page of accounts ordered by creation time.
func (d *DB) List(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY created_at, id LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Account, 0, limit)
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the total number of accounts.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count)
	return count, err
}
