package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/qbay/internal/apperror"
	"github.com/sakif/qbay/internal/model"
	"github.com/sakif/qbay/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB reads and writes the users table through either the pool or a
// transaction.
type UserDB struct {
	q querier
}

const userColumns = `id, username, email, password_hash, shipping_address,
	postal_code, balance, created_at, updated_at`

// Create inserts a new user, filling in ID and timestamps on the caller's struct.
// A duplicate email returns apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.ShippingAddress,
		user.PostalCode,
		user.Balance,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(u.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// FindByEmail returns every user whose email matches exactly. The UNIQUE
// constraint means the slice has at most one element, but the caller gets
// the raw query result and decides what "exactly one" means.
func (u *UserDB) FindByEmail(ctx context.Context, email string) ([]model.User, error) {
	rows, err := u.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding users by email: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Update writes the mutable profile fields back. ID, password hash and
// created_at never change here. An email taken by another user returns
// apperror.ErrConflict.
func (u *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := u.q.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, email = ?, shipping_address = ?, postal_code = ?,
		     balance = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.Email,
		user.ShippingAddress,
		user.PostalCode,
		user.Balance,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email", user.Email)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.ShippingAddress,
		&user.PostalCode,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
