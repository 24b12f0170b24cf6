package postgres

import (
	"context"
	"errors"

	"noteflow/internal/store"

	"github.com/lib/pq"
)

// CreateUser inserts a new user row.
// Email uniqueness is enforced by the store's unique constraint.
func (s *Store) CreateUser(ctx context.Context, user *store.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return &store.ConflictError{Field: "email", Value: user.Email}
		}
		return &store.StoreError{Op: "create user", Err: err}
	}
	return nil
}

// GetUserByEmail returns projections for users matching the email exactly.
// The password hash is never selected.
func (s *Store) GetUserByEmail(ctx context.Context, email string) ([]store.UserRecord, error) {
	if email == "" {
		return nil, &store.ValidationError{Field: "email"}
	}

	query := `
		SELECT id, email, display_name, created_at
		FROM users
		WHERE email = $1
	`

	rows, err := s.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, &store.StoreError{Op: "get user", Err: err}
	}
	defer rows.Close()

	var records []store.UserRecord
	for rows.Next() {
		var rec store.UserRecord
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.DisplayName, &rec.CreatedAt); err != nil {
			return nil, &store.StoreError{Op: "scan user", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StoreError{Op: "get user rows", Err: err}
	}

	return records, nil
}
