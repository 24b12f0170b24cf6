package store

import (
	"context"
	"database/sql"
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx.
// This allows us to pass either a connection pool or an active transaction
// to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// UserStore handles the persistence of user records.
type UserStore interface {
	// CreateUser inserts a new user with a pre-hashed password.
	// Returns ConflictError if the email is already registered.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByEmail returns projections for all users matching the email
	// exactly. Zero or one row in practice; the slice mirrors the API shape.
	GetUserByEmail(ctx context.Context, email string) ([]UserRecord, error)
}

// NoteStore handles the persistence of note records.
type NoteStore interface {
	// CreateNote inserts a new note referencing an existing user.
	CreateNote(ctx context.Context, note *Note) error

	// ListNotes returns all notes for a user, newest creation time first.
	ListNotes(ctx context.Context, userID string) ([]Note, error)

	// UpdateNoteContent replaces the content and refreshes updated_at for
	// every note owned by userID, returning the number of rows changed.
	// Matching is on user_id alone, so a user with several notes has all
	// of them overwritten by a single save.
	UpdateNoteContent(ctx context.Context, userID, content string) (int64, error)
}
