// Package store contains the database layer for noteflow.
package store

import "time"

// User represents a registered user.
// The password hash is write-only: lookups return UserRecord instead.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  *string
	CreatedAt    time.Time
}

// UserRecord is the projection returned by user lookups.
// It deliberately excludes the password hash.
type UserRecord struct {
	ID          string
	Email       string
	DisplayName *string
	CreatedAt   time.Time
}

// Note represents a note row owned by a user. Notes are created once and
// then updated in place; the system never deletes them.
type Note struct {
	ID        string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
