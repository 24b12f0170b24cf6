package postgres

import (
	"context"

	"noteflow/internal/store"
)

// CreateNote inserts a new note row referencing an existing user.
func (s *Store) CreateNote(ctx context.Context, note *store.Note) error {
	query := `
		INSERT INTO notes (id, user_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		note.ID,
		note.UserID,
		note.Content,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return &store.StoreError{Op: "create note", Err: err}
	}
	return nil
}

// ListNotes returns all notes for a user, newest creation time first.
func (s *Store) ListNotes(ctx context.Context, userID string) ([]store.Note, error) {
	if userID == "" {
		return nil, &store.ValidationError{Field: "user_id"}
	}

	query := `
		SELECT id, user_id, content, created_at, updated_at
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, &store.StoreError{Op: "list notes", Err: err}
	}
	defer rows.Close()

	var notes []store.Note
	for rows.Next() {
		var n store.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, &store.StoreError{Op: "scan note", Err: err}
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StoreError{Op: "list notes rows", Err: err}
	}

	return notes, nil
}

// UpdateNoteContent replaces the content and refreshes updated_at for every
// note owned by userID. Matching is on user_id alone, so with multiple
// notes a single save updates all of them.
func (s *Store) UpdateNoteContent(ctx context.Context, userID, content string) (int64, error) {
	if userID == "" {
		return 0, &store.ValidationError{Field: "user_id"}
	}

	query := `
		UPDATE notes
		SET content = $1, updated_at = NOW()
		WHERE user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, content, userID)
	if err != nil {
		return 0, &store.StoreError{Op: "update note content", Err: err}
	}

	changes, err := result.RowsAffected()
	if err != nil {
		return 0, &store.StoreError{Op: "update note content", Err: err}
	}
	return changes, nil
}
