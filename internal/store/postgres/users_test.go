package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"noteflow/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return &Store{db: db}, mock
}

func TestCreateUser_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	ctx := context.Background()
	user := &store.User{
		ID:           uuid.NewString(),
		Email:        "alice@example.com",
		PasswordHash: "2c70e12b7a0646f92279f427c7b38e7334d8e5389cff167a1dc30e73f826b683",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(user.ID, user.Email, user.PasswordHash, user.DisplayName, user.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	ctx := context.Background()
	user := &store.User{
		ID:           uuid.NewString(),
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := s.CreateUser(ctx, user)
	var conflict *store.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want ConflictError", err)
	}
	if conflict.Value != user.Email {
		t.Errorf("got conflict value %q, want %q", conflict.Value, user.Email)
	}
}

func TestCreateUser_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(errors.New("connection reset"))

	err := s.CreateUser(context.Background(), &store.User{ID: uuid.NewString(), Email: "a@b.c"})
	var storeErr *store.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("got %v, want StoreError", err)
	}
}

func TestGetUserByEmail_Found(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	ctx := context.Background()
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "email", "display_name", "created_at"}).
		AddRow(id, "alice@example.com", nil, createdAt)

	mock.ExpectQuery(`SELECT id, email, display_name, created_at`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	records, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ID != id {
		t.Errorf("got id %s, want %s", records[0].ID, id)
	}
	if records[0].DisplayName != nil {
		t.Errorf("got display name %v, want nil", records[0].DisplayName)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectQuery(`SELECT id, email, display_name, created_at`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "created_at"}))

	records, err := s.GetUserByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestGetUserByEmail_BlankEmail(t *testing.T) {
	s, _ := newMockStore(t)
	defer s.db.Close()

	_, err := s.GetUserByEmail(context.Background(), "")
	var validation *store.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}
