package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"noteflow/internal/store"
	"noteflow/internal/workflow"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestCreateInstance_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	inst := &workflow.Instance{
		ID: uuid.NewString(),
		Params: workflow.Params{
			Email:    "alice@example.com",
			Metadata: map[string]string{"source": "test"},
			Query:    "what did I write yesterday?",
		},
		State:     workflow.InstanceStatePending,
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO workflow_instances`).
		WithArgs(inst.ID, inst.Params.Email, []byte(`{"source":"test"}`), inst.Params.Query, inst.State, inst.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.CreateInstance(context.Background(), inst); err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetInstance_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.NewString()
	createdAt := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "email", "metadata", "query", "state", "failed_step", "error", "created_at", "completed_at"}).
		AddRow(id, "alice@example.com", []byte(`{"source":"test"}`), "hello", "running", nil, nil, createdAt, nil)

	mock.ExpectQuery(`SELECT id, email, metadata, query, state, failed_step, error, created_at, completed_at`).
		WithArgs(id).
		WillReturnRows(rows)

	inst, err := s.GetInstance(context.Background(), id)
	if err != nil {
		t.Fatalf("GetInstance failed: %v", err)
	}
	if inst.State != workflow.InstanceStateRunning {
		t.Errorf("got state %s, want %s", inst.State, workflow.InstanceStateRunning)
	}
	if inst.Params.Metadata["source"] != "test" {
		t.Errorf("got metadata %v, want source=test", inst.Params.Metadata)
	}
	if inst.CompletedAt != nil {
		t.Errorf("got completed_at %v, want nil", inst.CompletedAt)
	}
}

func TestGetInstance_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.NewString()
	mock.ExpectQuery(`SELECT id, email, metadata, query, state, failed_step, error, created_at, completed_at`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "metadata", "query", "state", "failed_step", "error", "created_at", "completed_at"}))

	_, err := s.GetInstance(context.Background(), id)
	var notFound *store.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestGetInstance_FailedFields(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.NewString()
	createdAt := time.Now().UTC()
	completedAt := createdAt.Add(time.Minute)

	rows := sqlmock.NewRows([]string{"id", "email", "metadata", "query", "state", "failed_step", "error", "created_at", "completed_at"}).
		AddRow(id, "alice@example.com", []byte(`{}`), "hello", "failed", "find-user-id", "User not found", createdAt, completedAt)

	mock.ExpectQuery(`SELECT id, email, metadata, query, state, failed_step, error, created_at, completed_at`).
		WithArgs(id).
		WillReturnRows(rows)

	inst, err := s.GetInstance(context.Background(), id)
	if err != nil {
		t.Fatalf("GetInstance failed: %v", err)
	}
	if inst.FailedStep != "find-user-id" {
		t.Errorf("got failed step %q, want %q", inst.FailedStep, "find-user-id")
	}
	if inst.Error != "User not found" {
		t.Errorf("got error %q, want %q", inst.Error, "User not found")
	}
	if inst.CompletedAt == nil || !inst.CompletedAt.Equal(completedAt) {
		t.Errorf("got completed_at %v, want %v", inst.CompletedAt, completedAt)
	}
}

func TestUpdateInstance_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	completedAt := time.Now().UTC()
	inst := &workflow.Instance{
		ID:          uuid.NewString(),
		State:       workflow.InstanceStateSucceeded,
		CompletedAt: &completedAt,
	}

	mock.ExpectExec(`UPDATE workflow_instances`).
		WithArgs(inst.State, "", "", inst.CompletedAt, inst.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpdateInstance(context.Background(), inst); err != nil {
		t.Fatalf("UpdateInstance failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListInstancesByState(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	createdAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "metadata", "query", "state", "failed_step", "error", "created_at", "completed_at"}).
		AddRow("i-1", "a@example.com", []byte(`{}`), "q1", "running", nil, nil, createdAt, nil).
		AddRow("i-2", "b@example.com", []byte(`{}`), "q2", "running", nil, nil, createdAt.Add(time.Second), nil)

	mock.ExpectQuery(`SELECT id, email, metadata, query, state, failed_step, error, created_at, completed_at`).
		WithArgs(workflow.InstanceStateRunning).
		WillReturnRows(rows)

	instances, err := s.ListInstancesByState(context.Background(), workflow.InstanceStateRunning)
	if err != nil {
		t.Fatalf("ListInstancesByState failed: %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("got %d instances, want 2", len(instances))
	}
	if instances[0].ID != "i-1" {
		t.Errorf("got first instance %s, want i-1", instances[0].ID)
	}
}

func TestSaveCheckpoint_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	instanceID := uuid.NewString()
	result := []byte(`{"reply":"hi"}`)

	mock.ExpectExec(`INSERT INTO workflow_checkpoints`).
		WithArgs(instanceID, "get-model-response", workflow.StepStatusSucceeded, result, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.SaveCheckpoint(context.Background(), instanceID, "get-model-response", result, 1); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetCheckpoint_Found(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	instanceID := uuid.NewString()
	createdAt := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"instance_id", "step_name", "status", "result", "attempts", "last_error", "created_at"}).
		AddRow(instanceID, "save-notes", "succeeded", []byte(`{"changes":1}`), 2, nil, createdAt)

	mock.ExpectQuery(`SELECT instance_id, step_name, status, result, attempts, last_error, created_at`).
		WithArgs(instanceID, "save-notes").
		WillReturnRows(rows)

	cp, err := s.GetCheckpoint(context.Background(), instanceID, "save-notes")
	if err != nil {
		t.Fatalf("GetCheckpoint failed: %v", err)
	}
	if cp == nil {
		t.Fatal("got nil checkpoint, want a record")
	}
	if cp.Status != workflow.StepStatusSucceeded {
		t.Errorf("got status %s, want %s", cp.Status, workflow.StepStatusSucceeded)
	}
	if cp.Attempts != 2 {
		t.Errorf("got %d attempts, want 2", cp.Attempts)
	}
}

func TestGetCheckpoint_NeverAttempted(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	instanceID := uuid.NewString()
	mock.ExpectQuery(`SELECT instance_id, step_name, status, result, attempts, last_error, created_at`).
		WithArgs(instanceID, "save-notes").
		WillReturnRows(sqlmock.NewRows([]string{"instance_id", "step_name", "status", "result", "attempts", "last_error", "created_at"}))

	cp, err := s.GetCheckpoint(context.Background(), instanceID, "save-notes")
	if err != nil {
		t.Fatalf("GetCheckpoint failed: %v", err)
	}
	if cp != nil {
		t.Errorf("got checkpoint %+v, want nil", cp)
	}
}

func TestRecordAttempt_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	instanceID := uuid.NewString()
	mock.ExpectExec(`INSERT INTO workflow_checkpoints`).
		WithArgs(instanceID, "get-model-response", workflow.StepStatusPending, 2, "upstream timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.RecordAttempt(context.Background(), instanceID, "get-model-response", 2, "upstream timeout"); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
