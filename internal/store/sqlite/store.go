// Package sqlite implements the workflow store on an embedded SQLite
// database, for single-node deployments that do not run Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"noteflow/internal/store"
	"noteflow/internal/workflow"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

var _ workflow.Store = (*Store)(nil)

// Store is a SQLite-backed implementation of workflow.Store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and prepares the schema.
// Use ":memory:" for an ephemeral database.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent instances.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS workflow_instances (
			id           TEXT PRIMARY KEY,
			email        TEXT NOT NULL,
			metadata     TEXT NOT NULL DEFAULT '{}',
			query        TEXT NOT NULL,
			state        TEXT NOT NULL DEFAULT 'pending',
			failed_step  TEXT,
			error        TEXT,
			created_at   TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_workflow_instances_state
			ON workflow_instances (state);
		CREATE TABLE IF NOT EXISTS workflow_checkpoints (
			instance_id TEXT NOT NULL,
			step_name   TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			result      BLOB,
			attempts    INTEGER NOT NULL DEFAULT 0,
			last_error  TEXT,
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (instance_id, step_name)
		);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateInstance(ctx context.Context, inst *workflow.Instance) error {
	metadata, err := json.Marshal(inst.Params.Metadata)
	if err != nil {
		return &store.StoreError{Op: "encode instance metadata", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_instances (id, email, metadata, query, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, inst.ID, inst.Params.Email, string(metadata), inst.Params.Query, inst.State, inst.CreatedAt)
	if err != nil {
		return &store.StoreError{Op: "create instance", Err: err}
	}
	return nil
}

func (s *Store) GetInstance(ctx context.Context, instanceID string) (*workflow.Instance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, metadata, query, state, failed_step, error, created_at, completed_at
		FROM workflow_instances
		WHERE id = ?
	`, instanceID)

	inst, err := scanInstance(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &store.NotFoundError{Entity: "workflow instance", Key: instanceID}
		}
		return nil, &store.StoreError{Op: "get instance", Err: err}
	}
	return inst, nil
}

func (s *Store) UpdateInstance(ctx context.Context, inst *workflow.Instance) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflow_instances
		SET state = ?, failed_step = NULLIF(?, ''), error = NULLIF(?, ''), completed_at = ?
		WHERE id = ?
	`, inst.State, inst.FailedStep, inst.Error, inst.CompletedAt, inst.ID)
	if err != nil {
		return &store.StoreError{Op: "update instance", Err: err}
	}
	return nil
}

func (s *Store) ListInstancesByState(ctx context.Context, state workflow.InstanceState) ([]*workflow.Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, metadata, query, state, failed_step, error, created_at, completed_at
		FROM workflow_instances
		WHERE state = ?
		ORDER BY created_at ASC
	`, state)
	if err != nil {
		return nil, &store.StoreError{Op: "list instances", Err: err}
	}
	defer rows.Close()

	var instances []*workflow.Instance
	for rows.Next() {
		inst, err := scanInstance(rows.Scan)
		if err != nil {
			return nil, &store.StoreError{Op: "scan instance", Err: err}
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StoreError{Op: "list instances rows", Err: err}
	}
	return instances, nil
}

func scanInstance(scan func(dest ...any) error) (*workflow.Instance, error) {
	var (
		inst       workflow.Instance
		metadata   string
		failedStep sql.NullString
		errMsg     sql.NullString
		completed  sql.NullTime
	)
	if err := scan(
		&inst.ID,
		&inst.Params.Email,
		&metadata,
		&inst.Params.Query,
		&inst.State,
		&failedStep,
		&errMsg,
		&inst.CreatedAt,
		&completed,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metadata), &inst.Params.Metadata); err != nil {
		return nil, err
	}
	inst.FailedStep = failedStep.String
	inst.Error = errMsg.String
	if completed.Valid {
		t := completed.Time
		inst.CompletedAt = &t
	}
	return &inst, nil
}

func (s *Store) SaveCheckpoint(ctx context.Context, instanceID, stepName string, result []byte, attempts int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_checkpoints (instance_id, step_name, status, result, attempts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (instance_id, step_name)
		DO UPDATE SET status = excluded.status, result = excluded.result,
			attempts = excluded.attempts, last_error = NULL
	`, instanceID, stepName, workflow.StepStatusSucceeded, result, attempts)
	if err != nil {
		return &store.StoreError{Op: "save checkpoint", Err: err}
	}
	return nil
}

func (s *Store) GetCheckpoint(ctx context.Context, instanceID, stepName string) (*workflow.Checkpoint, error) {
	var (
		cp      workflow.Checkpoint
		lastErr sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT instance_id, step_name, status, result, attempts, last_error, created_at
		FROM workflow_checkpoints
		WHERE instance_id = ? AND step_name = ?
	`, instanceID, stepName).Scan(
		&cp.InstanceID,
		&cp.StepName,
		&cp.Status,
		&cp.Result,
		&cp.Attempts,
		&lastErr,
		&cp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &store.StoreError{Op: "get checkpoint", Err: err}
	}
	cp.LastError = lastErr.String
	return &cp, nil
}

func (s *Store) RecordAttempt(ctx context.Context, instanceID, stepName string, attempts int, lastErr string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_checkpoints (instance_id, step_name, status, attempts, last_error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (instance_id, step_name)
		DO UPDATE SET attempts = excluded.attempts, last_error = excluded.last_error
	`, instanceID, stepName, workflow.StepStatusPending, attempts, lastErr)
	if err != nil {
		return &store.StoreError{Op: "record attempt", Err: err}
	}
	return nil
}
