package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"noteflow/internal/store"
	"noteflow/internal/workflow"
)

// Compile-time check that Store satisfies the workflow persistence contract.
var _ workflow.Store = (*Store)(nil)

// CreateInstance inserts a new workflow instance row.
func (s *Store) CreateInstance(ctx context.Context, inst *workflow.Instance) error {
	metadata, err := json.Marshal(inst.Params.Metadata)
	if err != nil {
		return &store.StoreError{Op: "encode instance metadata", Err: err}
	}

	query := `
		INSERT INTO workflow_instances (id, email, metadata, query, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.db.ExecContext(ctx, query,
		inst.ID,
		inst.Params.Email,
		metadata,
		inst.Params.Query,
		inst.State,
		inst.CreatedAt,
	)
	if err != nil {
		return &store.StoreError{Op: "create instance", Err: err}
	}
	return nil
}

// GetInstance returns a workflow instance by id.
func (s *Store) GetInstance(ctx context.Context, instanceID string) (*workflow.Instance, error) {
	query := `
		SELECT id, email, metadata, query, state, failed_step, error, created_at, completed_at
		FROM workflow_instances
		WHERE id = $1
	`

	var (
		inst       workflow.Instance
		metadata   []byte
		failedStep sql.NullString
		errMsg     sql.NullString
		completed  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, instanceID).Scan(
		&inst.ID,
		&inst.Params.Email,
		&metadata,
		&inst.Params.Query,
		&inst.State,
		&failedStep,
		&errMsg,
		&inst.CreatedAt,
		&completed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &store.NotFoundError{Entity: "workflow instance", Key: instanceID}
		}
		return nil, &store.StoreError{Op: "get instance", Err: err}
	}

	if err := json.Unmarshal(metadata, &inst.Params.Metadata); err != nil {
		return nil, &store.StoreError{Op: "decode instance metadata", Err: err}
	}
	inst.FailedStep = failedStep.String
	inst.Error = errMsg.String
	if completed.Valid {
		t := completed.Time
		inst.CompletedAt = &t
	}

	return &inst, nil
}

// UpdateInstance persists the mutable fields of an instance.
func (s *Store) UpdateInstance(ctx context.Context, inst *workflow.Instance) error {
	query := `
		UPDATE workflow_instances
		SET state = $1, failed_step = NULLIF($2, ''), error = NULLIF($3, ''), completed_at = $4
		WHERE id = $5
	`

	_, err := s.db.ExecContext(ctx, query,
		inst.State,
		inst.FailedStep,
		inst.Error,
		inst.CompletedAt,
		inst.ID,
	)
	if err != nil {
		return &store.StoreError{Op: "update instance", Err: err}
	}
	return nil
}

// ListInstancesByState returns all instances in the given state.
func (s *Store) ListInstancesByState(ctx context.Context, state workflow.InstanceState) ([]*workflow.Instance, error) {
	query := `
		SELECT id, email, metadata, query, state, failed_step, error, created_at, completed_at
		FROM workflow_instances
		WHERE state = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, state)
	if err != nil {
		return nil, &store.StoreError{Op: "list instances", Err: err}
	}
	defer rows.Close()

	var instances []*workflow.Instance
	for rows.Next() {
		var (
			inst       workflow.Instance
			metadata   []byte
			failedStep sql.NullString
			errMsg     sql.NullString
			completed  sql.NullTime
		)
		if err := rows.Scan(
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
			return nil, &store.StoreError{Op: "scan instance", Err: err}
		}
		if err := json.Unmarshal(metadata, &inst.Params.Metadata); err != nil {
			return nil, &store.StoreError{Op: "decode instance metadata", Err: err}
		}
		inst.FailedStep = failedStep.String
		inst.Error = errMsg.String
		if completed.Valid {
			t := completed.Time
			inst.CompletedAt = &t
		}
		instances = append(instances, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StoreError{Op: "list instances rows", Err: err}
	}

	return instances, nil
}

// SaveCheckpoint marks a step succeeded and stores its serialized result.
func (s *Store) SaveCheckpoint(ctx context.Context, instanceID, stepName string, result []byte, attempts int) error {
	query := `
		INSERT INTO workflow_checkpoints (instance_id, step_name, status, result, attempts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (instance_id, step_name)
		DO UPDATE SET status = $3, result = $4, attempts = $5, last_error = NULL, updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, instanceID, stepName, workflow.StepStatusSucceeded, result, attempts)
	if err != nil {
		return &store.StoreError{Op: "save checkpoint", Err: err}
	}
	return nil
}

// GetCheckpoint returns the step record for (instanceID, stepName),
// or nil if the step has never been attempted.
func (s *Store) GetCheckpoint(ctx context.Context, instanceID, stepName string) (*workflow.Checkpoint, error) {
	query := `
		SELECT instance_id, step_name, status, result, attempts, last_error, created_at
		FROM workflow_checkpoints
		WHERE instance_id = $1 AND step_name = $2
	`

	var (
		cp      workflow.Checkpoint
		result  []byte
		lastErr sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, instanceID, stepName).Scan(
		&cp.InstanceID,
		&cp.StepName,
		&cp.Status,
		&result,
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

	cp.Result = result
	cp.LastError = lastErr.String
	return &cp, nil
}

// RecordAttempt upserts a pending step record with the attempt count and
// last error so retry progress survives a restart.
func (s *Store) RecordAttempt(ctx context.Context, instanceID, stepName string, attempts int, lastErr string) error {
	query := `
		INSERT INTO workflow_checkpoints (instance_id, step_name, status, attempts, last_error)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (instance_id, step_name)
		DO UPDATE SET attempts = $4, last_error = $5, updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, instanceID, stepName, workflow.StepStatusPending, attempts, lastErr)
	if err != nil {
		return &store.StoreError{Op: "record attempt", Err: err}
	}
	return nil
}
