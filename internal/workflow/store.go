package workflow

import "context"

// Store defines the persistence contract for workflow instances and
// checkpoints. Implementations exist for Postgres, SQLite, and an
// in-memory map for tests.
type Store interface {
	// CreateInstance persists a new instance.
	CreateInstance(ctx context.Context, inst *Instance) error

	// GetInstance retrieves an instance by ID.
	GetInstance(ctx context.Context, instanceID string) (*Instance, error)

	// UpdateInstance persists changes to an existing instance.
	UpdateInstance(ctx context.Context, inst *Instance) error

	// ListInstancesByState returns all instances in the given state.
	ListInstancesByState(ctx context.Context, state InstanceState) ([]*Instance, error)

	// SaveCheckpoint marks a step succeeded and stores its serialized result.
	// If a pending record exists for the same instance/step, it is replaced.
	SaveCheckpoint(ctx context.Context, instanceID, stepName string, result []byte, attempts int) error

	// GetCheckpoint retrieves the step record for a specific instance/step.
	// Returns nil if no record exists.
	GetCheckpoint(ctx context.Context, instanceID, stepName string) (*Checkpoint, error)

	// RecordAttempt upserts a pending step record with the attempt count
	// and last error, so retry progress survives a restart.
	RecordAttempt(ctx context.Context, instanceID, stepName string, attempts int, lastErr string) error
}
