// Package workflow implements a durable step executor: named, checkpointed
// units of work that run strictly in order within an instance and replay
// cached results after a crash or restart.
package workflow

import "time"

// InstanceState represents the lifecycle state of a workflow instance.
type InstanceState string

const (
	// InstanceStatePending means the instance is created but no step has started.
	InstanceStatePending InstanceState = "pending"
	// InstanceStateRunning means the instance is currently executing steps.
	InstanceStateRunning InstanceState = "running"
	// InstanceStateSucceeded means every step completed.
	InstanceStateSucceeded InstanceState = "succeeded"
	// InstanceStateFailed means a step exhausted its retry budget.
	InstanceStateFailed InstanceState = "failed"
)

// Params are the caller-supplied inputs stored on an instance.
type Params struct {
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata"`
	Query    string            `json:"query"`
}

// Instance is one execution of a workflow, with its own id, parameters,
// and step history. Instances are retained indefinitely for polling.
type Instance struct {
	ID          string
	Params      Params
	State       InstanceState
	FailedStep  string
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// StepStatus represents the state of a single step record.
type StepStatus string

const (
	// StepStatusPending means the step has been attempted but not yet succeeded.
	StepStatusPending StepStatus = "pending"
	// StepStatusSucceeded means the step completed and its result is cached.
	// A succeeded step is terminal: it is never re-run, only replayed.
	StepStatusSucceeded StepStatus = "succeeded"
)

// Checkpoint is the durable record of a step's progress within an instance,
// keyed by (instance id, step name).
type Checkpoint struct {
	InstanceID string
	StepName   string
	Status     StepStatus
	Result     []byte
	Attempts   int
	LastError  string
	CreatedAt  time.Time
}

// Status is the externally visible view of an instance, returned by
// the status endpoint.
type Status struct {
	State      InstanceState `json:"state"`
	FailedStep string        `json:"failed_step,omitempty"`
	Error      string        `json:"error,omitempty"`
}
