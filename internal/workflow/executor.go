package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// JobFunc is a workflow body. It receives an Execution and calls Step
// for each named unit of work, strictly in declaration order.
type JobFunc func(exec *Execution) error

// StepError marks a step that exhausted its retry budget. The executor
// records the step name on the failed instance.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Executor creates workflow instances and runs their steps with
// checkpointing and bounded retries.
type Executor struct {
	store      Store
	maxRetries int
	backoff    BackoffStrategy
	logger     *slog.Logger
}

// Option configures the Executor.
type Option func(*Executor)

// WithMaxRetries sets the retry budget per step. An initial attempt plus
// n retries are made before the step fails the instance.
func WithMaxRetries(n int) Option {
	return func(e *Executor) { e.maxRetries = n }
}

// WithBackoff sets the retry delay strategy.
func WithBackoff(b BackoffStrategy) Option {
	return func(e *Executor) { e.backoff = b }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an executor backed by the given store.
func New(store Store, opts ...Option) *Executor {
	e := &Executor{
		store:      store,
		maxRetries: 3,
		backoff:    DefaultBackoff(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateInstance allocates a fresh instance id and persists the input
// parameters in pending state.
func (e *Executor) CreateInstance(ctx context.Context, params Params) (*Instance, error) {
	inst := &Instance{
		ID:        uuid.NewString(),
		Params:    params,
		State:     InstanceStatePending,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CreateInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	return inst, nil
}

// Start creates an instance and runs the job in a background goroutine,
// returning immediately after the instance is persisted.
func (e *Executor) Start(ctx context.Context, params Params, job JobFunc) (*Instance, error) {
	inst, err := e.CreateInstance(ctx, params)
	if err != nil {
		return nil, err
	}

	// The instance outlives the request that created it.
	go e.Run(context.WithoutCancel(ctx), inst, job)

	return inst, nil
}

// Run executes the job synchronously and records the terminal state.
// Steps with succeeded checkpoints are replayed, not re-run, so Run is
// safe to call again on an instance that crashed mid-flight.
func (e *Executor) Run(ctx context.Context, inst *Instance, job JobFunc) {
	// The caller keeps its instance after Start returns; mutate a copy.
	run := *inst
	inst = &run

	inst.State = InstanceStateRunning
	if err := e.store.UpdateInstance(ctx, inst); err != nil {
		e.logger.Error("failed to mark instance running",
			slog.String("instance_id", inst.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	exec := &Execution{ctx: ctx, inst: inst, executor: e}
	err := job(exec)

	now := time.Now().UTC()
	inst.CompletedAt = &now

	if err != nil {
		inst.State = InstanceStateFailed
		inst.Error = err.Error()
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			inst.FailedStep = stepErr.Step
			inst.Error = stepErr.Err.Error()
		}
		if updateErr := e.store.UpdateInstance(ctx, inst); updateErr != nil {
			e.logger.Error("failed to mark instance failed",
				slog.String("instance_id", inst.ID),
				slog.String("error", updateErr.Error()),
			)
		}
		e.logger.Info("workflow instance failed",
			slog.String("instance_id", inst.ID),
			slog.String("step", inst.FailedStep),
			slog.String("error", inst.Error),
		)
		return
	}

	inst.State = InstanceStateSucceeded
	if updateErr := e.store.UpdateInstance(ctx, inst); updateErr != nil {
		e.logger.Error("failed to mark instance succeeded",
			slog.String("instance_id", inst.ID),
			slog.String("error", updateErr.Error()),
		)
	}
	e.logger.Info("workflow instance succeeded", slog.String("instance_id", inst.ID))
}

// Status returns the current lifecycle state of an instance and, if it
// failed, the failing step's error detail.
func (e *Executor) Status(ctx context.Context, instanceID string) (*Status, error) {
	inst, err := e.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return &Status{
		State:      inst.State,
		FailedStep: inst.FailedStep,
		Error:      inst.Error,
	}, nil
}

// ResumeAll re-launches every instance left in running state, e.g. after
// a crash. Checkpointed steps replay from their cached results.
func (e *Executor) ResumeAll(ctx context.Context, job JobFunc) error {
	instances, err := e.store.ListInstancesByState(ctx, InstanceStateRunning)
	if err != nil {
		return fmt.Errorf("list running instances: %w", err)
	}

	for _, inst := range instances {
		e.logger.Info("resuming workflow instance", slog.String("instance_id", inst.ID))
		go e.Run(ctx, inst, job)
	}
	return nil
}

// Execution is the context passed to a job body. It carries the instance
// and provides durable step execution via Step.
type Execution struct {
	ctx      context.Context
	inst     *Instance
	executor *Executor
}

// Context returns the underlying context.Context.
func (x *Execution) Context() context.Context { return x.ctx }

// InstanceID returns the workflow instance id.
func (x *Execution) InstanceID() string { return x.inst.ID }

// Params returns the instance's input parameters.
func (x *Execution) Params() Params { return x.inst.Params }

// Step executes a named step that returns a typed value. If a succeeded
// checkpoint exists for this step the cached result is decoded and
// returned without re-invoking fn. Otherwise fn runs with bounded
// retries; on success the JSON-encoded result is checkpointed.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func Step[T any](x *Execution, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	e := x.executor

	cp, err := e.store.GetCheckpoint(x.ctx, x.inst.ID, name)
	if err != nil {
		return zero, fmt.Errorf("get checkpoint %q: %w", name, err)
	}
	if cp != nil && cp.Status == StepStatusSucceeded {
		var result T
		if decErr := json.Unmarshal(cp.Result, &result); decErr != nil {
			return zero, fmt.Errorf("decode checkpoint %q: %w", name, decErr)
		}
		e.logger.Debug("replaying checkpointed step",
			slog.String("instance_id", x.inst.ID),
			slog.String("step", name),
		)
		return result, nil
	}

	attempts := 0
	if cp != nil {
		attempts = cp.Attempts
	}

	var lastErr error
	for attempts <= e.maxRetries {
		attempts++

		result, stepErr := fn(x.ctx)
		if stepErr == nil {
			data, encErr := json.Marshal(result)
			if encErr != nil {
				return zero, fmt.Errorf("encode checkpoint %q: %w", name, encErr)
			}
			if saveErr := e.store.SaveCheckpoint(x.ctx, x.inst.ID, name, data, attempts); saveErr != nil {
				return zero, fmt.Errorf("save checkpoint %q: %w", name, saveErr)
			}
			return result, nil
		}

		lastErr = stepErr
		if recErr := e.store.RecordAttempt(x.ctx, x.inst.ID, name, attempts, stepErr.Error()); recErr != nil {
			e.logger.Error("failed to record step attempt",
				slog.String("instance_id", x.inst.ID),
				slog.String("step", name),
				slog.String("error", recErr.Error()),
			)
		}

		if attempts > e.maxRetries {
			break
		}

		e.logger.Warn("step failed, retrying",
			slog.String("instance_id", x.inst.ID),
			slog.String("step", name),
			slog.Int("attempt", attempts),
			slog.String("error", stepErr.Error()),
		)

		select {
		case <-time.After(e.backoff.Delay(attempts)):
		case <-x.ctx.Done():
			return zero, &StepError{Step: name, Err: x.ctx.Err()}
		}
	}

	if lastErr == nil {
		// Resumed with the retry budget already spent. The persisted
		// checkpoint carries the error from the last real attempt.
		if cp != nil && cp.LastError != "" {
			lastErr = errors.New(cp.LastError)
		} else {
			lastErr = errors.New("retry budget exhausted")
		}
	}
	return zero, &StepError{Step: name, Err: lastErr}
}
