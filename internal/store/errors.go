package store

import "fmt"

// ValidationError indicates a required parameter was missing or blank.
// It maps to a 400 at the HTTP layer and is never retried.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Field)
}

// ConflictError indicates a uniqueness violation enforced by the store,
// e.g. registering an email twice.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

// NotFoundError indicates a lookup yielded nothing where the caller
// treats an empty result as absence.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// StoreError wraps an underlying query or connectivity failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
