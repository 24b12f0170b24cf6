// Package api contains shared JSON request/response structs.
// This package is shared between the CLI, the CRUD service, the
// orchestrator, and the gateway client.
package api

import "time"

// StoreUserRequest is the request body for POST /api/storeUser.
type StoreUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StoreUserResponse is the response body after creating a user.
type StoreUserResponse struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserRecord is one element of the GET /api/getUser response array.
// The password hash is never included.
type UserRecord struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// StoreNotesRequest is the request body for POST /api/storeNotes.
type StoreNotesRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// StoreNotesResponse is the response body after creating a note.
type StoreNotesResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// NoteRecord is one element of the GET /api/getNotes response array.
type NoteRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveNotesRequest is the request body for POST /api/saveNotes.
type SaveNotesRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// SaveNotesResponse is the response body after saving note content.
// Changes is the number of note rows updated.
type SaveNotesResponse struct {
	OK      bool   `json:"ok"`
	ID      string `json:"id"`
	Changes int64  `json:"changes"`
}

// CreateInstanceRequest is the request body for POST / on the orchestrator.
type CreateInstanceRequest struct {
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata"`
	Query    string            `json:"query"`
}

// InstanceStatus is the workflow status payload.
type InstanceStatus struct {
	State      string `json:"state"`
	FailedStep string `json:"failed_step,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CreateInstanceResponse is the response body after creating an instance.
type CreateInstanceResponse struct {
	ID      string         `json:"id"`
	Details InstanceStatus `json:"details"`
}

// InstanceStatusResponse is the response body for status polling.
type InstanceStatusResponse struct {
	Status InstanceStatus `json:"status"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
