// Package orchestrator contains the notes workflow definition and the
// HTTP front door that creates and polls workflow instances.
package orchestrator

import (
	"context"
	"errors"

	"noteflow/internal/chat"
	"noteflow/internal/gateway"
	"noteflow/internal/workflow"
	"noteflow/pkg/api"
)

// Step names of the notes job. Each is checkpointed under its name, so
// a restart after a transient failure replays completed steps from the
// cache instead of re-calling the chat model or re-resolving the user.
const (
	StepGetModelResponse = "get-model-response"
	StepFindUserID       = "find-user-id"
	StepGetExistingNotes = "get-existing-notes"
	StepSaveNotes        = "save-notes"
)

// noteSeparator is inserted between existing content and the AI reply.
const noteSeparator = "\n\n---\n\nAI: "

// ErrUserNotFound fails the find-user-id step when the email resolves
// to no registered user.
var ErrUserNotFound = errors.New("User not found")

// NotesJob is the four-step recipe: ask the chat model, resolve the
// user, fetch their latest note, and save the appended reply.
type NotesJob struct {
	chat    *chat.Client
	gateway *gateway.Client
}

// NewNotesJob creates the job with its two upstream clients.
func NewNotesJob(chatClient *chat.Client, gatewayClient *gateway.Client) *NotesJob {
	return &NotesJob{chat: chatClient, gateway: gatewayClient}
}

// Run executes the four steps strictly in order. It is the workflow.JobFunc
// for every notes instance.
func (j *NotesJob) Run(exec *workflow.Execution) error {
	params := exec.Params()

	completions, err := workflow.Step(exec, StepGetModelResponse, func(ctx context.Context) ([]chat.Completion, error) {
		return j.chat.Complete(ctx, params.Query)
	})
	if err != nil {
		return err
	}

	// An unexpected response shape yields an empty reply rather than a
	// failure.
	reply := chat.Reply(completions)

	userID, err := workflow.Step(exec, StepFindUserID, func(ctx context.Context) (string, error) {
		users, err := j.gateway.GetUser(ctx, params.Email)
		if err != nil {
			return "", err
		}
		if len(users) == 0 {
			return "", ErrUserNotFound
		}
		return users[0].ID, nil
	})
	if err != nil {
		return err
	}

	existing, err := workflow.Step(exec, StepGetExistingNotes, func(ctx context.Context) (string, error) {
		notes, err := j.gateway.GetNotes(ctx, userID)
		if err != nil {
			// Soft recovery: a lookup failure is treated as no prior
			// content, not as a step failure.
			return "", nil
		}
		if len(notes) == 0 {
			return "", nil
		}
		return notes[0].Content, nil
	})
	if err != nil {
		return err
	}

	updatedContent := "AI: " + reply
	if existing != "" {
		updatedContent = existing + noteSeparator + reply
	}

	_, err = workflow.Step(exec, StepSaveNotes, func(ctx context.Context) (*api.SaveNotesResponse, error) {
		return j.gateway.SaveNotes(ctx, userID, updatedContent)
	})
	return err
}
