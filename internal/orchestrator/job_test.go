package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"noteflow/internal/chat"
	"noteflow/internal/gateway"
	"noteflow/internal/store/memory"
	"noteflow/internal/workflow"
	"noteflow/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-process stand-in for the CRUD API and the chat
// endpoint, recording what the job saved.
type fakeBackend struct {
	chatReply    string
	chatStatus   int
	users        []api.UserRecord
	notes        []api.NoteRecord
	notesStatus  int
	savedContent string
	savedUserID  string
	saveCalls    int
}

func (f *fakeBackend) chatServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.chatStatus != 0 {
			http.Error(w, "chat unavailable", f.chatStatus)
			return
		}
		var c chat.Completion
		c.Response.Response = f.chatReply
		json.NewEncoder(w).Encode([]chat.Completion{c})
	}))
}

func (f *fakeBackend) apiServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/getUser", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.users)
	})
	mux.HandleFunc("GET /api/getNotes", func(w http.ResponseWriter, r *http.Request) {
		if f.notesStatus != 0 {
			http.Error(w, "notes unavailable", f.notesStatus)
			return
		}
		json.NewEncoder(w).Encode(f.notes)
	})
	mux.HandleFunc("POST /api/saveNotes", func(w http.ResponseWriter, r *http.Request) {
		var req api.SaveNotesRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.saveCalls++
		f.savedUserID = req.UserID
		f.savedContent = req.Content
		json.NewEncoder(w).Encode(api.SaveNotesResponse{OK: true, ID: req.UserID, Changes: 1})
	})
	return httptest.NewServer(mux)
}

func runJob(t *testing.T, backend *fakeBackend, params workflow.Params) (*workflow.Instance, workflow.Store) {
	t.Helper()

	chatSrv := backend.chatServer()
	t.Cleanup(chatSrv.Close)
	apiSrv := backend.apiServer()
	t.Cleanup(apiSrv.Close)

	job := NewNotesJob(chat.New(chatSrv.URL), gateway.New(apiSrv.URL))

	s := memory.New()
	e := workflow.New(s,
		workflow.WithMaxRetries(0),
		workflow.WithBackoff(&workflow.ConstantBackoff{}),
		workflow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	inst, err := e.CreateInstance(context.Background(), params)
	require.NoError(t, err)
	e.Run(context.Background(), inst, job.Run)

	got, err := s.GetInstance(context.Background(), inst.ID)
	require.NoError(t, err)
	return got, s
}

func TestNotesJob_AppendsToExistingNotes(t *testing.T) {
	backend := &fakeBackend{
		chatReply: "Here is my answer.",
		users:     []api.UserRecord{{ID: "u-1", Email: "alice@example.com"}},
		notes:     []api.NoteRecord{{ID: "n-1", UserID: "u-1", Content: "old thoughts"}},
	}

	inst, _ := runJob(t, backend, workflow.Params{Email: "alice@example.com", Query: "hello"})

	assert.Equal(t, workflow.InstanceStateSucceeded, inst.State)
	assert.Equal(t, "u-1", backend.savedUserID)
	assert.Equal(t, "old thoughts\n\n---\n\nAI: Here is my answer.", backend.savedContent)
}

func TestNotesJob_FirstNoteGetsPrefix(t *testing.T) {
	backend := &fakeBackend{
		chatReply: "First reply.",
		users:     []api.UserRecord{{ID: "u-1", Email: "alice@example.com"}},
		notes:     []api.NoteRecord{},
	}

	inst, _ := runJob(t, backend, workflow.Params{Email: "alice@example.com", Query: "hello"})

	assert.Equal(t, workflow.InstanceStateSucceeded, inst.State)
	assert.Equal(t, "AI: First reply.", backend.savedContent)
}

func TestNotesJob_UserNotFound(t *testing.T) {
	backend := &fakeBackend{
		chatReply: "irrelevant",
		users:     []api.UserRecord{},
	}

	inst, _ := runJob(t, backend, workflow.Params{Email: "nobody@example.com", Query: "hello"})

	assert.Equal(t, workflow.InstanceStateFailed, inst.State)
	assert.Equal(t, StepFindUserID, inst.FailedStep)
	assert.Equal(t, "User not found", inst.Error)
	assert.Zero(t, backend.saveCalls, "save-notes must not run after a failed step")
}

func TestNotesJob_NotesLookupFailureIsSoft(t *testing.T) {
	backend := &fakeBackend{
		chatReply:   "Recovered reply.",
		users:       []api.UserRecord{{ID: "u-1", Email: "alice@example.com"}},
		notesStatus: http.StatusInternalServerError,
	}

	inst, _ := runJob(t, backend, workflow.Params{Email: "alice@example.com", Query: "hello"})

	// A failed notes lookup is treated as empty prior content.
	assert.Equal(t, workflow.InstanceStateSucceeded, inst.State)
	assert.Equal(t, "AI: Recovered reply.", backend.savedContent)
}

func TestNotesJob_ChatFailureFailsInstance(t *testing.T) {
	backend := &fakeBackend{
		chatStatus: http.StatusServiceUnavailable,
		users:      []api.UserRecord{{ID: "u-1", Email: "alice@example.com"}},
	}

	inst, _ := runJob(t, backend, workflow.Params{Email: "alice@example.com", Query: "hello"})

	assert.Equal(t, workflow.InstanceStateFailed, inst.State)
	assert.Equal(t, StepGetModelResponse, inst.FailedStep)
	assert.Zero(t, backend.saveCalls)
}

func TestNotesJob_EmptyReplyStillSaves(t *testing.T) {
	backend := &fakeBackend{
		chatReply: "",
		users:     []api.UserRecord{{ID: "u-1", Email: "alice@example.com"}},
	}

	inst, _ := runJob(t, backend, workflow.Params{Email: "alice@example.com", Query: "hello"})

	assert.Equal(t, workflow.InstanceStateSucceeded, inst.State)
	assert.Equal(t, "AI: ", backend.savedContent)
}

func TestNotesJob_StepsAreCheckpointed(t *testing.T) {
	backend := &fakeBackend{
		chatReply: "Checkpointed.",
		users:     []api.UserRecord{{ID: "u-1", Email: "alice@example.com"}},
	}

	inst, s := runJob(t, backend, workflow.Params{Email: "alice@example.com", Query: "hello"})
	require.Equal(t, workflow.InstanceStateSucceeded, inst.State)

	for _, step := range []string{StepGetModelResponse, StepFindUserID, StepGetExistingNotes, StepSaveNotes} {
		cp, err := s.GetCheckpoint(context.Background(), inst.ID, step)
		require.NoError(t, err)
		require.NotNil(t, cp, "missing checkpoint for %s", step)
		assert.Equal(t, workflow.StepStatusSucceeded, cp.Status)
	}
}
