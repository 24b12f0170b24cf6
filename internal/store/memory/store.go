// Package memory provides a fully in-memory implementation of the store
// interfaces. Safe for concurrent access. Intended for unit testing and
// single-process development mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"noteflow/internal/store"
	"noteflow/internal/workflow"
)

var (
	_ store.UserStore = (*Store)(nil)
	_ store.NoteStore = (*Store)(nil)
	_ workflow.Store  = (*Store)(nil)
)

// Store holds all records in maps guarded by a single RWMutex.
type Store struct {
	mu sync.RWMutex

	users       map[string]*store.User // key: user id
	notes       map[string]*store.Note // key: note id
	instances   map[string]*workflow.Instance
	checkpoints map[string]*workflow.Checkpoint // key: "instanceID/stepName"
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		users:       make(map[string]*store.User),
		notes:       make(map[string]*store.Note),
		instances:   make(map[string]*workflow.Instance),
		checkpoints: make(map[string]*workflow.Checkpoint),
	}
}

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ---------------------------------------------------------
// UserStore
// ---------------------------------------------------------

func (m *Store) CreateUser(_ context.Context, user *store.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == user.Email {
			return &store.ConflictError{Field: "email", Value: user.Email}
		}
	}

	u := *user
	m.users[u.ID] = &u
	return nil
}

func (m *Store) GetUserByEmail(_ context.Context, email string) ([]store.UserRecord, error) {
	if email == "" {
		return nil, &store.ValidationError{Field: "email"}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []store.UserRecord
	for _, u := range m.users {
		if u.Email == email {
			records = append(records, store.UserRecord{
				ID:          u.ID,
				Email:       u.Email,
				DisplayName: u.DisplayName,
				CreatedAt:   u.CreatedAt,
			})
		}
	}
	return records, nil
}

// ---------------------------------------------------------
// NoteStore
// ---------------------------------------------------------

func (m *Store) CreateNote(_ context.Context, note *store.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := *note
	m.notes[n.ID] = &n
	return nil
}

func (m *Store) ListNotes(_ context.Context, userID string) ([]store.Note, error) {
	if userID == "" {
		return nil, &store.ValidationError{Field: "user_id"}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var notes []store.Note
	for _, n := range m.notes {
		if n.UserID == userID {
			notes = append(notes, *n)
		}
	}

	// Newest creation time first.
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (m *Store) UpdateNoteContent(_ context.Context, userID, content string) (int64, error) {
	if userID == "" {
		return 0, &store.ValidationError{Field: "user_id"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var changes int64
	now := time.Now().UTC()
	for _, n := range m.notes {
		if n.UserID == userID {
			n.Content = content
			n.UpdatedAt = now
			changes++
		}
	}
	return changes, nil
}

// ---------------------------------------------------------
// workflow.Store
// ---------------------------------------------------------

func (m *Store) CreateInstance(_ context.Context, inst *workflow.Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *inst
	m.instances[cp.ID] = &cp
	return nil
}

func (m *Store) GetInstance(_ context.Context, instanceID string) (*workflow.Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.instances[instanceID]
	if !ok {
		return nil, &store.NotFoundError{Entity: "workflow instance", Key: instanceID}
	}
	cp := *inst
	return &cp, nil
}

func (m *Store) UpdateInstance(_ context.Context, inst *workflow.Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.instances[inst.ID]; !ok {
		return &store.NotFoundError{Entity: "workflow instance", Key: inst.ID}
	}
	cp := *inst
	m.instances[cp.ID] = &cp
	return nil
}

func (m *Store) ListInstancesByState(_ context.Context, state workflow.InstanceState) ([]*workflow.Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var instances []*workflow.Instance
	for _, inst := range m.instances {
		if inst.State == state {
			cp := *inst
			instances = append(instances, &cp)
		}
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].CreatedAt.Before(instances[j].CreatedAt)
	})
	return instances, nil
}

func (m *Store) SaveCheckpoint(_ context.Context, instanceID, stepName string, result []byte, attempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkpoints[instanceID+"/"+stepName] = &workflow.Checkpoint{
		InstanceID: instanceID,
		StepName:   stepName,
		Status:     workflow.StepStatusSucceeded,
		Result:     append([]byte(nil), result...),
		Attempts:   attempts,
		CreatedAt:  time.Now().UTC(),
	}
	return nil
}

func (m *Store) GetCheckpoint(_ context.Context, instanceID, stepName string) (*workflow.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.checkpoints[instanceID+"/"+stepName]
	if !ok {
		return nil, nil
	}
	out := *cp
	return &out, nil
}

func (m *Store) RecordAttempt(_ context.Context, instanceID, stepName string, attempts int, lastErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := instanceID + "/" + stepName
	cp, ok := m.checkpoints[key]
	if !ok {
		cp = &workflow.Checkpoint{
			InstanceID: instanceID,
			StepName:   stepName,
			Status:     workflow.StepStatusPending,
			CreatedAt:  time.Now().UTC(),
		}
		m.checkpoints[key] = cp
	}
	cp.Attempts = attempts
	cp.LastError = lastErr
	return nil
}
