package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"noteflow/internal/auth"
	"noteflow/internal/store"
	"noteflow/pkg/api"
)

func TestStoreUser(t *testing.T) {
	validReq := api.StoreUserRequest{
		Email:    "alice@example.com",
		Password: "hunter2",
	}
	validBody, _ := json.Marshal(validReq)

	tests := []struct {
		name           string
		body           []byte
		mockSetup      func(*mockStore)
		expectedStatus int
		expectedInBody string
	}{
		{
			name:           "Success",
			body:           validBody,
			mockSetup:      func(m *mockStore) {},
			expectedStatus: http.StatusOK,
			expectedInBody: `"ok":true`,
		},
		{
			name:           "Invalid JSON",
			body:           []byte(`{invalid-json}`),
			mockSetup:      func(m *mockStore) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Invalid request body",
		},
		{
			name:           "Missing Email",
			body:           []byte(`{"password": "hunter2"}`),
			mockSetup:      func(m *mockStore) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Email and password are required",
		},
		{
			name:           "Missing Password",
			body:           []byte(`{"email": "alice@example.com"}`),
			mockSetup:      func(m *mockStore) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Email and password are required",
		},
		{
			name: "Duplicate Email",
			body: validBody,
			mockSetup: func(m *mockStore) {
				m.createUserErr = &store.ConflictError{Field: "email", Value: "alice@example.com"}
			},
			expectedStatus: http.StatusConflict,
			expectedInBody: "Email already registered",
		},
		{
			name: "Database Error",
			body: validBody,
			mockSetup: func(m *mockStore) {
				m.createUserErr = errors.New("db connection failed")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedInBody: "Failed to create user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStore{}
			if tt.mockSetup != nil {
				tt.mockSetup(mock)
			}
			h := New(mock, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/storeUser", bytes.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.StoreUser(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					rr.Code, tt.expectedStatus)
			}

			if tt.expectedInBody != "" && !strings.Contains(rr.Body.String(), tt.expectedInBody) {
				t.Errorf("handler returned unexpected body: got %v want substring %v",
					rr.Body.String(), tt.expectedInBody)
			}
		})
	}
}

func TestStoreUser_HashesPassword(t *testing.T) {
	mock := &mockStore{}
	h := New(mock, testLogger())

	body, _ := json.Marshal(api.StoreUserRequest{Email: "bob@example.com", Password: "secret"})
	req := httptest.NewRequest(http.MethodPost, "/api/storeUser", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.StoreUser(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}
	if mock.capturedUser == nil {
		t.Fatal("expected CreateUser to be called")
	}
	if mock.capturedUser.PasswordHash == "secret" {
		t.Error("password was stored in plaintext")
	}
	if got, want := mock.capturedUser.PasswordHash, auth.HashPassword("secret"); got != want {
		t.Errorf("got hash %s, want %s", got, want)
	}
	if mock.capturedUser.ID == "" {
		t.Error("expected a generated user ID")
	}
}

func TestGetUser(t *testing.T) {
	displayName := "Alice"
	record := store.UserRecord{
		ID:          "11111111-1111-1111-1111-111111111111",
		Email:       "alice@example.com",
		DisplayName: &displayName,
		CreatedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name           string
		target         string
		mockSetup      func(*mockStore)
		expectedStatus int
		expectedInBody string
	}{
		{
			name:   "Found",
			target: "/api/getUser?email=alice@example.com",
			mockSetup: func(m *mockStore) {
				m.getUserByEmailResp = []store.UserRecord{record}
			},
			expectedStatus: http.StatusOK,
			expectedInBody: `"email":"alice@example.com"`,
		},
		{
			name:           "Not Found Returns Empty Array",
			target:         "/api/getUser?email=nobody@example.com",
			mockSetup:      func(m *mockStore) {},
			expectedStatus: http.StatusOK,
			expectedInBody: "[]",
		},
		{
			name:           "Missing Email Parameter",
			target:         "/api/getUser",
			mockSetup:      func(m *mockStore) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Call /api/getUser is missing the email parameter",
		},
		{
			name:   "Database Error",
			target: "/api/getUser?email=alice@example.com",
			mockSetup: func(m *mockStore) {
				m.getUserByEmailErr = errors.New("db connection failed")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedInBody: "Failed to look up user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStore{}
			if tt.mockSetup != nil {
				tt.mockSetup(mock)
			}
			h := New(mock, testLogger())

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rr := httptest.NewRecorder()
			h.GetUser(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					rr.Code, tt.expectedStatus)
			}

			if tt.expectedInBody != "" && !strings.Contains(rr.Body.String(), tt.expectedInBody) {
				t.Errorf("handler returned unexpected body: got %v want substring %v",
					rr.Body.String(), tt.expectedInBody)
			}
		})
	}
}

func TestGetUser_NeverExposesPasswordHash(t *testing.T) {
	mock := &mockStore{
		getUserByEmailResp: []store.UserRecord{{
			ID:    "22222222-2222-2222-2222-222222222222",
			Email: "carol@example.com",
		}},
	}
	h := New(mock, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/getUser?email=carol@example.com", nil)
	rr := httptest.NewRecorder()
	h.GetUser(rr, req)

	if strings.Contains(rr.Body.String(), "password") {
		t.Errorf("response leaks password material: %s", rr.Body.String())
	}
}
