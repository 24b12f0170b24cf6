package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"noteflow/internal/apiserver/middleware"
	"noteflow/internal/logger"
	"noteflow/internal/store"
	"noteflow/internal/workflow"
	"noteflow/pkg/api"
)

// Server is the HTTP front door of the orchestrator. It creates workflow
// instances and serves status polls.
type Server struct {
	httpServer *http.Server
	executor   *workflow.Executor
	job        *NotesJob
	logger     *slog.Logger
}

// New creates the orchestrator server.
func New(addr string, executor *workflow.Executor, job *NotesJob, log *slog.Logger, metricsHandler http.Handler) *Server {
	s := &Server{
		executor: executor,
		job:      job,
		logger:   log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	mux.HandleFunc("/", s.root)

	var handler http.Handler = mux
	handler = middleware.RequestID(handler)
	handler = middleware.CORS(middleware.DefaultCORSPolicy())(handler)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// root dispatches on the instanceId query parameter: present means a
// status poll (GET or POST), absent means a creation request (POST only).
func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/favicon") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if instanceID := r.URL.Query().Get("instanceId"); instanceID != "" {
		s.getStatus(w, r, instanceID)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Only POST supported", http.StatusMethodNotAllowed)
		return
	}

	s.createInstance(w, r)
}

func (s *Server) createInstance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params := workflow.Params{
		Email:    req.Email,
		Metadata: req.Metadata,
		Query:    req.Query,
	}
	if params.Metadata == nil {
		params.Metadata = map[string]string{}
	}

	inst, err := s.executor.Start(ctx, params, s.job.Run)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("failed to start instance", slog.String("error", err.Error()))
		s.httpError(w, "Failed to create workflow instance", http.StatusInternalServerError)
		return
	}

	logger.FromContext(ctx, s.logger).Info("workflow instance created",
		slog.String("instance_id", inst.ID),
		slog.String("email", params.Email),
	)

	s.respondJson(w, http.StatusOK, api.CreateInstanceResponse{
		ID: inst.ID,
		Details: api.InstanceStatus{
			State: string(inst.State),
		},
	})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request, instanceID string) {
	ctx := r.Context()

	status, err := s.executor.Status(ctx, instanceID)
	if err != nil {
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			s.httpError(w, "Instance not found", http.StatusNotFound)
			return
		}
		logger.FromContext(ctx, s.logger).Error("failed to get status", slog.String("error", err.Error()))
		s.httpError(w, "Failed to get instance status", http.StatusInternalServerError)
		return
	}

	s.respondJson(w, http.StatusOK, api.InstanceStatusResponse{
		Status: api.InstanceStatus{
			State:      string(status.State),
			FailedStep: status.FailedStep,
			Error:      status.Error,
		},
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.respondJson(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func (s *Server) httpError(w http.ResponseWriter, message string, code int) {
	s.respondJson(w, code, api.ErrorResponse{Error: message})
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
