// Package config handles environment variable loading for ports, database
// strings, upstream endpoints, and executor tuning.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string (Postgres)
	DatabaseURL string

	// HTTP server port for the CRUD API
	HTTPPort int

	// HTTP server port for the orchestrator
	OrchestratorPort int

	// Base URL of the CRUD API, as seen from the orchestrator
	NotesAPIURL string

	// External chat-completion endpoint
	ChatAPIURL string

	// Timeout for one chat-completion call
	ChatAPITimeout time.Duration

	// Workflow state backend: "postgres", "sqlite", or "memory"
	WorkflowStore string

	// Path of the sqlite database when WorkflowStore is "sqlite"
	SQLitePath string

	// Retry budget per workflow step (initial attempt + StepMaxRetries)
	StepMaxRetries int

	// Backoff window between step retries
	StepBackoffInitial time.Duration
	StepBackoffMax     time.Duration

	// Requests per second allowed per client IP on the CRUD API.
	// Zero disables rate limiting.
	RateLimit      float64
	RateLimitBurst int

	// OTLP collector endpoint for traces. Empty disables tracing.
	OTELEndpoint string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		HTTPPort:           8787,
		OrchestratorPort:   8788,
		NotesAPIURL:        "http://localhost:8787",
		ChatAPIURL:         os.Getenv("CHAT_API_URL"),
		ChatAPITimeout:     30 * time.Second,
		WorkflowStore:      "postgres",
		SQLitePath:         "noteflow.db",
		StepMaxRetries:     3,
		StepBackoffInitial: 1 * time.Second,
		StepBackoffMax:     30 * time.Second,
		RateLimitBurst:     20,
		OTELEndpoint:       os.Getenv("OTEL_ENDPOINT"),
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.HTTPPort = p
	}

	if v := os.Getenv("ORCHESTRATOR_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ORCHESTRATOR_PORT: %w", err)
		}
		cfg.OrchestratorPort = p
	}

	if v := os.Getenv("NOTES_API_URL"); v != "" {
		cfg.NotesAPIURL = v
	}

	if v := os.Getenv("CHAT_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CHAT_API_TIMEOUT: %w", err)
		}
		cfg.ChatAPITimeout = d
	}

	if v := os.Getenv("WORKFLOW_STORE"); v != "" {
		switch v {
		case "postgres", "sqlite", "memory":
			cfg.WorkflowStore = v
		default:
			return nil, fmt.Errorf("invalid WORKFLOW_STORE %q (want postgres, sqlite, or memory)", v)
		}
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}

	if v := os.Getenv("STEP_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STEP_MAX_RETRIES: %w", err)
		}
		cfg.StepMaxRetries = n
	}

	if v := os.Getenv("STEP_BACKOFF_INITIAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STEP_BACKOFF_INITIAL: %w", err)
		}
		cfg.StepBackoffInitial = d
	}

	if v := os.Getenv("STEP_BACKOFF_MAX"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STEP_BACKOFF_MAX: %w", err)
		}
		cfg.StepBackoffMax = d
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = f
	}

	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = n
	}

	// Postgres is the default backend for both the CRUD API and workflow
	// state, so the connection string is required unless workflow state
	// lives elsewhere and only the orchestrator runs.
	if cfg.DatabaseURL == "" && cfg.WorkflowStore == "postgres" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}
