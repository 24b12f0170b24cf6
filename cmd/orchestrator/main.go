// Package main is the entry point for the noteflow orchestrator.
// The orchestrator runs the durable notes workflow: it creates instances,
// executes their steps with checkpointing, and serves status polls.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"noteflow/internal/chat"
	"noteflow/internal/config"
	"noteflow/internal/gateway"
	"noteflow/internal/logger"
	"noteflow/internal/observability"
	"noteflow/internal/orchestrator"
	"noteflow/internal/store/memory"
	"noteflow/internal/store/postgres"
	"noteflow/internal/store/sqlite"
	"noteflow/internal/workflow"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New("noteflow-orchestrator")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Select the workflow state backend based on configuration.
	var wfStore workflow.Store
	switch cfg.WorkflowStore {
	case "sqlite":
		s, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open sqlite store: %v", err)
		}
		defer s.Close()
		wfStore = s
		log.Printf("Using sqlite workflow store (path: %s)", cfg.SQLitePath)
	case "memory":
		wfStore = memory.New()
		log.Println("Using in-memory workflow store (state is lost on restart)")
	default:
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer s.Close()
		if *migrateFlag {
			log.Println("Running database migrations...")
			if err := postgres.Migrate(s.DB()); err != nil {
				log.Fatalf("Migration failed: %v", err)
			}
		}
		wfStore = s
		log.Println("Using postgres workflow store")
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "noteflow-orchestrator", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	executor := workflow.New(wfStore,
		workflow.WithMaxRetries(cfg.StepMaxRetries),
		workflow.WithBackoff(&workflow.ExponentialBackoff{
			Initial: cfg.StepBackoffInitial,
			Max:     cfg.StepBackoffMax,
		}),
		workflow.WithLogger(slogger),
	)

	job := orchestrator.NewNotesJob(
		chat.New(cfg.ChatAPIURL, chat.WithTimeout(cfg.ChatAPITimeout)),
		gateway.New(cfg.NotesAPIURL),
	)

	// Crash recovery: re-launch instances left in running state.
	// Checkpointed steps replay from their cached results.
	if err := executor.ResumeAll(ctx, job.Run); err != nil {
		log.Printf("Failed to resume instances: %v", err)
	}

	// Use an Observable Gauge (async) that queries the store only when scraped.
	meter := otel.Meter("noteflow-orchestrator")
	_, err = meter.Int64ObservableGauge("noteflow.instances.running",
		metric.WithDescription("Current number of running workflow instances"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			running, err := wfStore.ListInstancesByState(ctx, workflow.InstanceStateRunning)
			if err != nil {
				log.Printf("Failed to count running instances: %v", err)
				return nil // Don't crash metrics scrape on store error
			}
			obs.Observe(int64(len(running)))
			return nil
		}),
	)
	if err != nil {
		log.Printf("Failed to register running instances metric: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.OrchestratorPort)
	srv := orchestrator.New(addr, executor, job, slogger, metricsHandler)

	go func() {
		log.Printf("Noteflow orchestrator starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down orchestrator...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}
