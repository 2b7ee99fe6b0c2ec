package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Sabale88/IchilovTest/internal/clinical"
	clinicalmssql "github.com/Sabale88/IchilovTest/internal/clinical/mssql"
	"github.com/Sabale88/IchilovTest/internal/monitor"
	"github.com/Sabale88/IchilovTest/internal/shared/auth"
	"github.com/Sabale88/IchilovTest/internal/shared/config"
	"github.com/Sabale88/IchilovTest/internal/shared/database"
	"github.com/Sabale88/IchilovTest/internal/shared/events"
	"github.com/Sabale88/IchilovTest/internal/shared/metrics"
	secmiddleware "github.com/Sabale88/IchilovTest/internal/shared/middleware"
	"github.com/Sabale88/IchilovTest/internal/snapshot"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus
	Source clinical.Source
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	// The snapshot store is mandatory; without it there is nothing to serve.
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to snapshot database: %v\n", err)
		os.Exit(1)
	}
	app.DB = db
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	// Clinical source: the snapshot database itself, or an external HIS.
	switch cfg.Clinical.Driver {
	case "mssql":
		adapter, err := clinicalmssql.New(cfg.Clinical)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to HIS: %v\n", err)
			os.Exit(1)
		}
		defer adapter.Close()
		app.Source = adapter
		fmt.Printf("Clinical source: mssql (%s/%s)\n", cfg.Clinical.Host, cfg.Clinical.Database)
	default:
		app.Source = clinical.NewPostgresSource(db.Pool)
		fmt.Println("Clinical source: postgres")
	}

	// Event bus is optional; snapshots work without streaming.
	if cfg.KurrentDB.Enabled {
		bus, err := events.NewBus(ctx, cfg.KurrentDB)
		if err != nil {
			fmt.Printf("Warning: KurrentDB not available: %v\n", err)
			fmt.Println("Running without event streaming...")
		} else {
			app.Bus = bus
			defer bus.Close()
			fmt.Println("KurrentDB event bus initialized")
		}
	}

	var publisher events.Publisher
	if app.Bus != nil {
		publisher = app.Bus
	}
	store := snapshot.NewRepository(db.Pool)
	svc := monitor.NewService(app.Source, store, publisher, cfg.Monitor)

	// Warm the snapshot tables so the first caller does not pay for a full
	// pass. Failure here is not fatal; retrieval regenerates on miss.
	if summary, err := svc.Refresh(ctx, cfg.Monitor.HoursThreshold); err != nil {
		fmt.Printf("Warning: initial snapshot refresh failed: %v\n", err)
	} else {
		fmt.Printf("Initial snapshot: %d patients, %d detail payloads\n",
			summary.PatientCount, summary.DetailSnapshots)
	}

	if cfg.Monitor.RefreshIntervalMinutes > 0 {
		go svc.RunPeriodic(ctx)
		fmt.Printf("Periodic refresh every %d minutes\n", cfg.Monitor.RefreshIntervalMinutes)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.RateLimiter(50, 100))
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.Env == "production" {
			r.Use(auth.Middleware(cfg.Auth))
		}

		handler := monitor.NewHandler(svc)
		r.Mount("/", handler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("Patient Monitoring Snapshot Service")
	fmt.Println("============================================")
	fmt.Printf("Environment:      %s\n", cfg.Server.Env)
	fmt.Printf("Server:           http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:              http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:           http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Printf("Clinical driver:  %s\n", cfg.Clinical.Driver)
	fmt.Printf("Hours threshold:  %d\n", cfg.Monitor.HoursThreshold)
	fmt.Printf("Release grace:    %d min\n", cfg.Monitor.ReleaseGraceMinutes)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Patient Monitoring Snapshot Service",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if err := app.DB.Health(r.Context()); err != nil {
			checks["database"] = "not ready: " + err.Error()
		} else {
			checks["database"] = "ready"
		}

		if err := app.Source.Health(r.Context()); err != nil {
			checks["clinical_source"] = "not ready: " + err.Error()
		} else {
			checks["clinical_source"] = "ready"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["kurrentdb"] = "not ready: " + err.Error()
			} else {
				checks["kurrentdb"] = "ready"
			}
		} else {
			checks["kurrentdb"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
