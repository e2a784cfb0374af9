package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mksvk/smart-tasks/internal/config"
	"github.com/mksvk/smart-tasks/internal/middleware"
	"github.com/mksvk/smart-tasks/internal/reminder"
	"github.com/mksvk/smart-tasks/internal/tasks"
	"github.com/mksvk/smart-tasks/internal/telemetry"
	"github.com/mksvk/smart-tasks/static"
)

func main() {
	cfg, err := config.Load(os.Getenv("SMART_TASKS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.LogLevel(),
	}))
	slog.SetDefault(logger) // for third-party packages that use slog

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		logger.Error("telemetry_setup_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dsn, err := tasks.SQLiteFileDSN(cfg.Store.Path)
	if err != nil {
		logger.Error("store_dsn_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	repo, err := tasks.NewSQLiteRepo(dsn)
	if err != nil {
		logger.Error("store_open_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer repo.Close()
	if err := repo.ApplyMigrations(ctx); err != nil {
		logger.Error("store_migrate_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	worker := reminder.New(repo, newNotifier(cfg, logger), reminder.Options{
		Interval:    cfg.Reminder.Interval(),
		ScanTimeout: cfg.Reminder.ScanTimeout(),
		Recipients:  cfg.Reminder.Recipients,
	}, logger)
	go worker.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: newRouter(cfg, repo, logger),
	}
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	logger.Info("server_listen", slog.String("addr", cfg.Server.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server_error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("tracing_flush_failed", slog.String("error", err.Error()))
	}
	logger.Info("server_stopped")
}

// newRouter wires the health endpoint, metrics, task routes, the embedded
// UI, and the middleware stack.
func newRouter(cfg *config.Config, repo tasks.Repository, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// ---- Middleware stack (order matters a bit) ----
	// RequestID first so downstream can include it (logger, errors, etc.)
	r.Use(chimw.RequestID)

	// Panic recovery: never crash the server; returns 500 on panics
	r.Use(chimw.Recoverer)

	// Timeouts: cancel handlers that exceed this duration
	r.Use(chimw.Timeout(15 * time.Second))

	// CORS: allowed origins come from configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Trace-Id"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	// Auth guards the API; health, metrics, and the UI assets stay open
	r.Use(middleware.AuthMiddleware(middleware.AuthConfig{
		Mode:        middleware.AuthMode(cfg.Auth.Mode),
		APIKey:      cfg.Auth.APIKey,
		BearerToken: cfg.Auth.BearerToken,
		SkipPaths:   []string{"/health", "/metrics", "/", "/index.html", "/app.js", "/style.css"},
	}))

	r.Use(middleware.RateLimitMiddleware(middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.TracingMiddleware)

	// Our structured request logger (includes req_id).
	r.Use(middleware.RequestLogger(logger))

	// ---- Routes ----

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", middleware.MetricsHandler())

	tasks.RegisterRoutes(r, repo, cfg.Owner.ID)

	// Single-page client, embedded in the binary
	r.Handle("/*", http.FileServer(http.FS(static.EmbeddedFS())))

	return r
}

func newNotifier(cfg *config.Config, logger *slog.Logger) reminder.Notifier {
	if cfg.Twilio.Configured() {
		return reminder.NewTwilioNotifier(reminder.TwilioConfig{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			FromNumber: cfg.Twilio.FromNumber,
		}, logger)
	}
	return reminder.LogNotifier{Logger: logger}
}
