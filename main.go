package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/s1natex/todolist-go/internal/board"
	"github.com/s1natex/todolist-go/internal/config"
	"github.com/s1natex/todolist-go/internal/middleware"
	"github.com/s1natex/todolist-go/internal/tasks"
	"github.com/s1natex/todolist-go/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(logger) // for third-party packages that use slog

	if err := run(cfg, logger); err != nil {
		logger.Error("server_error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "todolist", cfg.TraceExporter, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	store, closeStore := newStore(cfg, logger)
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("store_close_failed", slog.String("error", err.Error()))
		}
	}()

	authMode, err := middleware.ParseAuthMode(cfg.AuthMode)
	if err != nil {
		return err
	}
	r := newRouter(store, logger, routerOptions{
		Timeout: cfg.RequestTimeout,
		Auth: middleware.AuthConfig{
			Mode:        authMode,
			APIKey:      cfg.APIKey,
			BearerToken: cfg.BearerToken,
			SkipPaths:   []string{"/health", "/metrics"},
		},
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listen", slog.String("addr", cfg.Addr), slog.String("store", cfg.Store))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server_shutdown")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// newStore builds the task store chosen by cfg. The SQLite file is opened
// on the first request, not at startup.
func newStore(cfg config.Config, logger *slog.Logger) (tasks.Store, func() error) {
	if cfg.Store == "memory" {
		return tasks.Instrument(tasks.NewInMemoryRepo(), logger), func() error { return nil }
	}
	lazy := tasks.NewLazySQLite(cfg.DBPath, logger)
	return tasks.Instrument(lazy, logger), lazy.Close
}

type routerOptions struct {
	Timeout        time.Duration
	Auth           middleware.AuthConfig
	RateLimitRPS   float64
	RateLimitBurst int
}

// newRouter wires the health endpoint, task routes, and middleware stack
func newRouter(store tasks.Store, logger *slog.Logger, opts routerOptions) *chi.Mux {
	r := chi.NewRouter()

	// RequestID first so downstream can include it (logger, errors, etc.)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if opts.Timeout > 0 {
		r.Use(chimw.Timeout(opts.Timeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Trace-Id", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.AuthMiddleware(opts.Auth))
	r.Use(middleware.RateLimitMiddleware(middleware.NewLimiter(opts.RateLimitRPS, opts.RateLimitBurst)))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	board.RegisterRoutes(r, board.New(store), logger)

	return r
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
