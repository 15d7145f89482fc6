package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/branddi/taskdash/backend/internal/api"
	"github.com/branddi/taskdash/backend/internal/auth"
	"github.com/branddi/taskdash/backend/internal/cache"
	"github.com/branddi/taskdash/backend/internal/config"
	"github.com/branddi/taskdash/backend/internal/metrics"
	"github.com/branddi/taskdash/backend/internal/storage"
	"github.com/branddi/taskdash/backend/internal/ws"
	"github.com/branddi/taskdash/backend/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.Location.String()).
		Msg("starting taskdash backend server")

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create WebSocket hub
	hub := ws.NewHub(log.Logger)
	go hub.Run()

	// Create WebSocket handler
	wsHandler := ws.NewHandler(hub, cfg, log.Logger)

	// Create activity store
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize activity store")
	}

	// Create the in-memory dataset cache
	dataset := cache.NewDataset()

	// Create handlers
	dashboardHandler := api.NewDashboardHandler(cfg, dataset, hub, log.Logger)
	periodsHandler := api.NewPeriodsHandler(store, dashboardHandler, log.Logger)
	adminHandler := api.NewAdminHandler(store, dataset, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/ws", wsHandler.ServeHTTP)

		r.Route("/api", func(r chi.Router) {
			r.Get("/dashboard", dashboardHandler.GetDashboard)
			r.Get("/dashboard/users/{name}", dashboardHandler.GetUserDrilldown)
			r.Get("/periods", periodsHandler.List)
			r.Get("/periods/{period}/load", periodsHandler.Load)

			// Mutating routes need at least the analyst role
			r.Group(func(r chi.Router) {
				r.Use(api.RequireAnalyst)
				r.Post("/upload", dashboardHandler.Upload)
				r.Put("/periods/{period}", periodsHandler.Save)
				r.Delete("/periods/{period}", periodsHandler.Delete)
			})

			// Destructive routes are admin only
			r.Group(func(r chi.Router) {
				r.Use(api.RequireAdmin)
				r.Post("/admin/truncate", adminHandler.Truncate)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"taskdash-backend"}`)
}
