package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"prdtool/internal/app"
	"prdtool/internal/auth"
	"prdtool/internal/config"
	"prdtool/internal/handler"
	"prdtool/internal/middleware"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"database_backend", cfg.DatabaseBackend,
		"content_backend", cfg.ContentBackend,
		"completion_provider", cfg.CompletionProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := app.OpenBackends(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open backends: %v", err)
	}

	application, err := app.New(cfg, backends, logger)
	if err != nil {
		log.Fatalf("Failed to set up services: %v", err)
	}
	defer application.Close()

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, application.Handlers)
	mux.Handle("GET /metrics", application.Metrics.Handler())

	// Build middleware chain. Metrics wraps the mux directly so the matched
	// route pattern is visible to it.
	var h http.Handler = middleware.Metrics(application.Metrics)(mux)

	if cfg.AuthDisabled {
		if cfg.DevUserID == "" {
			log.Fatalf("AUTH_DISABLED requires DEV_USER_ID")
		}
		logger.Warn("AUTH DISABLED: every request runs as the dev user (NEVER use in production!)", "user_id", cfg.DevUserID)
		h = middleware.DevAuthMiddleware(cfg.DevUserID)(h)
	} else {
		jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	}

	h = middleware.Recovery(logger)(h)
	h = middleware.RequestID(h)

	// CORS - outermost so OPTIONS pre-flight requests never reach auth
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}
