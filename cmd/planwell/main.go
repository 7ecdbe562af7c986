package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rdavies/planwell/internal/assistant"
	"github.com/rdavies/planwell/internal/database"
	"github.com/rdavies/planwell/internal/logging"
	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/server"
	"github.com/rdavies/planwell/internal/store"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.Setup(os.Getenv("PLANWELL_LOG_LEVEL"))

	port := env("PLANWELL_PORT", "8080")
	dbPath := env("PLANWELL_DB_PATH", "planwell.db")

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	assistantCfg := assistant.Config{
		APIKey:  os.Getenv("PLANWELL_AI_API_KEY"),
		BaseURL: os.Getenv("PLANWELL_AI_BASE_URL"),
		Model:   os.Getenv("PLANWELL_AI_MODEL"),
	}

	srv := server.New(db, assistantCfg, logger)

	if err := bootstrapAdmin(srv.UserStore(), logger); err != nil {
		logger.Error("admin bootstrap failed", "error", err)
		os.Exit(1)
	}

	// Periodic cleanup of expired sessions and stale limiter buckets.
	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Warn("session cleanup failed", "error", err)
				} else if n > 0 {
					logger.Debug("expired sessions removed", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-stopCleanup:
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("planwell listening", "port", port, "db", dbPath, "assistant", assistantCfg.APIKey != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(stopCleanup)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// bootstrapAdmin creates the initial admin account when
// PLANWELL_ADMIN_USER and PLANWELL_ADMIN_PASSWORD are set and the
// username does not exist yet. Re-running with the same env is a no-op.
func bootstrapAdmin(users *store.UserStore, logger *slog.Logger) error {
	username := os.Getenv("PLANWELL_ADMIN_USER")
	password := os.Getenv("PLANWELL_ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	if _, err := users.GetByUsername(username); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if _, err := users.Create(username, password, "", model.RoleAdmin); err != nil {
		return err
	}
	logger.Info("admin user created", "username", username)
	return nil
}
