package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"contentgroups/api/internal/app"
	"contentgroups/api/internal/config"
	"contentgroups/api/internal/logging"
	"contentgroups/api/internal/session"
	"contentgroups/api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode(logger, run(cfg, logger)))
}

// exitCode flushes the logger before main hands the code to os.Exit.
func exitCode(logger *zap.Logger, err error) int {
	defer func() { _ = logger.Sync() }()
	if err != nil {
		logger.Error("api stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, store.Migrations(cfg.MigrationsDir)); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	var seed map[string]string
	if strings.TrimSpace(cfg.SeedFile) != "" {
		seed, err = config.LoadSeed(cfg.SeedFile)
		if err != nil {
			return err
		}
	}

	dataStore := store.NewPostgresStore(db)
	var service *app.Service
	if strings.TrimSpace(cfg.RedisURL) != "" {
		logger.Info("using redis for form tokens")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer redisStore.Close()
		service = app.NewWithNonceStore(cfg, dataStore, redisStore, logger)
	} else {
		logger.Info("using postgres for form tokens")
		service = app.New(cfg, dataStore, logger)
	}
	if err := service.Bootstrap(ctx, seed); err != nil {
		logger.Warn("bootstrap error (will retry on next restart)", zap.Error(err))
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("content groups api listening", zap.String("addr", cfg.Addr), zap.String("validation_mode", cfg.ValidationMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	return nil
}
