// Command cgctl manages the content groups settings, users and schema from
// the command line, and prints the tracking script a document would carry.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"contentgroups/api/internal/app"
	"contentgroups/api/internal/config"
	"contentgroups/api/internal/logging"
	"contentgroups/api/internal/store"
)

var (
	cfg    config.Config
	logger *zap.Logger

	verbose bool
)

// openBackend connects the data store used by every subcommand. Tests swap it
// for an in-memory store.
var openBackend = func(ctx context.Context, cfg config.Config) (app.DataStore, func(), error) {
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.ApplyMigrations(ctx, db, store.Migrations(cfg.MigrationsDir)); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store.NewPostgresStore(db), func() { _ = db.Close() }, nil
}

var rootCmd = &cobra.Command{
	Use:           "cgctl",
	Short:         "Manage content groups settings and tracking",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(emitCmd)
}

// withService opens the backend, builds the service and runs fn with it.
func withService(ctx context.Context, fn func(*app.Service) error) error {
	backend, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeFn()

	service := app.New(cfg, backend, logger)
	var seed map[string]string
	if strings.TrimSpace(cfg.SeedFile) != "" {
		if seed, err = config.LoadSeed(cfg.SeedFile); err != nil {
			return err
		}
	}
	if err := service.Bootstrap(ctx, seed); err != nil {
		return err
	}
	return fn(service)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
