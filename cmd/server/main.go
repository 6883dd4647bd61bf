// Package main implements the entry point for the Library API server,
// which serves authors and books behind a request pipeline with bearer
// authentication, response caching and API versioning.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/library-api/internal/config"
	"github.com/phrazzld/library-api/internal/platform/logger"
	"github.com/phrazzld/library-api/internal/platform/postgres"
)

// options are the command-line flags of the server binary.
type options struct {
	// migrate runs a goose command (up, down, status, version, redo, reset)
	// and exits instead of serving.
	migrate string
	args    []string
}

func parseFlags(fs *flag.FlagSet, argv []string) (options, error) {
	var opts options
	fs.StringVar(&opts.migrate, "migrate", "",
		"run a migration command (up, down, status, version, redo, reset) and exit")
	if err := fs.Parse(argv); err != nil {
		return options{}, err
	}
	opts.args = fs.Args()
	return opts, nil
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, connects to the database and then either runs a
// migration command or serves until ctx is canceled.
func run(ctx context.Context, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"require_tls", cfg.Server.RequireTLS,
		"cache_backend", cfg.Cache.Backend)

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database connection", "error", err)
		}
	}()

	if opts.migrate != "" {
		return postgres.Migrate(ctx, db, log, opts.migrate, opts.args...)
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db, log, "up"); err != nil {
			return err
		}
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}
