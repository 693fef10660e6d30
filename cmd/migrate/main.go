package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/familyalbum/faces/internal/config"
	"github.com/familyalbum/faces/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "Migration action: up, down, version, force")
	version := flag.Int("version", 0, "Target version (for force action)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg.Environment)

	db, err := database.OpenSQL(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	migrator, err := database.NewMigrator(db, "")
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	switch *action {
	case "up":
		logger.Info("running migrations")
		if err := migrator.Up(); err != nil {
			return err
		}
	case "down":
		logger.Info("rolling back last migration")
		if err := migrator.Down(); err != nil {
			return err
		}
	case "version":
	case "force":
		if *version <= 0 {
			return fmt.Errorf("version flag is required for force action")
		}
		logger.Warn("forcing migration version", slog.Int("version", *version))
		if err := migrator.Force(*version); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid action: %s (use: up, down, version, force)", *action)
	}

	current, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	logger.Info("migration state", slog.Uint64("version", uint64(current)), slog.Bool("dirty", dirty))
	return nil
}
