package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/saturnino-fabrica-de-software/emotune/internal/config"
	"github.com/saturnino-fabrica-de-software/emotune/internal/database"
)

const usage = "up, down, steps, version, force"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "Migration action: "+usage)
	steps := flag.Int("steps", 0, "Migrations to apply, negative rolls back (steps action)")
	version := flag.Int("version", 0, "Target version (force action)")
	flag.Parse()

	cfg, err := config.LoadMigrate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment).With(slog.String("component", "migrate"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.OpenSQL(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = db.Close() }()

	migrator, err := database.NewMigrator(db, cfg.DatabaseName, logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	if err := apply(migrator, *action, *steps, *version); err != nil {
		return err
	}

	v, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	logger.Info("schema version",
		slog.String("action", *action),
		slog.Uint64("version", uint64(v)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

func apply(m *database.Migrator, action string, steps, version int) error {
	switch action {
	case "up":
		if err := m.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
	case "down":
		if err := m.Down(); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
	case "steps":
		if steps == 0 {
			return errors.New("steps flag must be non-zero for steps action")
		}
		if err := m.Steps(steps); err != nil {
			return fmt.Errorf("migration steps failed: %w", err)
		}
	case "version":
	case "force":
		if version <= 0 {
			return errors.New("version flag is required for force action")
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}
	default:
		return fmt.Errorf("invalid action %q (use: %s)", action, usage)
	}
	return nil
}
