package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"librarycatalog/internal/config"
	"librarycatalog/internal/logger"
	"librarycatalog/internal/store"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Environment: cfg.Env, Level: logger.ParseLevel(cfg.LogLevel)})

	if err := run(context.Background(), cfg, log, *command, *name); err != nil {
		log.Error("migration failed", "command", *command, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, command, name string) error {
	dir := migrationsDir()

	if command == "create" {
		if name == "" {
			return fmt.Errorf("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, name, "sql"); err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		log.Info("migration created", "name", name, "dir", dir)
		return nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("connect to database (%s): %w", store.RedactDSN(cfg.DatabaseDSN), err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		log.Info("migrations applied", "dir", dir)
	case "down":
		if err := goose.Down(db, dir); err != nil {
			return fmt.Errorf("roll back migration: %w", err)
		}
		log.Info("migration rolled back", "dir", dir)
	case "status":
		if err := goose.Status(db, dir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q, use: up, down, status, create", command)
	}
	return nil
}
