// Command migrate applies or rolls back the embedded schema migrations.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/thearyanahmed/newsletter/migrations"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		down        = flag.Bool("down", false, "Roll back the latest applied migration")
		status      = flag.Bool("status", false, "List applied versions and exit")
		timeout     = flag.Duration("timeout", time.Minute, "Overall timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, logger, *databaseURL, *down, *status); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, dsn string, down, status bool) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	runner, err := migrations.NewRunner(db)
	if err != nil {
		return err
	}

	switch {
	case status:
		versions, err := runner.Applied(ctx)
		if err != nil {
			return err
		}
		logger.Info("applied migrations", "versions", versions)
	case down:
		m, err := runner.Down(ctx)
		if err != nil {
			return err
		}
		if m == nil {
			logger.Info("nothing to roll back")
			return nil
		}
		logger.Info("rolled back", "version", m.Version, "name", m.Name)
	default:
		ran, err := runner.Up(ctx)
		for _, m := range ran {
			logger.Info("applied", "version", m.Version, "name", m.Name)
		}
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			logger.Info("schema up to date")
		}
	}

	return nil
}
