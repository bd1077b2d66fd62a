// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/thearyanahmed/newsletter/internal/model"
	"github.com/thearyanahmed/newsletter/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema rolls every embedded migration back, newest first, then
// applies them all again. Leaves an empty, fully migrated schema.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	all, err := migrations.Load()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, all[i].Down); err != nil {
			return fmt.Errorf("apply %s down migration: %w", all[i].Name, err)
		}
	}

	for _, m := range all {
		if _, err := pool.Exec(ctx, m.Up); err != nil {
			return fmt.Errorf("apply %s up migration: %w", m.Name, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestSubscriber builds a valid subscription request with a unique email.
func NewTestSubscriber(t testing.TB, prefix string) model.NewSubscriber {
	t.Helper()
	ns, err := model.ParseNewSubscriber("Test "+prefix, UniqueEmail(prefix))
	if err != nil {
		t.Fatalf("build test subscriber: %v", err)
	}
	return ns
}

// UniqueEmail generates a unique, valid email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
