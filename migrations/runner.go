package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Runner applies embedded migrations and tracks them in schema_migrations.
type Runner struct {
	db         *sql.DB
	migrations []Migration
}

// NewRunner loads the embedded migrations for db.
func NewRunner(db *sql.DB) (*Runner, error) {
	all, err := Load()
	if err != nil {
		return nil, err
	}
	return &Runner{db: db, migrations: all}, nil
}

// Up applies every pending migration in version order, each in its own
// transaction. It returns the migrations it applied.
func (r *Runner) Up(ctx context.Context) ([]Migration, error) {
	applied, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}

	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	var ran []Migration
	for _, m := range r.migrations {
		if done[m.Version] {
			continue
		}
		err := r.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.Up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
				m.Version, m.Name,
			)
			return err
		})
		if err != nil {
			return ran, fmt.Errorf("apply %06d_%s: %w", m.Version, m.Name, err)
		}
		ran = append(ran, m)
	}

	return ran, nil
}

// Down rolls back the most recently applied migration. It returns nil
// when nothing is applied.
func (r *Runner) Down(ctx context.Context) (*Migration, error) {
	if err := r.ensureVersionTable(ctx); err != nil {
		return nil, err
	}

	var version int
	err := r.db.QueryRowContext(ctx,
		`SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest version: %w", err)
	}

	var target *Migration
	for i := range r.migrations {
		if r.migrations[i].Version == version {
			target = &r.migrations[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("applied version %d has no embedded migration", version)
	}
	if target.Down == "" {
		return nil, fmt.Errorf("migration %06d_%s has no down script", target.Version, target.Name)
	}

	err = r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, target.Down); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, target.Version)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("roll back %06d_%s: %w", target.Version, target.Name, err)
	}

	return target, nil
}

// Applied lists applied versions in ascending order.
func (r *Runner) Applied(ctx context.Context) ([]int, error) {
	if err := r.ensureVersionTable(ctx); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("list applied versions: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (r *Runner) ensureVersionTable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func (r *Runner) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
