// Package migrations runs the versioned SQL migrations under the
// migrations directory against PostgreSQL.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Runner executes database migrations.
type Runner struct {
	db            *sql.DB
	migrationsDir string
}

// NewRunner creates a new migration runner.
func NewRunner(db *sql.DB, migrationsDir string) *Runner {
	return &Runner{db: db, migrationsDir: migrationsDir}
}

// Record is a row of the schema_migrations table.
type Record struct {
	Version   string
	AppliedAt time.Time
}

// EnsureMigrationTable creates the schema_migrations table if it does
// not exist.
func (r *Runner) EnsureMigrationTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(14) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// Applied returns all applied migration versions in order.
func (r *Runner) Applied(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Version, &rec.AppliedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Pending returns migration versions present on disk but not yet
// applied, in order.
func (r *Runner) Pending(ctx context.Context) ([]string, error) {
	available, err := r.scanVersions("up")
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := r.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	appliedSet := make(map[string]bool, len(applied))
	for _, rec := range applied {
		appliedSet[rec.Version] = true
	}

	var pending []string
	for _, v := range available {
		if !appliedSet[v] {
			pending = append(pending, v)
		}
	}
	sort.Strings(pending)
	return pending, nil
}

// Up runs all pending migrations.
func (r *Runner) Up(ctx context.Context) (int, error) {
	if err := r.EnsureMigrationTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure migration table: %w", err)
	}

	pending, err := r.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for i, version := range pending {
		if err := r.run(ctx, version, "up"); err != nil {
			return i, fmt.Errorf("migration %s failed: %w", version, err)
		}
	}
	return len(pending), nil
}

// Down rolls back the last applied migration.
func (r *Runner) Down(ctx context.Context) (string, error) {
	applied, err := r.Applied(ctx)
	if err != nil {
		return "", err
	}
	if len(applied) == 0 {
		return "", nil
	}

	last := applied[len(applied)-1]
	if err := r.run(ctx, last.Version, "down"); err != nil {
		return "", fmt.Errorf("rollback %s failed: %w", last.Version, err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", last.Version); err != nil {
		return "", fmt.Errorf("failed to remove migration record: %w", err)
	}
	return last.Version, nil
}

// scanVersions lists migration versions on disk for the direction.
// Filenames follow 000001_name.up.sql.
func (r *Runner) scanVersions(direction string) ([]string, error) {
	suffix := fmt.Sprintf(".%s.sql", direction)
	var versions []string

	err := filepath.WalkDir(r.migrationsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, suffix) {
			return nil
		}
		base := strings.TrimSuffix(filepath.Base(path), suffix)
		parts := strings.SplitN(base, "_", 2)
		if len(parts) != 2 {
			return nil
		}
		versions = append(versions, parts[0])
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(versions)
	return versions, nil
}

// run executes a single migration file inside a transaction and
// records its version.
func (r *Runner) run(ctx context.Context, version, direction string) error {
	pattern := filepath.Join(r.migrationsDir, fmt.Sprintf("%s_*.%s.sql", version, direction))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("migration file not found: %s", pattern)
	}

	content, err := os.ReadFile(matches[0])
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return err
	}
	if direction == "up" {
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			return err
		}
	}
	return tx.Commit()
}
