package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// migrationLockID serializes concurrent replicas applying migrations.
const migrationLockID int64 = 72_617_001

const (
	createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	lockMigrations    = `SELECT pg_advisory_xact_lock($1)`
	migrationApplied  = `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`
	recordMigration   = `INSERT INTO schema_migrations (version) VALUES ($1)`
	migrationSuffix   = ".up.sql"
)

// MigrationConn is satisfied by *pgxpool.Pool and the pgxmock pool.
type MigrationConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// isConnectionError reports whether err is a transient connection failure.
// SQL errors are never retried.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || pgconn.SafeToRetry(err) {
		return true
	}
	msg := err.Error()
	for _, p := range []string{"connection refused", "connection reset", "broken pipe", "server closed the connection"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// RunMigrations applies every *.up.sql file at the root of fsys in name
// order. Each file runs in its own transaction under an advisory lock and is
// recorded in schema_migrations; recorded files are skipped.
func RunMigrations(ctx context.Context, conn MigrationConn, fsys fs.FS, logger *slog.Logger) error {
	files, err := migrationFiles(fsys)
	if err != nil {
		return err
	}
	return connectRetry.do(ctx, logger, "run migrations", isConnectionError, func(ctx context.Context) error {
		return applyMigrations(ctx, conn, fsys, files, logger)
	})
}

func migrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), migrationSuffix) {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

func applyMigrations(ctx context.Context, conn MigrationConn, fsys fs.FS, files []string, logger *slog.Logger) error {
	if _, err := conn.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	for _, name := range files {
		applied, err := applyMigration(ctx, conn, fsys, name)
		if err != nil {
			return err
		}
		if applied {
			logger.InfoContext(ctx, "migration applied", slog.String("version", name))
		} else {
			logger.DebugContext(ctx, "migration already applied", slog.String("version", name))
		}
	}
	return nil
}

func applyMigration(ctx context.Context, conn MigrationConn, fsys fs.FS, name string) (applied bool, err error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return false, fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer func() {
		if err != nil || !applied {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, lockMigrations, migrationLockID); err != nil {
		return false, fmt.Errorf("lock migrations: %w", err)
	}

	var exists bool
	if err = tx.QueryRow(ctx, migrationApplied, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	if exists {
		return false, nil
	}

	if _, err = tx.Exec(ctx, string(content)); err != nil {
		return false, fmt.Errorf("execute migration %s: %w", name, err)
	}
	if _, err = tx.Exec(ctx, recordMigration, name); err != nil {
		return false, fmt.Errorf("record migration %s: %w", name, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit migration %s: %w", name, err)
	}
	return true, nil
}
