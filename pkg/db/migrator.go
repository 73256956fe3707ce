package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// MigrationsGlob is the pattern goose resolves against the root of the
// migrations FS. Callers must hand Migrate an FS whose root contains the
// .sql files directly (fs.Sub an embed.FS when the directive nests them).
const MigrationsGlob = "*.sql"

// Migrate applies all pending migrations from the given filesystem.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, migrationTable string, log *slog.Logger) error {
	// Fail with a clear error if the FS is rooted wrong; goose would only
	// report that it found no migration files.
	matches, err := fs.Glob(migrations, MigrationsGlob)
	if err != nil || len(matches) == 0 {
		return errors.Join(ErrNoMigrations, err)
	}

	// Bridge pgx connection pool to database/sql interface required by goose.
	// This creates a wrapper that shares the underlying connections but provides
	// the standard library interface that goose migration tool expects.
	// Note: We don't close db here because stdlib.OpenDBFromPool shares the underlying
	// pool connections, and closing would disrupt the shared pool.
	db := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLoggerAdapter{log})
	goose.SetTableName(migrationTable)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	// Log at error level only - goose will return an error that propagates up.
	// We avoid os.Exit(1) to allow proper shutdown and cleanup.
	g.log.Error(fmt.Sprintf(format, args...))
}
