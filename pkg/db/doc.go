// Package db provides the PostgreSQL plumbing for the metadata store.
//
// This package wraps [github.com/jackc/pgx/v5/pgxpool] to provide connection
// pooling, health checks, and schema migrations with production defaults.
//
// # Configuration
//
// All settings are loaded from environment variables:
//
//	DATABASE_CONN_URL           - PostgreSQL connection URL (required)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	DATABASE_MIN_CONNS          - Minimum idle connections (default: 5)
//	DATABASE_HEALTHCHECK_PERIOD - Health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 5s)
//	DATABASE_MIGRATIONS_TABLE   - Migrations table name (default: schema_migrations)
//
// # Usage
//
// Connect at startup and run the embedded migrations:
//
//	pool, err := db.Connect(ctx, cfg.Database)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, metadata.Migrations, cfg.Database.MigrationsTable, logger); err != nil {
//		log.Fatal(err)
//	}
//
// # Transactions
//
// The [WithTx] helper provides automatic rollback on error or panic:
//
//	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		return tx.QueryRow(ctx, "SELECT 1").Scan(&result)
//	})
//
// # Error Handling
//
// The package defines sentinel errors for common failure modes:
//
//   - [ErrFailedToParseDBConfig] - Invalid connection string format
//   - [ErrFailedToOpenDBConnection] - Connection failed after all retries
//   - [ErrHealthcheckFailed] - Database ping failed
//   - [ErrSetDialect] - Migration dialect configuration error
//   - [ErrApplyMigrations] - Migration execution failed
//
// Errors are wrapped using [errors.Join] to preserve the original error context.
package db
