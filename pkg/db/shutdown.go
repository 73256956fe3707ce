package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Healthcheck returns a probe that pings the database, for readiness
// endpoints.
func Healthcheck(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return ErrHealthcheckFailed
		}
		return nil
	}
}

// Shutdown returns a hook that closes the connection pool on server exit.
func Shutdown(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		pool.Close()
		return nil
	}
}
