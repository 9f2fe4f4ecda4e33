package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a pgx connection pool against the sites database and verifies
// it with a ping.
func NewPool(ctx context.Context, dsn, environment string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, normalizeDSN(dsn, environment))
	if err != nil {
		return nil, fmt.Errorf("opening connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// normalizeDSN disables SSL for local development when the connection string
// does not say otherwise. Production connection strings are expected to carry
// their own SSL settings.
func normalizeDSN(dsn, environment string) string {
	if environment != "development" || strings.Contains(dsn, "sslmode") {
		return dsn
	}
	separator := " "
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		separator = "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
	}
	return dsn + separator + "sslmode=disable"
}
