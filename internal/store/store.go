// Package store provides the generic record store for the statistics tables
// and the account table.
//
// Every table is described once by a Descriptor; RecordStore[T] turns a
// descriptor into create/read/update/delete and the deduplicating
// CheckAndCreate used by ingestion. SQL is assembled with go-sqlbuilder's
// PostgreSQL flavor so filters stay parameterized.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

const defaultQueryTimeout = 30 * time.Second

// DB is the query surface shared by *dbpool.Pool and an acquired *pgxpool.Conn.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Base contains shared dependencies for all stores.
type Base struct {
	DB  DB
	Log *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
