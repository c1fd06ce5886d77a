package providers

import (
	"context"

	_ "github.com/lib/pq" // registers the "postgres" driver

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
)

// OpenPostgres opens a DatabaseContext against a PostgreSQL server using
// lib/pq. dsn is whatever lib/pq accepts: a "postgres://" URL or a
// key=value connection string.
func OpenPostgres(ctx context.Context, dsn string, opts ...dbcore.Option) (*dbcore.DatabaseContext, error) {
	return open(ctx, "postgres", dialect.Postgres, dsn, opts...)
}
