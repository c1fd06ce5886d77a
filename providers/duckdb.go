package providers

import (
	"context"

	_ "github.com/marcboeker/go-duckdb" // registers the "duckdb" driver

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
)

// OpenDuckDB opens a DatabaseContext against an embedded DuckDB database
// file (or ":memory:") using marcboeker/go-duckdb.
func OpenDuckDB(ctx context.Context, dsn string, opts ...dbcore.Option) (*dbcore.DatabaseContext, error) {
	return open(ctx, "duckdb", dialect.DuckDB, dsn, opts...)
}
