package providers

import (
	"context"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
)

// OpenSQLite opens a DatabaseContext against a SQLite file (or ":memory:")
// using mattn/go-sqlite3, the same driver the teacher's examples/sqlite
// program uses.
func OpenSQLite(ctx context.Context, dsn string, opts ...dbcore.Option) (*dbcore.DatabaseContext, error) {
	return open(ctx, "sqlite3", dialect.SQLite, dsn, opts...)
}
