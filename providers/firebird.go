package providers

import (
	"context"

	_ "github.com/nakagami/firebirdsql" // registers the "firebirdsql" driver

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
)

// OpenFirebird opens a DatabaseContext against Firebird using
// nakagami/firebirdsql. dsn follows that driver's grammar, e.g.
// "user:pass@127.0.0.1:3050/path/to/db.fdb".
func OpenFirebird(ctx context.Context, dsn string, opts ...dbcore.Option) (*dbcore.DatabaseContext, error) {
	return open(ctx, "firebirdsql", dialect.Firebird, dsn, opts...)
}
