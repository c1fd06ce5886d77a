package providers

import (
	"context"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
)

// OpenMySQL opens a DatabaseContext against a MySQL or MariaDB server using
// go-sql-driver/mysql. dsn follows that driver's own DSN grammar, e.g.
// "user:pass@tcp(127.0.0.1:3306)/dbname?parseTime=true".
func OpenMySQL(ctx context.Context, dsn string, opts ...dbcore.Option) (*dbcore.DatabaseContext, error) {
	return open(ctx, "mysql", dialect.MySQL, dsn, opts...)
}
