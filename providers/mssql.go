package providers

import (
	"context"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
)

// OpenMSSQL opens a DatabaseContext against SQL Server using
// microsoft/go-mssqldb. dsn is a "sqlserver://" URL.
func OpenMSSQL(ctx context.Context, dsn string, opts ...dbcore.Option) (*dbcore.DatabaseContext, error) {
	return open(ctx, "sqlserver", dialect.MSSQL, dsn, opts...)
}
