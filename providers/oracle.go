package providers

import (
	"context"

	_ "github.com/sijms/go-ora/v2" // registers the "oracle" driver

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
)

// OpenOracle opens a DatabaseContext against Oracle using the pure-Go
// sijms/go-ora driver, which needs no Oracle Instant Client. dsn is an
// "oracle://" URL.
func OpenOracle(ctx context.Context, dsn string, opts ...dbcore.Option) (*dbcore.DatabaseContext, error) {
	return open(ctx, "oracle", dialect.Oracle, dsn, opts...)
}
