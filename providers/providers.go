// Package providers supplies one Open function per supported database
// product. Each wraps dbcore.NewContext with the product's driver name and
// dialect already bound, the way the teacher's examples/<product> programs
// call typedb.Open(driverName, dsn) with the matching blank-imported driver.
//
// Each product's file blank-imports that product's database/sql driver, and
// all of them belong to this one package, so importing providers registers
// all seven drivers as a side effect.
package providers

import (
	"context"

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
)

// open is the shared constructor behind every product-specific Open
// function: it fills in ProviderName and DialectOverride, applies any
// caller-supplied Options on top, and hands the result to
// dbcore.NewContext.
func open(ctx context.Context, driverName string, product dialect.Product, dsn string, opts ...dbcore.Option) (*dbcore.DatabaseContext, error) {
	cfg := &dbcore.Config{
		ProviderName:     driverName,
		ConnectionString: dsn,
		DialectOverride:  dialect.ForProduct(product),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return dbcore.NewContext(ctx, cfg)
}
