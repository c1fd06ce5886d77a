package dbcore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pengdows/dbcore/dialect"
	"github.com/stretchr/testify/require"
)

func newTestContextForProduct(t *testing.T, product dialect.Product) *DatabaseContext {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectQuery(".*").WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("1"))

	base := defaultConfig()
	base.ProviderName = "sqlmock"
	base.ConnectionString = "sqlmock"

	dc, err := newContextFromDB(context.Background(), db, dialect.ForProduct(product), defaultLogger, base)
	require.NoError(t, err)
	t.Cleanup(func() { dc.Dispose() })
	return dc
}

func TestWrapProcedureCall_EmptyNameFails(t *testing.T) {
	dc := newTestContextForProduct(t, dialect.Unknown)
	_, err := dc.WrapProcedureCall("")
	require.Error(t, err)
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
}

func TestWrapProcedureCall_UnsupportedDialectFails(t *testing.T) {
	dc := newTestContextForProduct(t, dialect.SQLite)
	_, err := dc.WrapProcedureCall("do_thing")
	require.Error(t, err)
	var nsErr *NotSupportedError
	require.ErrorAs(t, err, &nsErr)
	require.Equal(t, "dbcore: Stored procedures are not supported by this database.", nsErr.Error())
}

func TestWrapProcedureCall_MSSQLRendersExec(t *testing.T) {
	dc := newTestContextForProduct(t, dialect.MSSQL)
	c, err := dc.WrapProcedureCall("do_thing", &Parameter{DbType: "Int64", Value: int64(1), Direction: DirectionInput})
	require.NoError(t, err)
	require.Contains(t, c.Query(), "EXEC ")
	require.Equal(t, 1, c.ParameterCount())
}

func TestWrapProcedureCall_PostgresRendersSelect(t *testing.T) {
	dc := newTestContextForProduct(t, dialect.Postgres)
	c, err := dc.WrapProcedureCall("do_thing", &Parameter{DbType: "Int64", Value: int64(1), Direction: DirectionInput})
	require.NoError(t, err)
	require.Contains(t, c.Query(), "SELECT ")
}

func TestWrapProcedureCall_OracleRendersBeginEnd(t *testing.T) {
	dc := newTestContextForProduct(t, dialect.Oracle)
	c, err := dc.WrapProcedureCall("do_thing")
	require.NoError(t, err)
	require.Contains(t, c.Query(), "BEGIN ")
	require.Contains(t, c.Query(), "END;")
}

func TestWrapProcedureCall_MySQLRendersCall(t *testing.T) {
	dc := newTestContextForProduct(t, dialect.MySQL)
	c, err := dc.WrapProcedureCall("do_thing")
	require.NoError(t, err)
	require.Contains(t, c.Query(), "CALL ")
}

func TestWrapProcedureCall_FirebirdRendersExecuteProcedure(t *testing.T) {
	dc := newTestContextForProduct(t, dialect.Firebird)
	c, err := dc.WrapProcedureCall("do_thing")
	require.NoError(t, err)
	require.Contains(t, c.Query(), "EXECUTE PROCEDURE ")
}
