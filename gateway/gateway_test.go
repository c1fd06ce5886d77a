package gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
	"github.com/pengdows/dbcore/gateway"
	"github.com/pengdows/dbcore/registry"
)

// newGatewayTestContext opens a dbcore.DatabaseContext against a
// sqlmock-backed *sql.DB registered under a unique DSN, so dbcore's own
// sql.Open call inside NewContext reuses the same mock connection this
// test configures expectations against.
func newGatewayTestContext(t *testing.T, product dialect.Product) (*dbcore.DatabaseContext, sqlmock.Sqlmock) {
	t.Helper()
	dsn := "gateway-test-" + t.Name()

	mock, err := sqlmock.NewWithDSN(dsn)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("1"))

	dc, err := dbcore.NewContext(context.Background(), &dbcore.Config{
		ProviderName:     "sqlmock",
		ConnectionString: dsn,
		DialectOverride:  dialect.ForProduct(product),
	})
	require.NoError(t, err)
	t.Cleanup(func() { dc.Dispose() })
	return dc, mock
}

type Widget struct {
	ID        int64  `db:"id" db_type:"Int64" is_id:"true"`
	Name      string `db:"name" db_type:"String"`
	CreatedOn time.Time `db:"created_on" db_type:"DateTime" is_created_on:"true" is_non_updateable:"true"`
	UpdatedOn time.Time `db:"updated_on" db_type:"DateTime" is_last_updated_on:"true"`
}

type CompositeWidget struct {
	TenantID int64  `db:"tenant_id" is_primary_key:"true" pk_order:"0"`
	SKU      string `db:"sku" is_primary_key:"true" pk_order:"1"`
	Label    string `db:"label"`
}

type GUIDWidget struct {
	ID   uuid.UUID `db:"id" db_type:"Guid" is_id:"true" id_is_writable:"true"`
	Name string    `db:"name"`
}

func resetRegistry(t *testing.T) {
	t.Helper()
	registry.Clear()
	t.Cleanup(registry.Clear)
}

func TestBuildRetrieve_RendersINClause(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectQuery(`(?s)SELECT .* FROM "widgets" WHERE \("id" IN \(\?, \?\)\)`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_on", "updated_on"}).
			AddRow(int64(1), "gizmo", time.Now(), time.Now()))

	c, err := g.BuildRetrieve([]int64{1, 2}, "")
	require.NoError(t, err)

	widgets, err := g.LoadAsync(context.Background(), c, nil)
	require.NoError(t, err)
	require.Len(t, widgets, 1)
	require.Equal(t, "gizmo", widgets[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildRetrieve_EmptyIDsFails(t *testing.T) {
	resetRegistry(t)
	dc, _ := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	_, err := g.BuildRetrieve(nil, "")
	require.Error(t, err)
	var argErr *dbcore.ArgumentError
	require.ErrorAs(t, err, &argErr)
}

func TestBuildRetrieve_CompositeKeyEntityRejected(t *testing.T) {
	resetRegistry(t)
	dc, _ := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[CompositeWidget, int64](dc, "composite_widgets")

	_, err := g.BuildRetrieve([]int64{1}, "")
	require.Error(t, err)
	var nsErr *dbcore.NotSupportedError
	require.ErrorAs(t, err, &nsErr)
}

func TestBuildRetrieveByKeys_RendersOrOfAnds(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[CompositeWidget, int64](dc, "composite_widgets")

	mock.ExpectQuery(`(?s)SELECT .* FROM "composite_widgets" WHERE \(\("tenant_id" = \? AND "sku" = \?\) OR \("tenant_id" = \? AND "sku" = \?\)\)`).
		WithArgs(int64(1), "A", int64(2), "B").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "sku", "label"}))

	c, err := g.BuildRetrieveByKeys([][]any{{int64(1), "A"}, {int64(2), "B"}}, "")
	require.NoError(t, err)

	_, err = g.LoadAsync(context.Background(), c, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildRetrieve_PostgresUsesColonW0(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Postgres)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectQuery(`(?s)SELECT .* FROM "widgets" WHERE \("id" IN \(:w0\)\)`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_on", "updated_on"}))

	c, err := g.BuildRetrieve([]int64{42}, "")
	require.NoError(t, err)
	require.Contains(t, c.Query(), "{S}w0")
	require.Equal(t, 1, c.ParameterCount())

	_, err = g.LoadAsync(context.Background(), c, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildRetrieve_SQLiteUsesAtW0(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.SQLite)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectQuery(`(?s)SELECT .* FROM "widgets" WHERE \("id" IN \(@w0\)\)`).
		WithArgs(int64(43)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_on", "updated_on"}))

	c, err := g.BuildRetrieve([]int64{43}, "")
	require.NoError(t, err)
	require.NotContains(t, c.Query(), ":w0")
	require.Contains(t, c.Query(), "{S}w0")

	_, err = g.LoadAsync(context.Background(), c, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildRetrieveByKeys_SequentialKNamesSpanTuples(t *testing.T) {
	resetRegistry(t)
	dc, _ := newGatewayTestContext(t, dialect.Postgres)
	g := gateway.New[CompositeWidget, int64](dc, "composite_widgets")

	c, err := g.BuildRetrieveByKeys([][]any{{int64(1), "A"}, {int64(2), "B"}}, "")
	require.NoError(t, err)
	require.Contains(t, c.Query(), `WHERE (({Q}tenant_id{q} = {S}k0 AND {Q}sku{q} = {S}k1) OR ({Q}tenant_id{q} = {S}k2 AND {Q}sku{q} = {S}k3))`)
}

func TestBuildWhere_TooManyParametersFails(t *testing.T) {
	resetRegistry(t)
	dc, _ := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets", gateway.WithMaxParameterSafetyCap(2))

	ids := make([]int64, 3)
	for i := range ids {
		ids[i] = int64(i)
	}
	_, err := g.BuildRetrieve(ids, "")
	require.Error(t, err)
	var tooMany *dbcore.TooManyParametersError
	require.ErrorAs(t, err, &tooMany)
	require.Equal(t, 3, tooMany.Count)
	require.Equal(t, 2, tooMany.Limit)
}

func TestReaderPlan_CachedAcrossCallsWithSameColumnShape(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	cols := []string{"id", "name", "created_on", "updated_on"}
	mock.ExpectQuery(`(?s)SELECT .* FROM "widgets" WHERE \("id" IN \(\?\)\)`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "a", time.Now(), time.Now()))
	mock.ExpectQuery(`(?s)SELECT .* FROM "widgets" WHERE \("id" IN \(\?\)\)`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(2), "b", time.Now(), time.Now()))

	c1, _ := g.BuildRetrieve([]int64{1}, "")
	_, err := g.LoadAsync(context.Background(), c1, nil)
	require.NoError(t, err)

	c2, _ := g.BuildRetrieve([]int64{2}, "")
	_, err = g.LoadAsync(context.Background(), c2, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadAsync_LenientModeKeepsZeroValueAndRecordsDrop(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectQuery(`(?s)SELECT .* FROM "widgets" WHERE \("id" IN \(\?\)\)`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_on", "updated_on"}).
			AddRow(int64(1), "gizmo", int64(12345), time.Now()))

	c, err := g.BuildRetrieve([]int64{1}, "")
	require.NoError(t, err)

	opts := &gateway.LoadOptions{Lenient: true}
	widgets, err := g.LoadAsync(context.Background(), c, opts)
	require.NoError(t, err)
	require.Len(t, widgets, 1)
	require.True(t, widgets[0].CreatedOn.IsZero())
	require.Equal(t, 1, opts.LenientDropCount)
	require.Equal(t, []string{"created_on"}, opts.LenientDroppedColumns)
	require.NoError(t, mock.ExpectationsWereMet())
}
