package gateway_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
	"github.com/pengdows/dbcore/gateway"
)

func TestBuildDelete_RendersInClause(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectExec(`DELETE FROM "widgets" WHERE \("id" IN \(\?, \?\)\)`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	c, err := g.BuildDelete([]int64{1, 2})
	require.NoError(t, err)

	_, err = c.ExecuteNonQuery(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildDeleteByKeys_RendersOrOfAnds(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[CompositeWidget, int64](dc, "composite_widgets")

	mock.ExpectExec(`DELETE FROM "composite_widgets" WHERE \(\("tenant_id" = \? AND "sku" = \?\)\)`).
		WithArgs(int64(1), "A").
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, err := g.BuildDeleteByKeys([][]any{{int64(1), "A"}})
	require.NoError(t, err)

	_, err = c.ExecuteNonQuery(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildDeleteEntity_UsesEntityKeyFields(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectExec(`DELETE FROM "widgets" WHERE "id" = \?`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, err := g.BuildDeleteEntity(&Widget{ID: 5})
	require.NoError(t, err)

	_, err = c.ExecuteNonQuery(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildDelete_EmptyIDsFails(t *testing.T) {
	resetRegistry(t)
	dc, _ := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	_, err := g.BuildDelete(nil)
	require.Error(t, err)
	var argErr *dbcore.ArgumentError
	require.ErrorAs(t, err, &argErr)
}
