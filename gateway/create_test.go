package gateway_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pengdows/dbcore/dialect"
	"github.com/pengdows/dbcore/gateway"
)

func TestCreateAsync_ReturningPlanAppliesGeneratedID(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Postgres)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectQuery(`INSERT INTO "widgets" .* RETURNING "id"`).
		WithArgs("gizmo", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	w := &Widget{Name: "gizmo"}
	ok, err := g.CreateAsync(context.Background(), w)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(42), w.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsync_SessionScopedFunctionPlanRunsFollowUpScalar(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.MySQL)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectExec("INSERT INTO `widgets`").
		WithArgs("gizmo", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(`SELECT LAST_INSERT_ID\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	w := &Widget{Name: "gizmo"}
	ok, err := g.CreateAsync(context.Background(), w)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), w.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsync_CorrelationTokenPlanLooksUpByToken(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectExec(`INSERT INTO "widgets"`).
		WithArgs("gizmo", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT "id" FROM "widgets" WHERE "correlation_token" = \?`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	w := &Widget{Name: "gizmo"}
	ok, err := g.CreateAsync(context.Background(), w)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(9), w.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsync_WritableGUIDIDAutoFilledWhenZero(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[GUIDWidget, uuid.UUID](dc, "guid_widgets")

	mock.ExpectExec(`INSERT INTO "guid_widgets"`).
		WithArgs(sqlmock.AnyArg(), "gizmo").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := &GUIDWidget{Name: "gizmo"}
	ok, err := g.CreateAsync(context.Background(), w)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, uuid.UUID{}, w.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsync_NilEntityFails(t *testing.T) {
	resetRegistry(t)
	dc, _ := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	_, err := g.CreateAsync(context.Background(), nil)
	require.Error(t, err)
}
