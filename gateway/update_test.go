package gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/pengdows/dbcore/dialect"
	"github.com/pengdows/dbcore/gateway"
)

func TestBuildUpdate_UnconditionalSetsAllUpdateableColumns(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectExec(`UPDATE "widgets" SET "name" = \?, "updated_on" = \? WHERE "id" = \?`).
		WithArgs("sprocket", sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := &Widget{ID: 1, Name: "sprocket"}
	c, err := g.BuildUpdate(context.Background(), w, false)
	require.NoError(t, err)

	_, err = c.ExecuteNonQuery(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildUpdate_VersionColumnIncrementsAndChecksWhere(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)

	type Versioned struct {
		ID      int64 `db:"id" is_id:"true"`
		Name    string `db:"name"`
		Version int64 `db:"version" is_version:"true"`
	}
	g := gateway.New[Versioned, int64](dc, "versioned")

	mock.ExpectExec(`UPDATE "versioned" SET "name" = \?, "version" = \? WHERE "id" = \? AND "version" = \?`).
		WithArgs("new-name", int64(2), int64(1), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	v := &Versioned{ID: 1, Name: "new-name", Version: 1}
	c, err := g.BuildUpdate(context.Background(), v, false)
	require.NoError(t, err)
	require.Equal(t, int64(2), v.Version)

	_, err = c.ExecuteNonQuery(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildUpdate_LoadOriginalFirstOnlyDiffsChangedColumns(t *testing.T) {
	resetRegistry(t)
	dc, mock := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	mock.ExpectQuery(`SELECT .* FROM "widgets" WHERE "id" = \?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_on", "updated_on"}).
			AddRow(int64(1), "gizmo", time.Now(), time.Now()))

	mock.ExpectExec(`UPDATE "widgets" SET "name" = \?, "updated_on" = \? WHERE "id" = \?`).
		WithArgs("sprocket", sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := &Widget{ID: 1, Name: "sprocket"}
	c, err := g.BuildUpdate(context.Background(), w, true)
	require.NoError(t, err)

	_, err = c.ExecuteNonQuery(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildUpdate_NilEntityFails(t *testing.T) {
	resetRegistry(t)
	dc, _ := newGatewayTestContext(t, dialect.Unknown)
	g := gateway.New[Widget, int64](dc, "widgets")

	_, err := g.BuildUpdate(context.Background(), nil, false)
	require.Error(t, err)
}
