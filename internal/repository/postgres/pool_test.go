package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/and161185/agent-pass/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestErrorClassifiers(t *testing.T) {
	require.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.True(t, isForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, isForeignKeyViolation(errors.New("x")))
	require.False(t, isUniqueViolation(nil))

	require.ErrorIs(t, mapNoRows(pgx.ErrNoRows), errs.ErrNotFound)
	other := errors.New("boom")
	require.Equal(t, other, mapNoRows(other))
}

func TestDB_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	db := &DB{Pool: mock}

	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))

	down := errors.New("connection refused")
	mock.ExpectPing().WillReturnError(down)
	require.ErrorIs(t, db.Ping(context.Background()), down)

	require.NoError(t, mock.ExpectationsWereMet())
}
