package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var credCols = []string{"id", "user_id", "name", "value", "type", "group_id", "created_at", "modified_at"}

func TestCredentialRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())
	gid := uuid.Must(uuid.NewV4())
	c1, c2 := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`SELECT id, user_id, name, value, type, group_id, created_at, modified_at FROM credentials WHERE user_id=\$1 ORDER BY created_at DESC`).
		WithArgs(uid).
		WillReturnRows(pgxmock.NewRows(credCols).
			AddRow(c2, uid, "gh", "ghp_x", "token", &gid, now, now).
			AddRow(c1, uid, "login", "alice", "userId", nil, now, now))
	out, err := r.List(ctx, uid)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, model.TypeToken, out[0].Type)
	require.NotNil(t, out[0].GroupID)
	require.Equal(t, gid, *out[0].GroupID)
	require.Equal(t, model.TypeUserID, out[1].Type)
	require.Nil(t, out[1].GroupID)
}

func TestCredentialRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())
	gid := uuid.Must(uuid.NewV4())
	c := &model.Credential{
		ID: uuid.Must(uuid.NewV4()), UserID: uid, Name: "GitHub", Value: "ghp_x",
		Type: model.TypeToken, GroupID: &gid,
	}
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO credentials \(id, user_id, name, value, type, group_id\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\) RETURNING created_at, modified_at`).
		WithArgs(c.ID, uid, "GitHub", "ghp_x", "token", &gid).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "modified_at"}).AddRow(now, now))
	require.NoError(t, r.Create(ctx, c))
	require.Equal(t, now, c.CreatedAt)
	require.Equal(t, now, c.ModifiedAt)

	// group of another user: composite FK fails
	mock.ExpectQuery(`INSERT INTO credentials`).
		WithArgs(c.ID, uid, "GitHub", "ghp_x", "token", &gid).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	require.ErrorIs(t, r.Create(ctx, c), errs.ErrNotFound)
}

func TestCredentialRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()
	uid, id := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`FROM credentials WHERE user_id=\$1 AND id=\$2`).
		WithArgs(uid, id).
		WillReturnRows(pgxmock.NewRows(credCols).AddRow(id, uid, "n", "v", "secret", nil, now, now))
	c, err := r.Get(ctx, uid, id)
	require.NoError(t, err)
	require.Equal(t, model.TypeSecret, c.Type)

	mock.ExpectQuery(`FROM credentials WHERE user_id=\$1 AND id=\$2`).
		WithArgs(uid, id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, uid, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCredentialRepo_UpdateValue(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()
	uid, id := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`UPDATE credentials SET value=\$3, modified_at=now\(\) WHERE user_id=\$1 AND id=\$2 RETURNING modified_at`).
		WithArgs(uid, id, "new").
		WillReturnRows(pgxmock.NewRows([]string{"modified_at"}).AddRow(now))
	ts, err := r.UpdateValue(ctx, uid, id, "new")
	require.NoError(t, err)
	require.Equal(t, now, ts)

	mock.ExpectQuery(`UPDATE credentials SET value`).
		WithArgs(uid, id, "new").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.UpdateValue(ctx, uid, id, "new")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()
	uid, id := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM credentials WHERE user_id=\$1 AND id=\$2`).
		WithArgs(uid, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	n, err := r.Delete(ctx, uid, id)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	mock.ExpectExec(`DELETE FROM credentials WHERE user_id=\$1 AND id=\$2`).
		WithArgs(uid, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	n, err = r.Delete(ctx, uid, id)
	require.NoError(t, err)
	require.Zero(t, n)
}
