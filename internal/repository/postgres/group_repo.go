package postgres

import (
	"context"

	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// GroupRepo implements GroupRepository using PostgreSQL.
type GroupRepo struct{ db *DB }

// NewGroupRepo constructs a group repository.
func NewGroupRepo(db *DB) *GroupRepo { return &GroupRepo{db: db} }

// List returns the user's groups ordered by creation time, newest first.
func (r *GroupRepo) List(ctx context.Context, userID uuid.UUID) ([]model.CredentialGroup, error) {
	const q = `
SELECT id, user_id, name, description, created_at
FROM credential_groups
WHERE user_id=$1
ORDER BY created_at DESC, id`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.CredentialGroup, 0)
	for rows.Next() {
		var g model.CredentialGroup
		if err = rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Get returns a single group owned by the user.
func (r *GroupRepo) Get(ctx context.Context, userID, id uuid.UUID) (*model.CredentialGroup, error) {
	const q = `
SELECT id, user_id, name, description, created_at
FROM credential_groups WHERE user_id=$1 AND id=$2`
	var g model.CredentialGroup
	err := r.db.Pool.QueryRow(ctx, q, userID, id).Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &g.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &g, nil
}

// Create inserts a group and fills in CreatedAt.
func (r *GroupRepo) Create(ctx context.Context, g *model.CredentialGroup) error {
	const q = `
INSERT INTO credential_groups (id, user_id, name, description)
VALUES ($1, $2, $3, $4)
RETURNING created_at`
	err := r.db.Pool.QueryRow(ctx, q, g.ID, g.UserID, g.Name, g.Description).Scan(&g.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// DeleteCascade removes the group's credentials and then the group in one transaction.
func (r *GroupRepo) DeleteCascade(ctx context.Context, userID, id uuid.UUID) (removed int64, err error) {
	const delCreds = `DELETE FROM credentials WHERE user_id=$1 AND group_id=$2`
	const delGroup = `DELETE FROM credential_groups WHERE user_id=$1 AND id=$2`

	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, delCreds, userID, id)
		if err != nil {
			return err
		}
		removed = tag.RowsAffected()

		tag, err = tx.Exec(ctx, delGroup, userID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
