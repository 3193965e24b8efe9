package postgres

import (
	"context"
	"time"

	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/gofrs/uuid/v5"
)

// CredentialRepo implements CredentialRepository using PostgreSQL.
type CredentialRepo struct{ db *DB }

// NewCredentialRepo constructs a credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo { return &CredentialRepo{db: db} }

const credentialCols = `id, user_id, name, value, type, group_id, created_at, modified_at`

func scanCredential(row interface{ Scan(...any) error }) (model.Credential, error) {
	var (
		c   model.Credential
		typ string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Value, &typ, &c.GroupID, &c.CreatedAt, &c.ModifiedAt); err != nil {
		return model.Credential{}, err
	}
	c.Type = model.CredentialType(typ)
	return c, nil
}

// List returns the user's credentials ordered by creation time, newest first.
func (r *CredentialRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Credential, error) {
	q := `SELECT ` + credentialCols + `
FROM credentials
WHERE user_id=$1
ORDER BY created_at DESC, id`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Credential, 0)
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get returns a single credential owned by the user.
func (r *CredentialRepo) Get(ctx context.Context, userID, id uuid.UUID) (*model.Credential, error) {
	q := `SELECT ` + credentialCols + ` FROM credentials WHERE user_id=$1 AND id=$2`
	c, err := scanCredential(r.db.Pool.QueryRow(ctx, q, userID, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &c, nil
}

// Create inserts a credential. A group reference that does not belong to the
// same user fails the composite foreign key and is reported as ErrNotFound.
func (r *CredentialRepo) Create(ctx context.Context, c *model.Credential) error {
	const q = `
INSERT INTO credentials (id, user_id, name, value, type, group_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, modified_at`
	err := r.db.Pool.QueryRow(ctx, q, c.ID, c.UserID, c.Name, c.Value, string(c.Type), c.GroupID).
		Scan(&c.CreatedAt, &c.ModifiedAt)
	switch {
	case isUniqueViolation(err):
		return errs.ErrAlreadyExists
	case isForeignKeyViolation(err):
		return errs.ErrNotFound
	}
	return err
}

// UpdateValue replaces only the value column and bumps modified_at.
func (r *CredentialRepo) UpdateValue(ctx context.Context, userID, id uuid.UUID, value string) (time.Time, error) {
	const q = `
UPDATE credentials SET value=$3, modified_at=now()
WHERE user_id=$1 AND id=$2
RETURNING modified_at`
	var ts time.Time
	if err := r.db.Pool.QueryRow(ctx, q, userID, id, value).Scan(&ts); err != nil {
		return time.Time{}, mapNoRows(err)
	}
	return ts, nil
}

// Delete removes a credential and reports the number of affected rows.
func (r *CredentialRepo) Delete(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	const q = `DELETE FROM credentials WHERE user_id=$1 AND id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, userID, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
