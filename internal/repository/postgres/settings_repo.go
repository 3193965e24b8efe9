package postgres

import (
	"context"

	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SettingsRepo implements SettingsRepository using PostgreSQL.
type SettingsRepo struct{ db *DB }

// NewSettingsRepo constructs a settings repository.
func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

const settingsCols = `user_id, api_key, totp_secret, created_at, updated_at`

func scanSettings(row interface{ Scan(...any) error }) (*model.AccountSettings, error) {
	var s model.AccountSettings
	if err := row.Scan(&s.UserID, &s.APIKey, &s.TOTPSecret, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &s, nil
}

// Get returns the settings row of the user.
func (r *SettingsRepo) Get(ctx context.Context, userID uuid.UUID) (*model.AccountSettings, error) {
	q := `SELECT ` + settingsCols + ` FROM user_settings WHERE user_id=$1`
	return scanSettings(r.db.Pool.QueryRow(ctx, q, userID))
}

// Create inserts a settings row. The user_id primary key turns a concurrent
// second initialisation into ErrAlreadyExists.
func (r *SettingsRepo) Create(ctx context.Context, s *model.AccountSettings) error {
	const q = `
INSERT INTO user_settings (user_id, api_key, totp_secret)
VALUES ($1, $2, $3)
RETURNING created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, s.UserID, s.APIKey, s.TOTPSecret).Scan(&s.CreatedAt, &s.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// UpdateAPIKey replaces the API key; the TOTP secret is left untouched.
func (r *SettingsRepo) UpdateAPIKey(ctx context.Context, userID uuid.UUID, apiKey string) (*model.AccountSettings, error) {
	q := `
UPDATE user_settings SET api_key=$2, updated_at=now()
WHERE user_id=$1
RETURNING ` + settingsCols
	return scanSettings(r.db.Pool.QueryRow(ctx, q, userID, apiKey))
}

// GetByAPIKey resolves an API key to its owner's settings row.
func (r *SettingsRepo) GetByAPIKey(ctx context.Context, apiKey string) (*model.AccountSettings, error) {
	q := `SELECT ` + settingsCols + ` FROM user_settings WHERE api_key=$1`
	return scanSettings(r.db.Pool.QueryRow(ctx, q, apiKey))
}
