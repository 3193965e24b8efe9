package repository

import (
	"context"

	"github.com/and161185/agent-pass/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SettingsRepository stores the single AccountSettings row of each user.
type SettingsRepository interface {
	// Get returns the settings row of the user or ErrNotFound.
	Get(ctx context.Context, userID uuid.UUID) (*model.AccountSettings, error)
	// Create inserts the row; ErrAlreadyExists if the user already has one.
	Create(ctx context.Context, s *model.AccountSettings) error
	// UpdateAPIKey replaces the API key in place and returns the updated row;
	// ErrNotFound if the user has no row yet.
	UpdateAPIKey(ctx context.Context, userID uuid.UUID, apiKey string) (*model.AccountSettings, error)
	// GetByAPIKey resolves an API key to its settings row or ErrNotFound.
	GetByAPIKey(ctx context.Context, apiKey string) (*model.AccountSettings, error)
}
