package repository

import (
	"context"
	"time"

	"github.com/and161185/agent-pass/internal/model"
	"github.com/gofrs/uuid/v5"
)

// GroupRepository stores credential groups.
type GroupRepository interface {
	// List returns the user's groups, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.CredentialGroup, error)
	// Get returns one group or ErrNotFound.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.CredentialGroup, error)
	// Create inserts a group and fills in its creation timestamp.
	Create(ctx context.Context, g *model.CredentialGroup) error
	// DeleteCascade deletes the group's credentials and then the group itself in one
	// transaction. Nothing changes unless both steps succeed; ErrNotFound if the
	// group does not exist. Returns the number of credentials removed.
	DeleteCascade(ctx context.Context, userID, id uuid.UUID) (int64, error)
}

// CredentialRepository stores credentials.
type CredentialRepository interface {
	// List returns the user's credentials, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.Credential, error)
	// Get returns one credential or ErrNotFound.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Credential, error)
	// Create inserts a credential and fills in its timestamps.
	Create(ctx context.Context, c *model.Credential) error
	// UpdateValue replaces the value, bumps modified_at and returns it; ErrNotFound if absent.
	UpdateValue(ctx context.Context, userID, id uuid.UUID, value string) (time.Time, error)
	// Delete removes a credential and reports how many rows were affected.
	Delete(ctx context.Context, userID, id uuid.UUID) (int64, error)
}
