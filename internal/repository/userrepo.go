// Package repository defines storage interfaces implemented by concrete backends.
// Every method that touches user-owned rows takes the owning user id and must
// never read or modify rows owned by anyone else.
package repository

import (
	"context"

	"github.com/and161185/agent-pass/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to accounts.
type UserRepository interface {
	// Create inserts a new user; ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by (normalised) email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
