package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/metrics"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/and161185/agent-pass/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// CredentialService defines vault operations over credentials and groups.
type CredentialService interface {
	ListGroups(ctx context.Context, userID uuid.UUID) ([]model.CredentialGroup, error)
	ListCredentials(ctx context.Context, userID uuid.UUID) ([]model.Credential, error)
	// Overview returns credentials partitioned into ungrouped and per-group buckets.
	Overview(ctx context.Context, userID uuid.UUID) (model.Vault, error)
	CreateCredential(ctx context.Context, userID uuid.UUID, in model.NewCredential) (model.Credential, error)
	// UpdateCredentialValue replaces only the value and returns the new modified_at.
	UpdateCredentialValue(ctx context.Context, userID, id uuid.UUID, value string) (time.Time, error)
	// DeleteCredential removes a credential; an absent id is not an error.
	DeleteCredential(ctx context.Context, userID, id uuid.UUID) error
	CreateGroup(ctx context.Context, userID uuid.UUID, name, description string) (model.CredentialGroup, error)
	// DeleteGroup removes the group together with every credential in it.
	DeleteGroup(ctx context.Context, userID, groupID uuid.UUID) error
}

type CredentialServiceImpl struct {
	groups repository.GroupRepository
	creds  repository.CredentialRepository
}

// NewCredentialService constructs CredentialService.
func NewCredentialService(groups repository.GroupRepository, creds repository.CredentialRepository) *CredentialServiceImpl {
	return &CredentialServiceImpl{groups: groups, creds: creds}
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return errs.ErrUnauthorized
	}
	return nil
}

// ListGroups returns groups newest first.
func (s *CredentialServiceImpl) ListGroups(ctx context.Context, userID uuid.UUID) ([]model.CredentialGroup, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.groups.List(ctx, userID)
}

// ListCredentials returns credentials newest first.
func (s *CredentialServiceImpl) ListCredentials(ctx context.Context, userID uuid.UUID) ([]model.Credential, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.creds.List(ctx, userID)
}

// Overview is recomputed from both full lists on every call.
func (s *CredentialServiceImpl) Overview(ctx context.Context, userID uuid.UUID) (model.Vault, error) {
	groups, err := s.ListGroups(ctx, userID)
	if err != nil {
		return model.Vault{}, fmt.Errorf("list groups: %w", err)
	}
	creds, err := s.ListCredentials(ctx, userID)
	if err != nil {
		return model.Vault{}, fmt.Errorf("list credentials: %w", err)
	}
	return model.Partition(groups, creds), nil
}

// CreateCredential validates the intent before any store call. A group id must
// name one of the caller's own groups.
func (s *CredentialServiceImpl) CreateCredential(ctx context.Context, userID uuid.UUID, in model.NewCredential) (model.Credential, error) {
	if err := requireUser(userID); err != nil {
		return model.Credential{}, err
	}
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return model.Credential{}, fmt.Errorf("%w: name is required", errs.ErrValidation)
	case in.Value == "":
		return model.Credential{}, fmt.Errorf("%w: value is required", errs.ErrValidation)
	case !in.Type.Valid():
		return model.Credential{}, fmt.Errorf("%w: unknown type %q", errs.ErrValidation, in.Type)
	}
	var groupID *uuid.UUID
	if in.GroupID != nil && *in.GroupID != uuid.Nil {
		if _, err := s.groups.Get(ctx, userID, *in.GroupID); err != nil {
			return model.Credential{}, fmt.Errorf("group: %w", err)
		}
		gid := *in.GroupID
		groupID = &gid
	}

	id, err := uuid.NewV4()
	if err != nil {
		return model.Credential{}, err
	}
	c := &model.Credential{
		ID:      id,
		UserID:  userID,
		Name:    name,
		Value:   in.Value,
		Type:    in.Type,
		GroupID: groupID,
	}
	if err := s.creds.Create(ctx, c); err != nil {
		return model.Credential{}, fmt.Errorf("create credential: %w", err)
	}
	return *c, nil
}

// UpdateCredentialValue fails with ErrNotFound for unknown ids.
func (s *CredentialServiceImpl) UpdateCredentialValue(ctx context.Context, userID, id uuid.UUID, value string) (time.Time, error) {
	if err := requireUser(userID); err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: value is required", errs.ErrValidation)
	}
	return s.creds.UpdateValue(ctx, userID, id, value)
}

// DeleteCredential treats zero affected rows as success.
func (s *CredentialServiceImpl) DeleteCredential(ctx context.Context, userID, id uuid.UUID) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := s.creds.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// CreateGroup requires a non-blank name.
func (s *CredentialServiceImpl) CreateGroup(ctx context.Context, userID uuid.UUID, name, description string) (model.CredentialGroup, error) {
	if err := requireUser(userID); err != nil {
		return model.CredentialGroup{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.CredentialGroup{}, fmt.Errorf("%w: group name is required", errs.ErrValidation)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.CredentialGroup{}, err
	}
	g := &model.CredentialGroup{
		ID:          id,
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return model.CredentialGroup{}, fmt.Errorf("create group: %w", err)
	}
	return *g, nil
}

// DeleteGroup deletes member credentials first and the group second, atomically.
// On failure both the group and its credentials are left in place.
func (s *CredentialServiceImpl) DeleteGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	removed, err := s.groups.DeleteCascade(ctx, userID, groupID)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	metrics.GroupCascadeDeletedCredentials.Observe(float64(removed))
	return nil
}
