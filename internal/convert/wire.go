// Package convert maps domain models to and from the vaultv1 wire messages.
package convert

import (
	"fmt"
	"strings"

	"github.com/and161185/agent-pass/internal/api/vaultv1"
	"github.com/and161185/agent-pass/internal/model"
	u "github.com/gofrs/uuid/v5"
)

// --- helpers ---

// ParseID parses a required UUID field.
func ParseID(s string) (u.UUID, error) {
	id, err := u.FromString(strings.TrimSpace(s))
	if err != nil || id == u.Nil {
		return u.Nil, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// ParseOptionalID parses an optional UUID field; empty means nil.
func ParseOptionalID(s string) (*u.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := ParseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// --- outbound ---

// ToWireUser converts a user, dropping password material.
func ToWireUser(x model.User) vaultv1.User {
	return vaultv1.User{ID: x.ID.String(), Email: x.Email, CreatedAt: x.CreatedAt}
}

// ToWireGroup converts a group.
func ToWireGroup(g model.CredentialGroup) vaultv1.Group {
	return vaultv1.Group{
		ID:          g.ID.String(),
		Name:        g.Name,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
	}
}

// ToWireGroups converts a list; never returns nil.
func ToWireGroups(in []model.CredentialGroup) []vaultv1.Group {
	out := make([]vaultv1.Group, 0, len(in))
	for _, g := range in {
		out = append(out, ToWireGroup(g))
	}
	return out
}

// ToWireCredential converts a credential. The value is sent as stored; masking is
// a presentation concern of the client.
func ToWireCredential(c model.Credential) vaultv1.Credential {
	w := vaultv1.Credential{
		ID:         c.ID.String(),
		Name:       c.Name,
		Value:      c.Value,
		Type:       string(c.Type),
		CreatedAt:  c.CreatedAt,
		ModifiedAt: c.ModifiedAt,
	}
	if c.GroupID != nil {
		w.GroupID = c.GroupID.String()
	}
	return w
}

// ToWireCredentials converts a list; never returns nil.
func ToWireCredentials(in []model.Credential) []vaultv1.Credential {
	out := make([]vaultv1.Credential, 0, len(in))
	for _, c := range in {
		out = append(out, ToWireCredential(c))
	}
	return out
}

// ToWireVault converts a partitioned overview.
func ToWireVault(v model.Vault) *vaultv1.VaultResponse {
	resp := &vaultv1.VaultResponse{
		Ungrouped: ToWireCredentials(v.Ungrouped),
		Groups:    make([]vaultv1.GroupBucket, 0, len(v.Groups)),
	}
	for _, b := range v.Groups {
		resp.Groups = append(resp.Groups, vaultv1.GroupBucket{
			Group:       ToWireGroup(b.Group),
			Credentials: ToWireCredentials(b.Credentials),
		})
	}
	return resp
}

// ToWireAccount converts settings plus the enrollment URI.
func ToWireAccount(s model.AccountSettings, uri string) *vaultv1.AccountResponse {
	return &vaultv1.AccountResponse{
		APIKey:     s.APIKey,
		TOTPSecret: s.TOTPSecret,
		TOTPURI:    uri,
		UpdatedAt:  s.UpdatedAt,
	}
}

// ToWireSession converts an issued session.
func ToWireSession(t model.Tokens, x model.User) *vaultv1.SessionResponse {
	return &vaultv1.SessionResponse{AccessToken: t.AccessToken, ExpiresAt: t.ExpiresAt, User: ToWireUser(x)}
}

// --- inbound ---

// FromWireNewCredential converts a create request. Type and emptiness checks are
// left to the service so both transports report them the same way.
func FromWireNewCredential(in *vaultv1.CreateCredentialRequest) (model.NewCredential, error) {
	if in == nil {
		return model.NewCredential{}, fmt.Errorf("nil CreateCredentialRequest")
	}
	gid, err := ParseOptionalID(in.GroupID)
	if err != nil {
		return model.NewCredential{}, fmt.Errorf("group_id: %w", err)
	}
	return model.NewCredential{
		Name:    in.Name,
		Value:   in.Value,
		Type:    model.CredentialType(in.Type),
		GroupID: gid,
	}, nil
}
