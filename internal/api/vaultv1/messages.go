// Package vaultv1 defines the agentpass.v1.Vault wire contract: message types,
// the gRPC service descriptor and a client. Messages travel as JSON over gRPC
// and are reused as the HTTP API bodies.
package vaultv1

import "time"

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Group is a credential folder.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Credential is a stored secret. GroupID is empty for ungrouped entries.
type Credential struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Value      string    `json:"value"`
	Type       string    `json:"type"`
	GroupID    string    `json:"group_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// GroupBucket is a group with the credentials that belong to it.
type GroupBucket struct {
	Group       Group        `json:"group"`
	Credentials []Credential `json:"credentials"`
}

type Empty struct{}

// --- Auth ---

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

type SignOutRequest struct{}

type WhoAmIRequest struct{}

type UserResponse struct {
	User User `json:"user"`
}

// --- Account ---

type GetAccountRequest struct{}

type RegenerateAPIKeyRequest struct{}

type AccountResponse struct {
	APIKey     string    `json:"api_key"`
	TOTPSecret string    `json:"totp_secret"`
	TOTPURI    string    `json:"totp_uri"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type VerifyTOTPRequest struct {
	Code string `json:"code"`
}

type VerifyTOTPResponse struct {
	Valid bool `json:"valid"`
}

// --- Groups ---

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type GroupResponse struct {
	Group Group `json:"group"`
}

type DeleteGroupRequest struct {
	ID string `json:"id"`
}

// --- Credentials ---

type ListCredentialsRequest struct{}

type ListCredentialsResponse struct {
	Credentials []Credential `json:"credentials"`
}

type CreateCredentialRequest struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Type    string `json:"type"`
	GroupID string `json:"group_id,omitempty"`
}

type CredentialResponse struct {
	Credential Credential `json:"credential"`
}

type UpdateCredentialValueRequest struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type UpdateCredentialValueResponse struct {
	ModifiedAt time.Time `json:"modified_at"`
}

type DeleteCredentialRequest struct {
	ID string `json:"id"`
}

type GetVaultRequest struct{}

type VaultResponse struct {
	Ungrouped []Credential  `json:"ungrouped"`
	Groups    []GroupBucket `json:"groups"`
}

// ErrorResponse is the HTTP error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
