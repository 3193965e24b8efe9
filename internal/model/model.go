// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects an issued session token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account. The password hash never leaves the server.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique, lowercased
	PwdHash   []byte    // Argon2id(password, SaltAuth)
	SaltAuth  []byte    // per-user auth salt
	CreatedAt time.Time
}

// AccountSettings is the one-per-user record holding the API key and TOTP seed.
type AccountSettings struct {
	UserID     uuid.UUID
	APIKey     string // 64 lowercase hex chars
	TOTPSecret string // RFC 4648 base32, unpadded
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CredentialGroup is a named folder for credentials.
type CredentialGroup struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
}

// Credential is a single stored secret.
type Credential struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	Value      string
	Type       CredentialType
	GroupID    *uuid.UUID // nil = ungrouped
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// NewCredential is the create intent submitted by a client.
type NewCredential struct {
	Name    string
	Value   string
	Type    CredentialType
	GroupID *uuid.UUID
}
