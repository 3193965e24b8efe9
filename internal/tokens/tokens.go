// Package tokens issues and verifies signed session tokens (HS256 JWT) and keeps
// a revocation list for signed-out sessions.
package tokens

import (
	"errors"
	"sync"
	"time"

	"github.com/and161185/agent-pass/internal/errs"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Leeway tolerated on exp/nbf/iat checks.
const Leeway = 30 * time.Second

// Claims is the verified content of a session token.
type Claims struct {
	UserID    uuid.UUID
	ID        string // jti
	ExpiresAt time.Time
}

// Manager signs, parses and revokes session tokens.
type Manager struct {
	signKey []byte
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex // serialises Revoke so each id is reported once
	revoked *expirable.LRU[string, struct{}]
}

// NewManager constructs a Manager. revokedCap bounds the revocation list; entries
// expire after ttl+Leeway, when the token would be rejected anyway.
func NewManager(signKey []byte, ttl time.Duration, revokedCap int) *Manager {
	if revokedCap <= 0 {
		revokedCap = 10000
	}
	return &Manager{
		signKey: signKey,
		ttl:     ttl,
		revoked: expirable.NewLRU[string, struct{}](revokedCap, nil, ttl+Leeway),
		now:     time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a signed token for the user.
func (m *Manager) Issue(userID uuid.UUID) (string, Claims, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", Claims{}, err
	}
	now := m.now()
	exp := now.Add(m.ttl)
	rc := jwt.RegisteredClaims{
		ID:        jti.String(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString(m.signKey)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, Claims{UserID: userID, ID: rc.ID, ExpiresAt: exp}, nil
}

// Parse verifies signature and time claims. Revocation is not checked here.
func (m *Manager) Parse(token string) (Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &rc, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.signKey, nil
	},
		jwt.WithLeeway(Leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, errs.ErrUnauthorized
	}
	id, err := uuid.FromString(rc.Subject)
	if err != nil || id == uuid.Nil {
		return Claims{}, errs.ErrUnauthorized
	}
	return Claims{UserID: id, ID: rc.ID, ExpiresAt: rc.ExpiresAt.Time}, nil
}

// Verify parses the token and rejects revoked ones.
func (m *Manager) Verify(token string) (Claims, error) {
	c, err := m.Parse(token)
	if err != nil {
		return Claims{}, err
	}
	if m.IsRevoked(c.ID) {
		return Claims{}, errs.ErrUnauthorized
	}
	return c, nil
}

// Revoke puts the token id on the revocation list. It reports false when the id
// was already revoked.
func (m *Manager) Revoke(c Claims) bool {
	if c.ID == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked.Contains(c.ID) {
		return false
	}
	m.revoked.Add(c.ID, struct{}{})
	return true
}

// IsRevoked reports whether the token id has been revoked.
func (m *Manager) IsRevoked(jti string) bool {
	return jti != "" && m.revoked.Contains(jti)
}
