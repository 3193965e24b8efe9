// Package service contains application services for authentication, account
// settings and the credential vault.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/and161185/agent-pass/internal/authevents"
	pkgcrypto "github.com/and161185/agent-pass/internal/crypto"
	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/limiter"
	"github.com/and161185/agent-pass/internal/metrics"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/and161185/agent-pass/internal/repository"
	"github.com/and161185/agent-pass/internal/tokens"
	"github.com/gofrs/uuid/v5"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 6

// AuthService defines account and session operations.
type AuthService interface {
	// SignUp creates an account and opens a session for it.
	SignUp(ctx context.Context, email, password string) (model.Tokens, model.User, error)
	// SignInWithIP applies rate-limiting and authenticates the user.
	SignInWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error)
	// SignOut ends the session identified by token. Signing out twice is not an error.
	SignOut(ctx context.Context, token string) error
	// CurrentUser returns the account behind an authenticated user id.
	CurrentUser(ctx context.Context, userID uuid.UUID) (model.User, error)
	// Authenticate verifies a session token and returns its user id.
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
	// Subscribe registers h for session changes; the returned func unsubscribes.
	Subscribe(h authevents.Handler) (unsubscribe func())
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens *tokens.Manager
	lim    limiter.Limiter
	bus    *authevents.Bus
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, tm *tokens.Manager, lim limiter.Limiter, bus *authevents.Bus) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	if bus == nil {
		bus = &authevents.Bus{}
	}
	return &AuthServiceImpl{users: users, tokens: tm, lim: lim, bus: bus}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignUp(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email must contain @", errs.ErrValidation)
	}
	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", errs.ErrValidation, MinPasswordLen)
	}
	return nil
}

// SignUp creates a new user record with a per-user salt and signs it in.
func (s *AuthServiceImpl) SignUp(ctx context.Context, email, password string) (model.Tokens, model.User, error) {
	email = NormalizeEmail(email)
	if err := validateSignUp(email, password); err != nil {
		return model.Tokens{}, model.User{}, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	saltAuth, err := pkgcrypto.RandBytes(pkgcrypto.SaltLen)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	u := &model.User{
		ID:       uid,
		Email:    email,
		PwdHash:  pkgcrypto.HashPassword([]byte(password), saltAuth),
		SaltAuth: saltAuth,
	}
	if err := s.users.Create(ctx, u); err != nil {
		metrics.AuthEventsTotal.WithLabelValues("signup", "error").Inc()
		return model.Tokens{}, model.User{}, fmt.Errorf("create user: %w", err)
	}
	metrics.AuthEventsTotal.WithLabelValues("signup", "ok").Inc()
	return s.openSession(*u)
}

// SignInWithIP authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) SignInWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return model.Tokens{}, model.User{}, fmt.Errorf("%w: email and password are required", errs.ErrValidation)
	}
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		metrics.AuthEventsTotal.WithLabelValues("signin", "locked").Inc()
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.User{}, err
	}
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		metrics.AuthEventsTotal.WithLabelValues("signin", "denied").Inc()
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, email, ipHash)
	metrics.AuthEventsTotal.WithLabelValues("signin", "ok").Inc()
	return s.openSession(*u)
}

func (s *AuthServiceImpl) openSession(u model.User) (model.Tokens, model.User, error) {
	tok, claims, err := s.tokens.Issue(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	s.bus.Publish(authevents.Event{Kind: authevents.SignedIn, UserID: u.ID, Email: u.Email})
	return model.Tokens{AccessToken: tok, ExpiresAt: claims.ExpiresAt}, u, nil
}

// SignOut revokes the token. Only the first sign-out of a session publishes an event.
func (s *AuthServiceImpl) SignOut(_ context.Context, token string) error {
	c, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	if s.tokens.Revoke(c) {
		metrics.AuthEventsTotal.WithLabelValues("signout", "ok").Inc()
		s.bus.Publish(authevents.Event{Kind: authevents.SignedOut, UserID: c.UserID})
	}
	return nil
}

// CurrentUser loads the user record.
func (s *AuthServiceImpl) CurrentUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	if userID == uuid.Nil {
		return model.User{}, errs.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	return *u, nil
}

// Authenticate verifies signature, expiry and revocation.
func (s *AuthServiceImpl) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	c, err := s.tokens.Verify(token)
	if err != nil {
		return uuid.Nil, err
	}
	return c.UserID, nil
}

// Subscribe registers a session change handler.
func (s *AuthServiceImpl) Subscribe(h authevents.Handler) func() {
	return s.bus.Subscribe(h)
}
