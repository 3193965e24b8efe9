package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/agent-pass/internal/authevents"
	pkgcrypto "github.com/and161185/agent-pass/internal/crypto"
	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/metrics"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/and161185/agent-pass/internal/repository"
	"github.com/gofrs/uuid/v5"
)

var apiKeyRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// SettingsService manages the per-user API key and TOTP secret.
type SettingsService interface {
	// EnsureSettings returns the user's settings, creating them on first use.
	EnsureSettings(ctx context.Context, userID uuid.UUID) (model.AccountSettings, error)
	// RegenerateAPIKey replaces the API key and keeps the TOTP secret.
	RegenerateAPIKey(ctx context.Context, userID uuid.UUID) (model.AccountSettings, error)
	// TOTPURI returns the otpauth:// enrollment URI for the user.
	TOTPURI(ctx context.Context, userID uuid.UUID, account string) (string, error)
	// EnrollmentURI builds the otpauth:// URI from settings already loaded.
	EnrollmentURI(st model.AccountSettings, account string) (string, error)
	// VerifyTOTP checks a code from the user's authenticator app.
	VerifyTOTP(ctx context.Context, userID uuid.UUID, code string) (bool, error)
	// ResolveAPIKey maps an account API key to its owner.
	ResolveAPIKey(ctx context.Context, apiKey string) (uuid.UUID, error)
}

type SettingsServiceImpl struct {
	repo   repository.SettingsRepository
	issuer string

	newAPIKey     func() string
	newTOTPSecret func() string
}

// NewSettingsService constructs SettingsService. issuer is shown in authenticator apps.
func NewSettingsService(repo repository.SettingsRepository, issuer string) *SettingsServiceImpl {
	if issuer == "" {
		issuer = "AgentPass"
	}
	return &SettingsServiceImpl{
		repo:          repo,
		issuer:        issuer,
		newAPIKey:     pkgcrypto.GenerateAPIKey,
		newTOTPSecret: pkgcrypto.GenerateTOTPSecret,
	}
}

// EnsureSettings reads the row and inserts a freshly generated one if it is missing.
// When a concurrent initializer wins the insert, its row is re-read and returned.
func (s *SettingsServiceImpl) EnsureSettings(ctx context.Context, userID uuid.UUID) (model.AccountSettings, error) {
	if userID == uuid.Nil {
		return model.AccountSettings{}, errs.ErrUnauthorized
	}
	cur, err := s.repo.Get(ctx, userID)
	switch {
	case err == nil:
		metrics.SettingsProvisionTotal.WithLabelValues("existing").Inc()
		return *cur, nil
	case !errors.Is(err, errs.ErrNotFound):
		metrics.SettingsProvisionTotal.WithLabelValues("error").Inc()
		return model.AccountSettings{}, fmt.Errorf("get settings: %w", err)
	}

	fresh := &model.AccountSettings{
		UserID:     userID,
		APIKey:     s.newAPIKey(),
		TOTPSecret: s.newTOTPSecret(),
	}
	err = s.repo.Create(ctx, fresh)
	switch {
	case err == nil:
		metrics.SettingsProvisionTotal.WithLabelValues("created").Inc()
		return *fresh, nil
	case errors.Is(err, errs.ErrAlreadyExists):
		metrics.SettingsProvisionTotal.WithLabelValues("raced").Inc()
		cur, err = s.repo.Get(ctx, userID)
		if err != nil {
			return model.AccountSettings{}, fmt.Errorf("re-read settings: %w", err)
		}
		return *cur, nil
	default:
		metrics.SettingsProvisionTotal.WithLabelValues("error").Inc()
		return model.AccountSettings{}, fmt.Errorf("create settings: %w", err)
	}
}

// RegenerateAPIKey fails with ErrNotFound when the user has no settings yet.
func (s *SettingsServiceImpl) RegenerateAPIKey(ctx context.Context, userID uuid.UUID) (model.AccountSettings, error) {
	if userID == uuid.Nil {
		return model.AccountSettings{}, errs.ErrUnauthorized
	}
	updated, err := s.repo.UpdateAPIKey(ctx, userID, s.newAPIKey())
	if err != nil {
		return model.AccountSettings{}, fmt.Errorf("regenerate api key: %w", err)
	}
	return *updated, nil
}

// TOTPURI ensures settings exist and builds the enrollment URI.
func (s *SettingsServiceImpl) TOTPURI(ctx context.Context, userID uuid.UUID, account string) (string, error) {
	st, err := s.EnsureSettings(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.EnrollmentURI(st, account)
}

// EnrollmentURI does not touch the store.
func (s *SettingsServiceImpl) EnrollmentURI(st model.AccountSettings, account string) (string, error) {
	return pkgcrypto.TOTPURI(s.issuer, account, st.TOTPSecret)
}

// VerifyTOTP validates code against the stored secret.
func (s *SettingsServiceImpl) VerifyTOTP(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	if userID == uuid.Nil {
		return false, errs.ErrUnauthorized
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return false, fmt.Errorf("%w: code is required", errs.ErrValidation)
	}
	st, err := s.repo.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return pkgcrypto.VerifyTOTP(st.TOTPSecret, code), nil
}

// ResolveAPIKey rejects malformed keys without touching the store.
func (s *SettingsServiceImpl) ResolveAPIKey(ctx context.Context, apiKey string) (uuid.UUID, error) {
	if !apiKeyRe.MatchString(apiKey) {
		return uuid.Nil, errs.ErrUnauthorized
	}
	st, err := s.repo.GetByAPIKey(ctx, apiKey)
	if errors.Is(err, errs.ErrNotFound) {
		return uuid.Nil, errs.ErrUnauthorized
	}
	if err != nil {
		return uuid.Nil, err
	}
	return st.UserID, nil
}

// ProvisionOnSignIn subscribes to the auth bus and makes sure every user who
// signs in or signs up has account settings. Failures are logged and never
// reach the user. Returns the unsubscribe func.
func ProvisionOnSignIn(ctx context.Context, auth AuthService, settings SettingsService, log *zap.Logger) func() {
	return auth.Subscribe(func(ev authevents.Event) {
		if ev.Kind != authevents.SignedIn {
			return
		}
		if _, err := settings.EnsureSettings(ctx, ev.UserID); err != nil {
			log.Warn("settings provisioning failed",
				zap.String("user_id", ev.UserID.String()),
				zap.Error(err),
			)
		}
	})
}
