package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/and161185/agent-pass/internal/authevents"
	pkgcrypto "github.com/and161185/agent-pass/internal/crypto"
	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/and161185/agent-pass/internal/tokens"
	"github.com/gofrs/uuid/v5"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	hexKey     = regexp.MustCompile(`^[0-9a-f]{64}$`)
	base32NoPd = regexp.MustCompile(`^[A-Z2-7]+$`)
)

func TestEnsureSettings_CreatesExactlyOnce(t *testing.T) {
	t.Parallel()
	repo := newFakeSettings()
	s := NewSettingsService(repo, "")
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())

	first, err := s.EnsureSettings(ctx, uid)
	require.NoError(t, err)
	require.Regexp(t, hexKey, first.APIKey)
	require.Regexp(t, base32NoPd, first.TOTPSecret)
	require.Len(t, first.TOTPSecret, 32)
	require.Len(t, repo.rows, 1)

	again, err := s.EnsureSettings(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, first.APIKey, again.APIKey)
	require.Equal(t, first.TOTPSecret, again.TOTPSecret)
	require.Equal(t, 1, repo.createCalls)
	require.Len(t, repo.rows, 1)
}

func TestEnsureSettings_LostRace_ReturnsWinnerRow(t *testing.T) {
	t.Parallel()
	repo := newFakeSettings()
	s := NewSettingsService(repo, "")
	uid := uuid.Must(uuid.NewV4())
	winner := model.AccountSettings{UserID: uid, APIKey: strings.Repeat("a", 64), TOTPSecret: "WINNERWINNERWINNERWINNERWINNER23"}

	repo.beforeCreate = func() {
		repo.mu.Lock()
		repo.rows[uid] = winner
		repo.mu.Unlock()
	}

	got, err := s.EnsureSettings(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, winner.APIKey, got.APIKey)
	require.Equal(t, winner.TOTPSecret, got.TOTPSecret)
	require.Len(t, repo.rows, 1)
}

func TestEnsureSettings_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())

	repo := newFakeSettings()
	repo.getErr = errors.New("boom")
	_, err := NewSettingsService(repo, "").EnsureSettings(ctx, uid)
	require.ErrorContains(t, err, "boom")
	require.Zero(t, repo.createCalls)

	repo = newFakeSettings()
	repo.createErr = errors.New("insert failed")
	_, err = NewSettingsService(repo, "").EnsureSettings(ctx, uid)
	require.ErrorContains(t, err, "insert failed")

	_, err = NewSettingsService(newFakeSettings(), "").EnsureSettings(ctx, uuid.Nil)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestRegenerateAPIKey_KeepsTOTPSecret(t *testing.T) {
	t.Parallel()
	repo := newFakeSettings()
	s := NewSettingsService(repo, "")
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())

	before, err := s.EnsureSettings(ctx, uid)
	require.NoError(t, err)

	after, err := s.RegenerateAPIKey(ctx, uid)
	require.NoError(t, err)
	require.Regexp(t, hexKey, after.APIKey)
	require.NotEqual(t, before.APIKey, after.APIKey)
	require.Equal(t, before.TOTPSecret, after.TOTPSecret)
}

func TestRegenerateAPIKey_NoRow_Surfaced(t *testing.T) {
	t.Parallel()
	s := NewSettingsService(newFakeSettings(), "")
	_, err := s.RegenerateAPIKey(context.Background(), uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTOTP_URIAndVerify(t *testing.T) {
	t.Parallel()
	repo := newFakeSettings()
	s := NewSettingsService(repo, "AgentPass")
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())

	uri, err := s.TOTPURI(ctx, uid, "a@example.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/AgentPass:a@example.com?"), uri)
	st := repo.rows[uid]
	require.Contains(t, uri, "secret="+st.TOTPSecret)

	code, err := totp.GenerateCode(st.TOTPSecret, time.Now())
	require.NoError(t, err)
	ok, err := s.VerifyTOTP(ctx, uid, code)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.VerifyTOTP(ctx, uid, "000000x")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.VerifyTOTP(ctx, uid, "  ")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestResolveAPIKey(t *testing.T) {
	t.Parallel()
	repo := newFakeSettings()
	s := NewSettingsService(repo, "")
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())
	st, err := s.EnsureSettings(ctx, uid)
	require.NoError(t, err)

	got, err := s.ResolveAPIKey(ctx, st.APIKey)
	require.NoError(t, err)
	require.Equal(t, uid, got)

	_, err = s.ResolveAPIKey(ctx, pkgcrypto.GenerateAPIKey())
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	calls := repo.getCalls
	_, err = s.ResolveAPIKey(ctx, "short")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, calls, repo.getCalls)
}

func TestProvisionOnSignIn_InitializesAndSuppressesErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bus := &authevents.Bus{}
	auth := NewAuthService(&fakeUsers{}, tokens.NewManager([]byte("k"), time.Minute, 10), &fakeLimiter{allowOK: true}, bus)
	repo := newFakeSettings()
	settings := NewSettingsService(repo, "")
	core, logs := observer.New(zap.WarnLevel)

	un := ProvisionOnSignIn(ctx, auth, settings, zap.New(core))
	defer un()

	_, u, err := auth.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	st, ok := repo.rows[u.ID]
	require.True(t, ok)
	require.Regexp(t, hexKey, st.APIKey)

	// provisioning failure does not block sign-in
	repo.getErr = errors.New("settings table down")
	_, _, err = auth.SignInWithIP(ctx, "a@example.com", "secret1", "ip")
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("settings provisioning failed").Len())
}

func TestVerifyTOTP_NilUser(t *testing.T) {
	t.Parallel()
	repo := newFakeSettings()
	s := NewSettingsService(repo, "")
	_, err := s.VerifyTOTP(context.Background(), uuid.Nil, "123456")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Zero(t, repo.getCalls)
}

func TestEnrollmentURI_NoStoreAccess(t *testing.T) {
	t.Parallel()
	repo := newFakeSettings()
	s := NewSettingsService(repo, "Acme")
	st := model.AccountSettings{UserID: uuid.Must(uuid.NewV4()), TOTPSecret: "JBSWY3DPEHPK3PXP"}

	uri, err := s.EnrollmentURI(st, "ops@example.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/Acme:ops@example.com?"), uri)
	require.Contains(t, uri, "secret=JBSWY3DPEHPK3PXP")
	require.Zero(t, repo.getCalls)
	require.Zero(t, repo.createCalls)
}
