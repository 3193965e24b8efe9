package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/agent-pass/internal/authevents"
	pkgcrypto "github.com/and161185/agent-pass/internal/crypto"
	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/tokens"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func newAuth(users *fakeUsers, lim *fakeLimiter) (*AuthServiceImpl, *authevents.Bus) {
	bus := &authevents.Bus{}
	return NewAuthService(users, tokens.NewManager([]byte("k"), time.Minute, 100), lim, bus), bus
}

func TestAuth_SignUp_Validation(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	s, _ := newAuth(users, &fakeLimiter{allowOK: true})
	ctx := context.Background()

	cases := []struct{ email, pwd string }{
		{"", "secret1"},
		{"no-at-sign", "secret1"},
		{"a@b.c", "12345"},
	}
	for _, tc := range cases {
		_, _, err := s.SignUp(ctx, tc.email, tc.pwd)
		require.ErrorIs(t, err, errs.ErrValidation, "email=%q pwd=%q", tc.email, tc.pwd)
	}
	require.Empty(t, users.byEmail, "no store call on validation failure")
}

func TestAuth_SignUp_CreatesUserAndSession(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	s, bus := newAuth(users, &fakeLimiter{allowOK: true})
	var events []authevents.Event
	bus.Subscribe(func(e authevents.Event) { events = append(events, e) })

	tok, u, err := s.SignUp(context.Background(), "  A@Example.com ", "secret1")
	require.NoError(t, err)
	require.Equal(t, "a@example.com", u.Email)
	require.NotEmpty(t, tok.AccessToken)
	require.True(t, tok.ExpiresAt.After(time.Now()))

	stored := users.byEmail["a@example.com"]
	require.NotNil(t, stored)
	require.Len(t, stored.SaltAuth, pkgcrypto.SaltLen)
	require.True(t, pkgcrypto.VerifyPassword([]byte("secret1"), stored.SaltAuth, stored.PwdHash))

	require.Len(t, events, 1)
	require.Equal(t, authevents.SignedIn, events[0].Kind)
	require.Equal(t, u.ID, events[0].UserID)

	id, err := s.Authenticate(context.Background(), tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, id)

	_, _, err = s.SignUp(context.Background(), "a@example.com", "another1")
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestAuth_SignIn_Paths(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := &fakeUsers{}
	lim := &fakeLimiter{allowOK: true}
	s, _ := newAuth(users, lim)
	_, _, err := s.SignUp(ctx, "bob@x.io", "pwd-123")
	require.NoError(t, err)

	// ok
	tok, u, err := s.SignInWithIP(ctx, "BOB@x.io", "pwd-123", "127.0.0.1:5555")
	require.NoError(t, err)
	require.Equal(t, "bob@x.io", u.Email)
	require.NotEmpty(t, tok.AccessToken)
	require.Equal(t, 1, lim.successCalls)

	// wrong password
	_, _, err = s.SignInWithIP(ctx, "bob@x.io", "nope", "ip")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, 1, lim.failureCalls)

	// unknown user looks the same
	_, _, err = s.SignInWithIP(ctx, "nobody@x.io", "pwd-123", "ip")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, 2, lim.failureCalls)

	// threshold reached
	lim.failBlocked = true
	_, _, err = s.SignInWithIP(ctx, "bob@x.io", "nope", "ip")
	require.ErrorIs(t, err, errs.ErrRateLimited)

	// currently blocked: no lookup, no failure recorded
	lim.allowOK = false
	before := lim.failureCalls
	_, _, err = s.SignInWithIP(ctx, "bob@x.io", "pwd-123", "ip")
	require.ErrorIs(t, err, errs.ErrRateLimited)
	require.Equal(t, before, lim.failureCalls)

	// limiter failure propagates
	lim.allowOK, lim.allowErr = true, errors.New("db down")
	_, _, err = s.SignInWithIP(ctx, "bob@x.io", "pwd-123", "ip")
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrUnauthorized)

	// empty input
	_, _, err = s.SignInWithIP(ctx, "", "", "ip")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestAuth_SignIn_StoreErrorIsNotMasked(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{getErr: errors.New("conn refused")}
	s, _ := newAuth(users, &fakeLimiter{allowOK: true})

	_, _, err := s.SignInWithIP(context.Background(), "a@b.c", "secret1", "ip")
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrUnauthorized)
}

func TestAuth_SignOut_OneEventPerTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, bus := newAuth(&fakeUsers{}, &fakeLimiter{allowOK: true})
	var outs int
	bus.Subscribe(func(e authevents.Event) {
		if e.Kind == authevents.SignedOut {
			outs++
		}
	})

	tok, _, err := s.SignUp(ctx, "c@x.io", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx, tok.AccessToken))
	require.NoError(t, s.SignOut(ctx, tok.AccessToken))
	require.Equal(t, 1, outs)

	_, err = s.Authenticate(ctx, tok.AccessToken)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	require.ErrorIs(t, s.SignOut(ctx, "garbage"), errs.ErrUnauthorized)
}

func TestAuth_CurrentUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := &fakeUsers{}
	s, _ := newAuth(users, &fakeLimiter{allowOK: true})
	_, u, err := s.SignUp(ctx, "d@x.io", "secret1")
	require.NoError(t, err)

	got, err := s.CurrentUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "d@x.io", got.Email)

	_, err = s.CurrentUser(ctx, uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = s.CurrentUser(ctx, uuid.Nil)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestAuth_Subscribe_Unsubscribe(t *testing.T) {
	t.Parallel()
	s, _ := newAuth(&fakeUsers{}, &fakeLimiter{allowOK: true})
	n := 0
	un := s.Subscribe(func(authevents.Event) { n++ })
	_, _, err := s.SignUp(context.Background(), "e@x.io", "secret1")
	require.NoError(t, err)
	un()
	_, _, err = s.SignInWithIP(context.Background(), "e@x.io", "secret1", "ip")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

