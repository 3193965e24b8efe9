// Package servicetest provides in-memory service fakes for transport tests.
package servicetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/agent-pass/internal/authevents"
	pkgcrypto "github.com/and161185/agent-pass/internal/crypto"
	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/and161185/agent-pass/internal/service"
)

var (
	_ service.AuthService       = (*Auth)(nil)
	_ service.SettingsService   = (*Settings)(nil)
	_ service.CredentialService = (*Vault)(nil)
)

// Auth is an in-memory service.AuthService. Tokens are opaque "tok-<uuid>" strings.
type Auth struct {
	mu       sync.Mutex
	users    map[string]model.User // by email
	pwds     map[string]string
	sessions map[string]uuid.UUID
	lastIP   string
	signOuts int
}

// NewAuth returns an empty Auth.
func NewAuth() *Auth {
	return &Auth{users: map[string]model.User{}, pwds: map[string]string{}, sessions: map[string]uuid.UUID{}}
}

func (f *Auth) open(u model.User) model.Tokens {
	tok := "tok-" + uuid.Must(uuid.NewV4()).String()
	f.sessions[tok] = u.ID
	return model.Tokens{AccessToken: tok, ExpiresAt: time.Now().Add(time.Hour)}
}

func (f *Auth) SignUp(_ context.Context, email, password string) (model.Tokens, model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !strings.Contains(email, "@") {
		return model.Tokens{}, model.User{}, fmt.Errorf("%w: email", errs.ErrValidation)
	}
	if _, ok := f.users[email]; ok {
		return model.Tokens{}, model.User{}, errs.ErrAlreadyExists
	}
	u := model.User{ID: uuid.Must(uuid.NewV4()), Email: email, CreatedAt: time.Now()}
	f.users[email] = u
	f.pwds[email] = password
	return f.open(u), u, nil
}

func (f *Auth) SignInWithIP(_ context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastIP = ip
	u, ok := f.users[email]
	if !ok || f.pwds[email] != password {
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}
	return f.open(u), u, nil
}

func (f *Auth) SignOut(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[token]; !ok {
		return errs.ErrUnauthorized
	}
	delete(f.sessions, token)
	f.signOuts++
	return nil
}

func (f *Auth) CurrentUser(_ context.Context, id uuid.UUID) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, errs.ErrNotFound
}

func (f *Auth) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.sessions[token]
	if !ok {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return id, nil
}

// LastIP returns the client address of the latest sign-in.
func (f *Auth) LastIP() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastIP
}

// SignOuts counts successful sign-outs.
func (f *Auth) SignOuts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOuts
}

func (f *Auth) Subscribe(authevents.Handler) func() { return func() {} }

// Settings is an in-memory service.SettingsService. VerifyTOTP accepts only "123456".
type Settings struct {
	mu      sync.Mutex
	byUser  map[uuid.UUID]model.AccountSettings
	n       int
	ensures int
}

// NewSettings returns an empty Settings.
func NewSettings() *Settings {
	return &Settings{byUser: map[uuid.UUID]model.AccountSettings{}}
}

func (f *Settings) key() string {
	f.n++
	return fmt.Sprintf("%064x", f.n)
}

func (f *Settings) EnsureSettings(_ context.Context, id uuid.UUID) (model.AccountSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensures++
	if st, ok := f.byUser[id]; ok {
		return st, nil
	}
	now := time.Now()
	st := model.AccountSettings{UserID: id, APIKey: f.key(), TOTPSecret: "JBSWY3DPEHPK3PXP", CreatedAt: now, UpdatedAt: now}
	f.byUser[id] = st
	return st, nil
}

func (f *Settings) RegenerateAPIKey(ctx context.Context, id uuid.UUID) (model.AccountSettings, error) {
	if _, err := f.EnsureSettings(ctx, id); err != nil {
		return model.AccountSettings{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.byUser[id]
	st.APIKey = f.key()
	st.UpdatedAt = time.Now()
	f.byUser[id] = st
	return st, nil
}

func (f *Settings) TOTPURI(ctx context.Context, id uuid.UUID, account string) (string, error) {
	st, err := f.EnsureSettings(ctx, id)
	if err != nil {
		return "", err
	}
	return f.EnrollmentURI(st, account)
}

func (f *Settings) EnrollmentURI(st model.AccountSettings, account string) (string, error) {
	return pkgcrypto.TOTPURI("AgentPass", account, st.TOTPSecret)
}

// Ensures reports how many times EnsureSettings ran.
func (f *Settings) Ensures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensures
}

func (f *Settings) VerifyTOTP(_ context.Context, _ uuid.UUID, code string) (bool, error) {
	return code == "123456", nil
}

func (f *Settings) ResolveAPIKey(_ context.Context, key string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, st := range f.byUser {
		if st.APIKey == key {
			return id, nil
		}
	}
	return uuid.Nil, errs.ErrUnauthorized
}

// Vault is an in-memory service.CredentialService.
type Vault struct {
	mu     sync.Mutex
	groups []model.CredentialGroup
	creds  []model.Credential
	err    error
}

// FailLists makes every list call return err.
func (f *Vault) FailLists(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *Vault) ListGroups(_ context.Context, uid uuid.UUID) ([]model.CredentialGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []model.CredentialGroup{}
	for _, g := range f.groups {
		if g.UserID == uid {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *Vault) ListCredentials(_ context.Context, uid uuid.UUID) ([]model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Credential{}
	for _, c := range f.creds {
		if c.UserID == uid {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *Vault) Overview(ctx context.Context, uid uuid.UUID) (model.Vault, error) {
	gs, err := f.ListGroups(ctx, uid)
	if err != nil {
		return model.Vault{}, err
	}
	cs, err := f.ListCredentials(ctx, uid)
	if err != nil {
		return model.Vault{}, err
	}
	return model.Partition(gs, cs), nil
}

func (f *Vault) CreateCredential(_ context.Context, uid uuid.UUID, in model.NewCredential) (model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.Name == "" || !in.Type.Valid() {
		return model.Credential{}, fmt.Errorf("%w: bad credential", errs.ErrValidation)
	}
	if in.GroupID != nil {
		found := false
		for _, g := range f.groups {
			if g.ID == *in.GroupID && g.UserID == uid {
				found = true
			}
		}
		if !found {
			return model.Credential{}, fmt.Errorf("group: %w", errs.ErrNotFound)
		}
	}
	now := time.Now()
	c := model.Credential{
		ID: uuid.Must(uuid.NewV4()), UserID: uid, Name: in.Name, Value: in.Value,
		Type: in.Type, GroupID: in.GroupID, CreatedAt: now, ModifiedAt: now,
	}
	f.creds = append([]model.Credential{c}, f.creds...)
	return c, nil
}

func (f *Vault) UpdateCredentialValue(_ context.Context, uid, id uuid.UUID, value string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.creds {
		if f.creds[i].ID == id && f.creds[i].UserID == uid {
			f.creds[i].Value = value
			f.creds[i].ModifiedAt = time.Now()
			return f.creds[i].ModifiedAt, nil
		}
	}
	return time.Time{}, errs.ErrNotFound
}

func (f *Vault) DeleteCredential(_ context.Context, uid, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.creds[:0]
	for _, c := range f.creds {
		if !(c.ID == id && c.UserID == uid) {
			out = append(out, c)
		}
	}
	f.creds = out
	return nil
}

func (f *Vault) CreateGroup(_ context.Context, uid uuid.UUID, name, desc string) (model.CredentialGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(name) == "" {
		return model.CredentialGroup{}, fmt.Errorf("%w: group name is required", errs.ErrValidation)
	}
	g := model.CredentialGroup{ID: uuid.Must(uuid.NewV4()), UserID: uid, Name: name, Description: desc, CreatedAt: time.Now()}
	f.groups = append([]model.CredentialGroup{g}, f.groups...)
	return g, nil
}

func (f *Vault) DeleteGroup(_ context.Context, uid, gid uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := -1
	for i, g := range f.groups {
		if g.ID == gid && g.UserID == uid {
			idx = i
		}
	}
	if idx < 0 {
		return errs.ErrNotFound
	}
	f.groups = append(f.groups[:idx], f.groups[idx+1:]...)
	out := f.creds[:0]
	for _, c := range f.creds {
		if !c.InGroup(gid) {
			out = append(out, c)
		}
	}
	f.creds = out
	return nil
}
