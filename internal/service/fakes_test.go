package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/limiter"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/and161185/agent-pass/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// clock hands out strictly increasing timestamps so ordering is deterministic.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.t.IsZero() {
		c.t = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	c.t = c.t.Add(time.Second)
	return c.t
}

type fakeUsers struct {
	byEmail map[string]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.User{}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	u.CreatedAt = time.Now()
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}
func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

type fakeSettings struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.AccountSettings

	getErr    error
	createErr error
	// beforeCreate runs inside Create before the uniqueness check; used to
	// simulate a concurrent initializer winning the race.
	beforeCreate func()

	getCalls    int
	createCalls int
}

var _ repository.SettingsRepository = (*fakeSettings)(nil)

func newFakeSettings() *fakeSettings {
	return &fakeSettings{rows: map[uuid.UUID]model.AccountSettings{}}
}

func (f *fakeSettings) Get(_ context.Context, userID uuid.UUID) (*model.AccountSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.rows[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSettings) Create(_ context.Context, s *model.AccountSettings) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.rows[s.UserID]; ok {
		return errs.ErrAlreadyExists
	}
	s.CreatedAt, s.UpdatedAt = time.Now(), time.Now()
	f.rows[s.UserID] = *s
	return nil
}

func (f *fakeSettings) UpdateAPIKey(_ context.Context, userID uuid.UUID, apiKey string) (*model.AccountSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	s.APIKey = apiKey
	s.UpdatedAt = time.Now()
	f.rows[userID] = s
	return &s, nil
}

func (f *fakeSettings) GetByAPIKey(_ context.Context, apiKey string) (*model.AccountSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.APIKey == apiKey {
			c := s
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

// vaultStore is an in-memory GroupRepository + CredentialRepository pair that
// honours ownership scoping and the atomic cascade.
type vaultStore struct {
	clk    clock
	groups map[uuid.UUID]model.CredentialGroup
	creds  map[uuid.UUID]model.Credential

	failCredentialPhase bool
	listErr             error
}

func newVaultStore() *vaultStore {
	return &vaultStore{
		groups: map[uuid.UUID]model.CredentialGroup{},
		creds:  map[uuid.UUID]model.Credential{},
	}
}

type fakeGroups struct{ *vaultStore }
type fakeCreds struct{ *vaultStore }

var (
	_ repository.GroupRepository      = fakeGroups{}
	_ repository.CredentialRepository = fakeCreds{}
)

func (g fakeGroups) List(_ context.Context, userID uuid.UUID) ([]model.CredentialGroup, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	out := make([]model.CredentialGroup, 0)
	for _, v := range g.groups {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (g fakeGroups) Get(_ context.Context, userID, id uuid.UUID) (*model.CredentialGroup, error) {
	v, ok := g.groups[id]
	if !ok || v.UserID != userID {
		return nil, errs.ErrNotFound
	}
	return &v, nil
}

func (g fakeGroups) Create(_ context.Context, grp *model.CredentialGroup) error {
	grp.CreatedAt = g.clk.now()
	g.groups[grp.ID] = *grp
	return nil
}

func (g fakeGroups) DeleteCascade(_ context.Context, userID, id uuid.UUID) (int64, error) {
	if g.failCredentialPhase {
		return 0, errors.New("credential phase failed")
	}
	v, ok := g.groups[id]
	if !ok || v.UserID != userID {
		return 0, errs.ErrNotFound
	}
	var n int64
	for cid, c := range g.creds {
		if c.UserID == userID && c.InGroup(id) {
			delete(g.creds, cid)
			n++
		}
	}
	delete(g.groups, id)
	return n, nil
}

func (c fakeCreds) List(_ context.Context, userID uuid.UUID) ([]model.Credential, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]model.Credential, 0)
	for _, v := range c.creds {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (c fakeCreds) Get(_ context.Context, userID, id uuid.UUID) (*model.Credential, error) {
	v, ok := c.creds[id]
	if !ok || v.UserID != userID {
		return nil, errs.ErrNotFound
	}
	return &v, nil
}

func (c fakeCreds) Create(_ context.Context, cr *model.Credential) error {
	if cr.GroupID != nil {
		g, ok := c.groups[*cr.GroupID]
		if !ok || g.UserID != cr.UserID {
			return errs.ErrNotFound
		}
	}
	now := c.clk.now()
	cr.CreatedAt, cr.ModifiedAt = now, now
	c.creds[cr.ID] = *cr
	return nil
}

func (c fakeCreds) UpdateValue(_ context.Context, userID, id uuid.UUID, value string) (time.Time, error) {
	v, ok := c.creds[id]
	if !ok || v.UserID != userID {
		return time.Time{}, errs.ErrNotFound
	}
	v.Value = value
	v.ModifiedAt = c.clk.now()
	c.creds[id] = v
	return v.ModifiedAt, nil
}

func (c fakeCreds) Delete(_ context.Context, userID, id uuid.UUID) (int64, error) {
	v, ok := c.creds[id]
	if !ok || v.UserID != userID {
		return 0, nil
	}
	delete(c.creds, id)
	return 1, nil
}
