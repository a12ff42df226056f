package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
	"github.com/emphasys/identity/internal/infrastructure/db/sqlstore"
	"github.com/emphasys/identity/internal/infrastructure/security"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, e domain.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) types() []domain.ActivityType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ActivityType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type memoryRevocations struct {
	mu   sync.Mutex
	ids  map[string]time.Time
	down error
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{ids: make(map[string]time.Time)}
}

func (m *memoryRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = until
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return false, m.down
	}
	_, ok := m.ids[id]
	return ok, nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	store    *sqlstore.Store
	clock    *testClock
	sink     *recordingSink
	revoked  *memoryRevocations
	tokens   *security.TokenService
	boot     *Bootstrapper
	accounts *AccountService
	auth     *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlstore.Open(ctx, sqlstore.Config{Path: sqlstore.MemoryDSN(uuid.NewString())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(ctx, db))

	env := &testEnv{
		store:   sqlstore.New(db, 2),
		clock:   &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)},
		sink:    &recordingSink{},
		revoked: newMemoryRevocations(),
	}
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	env.tokens, err = security.NewTokenService(security.TokenConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		Issuer:        "emphasys-software.com",
		Audience:      "izlottery.com",
		Now:           env.clock.Now,
	})
	require.NoError(t, err)

	log := zerolog.Nop()
	env.boot = NewBootstrapper(env.store, env.clock.Now, log)
	env.accounts = NewAccountService(AccountDeps{
		Store:    env.store,
		Gate:     NewGate(2),
		Boot:     env.boot,
		Hasher:   hasher,
		Activity: env.sink,
		Now:      env.clock.Now,
		Log:      log,
	})
	env.auth = NewAuthService(AuthDeps{
		Store:    env.store,
		Hasher:   hasher,
		Tokens:   env.tokens,
		Revoked:  env.revoked,
		Activity: env.sink,
		Now:      env.clock.Now,
		Log:      log,
	})
	return env
}

func (e *testEnv) createRole(t *testing.T, actor *domain.Principal, name string) *domain.Role {
	t.Helper()
	role, err := e.accounts.CreateRole(context.Background(), actor, name)
	require.NoError(t, err)
	return role
}

// bootstrap creates the superuser and returns it with its principal.
func (e *testEnv) bootstrap(t *testing.T, email, password string) (*domain.User, *domain.Principal) {
	t.Helper()
	res, err := e.accounts.CreateUser(context.Background(), nil, ports.CreateUserInput{
		Name:                 "Root",
		Email:                email,
		Password:             password,
		PasswordConfirmation: password,
	})
	require.NoError(t, err)
	require.True(t, res.Bootstrapped)
	p := domain.PrincipalFor(res.User)
	return res.User, &p
}

func (e *testEnv) createUser(t *testing.T, actor *domain.Principal, email string, roleID *int64) *domain.User {
	t.Helper()
	res, err := e.accounts.CreateUser(context.Background(), actor, ports.CreateUserInput{
		Name:                 "User " + email,
		Email:                email,
		Password:             "pw",
		PasswordConfirmation: "pw",
		RoleID:               roleID,
	})
	require.NoError(t, err)
	require.False(t, res.Bootstrapped)
	return res.User
}

func principalOf(u *domain.User) *domain.Principal {
	p := domain.PrincipalFor(u)
	return &p
}
