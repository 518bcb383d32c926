package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/repository"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	superEmail = "owner@shop.com"
	staffEmail = "staff@shop.com"
)

func testConfig() *config.Config {
	return &config.Config{
		SessionSecret:           testSecret,
		SessionTTL:              time.Hour,
		SessionIssuer:           "storefront-test",
		SuperAdminEmail:         superEmail,
		AdminEmails:             []string{staffEmail},
		BcryptCost:              bcrypt.MinCost,
		HashConcurrency:         4,
		LoginAttemptsPerMinute:  100,
		RecoveryAttemptsPerHour: 100,
		DefaultPhoneRegion:      "US",
	}
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) Sent() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.sent...)
}

type testEnv struct {
	cfg      *config.Config
	repo     *repository.MemoryUserRepository
	hasher   *PasswordHasher
	store    *CredentialStore
	tokens   *TokenService
	policy   *Policy
	auth     *AuthService
	recovery *RecoveryService
	admin    *UserAdminService
	mail     *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithConfig(t, testConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	hasher, err := NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency, nil)
	require.NoError(t, err)

	env := &testEnv{
		cfg:    cfg,
		repo:   repository.NewMemoryUserRepository(),
		hasher: hasher,
		mail:   &fakeMailer{},
	}
	env.store = NewCredentialStore(env.repo, hasher)
	env.tokens = NewTokenService(cfg)
	env.policy = NewPolicy(cfg)
	env.auth = NewAuthService(cfg, env.store, env.tokens, env.policy, nil)
	env.recovery = NewRecoveryService(cfg, env.store, env.mail, nil)
	env.admin = NewUserAdminService(cfg, env.store, env.policy, nil)
	return env
}

func (e *testEnv) createUser(t *testing.T, email, password string, role models.Role) *models.User {
	t.Helper()
	user, err := e.store.Create(context.Background(), NewUser{
		Name:     "Test " + string(role),
		Email:    email,
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) actor(user *models.User) Actor {
	return Actor{User: user, IsSuperAdmin: e.policy.IsSuperAdmin(user)}
}

func strPtr(s string) *string { return &s }
