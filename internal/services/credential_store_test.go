package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStore_CreateNormalizesEmail(t *testing.T) {
	env := newTestEnv(t)

	user := env.createUser(t, "  Alice@Example.COM ", "Secret123", "")

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "Secret123", user.PasswordHash)

	found, err := env.store.FindByEmail(context.Background(), "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
}

func TestCredentialStore_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice@example.com", "Secret123", models.RoleUser)

	_, err := env.store.Create(context.Background(), NewUser{Name: "A", Email: "ALICE@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCredentialStore_FindMissingReturnsNil(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.store.FindByEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCredentialStore_VerifyPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, pw := range []string{"Secret123", "pässwörd99", "a1b2c3d4e5"} {
		user := env.createUser(t, pw[:3]+"@example.com", pw, models.RoleUser)
		assert.True(t, env.store.VerifyPassword(ctx, pw, user.PasswordHash), pw)
		assert.False(t, env.store.VerifyPassword(ctx, pw+"x", user.PasswordHash), pw)
		assert.False(t, env.store.VerifyPassword(ctx, "", user.PasswordHash), pw)
	}
}

func TestCredentialStore_AuthenticateDoesNotRevealAccounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "alice@example.com", "Secret123", models.RoleUser)

	user, err := env.store.Authenticate(ctx, "Alice@Example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, wrongPassword := env.store.Authenticate(ctx, "alice@example.com", "Wrong1234")
	_, unknownEmail := env.store.Authenticate(ctx, "nobody@example.com", "Secret123")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestCredentialStore_AuthenticateTimingIsComparable(t *testing.T) {
	if testing.Short() {
		t.Skip("timing comparison")
	}
	cfg := testConfig()
	cfg.BcryptCost = 8
	env := newTestEnvWithConfig(t, cfg)
	ctx := context.Background()
	env.createUser(t, "alice@example.com", "Secret123", models.RoleUser)

	median := func(email string) time.Duration {
		const trials = 7
		samples := make([]time.Duration, trials)
		for i := range samples {
			start := time.Now()
			_, err := env.store.Authenticate(ctx, email, "Wrong1234")
			samples[i] = time.Since(start)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
		return samples[trials/2]
	}

	known := median("alice@example.com")
	unknown := median("nobody@example.com")

	ratio := float64(unknown) / float64(known)
	assert.Greater(t, ratio, 0.5, "unknown=%s known=%s", unknown, known)
	assert.Less(t, ratio, 2.0, "unknown=%s known=%s", unknown, known)
}

func TestCredentialStore_SaveAndDeleteMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ghost := &models.User{Email: "ghost@example.com"}
	assert.ErrorIs(t, env.store.Save(ctx, ghost), ErrNotFound)
	assert.ErrorIs(t, env.store.Delete(ctx, ghost.ID), ErrNotFound)
}
