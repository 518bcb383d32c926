package services

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, dto.RegisterRequest{Name: "Alice", Email: "Alice@Example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", reg.User.Email)
	assert.Equal(t, models.RoleUser, reg.User.Role)
	assert.NotEmpty(t, reg.Token)

	login, err := env.auth.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, login.Claims.Role)
	require.NotNil(t, login.User.LastLoginAt)

	stored, err := env.store.FindByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestAuthService_RegisterAssignsAdminFromConfig(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	staff, err := env.auth.Register(ctx, dto.RegisterRequest{Name: "Staff", Email: staffEmail, Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, staff.User.Role)

	owner, err := env.auth.Register(ctx, dto.RegisterRequest{Name: "Owner", Email: superEmail, Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, owner.Claims.Role)
}

func TestAuthService_RegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, dto.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "Secret123"})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, dto.RegisterRequest{Name: "Alice", Email: "ALICE@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	writes := env.repo.Writes()
	_, err = env.auth.Register(ctx, dto.RegisterRequest{Name: "", Email: "not-an-email", Password: "short", Phone: "12"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "phone")
	assert.Equal(t, writes, env.repo.Writes())
}

func TestAuthService_RegisterNormalizesPhone(t *testing.T) {
	env := newTestEnv(t)

	sess, err := env.auth.Register(context.Background(), dto.RegisterRequest{
		Name: "Bob", Email: "bob@example.com", Password: "Secret123", Phone: "(201) 555-0123",
	})
	require.NoError(t, err)
	assert.Equal(t, "+12015550123", sess.User.Phone)
}

func TestAuthService_LoginFailuresLookTheSame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "alice@example.com", "Secret123", models.RoleUser)

	_, wrong := env.auth.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Wrong1234"})
	_, unknown := env.auth.Login(ctx, dto.LoginRequest{Email: "ghost@example.com", Password: "Secret123"})

	assert.ErrorIs(t, wrong, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrong.Error(), unknown.Error())
}

func TestAuthService_LoginIsRateLimitedPerEmail(t *testing.T) {
	cfg := testConfig()
	cfg.LoginAttemptsPerMinute = 2
	env := newTestEnvWithConfig(t, cfg)
	ctx := context.Background()
	env.createUser(t, "alice@example.com", "Secret123", models.RoleUser)

	for i := 0; i < 2; i++ {
		_, err := env.auth.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Wrong1234"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := env.auth.Login(ctx, dto.LoginRequest{Email: "ALICE@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = env.auth.Login(ctx, dto.LoginRequest{Email: "ghost@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice@example.com", "Secret123", models.RoleUser)

	sess, err := env.auth.UpdateProfile(ctx, user, dto.UpdateProfileRequest{
		Name:         strPtr("  Alice Smith "),
		Email:        strPtr("alice.smith@example.com"),
		BusinessName: strPtr("Alice Ltd"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", sess.User.Name)
	assert.Equal(t, "alice.smith@example.com", sess.Claims.Email)
	assert.Equal(t, models.RoleUser, sess.User.Role)

	stored, err := env.store.FindByEmail(ctx, "alice.smith@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Alice Ltd", stored.BusinessName)
}

func TestAuthService_UpdateProfileProtectsSuperAdminEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, superEmail, "Secret123", models.RoleAdmin)
	alice := env.createUser(t, "alice@example.com", "Secret123", models.RoleUser)

	_, err := env.auth.UpdateProfile(ctx, owner, dto.UpdateProfileRequest{Email: strPtr("new@shop.com")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.auth.UpdateProfile(ctx, alice, dto.UpdateProfileRequest{Email: strPtr(superEmail)})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthService_UpdateProfileDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "bob@example.com", "Secret123", models.RoleUser)
	alice := env.createUser(t, "alice@example.com", "Secret123", models.RoleUser)

	_, err := env.auth.UpdateProfile(context.Background(), alice, dto.UpdateProfileRequest{Email: strPtr("BOB@example.com")})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAuthService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice@example.com", "Secret123", models.RoleUser)

	_, err := env.auth.UpdateProfile(ctx, user, dto.UpdateProfileRequest{NewPassword: "Fresh4567"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "current_password")

	user, _ = env.store.FindByID(ctx, user.ID)
	_, err = env.auth.UpdateProfile(ctx, user, dto.UpdateProfileRequest{CurrentPassword: "Wrong1234", NewPassword: "Fresh4567"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is incorrect", verr.Fields["current_password"])

	user, _ = env.store.FindByID(ctx, user.ID)
	_, err = env.auth.UpdateProfile(ctx, user, dto.UpdateProfileRequest{CurrentPassword: "Secret123", NewPassword: "Fresh4567"})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Fresh4567"})
	assert.NoError(t, err)
}

func TestAuthService_PromoteIfEligibleIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	// Created before the address was designated, so it starts as a user.
	owner := env.createUser(t, superEmail, "Secret123", models.RoleUser)
	sess, err := env.auth.IssueSession(owner)
	require.NoError(t, err)

	user, promoted, err := env.auth.PromoteIfEligible(ctx, sess.Claims)
	require.NoError(t, err)
	assert.True(t, promoted)
	assert.Equal(t, models.RoleAdmin, user.Role)

	writes := env.repo.Writes()
	user, promoted, err = env.auth.PromoteIfEligible(ctx, sess.Claims)
	require.NoError(t, err)
	assert.False(t, promoted)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, writes, env.repo.Writes(), "second call must not write")
}

func TestAuthService_PromoteIfEligibleRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.auth.PromoteIfEligible(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	alice := env.createUser(t, "alice@example.com", "Secret123", models.RoleUser)
	sess, err := env.auth.IssueSession(alice)
	require.NoError(t, err)

	// Forged email in the claims does not matter; the stored email does.
	sess.Claims.Email = superEmail
	_, _, err = env.auth.PromoteIfEligible(ctx, sess.Claims)
	assert.ErrorIs(t, err, ErrNotEligible)

	require.NoError(t, env.store.Delete(ctx, alice.ID))
	_, _, err = env.auth.PromoteIfEligible(ctx, sess.Claims)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthService_RoleChangeIsNotRetroactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, superEmail, "Secret123", models.RoleAdmin)

	reg, err := env.auth.Register(ctx, dto.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "Secret123"})
	require.NoError(t, err)
	first, err := env.auth.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, first.Claims.Role)

	_, err = env.admin.Update(ctx, env.actor(owner), reg.User.ID, dto.UpdateUserRequest{Role: strPtr("admin")})
	require.NoError(t, err)

	cached, err := env.tokens.Verify(first.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, cached.Role)

	next, err := env.auth.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, next.Claims.Role)
}
