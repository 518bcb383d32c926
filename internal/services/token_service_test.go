package services

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(role models.Role) *models.User {
	return &models.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com", Role: role}
}

func TestTokenService_SignVerifyRoundTrip(t *testing.T) {
	svc := NewTokenService(testConfig())
	user := testUser(models.RoleUser)

	token, signed, err := svc.Sign(user)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, "storefront-test", claims.Issuer)
	assert.Equal(t, signed.ID, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestTokenService_RejectsRoleTampering(t *testing.T) {
	svc := NewTokenService(testConfig())
	token, _, err := svc.Sign(testUser(models.RoleUser))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	require.Contains(t, string(payload), `"role":"user"`)

	forged := strings.Replace(string(payload), `"role":"user"`, `"role":"admin"`, 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = svc.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	svc := NewTokenService(testConfig())
	_, claims, err := svc.Sign(testUser(models.RoleAdmin))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsOtherKey(t *testing.T) {
	cfg := testConfig()
	other := testConfig()
	other.SessionSecret = strings.Repeat("z", 32)

	token, _, err := NewTokenService(other).Sign(testUser(models.RoleUser))
	require.NoError(t, err)

	_, err = NewTokenService(cfg).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService(testConfig())
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }
	token, _, err := svc.Sign(testUser(models.RoleUser))
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_RejectsForeignIssuerAndMissingExpiry(t *testing.T) {
	svc := NewTokenService(testConfig())
	user := testUser(models.RoleUser)

	sign := func(claims *Claims) string {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return raw
	}

	foreign := &Claims{Role: models.RoleUser, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	_, err := svc.Verify(sign(foreign))
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry := &Claims{Role: models.RoleUser, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:  "storefront-test",
		Subject: user.ID.String(),
	}}
	_, err = svc.Verify(sign(noExpiry))
	assert.ErrorIs(t, err, ErrInvalidToken)

	badRole := &Claims{Role: "root", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "storefront-test",
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	_, err = svc.Verify(sign(badRole))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := NewTokenService(testConfig())
	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := svc.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}
