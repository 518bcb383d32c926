package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is a snapshot of the user at sign time. It can go stale; anything
// authorization-sensitive re-reads the user from the store.
type Claims struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type TokenService struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		key:    []byte(cfg.SessionSecret),
		ttl:    cfg.SessionTTL,
		issuer: cfg.SessionIssuer,
		now:    time.Now,
	}
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Sign(user *models.User) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims, nil
}

func (s *TokenService) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, s.Keyfunc(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if err := s.CheckClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Keyfunc accepts HS256 only and is shared with the cookie JWT middleware so
// both verification paths agree.
func (s *TokenService) Keyfunc() jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	}
}

// CheckClaims applies the checks the JWT parser does not know about.
func (s *TokenService) CheckClaims(claims *Claims) error {
	if claims.Issuer != s.issuer {
		return ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return ErrInvalidToken
	}
	if !claims.Role.IsValid() {
		return ErrInvalidToken
	}
	return nil
}
