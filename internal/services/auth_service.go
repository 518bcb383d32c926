package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/ratelimit"
)

// Session is a freshly signed token together with the user it describes.
type Session struct {
	User   *models.User
	Token  string
	Claims *Claims
}

type AuthService struct {
	store   *CredentialStore
	tokens  *TokenService
	policy  *Policy
	limiter *ratelimit.KeyedLimiter
	metrics *metrics.Metrics
	region  string
	now     func() time.Time
}

func NewAuthService(
	cfg *config.Config,
	store *CredentialStore,
	tokens *TokenService,
	policy *Policy,
	m *metrics.Metrics,
) *AuthService {
	return &AuthService{
		store:   store,
		tokens:  tokens,
		policy:  policy,
		limiter: ratelimit.New(cfg.LoginAttemptsPerMinute, time.Minute),
		metrics: m,
		region:  cfg.DefaultPhoneRegion,
		now:     time.Now,
	}
}

func (s *AuthService) Policy() *Policy {
	return s.policy
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*Session, error) {
	if err := validateLogin(&req); err != nil {
		return nil, err
	}
	email := config.NormalizeEmail(req.Email)
	if !s.limiter.Allow(email) {
		s.metrics.LoginAttempt("rate_limited")
		slog.Warn("login rate limited", "action", "login", "email", email)
		return nil, ErrRateLimited
	}

	user, err := s.store.Authenticate(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.metrics.LoginAttempt("invalid")
		}
		return nil, err
	}

	now := s.now().UTC()
	user.LastLoginAt = &now

	// A temporary password opens exactly one session. Its hash is replaced
	// by one nobody knows; the session may then set a new password without
	// presenting the old one.
	temporary := user.MustChangePassword
	if temporary {
		if err := s.store.SetPassword(ctx, user, rand.Text()); err != nil {
			return nil, err
		}
	}
	if err := s.store.Save(ctx, user); err != nil {
		if temporary {
			return nil, fmt.Errorf("retire temporary password: %w", err)
		}
		// The credentials were valid; a failed bookkeeping write should not
		// turn into a failed login.
		slog.Warn("failed to record last login", "user_id", user.ID.String(), "error", err)
	}
	if temporary {
		slog.Info("temporary password consumed", "action", "login", "user_id", user.ID.String())
	}

	s.metrics.LoginAttempt("success")
	return s.IssueSession(user)
}

// Register creates a user account. The role is derived from the email: the
// super admin and the admin allow-list start as admin.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*Session, error) {
	if err := validateRegister(&req, s.region); err != nil {
		return nil, err
	}

	role := s.policy.RoleForRegistration(req.Email)
	user, err := s.store.Create(ctx, NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		Phone:    normalizePhone(req.Phone, s.region),
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "action", "register", "user_id", user.ID.String(), "role", user.Role.String())
	return s.IssueSession(user)
}

// UpdateProfile applies a self-service edit. Role is never writable here.
func (s *AuthService) UpdateProfile(ctx context.Context, user *models.User, req dto.UpdateProfileRequest) (*Session, error) {
	if err := validateProfile(&req, s.region); err != nil {
		return nil, err
	}

	if req.Email != nil {
		if err := s.policy.CheckEmailChange(user, *req.Email); err != nil {
			return nil, err
		}
		user.Email = config.NormalizeEmail(*req.Email)
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = normalizePhone(*req.Phone, s.region)
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.TaxID != nil {
		user.TaxID = *req.TaxID
	}
	if req.BusinessName != nil {
		user.BusinessName = *req.BusinessName
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if req.NewPassword != "" {
		if !s.limiter.Allow("password-change:" + user.ID.String()) {
			return nil, ErrRateLimited
		}
		if !user.MustChangePassword {
			if req.CurrentPassword == "" {
				return nil, invalidField("current_password", "is required to set a new password")
			}
			if !s.store.VerifyPassword(ctx, req.CurrentPassword, user.PasswordHash) {
				return nil, invalidField("current_password", "is incorrect")
			}
		}
		if err := s.store.SetPassword(ctx, user, req.NewPassword); err != nil {
			return nil, err
		}
		user.MustChangePassword = false
		slog.Info("password changed", "action", "password_change", "user_id", user.ID.String())
	}

	if err := s.store.Save(ctx, user); err != nil {
		return nil, err
	}
	return s.IssueSession(user)
}

// PromoteIfEligible grants the admin role to the configured super admin
// account. Eligibility is decided on the stored email, not the token's. The
// bool reports whether a write happened; calling it again is a no-op.
func (s *AuthService) PromoteIfEligible(ctx context.Context, claims *Claims) (*models.User, bool, error) {
	if claims == nil {
		return nil, false, ErrUnauthenticated
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, false, ErrUnauthenticated
	}
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		return nil, false, ErrUnauthenticated
	}
	if !s.policy.IsSuperAdmin(user) {
		slog.Warn("bootstrap rejected", "action", "bootstrap", "user_id", user.ID.String())
		return nil, false, ErrNotEligible
	}
	if user.IsAdmin() {
		return user, false, nil
	}

	user.Role = models.RoleAdmin
	if err := s.store.Save(ctx, user); err != nil {
		return nil, false, fmt.Errorf("promote super admin: %w", err)
	}
	slog.Info("super admin bootstrapped", "action", "bootstrap", "user_id", user.ID.String())
	return user, true, nil
}

func (s *AuthService) IssueSession(user *models.User) (*Session, error) {
	token, claims, err := s.tokens.Sign(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, Claims: claims}, nil
}
