package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/repository"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// UserAdminService is the managed-users surface. Every mutation is checked
// against Policy with an actor whose role was confirmed by the guard.
type UserAdminService struct {
	store   *CredentialStore
	policy  *Policy
	metrics *metrics.Metrics
	region  string
}

func NewUserAdminService(cfg *config.Config, store *CredentialStore, policy *Policy, m *metrics.Metrics) *UserAdminService {
	return &UserAdminService{store: store, policy: policy, metrics: m, region: cfg.DefaultPhoneRegion}
}

func (s *UserAdminService) List(ctx context.Context, query string, limit, offset int) ([]models.User, int64, int, int, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	users, total, err := s.store.List(ctx, repository.ListFilter{Query: query, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, 0, 0, err
	}
	return users, total, limit, offset, nil
}

func (s *UserAdminService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *UserAdminService) Create(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*models.User, error) {
	if err := validateCreateUser(&req, s.region); err != nil {
		return nil, err
	}
	role := models.RoleUser
	if req.Role != "" {
		role = models.Role(req.Role)
	}
	if err := s.policy.CanCreate(actor, req.Email, role); err != nil {
		return nil, s.deny(actor, "create", uuid.Nil, err)
	}

	user, err := s.store.Create(ctx, NewUser{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         role,
		Phone:        normalizePhone(req.Phone, s.region),
		Address:      req.Address,
		TaxID:        req.TaxID,
		BusinessName: req.BusinessName,
		AvatarURL:    req.AvatarURL,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("user created by admin",
		"action", "admin_create_user",
		"actor_id", actor.User.ID.String(),
		"user_id", user.ID.String(),
		"role", user.Role.String(),
	)
	return user, nil
}

func (s *UserAdminService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateUserRequest) (*models.User, error) {
	if err := validateUpdateUser(&req, s.region); err != nil {
		return nil, err
	}
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	change := UserChange{Email: req.Email, Password: req.Password != nil}
	if req.Role != nil {
		role := models.Role(*req.Role)
		change.Role = &role
	}
	if err := s.policy.CanUpdate(actor, target, change); err != nil {
		return nil, s.deny(actor, "update", target.ID, err)
	}

	if req.Name != nil {
		target.Name = *req.Name
	}
	if req.Email != nil {
		target.Email = config.NormalizeEmail(*req.Email)
	}
	if change.Role != nil {
		target.Role = *change.Role
	}
	if req.Phone != nil {
		target.Phone = normalizePhone(*req.Phone, s.region)
	}
	if req.Address != nil {
		target.Address = *req.Address
	}
	if req.TaxID != nil {
		target.TaxID = *req.TaxID
	}
	if req.BusinessName != nil {
		target.BusinessName = *req.BusinessName
	}
	if req.AvatarURL != nil {
		target.AvatarURL = *req.AvatarURL
	}
	if req.Password != nil {
		if err := s.store.SetPassword(ctx, target, *req.Password); err != nil {
			return nil, err
		}
		// A password set by someone else has to be replaced by its owner.
		target.MustChangePassword = true
	}

	if err := s.store.Save(ctx, target); err != nil {
		return nil, err
	}
	slog.Info("user updated by admin",
		"action", "admin_update_user",
		"actor_id", actor.User.ID.String(),
		"user_id", target.ID.String(),
		"role", target.Role.String(),
	)
	return target, nil
}

func (s *UserAdminService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.CanDelete(actor, target); err != nil {
		return s.deny(actor, "delete", target.ID, err)
	}
	if err := s.store.Delete(ctx, target.ID); err != nil {
		return err
	}
	slog.Info("user deleted by admin",
		"action", "admin_delete_user",
		"actor_id", actor.User.ID.String(),
		"user_id", target.ID.String(),
	)
	return nil
}

func (s *UserAdminService) deny(actor Actor, op string, targetID uuid.UUID, err error) error {
	var denial *DeniedError
	if errors.As(err, &denial) {
		s.metrics.Denied("policy")
		slog.Warn("admin action denied",
			"action", "admin_"+op+"_user",
			"actor_id", actor.User.ID.String(),
			"target_id", targetID.String(),
			"reason", denial.Reason,
		)
	}
	return err
}
