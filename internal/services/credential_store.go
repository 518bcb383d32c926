package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/repository"
	"github.com/google/uuid"
)

// NewUser carries the fields of an account about to be created. Password is
// plaintext and is hashed before it reaches the repository.
type NewUser struct {
	Name         string
	Email        string
	Password     string
	Role         models.Role
	Phone        string
	Address      string
	TaxID        string
	BusinessName string
	AvatarURL    string
}

// CredentialStore owns user records and password verification.
type CredentialStore struct {
	repo   repository.UserRepository
	hasher *PasswordHasher
}

func NewCredentialStore(repo repository.UserRepository, hasher *PasswordHasher) *CredentialStore {
	return &CredentialStore{repo: repo, hasher: hasher}
}

// FindByEmail returns nil without error when no account matches.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, config.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// FindByID returns nil without error when no account matches.
func (s *CredentialStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (s *CredentialStore) Create(ctx context.Context, fields NewUser) (*models.User, error) {
	email := config.NormalizeEmail(fields.Email)
	existing, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(ctx, fields.Password)
	if err != nil {
		return nil, err
	}

	role := fields.Role
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		ID:           uuid.New(),
		Name:         fields.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        fields.Phone,
		Address:      fields.Address,
		TaxID:        fields.TaxID,
		BusinessName: fields.BusinessName,
		AvatarURL:    fields.AvatarURL,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (s *CredentialStore) Save(ctx context.Context, user *models.User) error {
	user.Email = config.NormalizeEmail(user.Email)
	err := s.repo.Save(ctx, user)
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrDuplicateEmail
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	}
	return err
}

func (s *CredentialStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *CredentialStore) List(ctx context.Context, filter repository.ListFilter) ([]models.User, int64, error) {
	return s.repo.List(ctx, filter)
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// VerifyPassword reports whether plain matches the stored hash.
func (s *CredentialStore) VerifyPassword(ctx context.Context, plain, hash string) bool {
	ok, err := s.hasher.Compare(ctx, hash, plain)
	return err == nil && ok
}

// SetPassword replaces the user's hash in memory; the caller persists it.
func (s *CredentialStore) SetPassword(ctx context.Context, user *models.User, plain string) error {
	hash, err := s.hasher.Hash(ctx, plain)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}

// Authenticate resolves an email/password pair to a user. An unknown email
// still pays for one bcrypt comparison and fails with the same error as a
// wrong password.
func (s *CredentialStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup credentials: %w", err)
	}
	if user == nil {
		if err := s.hasher.CompareDummy(ctx, password); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CompareDummy spends one comparison against the startup dummy hash. Paths
// that reject an unknown email use it to match the cost of a real lookup.
func (s *CredentialStore) CompareDummy(ctx context.Context, plain string) error {
	return s.hasher.CompareDummy(ctx, plain)
}
