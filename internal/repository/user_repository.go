package repository

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// ListFilter narrows and pages a user listing. Query matches name or email.
type ListFilter struct {
	Query  string
	Limit  int
	Offset int
}

// UserRepository is the persistence boundary for accounts. Emails passed in
// are expected to be normalized already.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]models.User, int64, error)
	Ping(ctx context.Context) error
}
