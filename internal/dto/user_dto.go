package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/google/uuid"
)

type UserResponse struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Email              string      `json:"email"`
	Role               models.Role `json:"role"`
	Phone              string      `json:"phone,omitempty"`
	Address            string      `json:"address,omitempty"`
	TaxID              string      `json:"tax_id,omitempty"`
	BusinessName       string      `json:"business_name,omitempty"`
	AvatarURL          string      `json:"avatar_url,omitempty"`
	MustChangePassword bool        `json:"must_change_password"`
	IsSuperAdmin       bool        `json:"is_super_admin,omitempty"`
	LastLoginAt        *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// NewUserResponse is the only way a models.User is rendered; it never
// copies the password hash.
func NewUserResponse(u *models.User, isSuperAdmin bool) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role,
		Phone:              u.Phone,
		Address:            u.Address,
		TaxID:              u.TaxID,
		BusinessName:       u.BusinessName,
		AvatarURL:          u.AvatarURL,
		MustChangePassword: u.MustChangePassword,
		IsSuperAdmin:       isSuperAdmin,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

type CreateUserRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	TaxID        string `json:"tax_id,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
}

type UpdateUserRequest struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Role         *string `json:"role,omitempty"`
	Password     *string `json:"password,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	TaxID        *string `json:"tax_id,omitempty"`
	BusinessName *string `json:"business_name,omitempty"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
}

type UserEnvelope struct {
	OK   bool         `json:"ok"`
	User UserResponse `json:"user"`
}

type UserListResponse struct {
	OK     bool           `json:"ok"`
	Users  []UserResponse `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
