package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the storefront account record. PasswordHash never leaves the
// service; API responses go through dto.UserResponse.
type User struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name               string     `gorm:"size:100;not null" json:"name"`
	Email              string     `gorm:"size:254;not null;uniqueIndex" json:"email"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	Role               Role       `gorm:"size:20;not null;default:'user';index" json:"role"`
	Phone              string     `gorm:"size:32" json:"phone,omitempty"`
	Address            string     `gorm:"size:500" json:"address,omitempty"`
	TaxID              string     `gorm:"size:64" json:"tax_id,omitempty"`
	BusinessName       string     `gorm:"size:200" json:"business_name,omitempty"`
	AvatarURL          string     `gorm:"size:500" json:"avatar_url,omitempty"`
	MustChangePassword bool       `gorm:"not null;default:false" json:"must_change_password"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
