package services

import (
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
)

// Actor is an authenticated admin whose role was confirmed against the store.
type Actor struct {
	User         *models.User
	IsSuperAdmin bool
}

// UserChange describes what an edit touches. Nil fields are untouched.
type UserChange struct {
	Email    *string
	Role     *models.Role
	Password bool
}

// Policy centralizes every super-admin and role rule.
type Policy struct {
	superAdminEmail string
	adminEmails     map[string]struct{}
}

func NewPolicy(cfg *config.Config) *Policy {
	allow := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		allow[config.NormalizeEmail(email)] = struct{}{}
	}
	return &Policy{
		superAdminEmail: config.NormalizeEmail(cfg.SuperAdminEmail),
		adminEmails:     allow,
	}
}

func (p *Policy) IsSuperAdmin(user *models.User) bool {
	return user != nil && p.IsSuperAdminEmail(user.Email)
}

func (p *Policy) IsSuperAdminEmail(email string) bool {
	return p.superAdminEmail != "" && config.NormalizeEmail(email) == p.superAdminEmail
}

// RoleForRegistration grants admin to the super-admin email and to the
// configured allow-list; everyone else starts as a user.
func (p *Policy) RoleForRegistration(email string) models.Role {
	if p.IsSuperAdminEmail(email) {
		return models.RoleAdmin
	}
	if _, ok := p.adminEmails[config.NormalizeEmail(email)]; ok {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// CheckEmailChange guards both the profile and the admin edit paths.
func (p *Policy) CheckEmailChange(target *models.User, newEmail string) error {
	newEmail = config.NormalizeEmail(newEmail)
	if newEmail == target.Email {
		return nil
	}
	if p.IsSuperAdmin(target) {
		return denied("the super admin email cannot be changed")
	}
	if p.IsSuperAdminEmail(newEmail) {
		return denied("that email address is reserved")
	}
	return nil
}

func (p *Policy) CanCreate(actor Actor, email string, role models.Role) error {
	if p.IsSuperAdminEmail(email) {
		return denied("that email address is reserved")
	}
	if role == models.RoleAdmin && !actor.IsSuperAdmin {
		return denied("only the super admin can grant the admin role")
	}
	return nil
}

func (p *Policy) CanUpdate(actor Actor, target *models.User, change UserChange) error {
	roleChanging := change.Role != nil && *change.Role != target.Role

	if p.IsSuperAdmin(target) {
		if change.Role != nil && *change.Role != models.RoleAdmin {
			return denied("the super admin must keep the admin role")
		}
	}
	if change.Email != nil {
		if err := p.CheckEmailChange(target, *change.Email); err != nil {
			return err
		}
	}
	if p.IsSuperAdmin(target) && !actor.IsSuperAdmin {
		return denied("only the super admin can edit the super admin account")
	}
	// Own credentials change only through the profile, which asks for the
	// current password.
	if actor.User.ID == target.ID {
		if change.Password {
			return denied("change your own password through /api/auth/me")
		}
		if change.Email != nil && config.NormalizeEmail(*change.Email) != target.Email {
			return denied("change your own email through /api/auth/me")
		}
	}
	if actor.IsSuperAdmin {
		return nil
	}

	if actor.User.ID == target.ID {
		if roleChanging {
			return denied("admins cannot change their own role")
		}
		return nil
	}
	if target.IsAdmin() {
		return denied("only the super admin can edit another admin")
	}
	if roleChanging {
		return denied("only the super admin can grant the admin role")
	}
	return nil
}

func (p *Policy) CanDelete(actor Actor, target *models.User) error {
	if actor.User.ID == target.ID {
		return denied("you cannot delete your own account")
	}
	if p.IsSuperAdmin(target) {
		return denied("the super admin account cannot be deleted")
	}
	if target.IsAdmin() && !actor.IsSuperAdmin {
		return denied("only the super admin can delete an admin")
	}
	return nil
}
