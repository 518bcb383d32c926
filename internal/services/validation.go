package services

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

const (
	maxNameLen         = 100
	maxEmailLen        = 254
	maxAddressLen      = 500
	maxTaxIDLen        = 64
	maxBusinessNameLen = 200
	maxAvatarURLLen    = 500
	minPasswordLen     = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

var (
	hasLetter = regexp.MustCompile(`\pL`)
	hasDigit  = regexp.MustCompile(`\pN`)
)

var passwordStrength = validation.By(func(value interface{}) error {
	s, ok := stringValue(value)
	if !ok || s == "" {
		return nil
	}
	if len(s) > maxPasswordBytes {
		return errors.New("must be at most 72 bytes long")
	}
	if utf8.RuneCountInString(s) < minPasswordLen {
		return errors.New("must be at least 8 characters long")
	}
	if !hasLetter.MatchString(s) || !hasDigit.MatchString(s) {
		return errors.New("must contain at least one letter and one digit")
	}
	return nil
})

var roleName = validation.In(string(models.RoleUser), string(models.RoleAdmin)).
	Error("must be either user or admin")

func phoneNumber(region string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, ok := stringValue(value)
		if !ok || strings.TrimSpace(s) == "" {
			return nil
		}
		num, err := phonenumbers.Parse(s, region)
		if err != nil || !phonenumbers.IsValidNumber(num) {
			return errors.New("must be a valid phone number")
		}
		return nil
	})
}

// normalizePhone renders a validated number in E.164; empty stays empty.
func normalizePhone(s, region string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	num, err := phonenumbers.Parse(s, region)
	if err != nil {
		return s
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func validateRegister(req *dto.RegisterRequest, region string) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	return asValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, maxNameLen)),
		validation.Field(&req.Email, validation.Required, validation.Length(3, maxEmailLen), is.Email),
		validation.Field(&req.Password, validation.Required, passwordStrength),
		validation.Field(&req.Phone, phoneNumber(region)),
	))
}

func validateLogin(req *dto.LoginRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	return asValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, validation.Length(3, maxEmailLen)),
		validation.Field(&req.Password, validation.Required, validation.Length(1, 1024)),
	))
}

func validateRecover(req *dto.RecoverPasswordRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	return asValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, validation.Length(3, maxEmailLen), is.Email),
	))
}

func validateProfile(req *dto.UpdateProfileRequest, region string) error {
	for _, s := range []*string{req.Name, req.Email, req.Phone, req.Address, req.TaxID, req.BusinessName, req.AvatarURL} {
		trimPtr(s)
	}
	return asValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.RuneLength(1, maxNameLen)),
		validation.Field(&req.Email, validation.NilOrNotEmpty, validation.Length(3, maxEmailLen), is.Email),
		validation.Field(&req.Phone, phoneNumber(region)),
		validation.Field(&req.Address, validation.RuneLength(0, maxAddressLen)),
		validation.Field(&req.TaxID, validation.Length(0, maxTaxIDLen)),
		validation.Field(&req.BusinessName, validation.RuneLength(0, maxBusinessNameLen)),
		validation.Field(&req.AvatarURL, validation.Length(0, maxAvatarURLLen), is.URL),
		validation.Field(&req.NewPassword, passwordStrength),
	))
}

func validateCreateUser(req *dto.CreateUserRequest, region string) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.TrimSpace(req.Role)
	return asValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, maxNameLen)),
		validation.Field(&req.Email, validation.Required, validation.Length(3, maxEmailLen), is.Email),
		validation.Field(&req.Password, validation.Required, passwordStrength),
		validation.Field(&req.Role, roleName),
		validation.Field(&req.Phone, phoneNumber(region)),
		validation.Field(&req.Address, validation.RuneLength(0, maxAddressLen)),
		validation.Field(&req.TaxID, validation.Length(0, maxTaxIDLen)),
		validation.Field(&req.BusinessName, validation.RuneLength(0, maxBusinessNameLen)),
		validation.Field(&req.AvatarURL, validation.Length(0, maxAvatarURLLen), is.URL),
	))
}

func validateUpdateUser(req *dto.UpdateUserRequest, region string) error {
	for _, s := range []*string{req.Name, req.Email, req.Role, req.Phone, req.Address, req.TaxID, req.BusinessName, req.AvatarURL} {
		trimPtr(s)
	}
	return asValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.RuneLength(1, maxNameLen)),
		validation.Field(&req.Email, validation.NilOrNotEmpty, validation.Length(3, maxEmailLen), is.Email),
		validation.Field(&req.Role, validation.NilOrNotEmpty, roleName),
		validation.Field(&req.Password, validation.NilOrNotEmpty, passwordStrength),
		validation.Field(&req.Phone, phoneNumber(region)),
		validation.Field(&req.Address, validation.RuneLength(0, maxAddressLen)),
		validation.Field(&req.TaxID, validation.Length(0, maxTaxIDLen)),
		validation.Field(&req.BusinessName, validation.RuneLength(0, maxBusinessNameLen)),
		validation.Field(&req.AvatarURL, validation.Length(0, maxAvatarURLLen), is.URL),
	))
}
