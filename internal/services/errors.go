package services

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrNotFound           = errors.New("user not found")
	ErrAccountNotFound    = errors.New("no account is registered with that email")
	ErrNotEligible        = errors.New("this account is not eligible for admin bootstrap")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrTokenExpired       = errors.New("session token expired")
	ErrRateLimited        = errors.New("too many attempts, please try again later")
	ErrDeliveryFailed     = errors.New("could not send the recovery email, please try again")
)

// ValidationError reports rejected input before any side effect happened.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalidField(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// asValidationError converts ozzo-validation results. Anything that is not a
// field error (misuse of the rules) is returned untouched.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return &ValidationError{Fields: fields}
}

// DeniedError is a Forbidden outcome with a specific reason.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

func (e *DeniedError) Unwrap() error { return ErrForbidden }

func denied(reason string) error {
	return &DeniedError{Reason: reason}
}
