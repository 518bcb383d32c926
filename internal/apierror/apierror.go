// Package apierror maps service errors onto the JSON error envelope.
package apierror

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

const (
	KindInvalidCredentials = "invalid_credentials"
	KindDuplicateEmail     = "duplicate_email"
	KindValidation         = "validation_error"
	KindUnauthenticated    = "unauthenticated"
	KindForbidden          = "forbidden"
	KindNotFound           = "not_found"
	KindAccountNotFound    = "account_not_found"
	KindNotEligible        = "not_eligible"
	KindRateLimited        = "rate_limited"
	KindBadGateway         = "delivery_failed"
	KindInternal           = "internal_error"
)

// Classify returns the HTTP status and machine-readable kind for err.
func Classify(err error) (int, string) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, KindValidation
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, KindInvalidCredentials
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.StatusUnauthorized, KindUnauthenticated
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden, KindForbidden
	case errors.Is(err, services.ErrNotEligible):
		return fiber.StatusForbidden, KindNotEligible
	case errors.Is(err, services.ErrDuplicateEmail):
		return fiber.StatusConflict, KindDuplicateEmail
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, KindNotFound
	case errors.Is(err, services.ErrAccountNotFound):
		return fiber.StatusNotFound, KindAccountNotFound
	case errors.Is(err, services.ErrRateLimited):
		return fiber.StatusTooManyRequests, KindRateLimited
	case errors.Is(err, services.ErrDeliveryFailed):
		return fiber.StatusBadGateway, KindBadGateway
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return fiberErr.Code, kindForStatus(fiberErr.Code)
	}
	return fiber.StatusInternalServerError, KindInternal
}

// Respond writes the error envelope. Server errors are logged and replaced
// with a generic message.
func Respond(c *fiber.Ctx, err error) error {
	status, kind := Classify(err)
	body := dto.ErrorResponse{OK: false, Error: kind, Message: err.Error()}

	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		body.Message = "Some fields are invalid"
		body.Fields = validationErr.Fields
	}
	if status >= fiber.StatusInternalServerError && kind == KindInternal {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", RequestID(c),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		body.Message = "Internal server error"
	}
	return c.Status(status).JSON(body)
}

// Message writes an envelope with an explicit kind and message.
func Message(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{OK: false, Error: kind, Message: message})
}

func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

func kindForStatus(status int) string {
	switch status {
	case fiber.StatusUnauthorized:
		return KindUnauthenticated
	case fiber.StatusForbidden:
		return KindForbidden
	case fiber.StatusNotFound:
		return KindNotFound
	case fiber.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindValidation
	}
}
