package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/apierror"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/session"
	"github.com/gofiber/fiber/v2"
)

const recoveryAcceptedMessage = "If an account exists for that email, a temporary password has been sent to it."

type AuthHandler struct {
	authService     *services.AuthService
	recoveryService *services.RecoveryService
	guard           *session.Guard
	revealUnknown   bool
}

func NewAuthHandler(
	authService *services.AuthService,
	recoveryService *services.RecoveryService,
	guard *session.Guard,
	revealUnknown bool,
) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		recoveryService: recoveryService,
		guard:           guard,
		revealUnknown:   revealUnknown,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	sess, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return apierror.Respond(c, err)
	}

	h.guard.Cookies().Set(c, sess.Token)
	return c.Status(fiber.StatusCreated).JSON(h.authResponse(sess))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	sess, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return apierror.Respond(c, err)
	}

	h.guard.Cookies().Set(c, sess.Token)
	return c.JSON(h.authResponse(sess))
}

// Me never fails for anonymous callers; it reports user: null instead.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	if h.guard.CurrentSession(c) == nil {
		return c.JSON(dto.SessionResponse{})
	}
	_, user, err := h.guard.CurrentUser(c)
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			return c.JSON(dto.SessionResponse{})
		}
		return apierror.Respond(c, err)
	}
	resp := dto.NewUserResponse(user, h.authService.Policy().IsSuperAdmin(user))
	return c.JSON(dto.SessionResponse{User: &resp})
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	_, user, err := h.guard.CurrentUser(c)
	if err != nil {
		return apierror.Respond(c, err)
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	sess, err := h.authService.UpdateProfile(c.UserContext(), user, req)
	if err != nil {
		return apierror.Respond(c, err)
	}

	h.guard.Cookies().Set(c, sess.Token)
	return c.JSON(h.authResponse(sess))
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.guard.Cookies().Clear(c)
	return c.JSON(dto.MessageResponse{OK: true, Message: "Logged out"})
}

func (h *AuthHandler) Recover(c *fiber.Ctx) error {
	var req dto.RecoverPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	err := h.recoveryService.RequestReset(c.UserContext(), req)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrAccountNotFound) && !h.revealUnknown:
	default:
		return apierror.Respond(c, err)
	}

	msg := recoveryAcceptedMessage
	if h.revealUnknown {
		msg = "A temporary password has been sent to your email."
	}
	return c.JSON(dto.MessageResponse{OK: true, Message: msg})
}

func (h *AuthHandler) Bootstrap(c *fiber.Ctx) error {
	user, promoted, err := h.authService.PromoteIfEligible(c.UserContext(), session.ClaimsFrom(c))
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			h.guard.Cookies().Clear(c)
		}
		return apierror.Respond(c, err)
	}
	if !promoted {
		return c.JSON(dto.MessageResponse{OK: true, Message: "Already an admin"})
	}

	sess, err := h.authService.IssueSession(user)
	if err != nil {
		return apierror.Respond(c, err)
	}
	h.guard.Cookies().Set(c, sess.Token)
	return c.JSON(dto.MessageResponse{OK: true, Message: "Admin role granted"})
}

func (h *AuthHandler) authResponse(sess *services.Session) dto.AuthResponse {
	return dto.AuthResponse{
		OK:   true,
		User: dto.NewUserResponse(sess.User, h.authService.Policy().IsSuperAdmin(sess.User)),
	}
}

func invalidBody(c *fiber.Ctx) error {
	return apierror.Message(c, fiber.StatusBadRequest, apierror.KindValidation, "Invalid request body")
}
