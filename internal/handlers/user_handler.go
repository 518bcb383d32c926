package handlers

import (
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/apierror"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserHandler serves /api/admin/users. Routes are mounted behind
// Guard.AdminRequired, so session.AdminFrom is always set.
type UserHandler struct {
	users  *services.UserAdminService
	policy *services.Policy
}

func NewUserHandler(users *services.UserAdminService, policy *services.Policy) *UserHandler {
	return &UserHandler{users: users, policy: policy}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, total, limit, offset, err := h.users.List(
		c.UserContext(),
		c.Query("q"),
		c.QueryInt("limit", services.DefaultListLimit),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return apierror.Respond(c, err)
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, h.view(&users[i]))
	}
	return c.JSON(dto.UserListResponse{OK: true, Users: items, Total: total, Limit: limit, Offset: offset})
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apierror.Respond(c, services.ErrNotFound)
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return apierror.Respond(c, err)
	}
	return c.JSON(dto.UserEnvelope{OK: true, User: h.view(user)})
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	user, err := h.users.Create(c.UserContext(), session.AdminFrom(c).Actor(), req)
	if err != nil {
		return apierror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.UserEnvelope{OK: true, User: h.view(user)})
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apierror.Respond(c, services.ErrNotFound)
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	user, err := h.users.Update(c.UserContext(), session.AdminFrom(c).Actor(), id, req)
	if err != nil {
		return apierror.Respond(c, err)
	}
	return c.JSON(dto.UserEnvelope{OK: true, User: h.view(user)})
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apierror.Respond(c, services.ErrNotFound)
	}
	if err := h.users.Delete(c.UserContext(), session.AdminFrom(c).Actor(), id); err != nil {
		return apierror.Respond(c, err)
	}
	return c.JSON(dto.MessageResponse{OK: true, Message: "User deleted"})
}

func (h *UserHandler) view(u *models.User) dto.UserResponse {
	return dto.NewUserResponse(u, h.policy.IsSuperAdmin(u))
}
