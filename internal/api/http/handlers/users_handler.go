package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/api/dto"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/service"
	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

// UsersHandler exposes account management to administrators.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// ListUsers GET /api/usuarios.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewUserResponses(users))
}

// CreateUser POST /api/usuarios.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.Create(c.UserContext(), service.CreateUserInput{
		Name:     req.Nombre,
		Username: req.Usuario,
		Password: req.Clave,
		Role:     req.Rol,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, dto.NewUserResponse(user))
}

// UpdateUser PATCH /api/usuarios/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "id")
	if err != nil {
		return err
	}
	var req dto.UserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.Update(c.UserContext(), id, service.UpdateUserInput{
		Name:     req.Nombre,
		Username: req.Usuario,
		Password: req.Clave,
		Role:     req.Rol,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewUserResponse(user))
}

// DeleteUser DELETE /api/usuarios/:id.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
