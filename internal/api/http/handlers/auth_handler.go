package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/api/dto"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/service"
	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

// AuthHandler exposes the credential exchange.
type AuthHandler struct {
	auth         *service.AuthService
	cookieName   string
	cookieSecure bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookieName string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: authService, cookieName: cookieName, cookieSecure: cookieSecure}
}

// Login POST /api/auth. The token is returned in the body and set as an
// HTTP-only session cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	session, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return data(c, fiber.StatusOK, dto.AuthResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      dto.NewUserResponse(session.User),
	})
}

// Logout POST /api/auth/logout clears the session cookie. Issued tokens stay
// valid until they expire.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.SendStatus(fiber.StatusNoContent)
}
