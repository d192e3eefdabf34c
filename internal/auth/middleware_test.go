package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

func newGuardApp(t *testing.T) (*fiber.App, *TokenManager) {
	t.Helper()
	tokens := NewTokenManager("secret")
	guard := NewGuard(tokens, "")

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	app.Get("/api/users", guard.API(), Permit(ResourceUser, ActionList), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Name)
	})
	app.Get("/admin/tickets", guard.Pages(ResourceAdminViews), func(c *fiber.Ctx) error {
		return c.SendString("admin")
	})
	return app, tokens
}

func tokenFor(t *testing.T, tokens *TokenManager, role domain.Role) string {
	t.Helper()
	token, _, err := tokens.GenerateToken(&domain.User{ID: 1, Name: "Caller", Role: role})
	require.NoError(t, err)
	return token
}

func TestGuardAPI(t *testing.T) {
	app, tokens := newGuardApp(t)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }, http.StatusUnauthorized},
		{"wrong role", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+tokenFor(t, tokens, domain.RoleEmployee))
		}, http.StatusForbidden},
		{"bearer admin", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+tokenFor(t, tokens, domain.RoleAdmin))
		}, http.StatusOK},
		{"cookie admin", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tokenFor(t, tokens, domain.RoleAdmin)})
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			tt.setup(req)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestGuardPages(t *testing.T) {
	app, tokens := newGuardApp(t)

	t.Run("anonymous goes to login", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/tickets", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})

	t.Run("role mismatch goes to root", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/tickets", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tokenFor(t, tokens, domain.RoleRequester)})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/tickets", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tokenFor(t, tokens, domain.RoleAdmin)})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
