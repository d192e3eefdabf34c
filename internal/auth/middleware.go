package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// DefaultCookieName carries the session token for browser clients.
const DefaultCookieName = "session_token"

// Principal represents the authenticated caller as stated by its token.
type Principal struct {
	UserID int64
	Name   string
	Role   domain.Role
}

// Guard resolves session tokens and enforces the access policy on routes.
type Guard struct {
	tokens     *TokenManager
	cookieName string
}

// NewGuard constructs the guard. An empty cookie name uses DefaultCookieName.
func NewGuard(tokens *TokenManager, cookieName string) *Guard {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Guard{tokens: tokens, cookieName: cookieName}
}

// CookieName returns the session cookie name.
func (g *Guard) CookieName() string {
	return g.cookieName
}

// Authenticate extracts and validates the session token from the bearer
// header or, failing that, the session cookie.
func (g *Guard) Authenticate(c *fiber.Ctx) (*Principal, bool) {
	token := bearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		token = c.Cookies(g.cookieName)
	}
	if token == "" {
		return nil, false
	}
	claims, err := g.tokens.ParseToken(token)
	if err != nil {
		return nil, false
	}
	return &Principal{UserID: claims.UserID, Name: claims.Name, Role: claims.Role}, true
}

// Optional stores the principal when a valid token is present and never
// rejects the request.
func (g *Guard) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if principal, ok := g.Authenticate(c); ok {
			c.Locals(principalKey, principal)
		}
		return c.Next()
	}
}

// API enforces authentication for JSON endpoints.
func (g *Guard) API() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := g.Authenticate(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// Pages guards a view area: anonymous callers go to /login, callers whose
// role may not view the area go to /.
func (g *Guard) Pages(resource Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := g.Authenticate(c)
		if !ok {
			return c.Redirect("/login", fiber.StatusFound)
		}
		if !CanAccess(principal.Role, resource, ActionView) {
			return c.Redirect("/", fiber.StatusFound)
		}
		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// Permit rejects callers whose role may not perform action on resource.
// It must run after API.
func Permit(resource Resource, action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !CanAccess(principal.Role, resource, action) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
