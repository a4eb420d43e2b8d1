package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"signflow/internal/auth"
	"signflow/internal/model"
)

const (
	// UserIDLocalKey is the fiber locals key holding the authenticated user ID.
	UserIDLocalKey = "user_id"
	// UserRoleLocalKey is the fiber locals key holding the authenticated user role.
	UserRoleLocalKey = "user_role"
)

// RequireAuth validates the Bearer token and stores the caller's identity in
// the request locals. Requests without a valid token get 401.
func RequireAuth(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(UserIDLocalKey, claims.Subject)
		c.Locals(UserRoleLocalKey, claims.Role)
		return c.Next()
	}
}

// RequireRole gates a route to a single role. Must run after RequireAuth.
func RequireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got, _ := c.Locals(UserRoleLocalKey).(model.Role)
		if got != role {
			return fiber.NewError(fiber.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
