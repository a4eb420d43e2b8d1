package middleware

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"signflow/internal/auth"
	"signflow/internal/config"
	"signflow/internal/model"
)

func newTestApp(t *testing.T, extra ...fiber.Handler) (*fiber.App, *auth.TokenManager) {
	t.Helper()
	tokens, err := auth.NewTokenManager(config.JWTConfig{Secret: "test-secret", TTLMinute: 60})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	app := fiber.New()
	handlers := append([]fiber.Handler{RequireAuth(tokens)}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		uid, _ := c.Locals(UserIDLocalKey).(string)
		role, _ := c.Locals(UserRoleLocalKey).(model.Role)
		return c.SendString(uid + ":" + string(role))
	})
	app.Get("/protected", handlers...)
	return app, tokens
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid token populates identity", func(t *testing.T) {
		app, tokens := newTestApp(t)
		token, err := tokens.Issue("user-1", model.RoleSigner)
		assert.NoError(t, err)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := make([]byte, resp.ContentLength)
		resp.Body.Read(body)
		assert.Equal(t, "user-1:SIGNER", string(body))
	})

	t.Run("missing header rejected", func(t *testing.T) {
		app, _ := newTestApp(t)

		req := httptest.NewRequest("GET", "/protected", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		app, tokens := newTestApp(t)
		token, _ := tokens.Issue("user-1", model.RoleSigner)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, token) // no Bearer prefix
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		app, _ := newTestApp(t)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer not.a.jwt")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		issued     model.Role
		required   model.Role
		wantStatus int
	}{
		{model.RoleUploader, model.RoleUploader, fiber.StatusOK},
		{model.RoleSigner, model.RoleUploader, fiber.StatusForbidden},
		{model.RoleUploader, model.RoleSigner, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s requires %s", tt.issued, tt.required)
		t.Run(name, func(t *testing.T) {
			app, tokens := newTestApp(t, RequireRole(tt.required))
			token, err := tokens.Issue("user-1", tt.issued)
			assert.NoError(t, err)

			req := httptest.NewRequest("GET", "/protected", nil)
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
