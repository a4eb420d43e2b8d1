package handler

import (
	"github.com/gofiber/fiber/v2"

	"signflow/internal/model"
	"signflow/internal/service"
)

type registerBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account and returns it with a token.
func Register(authSvc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body registerBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if body.Email == "" || body.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "MISSING_FIELDS", "email and password are required")
		}
		role := model.Role(body.Role)
		if !role.Valid() {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ROLE", "role must be UPLOADER or SIGNER")
		}

		res, err := authSvc.Register(c.UserContext(), service.RegisterRequest{
			Email:    body.Email,
			Password: body.Password,
			Name:     body.Name,
			Role:     role,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// Login checks credentials and returns the account with a token.
func Login(authSvc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body loginBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if body.Email == "" || body.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "MISSING_FIELDS", "email and password are required")
		}

		res, err := authSvc.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}
