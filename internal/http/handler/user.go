package handler

import (
	"github.com/gofiber/fiber/v2"

	"signflow/internal/service"
)

type updateProfileBody struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// GetProfile returns the authenticated user's own account.
func GetProfile(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := userSvc.Profile(c.UserContext(), identityFromCtx(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(user)
	}
}

// UpdateProfile changes email, name or password on the authenticated
// user's own account. Omitted fields keep their current value.
func UpdateProfile(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body updateProfileBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if body.Email == "" && body.Name == "" && body.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "MISSING_FIELDS", "nothing to update")
		}

		user, err := userSvc.UpdateProfile(c.UserContext(), identityFromCtx(c), service.UpdateProfileRequest{
			Email:    body.Email,
			Name:     body.Name,
			Password: body.Password,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(user)
	}
}
