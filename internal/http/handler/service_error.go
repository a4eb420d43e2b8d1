package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"signflow/internal/service"
	"signflow/internal/stamp"
)

// serviceError translates service-layer sentinel errors into the
// standardized error response. Unknown errors become a bare 500 so internal
// details never leak.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "not allowed")
	case errors.Is(err, service.ErrInvalidState):
		return writeError(c, fiber.StatusConflict, "INVALID_STATE", "document is not in a state that allows this operation")
	case errors.Is(err, service.ErrDuplicateAssignment):
		return writeError(c, fiber.StatusConflict, "DUPLICATE_ASSIGNMENT", "signer is already assigned to this document")
	case errors.Is(err, service.ErrSignerNotFound):
		return writeError(c, fiber.StatusNotFound, "SIGNER_NOT_FOUND", "no signer account with that email")
	case errors.Is(err, service.ErrEmailTaken):
		return writeError(c, fiber.StatusBadRequest, "EMAIL_TAKEN", "email is already registered")
	case errors.Is(err, service.ErrPasswordTooShort):
		return writeError(c, fiber.StatusBadRequest, "PASSWORD_TOO_SHORT", "password must be at least 6 characters")
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, stamp.ErrInvalidPDF):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PDF", "document is not a readable PDF")
	case errors.Is(err, stamp.ErrInvalidImage):
		return writeError(c, fiber.StatusBadRequest, "INVALID_IMAGE", "signature is not a readable PNG image")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
