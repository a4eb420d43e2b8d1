package handler

import (
	"github.com/gofiber/fiber/v2"

	"signflow/internal/service"
)

type assignBody struct {
	DocumentID  string `json:"document_id"`
	SignerEmail string `json:"signer_email"`
}

// CreateAssignment links a PENDING document to the signer with the given
// email.
func CreateAssignment(asgSvc service.AssignmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body assignBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if body.DocumentID == "" || body.SignerEmail == "" {
			return writeError(c, fiber.StatusBadRequest, "MISSING_FIELDS", "document_id and signer_email are required")
		}

		assignment, err := asgSvc.Assign(c.UserContext(), identityFromCtx(c), body.DocumentID, body.SignerEmail)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(assignment)
	}
}

// ListAssignments returns the caller's assignments with documents resolved.
func ListAssignments(asgSvc service.AssignmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		details, err := asgSvc.List(c.UserContext(), identityFromCtx(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(details)
	}
}

// GetAssignment returns a single assignment.
func GetAssignment(asgSvc service.AssignmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		detail, err := asgSvc.Get(c.UserContext(), identityFromCtx(c), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(detail)
	}
}
