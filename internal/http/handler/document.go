package handler

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"signflow/internal/http/middleware"
	"signflow/internal/model"
	"signflow/internal/service"
)

// identityFromCtx builds the caller identity from the locals set by
// middleware.RequireAuth.
func identityFromCtx(c *fiber.Ctx) service.Identity {
	uid, _ := c.Locals(middleware.UserIDLocalKey).(string)
	role, _ := c.Locals(middleware.UserRoleLocalKey).(model.Role)
	return service.Identity{UserID: uid, Role: role}
}

func parseID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// UploadDocument accepts a multipart PDF upload (field name: file) with an
// optional signature_fields form value holding a JSON array of stamp
// placements.
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		var fields []model.SignatureField
		if raw := c.FormValue("signature_fields"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &fields); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_FIELDS", "signature_fields must be a JSON array")
			}
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/pdf"
		}

		doc, err := docSvc.Upload(c.UserContext(), identityFromCtx(c), f, fh.Filename, ct, fh.Size, fields)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListDocuments returns the caller's documents: owned for uploaders,
// assigned for signers.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := docSvc.List(c.UserContext(), identityFromCtx(c))
		if err != nil {
			return serviceError(c, err)
		}
		if docs == nil {
			docs = []model.Document{}
		}
		return c.JSON(docs)
	}
}

// GetDocument returns a single document with its uploader email.
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		detail, err := docSvc.Get(c.UserContext(), identityFromCtx(c), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(detail)
	}
}

type signBody struct {
	Signature string `json:"signature"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Date      string `json:"date"`
}

// decodeSignature accepts raw base64 or a data URL and returns the PNG bytes.
func decodeSignature(s string) ([]byte, error) {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}

// SignDocument stamps the caller's signature onto the document and moves it
// to SIGNED.
func SignDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var body signBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if body.Signature == "" {
			return writeError(c, fiber.StatusBadRequest, "SIGNATURE_REQUIRED", "signature image is required")
		}
		sig, err := decodeSignature(body.Signature)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SIGNATURE", "signature must be base64-encoded PNG")
		}

		doc, err := docSvc.Sign(c.UserContext(), identityFromCtx(c), id, service.SignRequest{
			Signature: sig,
			Name:      body.Name,
			Email:     body.Email,
			Date:      body.Date,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(doc)
	}
}

type reviewBody struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

const (
	reviewActionAccept = "ACCEPT"
	reviewActionReject = "REJECT"
)

// ReviewDocument settles a SIGNED document: action ACCEPT moves it to
// VERIFIED, REJECT to REJECTED with an optional reason.
func ReviewDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var body reviewBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		var (
			doc *model.Document
			err error
		)
		switch body.Action {
		case reviewActionAccept:
			doc, err = docSvc.Verify(c.UserContext(), identityFromCtx(c), id)
		case reviewActionReject:
			doc, err = docSvc.Reject(c.UserContext(), identityFromCtx(c), id, body.Reason)
		default:
			return writeError(c, fiber.StatusBadRequest, "INVALID_ACTION", "action must be ACCEPT or REJECT")
		}
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument returns a presigned URL for the latest version of the
// document content.
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := docSvc.DownloadURL(c.UserContext(), identityFromCtx(c), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}
