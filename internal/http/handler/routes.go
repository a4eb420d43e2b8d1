package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"signflow/internal/auth"
	"signflow/internal/http/middleware"
	"signflow/internal/model"
	"signflow/internal/service"
)

// RegisterRoutes attaches all HTTP routes to the provided Fiber app.
// Handlers stay thin; authorization and state checks live in the services.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	tokens *auth.TokenManager,
	authSvc service.AuthService,
	userSvc service.UserService,
	docSvc service.DocumentService,
	asgSvc service.AssignmentService,
) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", Register(authSvc))
	authGroup.Post("/login", Login(authSvc))

	authed := middleware.RequireAuth(tokens)
	uploaderOnly := middleware.RequireRole(model.RoleUploader)
	signerOnly := middleware.RequireRole(model.RoleSigner)

	users := api.Group("/users", authed)
	users.Get("/me", GetProfile(userSvc))
	users.Patch("/me", UpdateProfile(userSvc))
	users.Get("/me/documents", ListDocuments(docSvc))

	docs := api.Group("/documents", authed)
	docs.Post("/", uploaderOnly, UploadDocument(docSvc))
	docs.Get("/", ListDocuments(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Get("/:id/download", DownloadDocument(docSvc))
	docs.Post("/:id/sign", signerOnly, SignDocument(docSvc))
	docs.Patch("/:id/verify", uploaderOnly, ReviewDocument(docSvc))

	assignments := api.Group("/assignments", authed)
	assignments.Post("/", uploaderOnly, CreateAssignment(asgSvc))
	assignments.Get("/", signerOnly, ListAssignments(asgSvc))
	assignments.Get("/:id", GetAssignment(asgSvc))
}
