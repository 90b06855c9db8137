package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// Deps are the collaborators the HTTP surface calls into.
type Deps struct {
	DB          *sql.DB
	Documents   service.DocumentService
	Permissions service.PermissionService
	Users       service.UserService
	// AuthLimiter guards /auth; nil disables it.
	AuthLimiter fiber.Handler
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Everything
// except health and /auth requires a bearer token.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	auth := app.Group("/auth")
	if d.AuthLimiter != nil {
		auth.Use(d.AuthLimiter)
	}
	auth.Post("/register", Register(d.Users))
	auth.Post("/login", Login(d.Users))

	users := app.Group("/users", middleware.BearerToken())
	users.Get("/me", GetProfile(d.Users))
	users.Patch("/me", UpdateProfile(d.Users))
	users.Put("/me/password", ChangePassword(d.Users))
	users.Delete("/me", DeleteAccount(d.Users))
	users.Get("/:id", GetProfile(d.Users))
	users.Patch("/:id", UpdateProfile(d.Users))
	users.Delete("/:id", DeleteAccount(d.Users))

	docs := app.Group("/documents", middleware.BearerToken())
	docs.Post("/", CreateDocument(d.Documents))
	docs.Get("/", ListDocuments(d.Documents))
	// registered before /:id so "search" is not taken for an id
	docs.Get("/search", SearchDocuments(d.Documents))
	docs.Get("/:id", GetDocument(d.Documents))
	docs.Patch("/:id", UpdateDocument(d.Documents))
	docs.Get("/:id/download", DownloadDocument(d.Documents))
	docs.Delete("/:id", DeleteDocument(d.Documents))

	docs.Get("/:id/permissions", ListPermissions(d.Permissions))
	docs.Post("/:id/permissions", GrantPermission(d.Permissions))
	docs.Delete("/:id/permissions/:userId", RevokePermission(d.Permissions))
}
