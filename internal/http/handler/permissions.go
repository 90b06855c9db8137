package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/model"
	"docvault/internal/service"
)

type grantBody struct {
	UserID string             `json:"user_id"`
	Role   model.DocumentRole `json:"role"`
}

func ListPermissions(svc service.PermissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ps, err := svc.ListGrants(c.UserContext(), middleware.TokenFrom(c), c.Params("id"))
		if err != nil {
			return writeFailure(c, err)
		}
		return c.JSON(ps)
	}
}

func GrantPermission(svc service.PermissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body grantBody
		if err := c.BodyParser(&body); err != nil {
			return invalidBody(c)
		}
		p, err := svc.Grant(c.UserContext(), service.GrantRequest{
			Token:      middleware.TokenFrom(c),
			DocumentID: c.Params("id"),
			UserID:     body.UserID,
			Role:       body.Role,
		})
		if err != nil {
			return writeFailure(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// RevokePermission takes the role from the query string, e.g. ?role=EDITOR.
func RevokePermission(svc service.PermissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := svc.Revoke(c.UserContext(), service.RevokeRequest{
			Token:      middleware.TokenFrom(c),
			DocumentID: c.Params("id"),
			UserID:     c.Params("userId"),
			Role:       model.DocumentRole(c.Query("role")),
		})
		if err != nil {
			return writeFailure(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
