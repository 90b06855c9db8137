package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

type registerBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileBody struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type passwordBody struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func invalidBody(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
}

// Register creates an account.
func Register(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body registerBody
		if err := c.BodyParser(&body); err != nil {
			return invalidBody(c)
		}
		u, err := svc.Register(c.UserContext(), service.RegisterRequest{
			Email:    body.Email,
			Password: body.Password,
			Name:     body.Name,
		})
		if err != nil {
			return writeFailure(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// Login exchanges credentials for a bearer token.
func Login(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body loginBody
		if err := c.BodyParser(&body); err != nil {
			return invalidBody(c)
		}
		raw, err := svc.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return writeFailure(c, err)
		}
		return c.JSON(fiber.Map{"token": raw})
	}
}

// GetProfile serves /users/me and, for the owner or an ADMIN, /users/:id.
func GetProfile(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.GetProfile(c.UserContext(), middleware.TokenFrom(c), c.Params("id"))
		if err != nil {
			return writeFailure(c, err)
		}
		return c.JSON(u)
	}
}

func UpdateProfile(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body profileBody
		if err := c.BodyParser(&body); err != nil {
			return invalidBody(c)
		}
		u, err := svc.UpdateProfile(c.UserContext(), service.UpdateProfileRequest{
			Token:  middleware.TokenFrom(c),
			UserID: c.Params("id"),
			Name:   body.Name,
			Email:  body.Email,
		})
		if err != nil {
			return writeFailure(c, err)
		}
		return c.JSON(u)
	}
}

func ChangePassword(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body passwordBody
		if err := c.BodyParser(&body); err != nil {
			return invalidBody(c)
		}
		err := svc.ChangePassword(c.UserContext(), service.ChangePasswordRequest{
			Token:       middleware.TokenFrom(c),
			OldPassword: body.OldPassword,
			NewPassword: body.NewPassword,
		})
		if err != nil {
			return writeFailure(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteAccount(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteAccount(c.UserContext(), middleware.TokenFrom(c), c.Params("id")); err != nil {
			return writeFailure(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
