package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/apperr"
	"docvault/internal/http/middleware"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

var classStatus = map[apperr.Class]int{
	apperr.ClassBadInput:     fiber.StatusBadRequest,
	apperr.ClassUnauthorized: fiber.StatusUnauthorized,
	apperr.ClassNotFound:     fiber.StatusNotFound,
	apperr.ClassConflict:     fiber.StatusConflict,
	apperr.ClassInternal:     fiber.StatusInternalServerError,
}

// writeFailure maps a workflow failure to its status class. Internal failures
// (storage, persistence, untyped) are reported generically; the cause is kept
// for the access log only.
func writeFailure(c *fiber.Ctx, err error) error {
	c.Locals(middleware.ErrorLocalKey, err)

	e, ok := apperr.As(err)
	if !ok || e.Kind.Class() == apperr.ClassInternal {
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return writeError(c, classStatus[e.Kind.Class()], e.Code, e.Message)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "missing or malformed bearer token")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "RATE_LIMITED", "too many requests")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
