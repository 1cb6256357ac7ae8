package utils

import "github.com/gofiber/fiber/v2"

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Meta    interface{} `json:"meta,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// OK sends a 200 response with optional pagination or summary metadata.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	if message == "" {
		message = "success"
	}

	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
		Meta:    meta,
	})
}

// Fail sends an error response carrying machine readable details.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	if message == "" {
		message = "error"
	}
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
		Details: details,
	})
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError sends an error JSON response whose kind is derived from the status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, ErrorDetails{Kind: KindForStatus(status)})
}

// KindForStatus maps an HTTP status to the error kind reported to clients.
func KindForStatus(status int) string {
	switch {
	case status == fiber.StatusUnauthorized, status == fiber.StatusForbidden:
		return "forbidden"
	case status == fiber.StatusNotFound:
		return "not_found"
	case status == fiber.StatusConflict:
		return "conflict"
	case status == fiber.StatusTooManyRequests:
		return "rate_limited"
	case status >= fiber.StatusInternalServerError || status == 0:
		return "internal"
	default:
		return "invalid_input"
	}
}

// ErrorDetails is the details payload attached to domain errors.
type ErrorDetails struct {
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// SendErrorKind sends an error response whose details carry the error kind.
func SendErrorKind(c *fiber.Ctx, status int, kind, message string) error {
	return Fail(c, status, message, ErrorDetails{Kind: kind})
}
