package utils

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(userID, path string) string {
	return fmt.Sprintf("rl:%s:%s", userID, path)
}

// QueryInt parses an integer query parameter, returning fallback when it is
// absent or not a number.
func QueryInt(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// ErrorResponse writes the standard {message} failure body. Validation
// failures also carry the per-field messages under "errors".
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"message": message,
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		response["errors"] = verr.Fields
	}
	return c.Status(status).JSON(response)
}

// MessageResponse creates a confirmation body, optionally carrying a payload
// under key.
func MessageResponse(message, key string, data interface{}) fiber.Map {
	response := fiber.Map{"message": message}
	if key != "" {
		response[key] = data
	}
	return response
}
