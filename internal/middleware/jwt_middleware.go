package middleware

import (
	"errors"
	"strings"

	"inventario/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Locals keys set by AuthRequired.
const (
	LocalOperatorID = "operator_id"
	LocalUsername   = "username"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		operator, err := authService.Authenticate(parts[1])
		switch {
		case errors.Is(err, services.ErrInvalidToken):
			log.Debug("JWT validation failed", zap.String("request_id", RequestID(c)), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		case errors.Is(err, services.ErrUnknownOperator):
			log.Info("token for unknown operator", zap.String("request_id", RequestID(c)), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token does not identify an operator",
			})
		case err != nil:
			log.Error("failed to authenticate request", zap.String("request_id", RequestID(c)), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not authenticate request",
			})
		}

		c.Locals(LocalOperatorID, operator.ID)
		c.Locals(LocalUsername, operator.Username)
		return c.Next()
	}
}

// OperatorID returns the operator authenticated by AuthRequired.
func OperatorID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalOperatorID).(string)
	return id
}
