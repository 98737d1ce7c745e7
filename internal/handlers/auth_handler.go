package handlers

import (
	"errors"

	"inventario/internal/models"
	"inventario/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		log:         log,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// HandleRegister handles new operator registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var operator models.Operator
	if err := c.BodyParser(&operator); err != nil {
		h.log.Debug("invalid register request body", zap.Error(err))
		return badBody(c, err)
	}

	if err := h.validate.Struct(operator); err != nil {
		return respondError(c, h.log, "Validation failed", err)
	}

	if err := h.authService.RegisterOperator(&operator); err != nil {
		if errors.Is(err, services.ErrUsernameTaken) || errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Registration failed",
				"error":   err.Error(),
			})
		}
		h.log.Error("failed to register operator", zap.String("username", operator.Username), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not register operator",
			"error":   err.Error(),
		})
	}

	operator.Password = ""
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Operator registered successfully",
		"operator": operator,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles operator login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	if err := h.validate.Struct(req); err != nil {
		return respondError(c, h.log, "Validation failed", err)
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		h.log.Info("login failed", zap.String("username", req.Username), zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}
