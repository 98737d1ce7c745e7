package handlers

import (
	"errors"
	"fmt"

	"inventario/internal/form"
	"inventario/internal/repositories"
	"inventario/internal/services"
	"inventario/internal/store"
	"inventario/internal/viewmodel"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps an operation failure to a status code. Anything not
// recognized is a store or transport failure and becomes a 500.
func respondError(c *fiber.Ctx, log *zap.Logger, message string, err error) error {
	var fieldErr *form.FieldError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &fieldErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"field":   fieldErr.Field,
			"error":   fieldErr.Message,
		})
	case errors.As(err, &validationErrs):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(validationErrs),
		})
	case errors.Is(err, repositories.ErrInvalidDocumentID),
		errors.Is(err, services.ErrNegativeStock),
		errors.Is(err, viewmodel.ErrEmptySearchTerm),
		errors.Is(err, form.ErrNoImageStore):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, viewmodel.ErrDiscarded):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Superseded by a newer refresh",
		})
	}

	log.Error(message, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func validationMessages(errs validator.ValidationErrors) map[string]string {
	messages := make(map[string]string, len(errs))
	for _, e := range errs {
		messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return messages
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
