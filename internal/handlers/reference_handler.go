package handlers

import (
	"errors"

	"inventario/internal/middleware"
	"inventario/internal/models"
	"inventario/internal/repositories"
	"inventario/internal/services"
	"inventario/internal/viewmodel"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReferenceHandler handles categories and suppliers.
type ReferenceHandler struct {
	service  *services.CatalogService
	sessions *viewmodel.Sessions
	validate *validator.Validate
	log      *zap.Logger
}

// NewReferenceHandler creates a new ReferenceHandler.
func NewReferenceHandler(service *services.CatalogService, sessions *viewmodel.Sessions, log *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		service:  service,
		sessions: sessions,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the category and supplier routes.
func (h *ReferenceHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/categories", h.HandleListCategories)
	router.Post("/categories", h.HandleCreateCategory)
	router.Get("/suppliers", h.HandleListSuppliers)
	router.Post("/suppliers", h.HandleCreateSupplier)
}

// HandleListCategories lists the categories by name.
func (h *ReferenceHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, h.log, "Could not retrieve categories", err)
	}
	return c.JSON(categories)
}

// HandleListSuppliers lists the suppliers by name.
func (h *ReferenceHandler) HandleListSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.service.ListSuppliers(c.UserContext())
	if err != nil {
		return respondError(c, h.log, "Could not retrieve suppliers", err)
	}
	return c.JSON(suppliers)
}

// HandleCreateCategory creates a category.
func (h *ReferenceHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		return badBody(c, err)
	}
	if err := h.validate.Struct(category); err != nil {
		return respondError(c, h.log, "Validation failed", err)
	}
	docID, err := h.service.CreateCategory(c.UserContext(), category)
	return h.created(c, "Category", docID, err)
}

// HandleCreateSupplier creates a supplier.
func (h *ReferenceHandler) HandleCreateSupplier(c *fiber.Ctx) error {
	var supplier models.Supplier
	if err := c.BodyParser(&supplier); err != nil {
		return badBody(c, err)
	}
	if err := h.validate.Struct(supplier); err != nil {
		return respondError(c, h.log, "Validation failed", err)
	}
	docID, err := h.service.CreateSupplier(c.UserContext(), supplier)
	return h.created(c, "Supplier", docID, err)
}

func (h *ReferenceHandler) created(c *fiber.Ctx, kind, docID string, err error) error {
	var partial *repositories.PartialWriteError
	if err != nil && !errors.As(err, &partial) {
		return respondError(c, h.log, "Could not create "+kind, err)
	}
	refreshCatalog(c.UserContext(), h.sessions, middleware.OperatorID(c), h.log, true)

	body := fiber.Map{"message": kind + " created successfully", "doc_id": docID}
	if partial != nil {
		body["warning"] = partial.Error()
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}
