package handlers

import (
	"inventario/internal/middleware"
	"inventario/internal/viewmodel"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CatalogHandler exposes the operator's catalog view.
type CatalogHandler struct {
	sessions *viewmodel.Sessions
	log      *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(sessions *viewmodel.Sessions, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{sessions: sessions, log: log}
}

// RegisterRoutes registers the catalog routes.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	r := router.Group("/catalog")
	r.Get("/", h.HandleView)
	r.Get("/stats", h.HandleStats)
	r.Post("/refresh", h.HandleRefresh)
	r.Post("/search", h.HandleSearch)
	r.Put("/search-box", h.HandleSearchBox)
	r.Post("/category", h.HandleCategory)
	r.Post("/low-stock", h.HandleLowStock)
	r.Post("/reset", h.HandleReset)
}

type searchRequest struct {
	Term string `json:"term"`
}

type searchBoxRequest struct {
	Text string `json:"text"`
}

type categoryRequest struct {
	CategoryID *int `json:"category_id"`
}

func (h *CatalogHandler) catalog(c *fiber.Ctx) (*viewmodel.Catalog, error) {
	return h.sessions.Get(c.UserContext(), middleware.OperatorID(c))
}

// withCatalog runs fn against the caller's catalog and answers with its view.
func (h *CatalogHandler) withCatalog(c *fiber.Ctx, fn func(*viewmodel.Catalog) error) error {
	cat, err := h.catalog(c)
	if err != nil {
		return respondError(c, h.log, "Could not load catalog", err)
	}
	if err := fn(cat); err != nil {
		return respondError(c, h.log, "Catalog operation failed", err)
	}
	return c.JSON(cat.Snapshot())
}

// HandleView returns the visible rows, statistics and active filter.
func (h *CatalogHandler) HandleView(c *fiber.Ctx) error {
	return h.withCatalog(c, func(*viewmodel.Catalog) error { return nil })
}

// HandleStats returns the statistics of the full list.
func (h *CatalogHandler) HandleStats(c *fiber.Ctx) error {
	cat, err := h.catalog(c)
	if err != nil {
		return respondError(c, h.log, "Could not load catalog", err)
	}
	return c.JSON(cat.Statistics())
}

// HandleRefresh re-fetches the catalog from the store.
func (h *CatalogHandler) HandleRefresh(c *fiber.Ctx) error {
	return h.withCatalog(c, func(cat *viewmodel.Catalog) error {
		return cat.Sync(c.UserContext(), h.sessions.Source())
	})
}

// HandleSearch runs the search button.
func (h *CatalogHandler) HandleSearch(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	return h.withCatalog(c, func(cat *viewmodel.Catalog) error {
		return cat.SearchNow(req.Term)
	})
}

// HandleSearchBox feeds the debounced search box. The search runs once typing
// pauses, so the response does not reflect it yet.
func (h *CatalogHandler) HandleSearchBox(c *fiber.Ctx) error {
	var req searchBoxRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	cat, err := h.catalog(c)
	if err != nil {
		return respondError(c, h.log, "Could not load catalog", err)
	}
	cat.TypeSearch(req.Text)
	return c.SendStatus(fiber.StatusAccepted)
}

// HandleCategory filters by category; category_id -1 shows all.
func (h *CatalogHandler) HandleCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if req.CategoryID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "category_id is required",
		})
	}
	return h.withCatalog(c, func(cat *viewmodel.Catalog) error {
		cat.ApplyCategoryFilter(*req.CategoryID)
		return nil
	})
}

// HandleLowStock shows the products at or below their minimum.
func (h *CatalogHandler) HandleLowStock(c *fiber.Ctx) error {
	return h.withCatalog(c, func(cat *viewmodel.Catalog) error {
		cat.ApplyLowStockFilter()
		return nil
	})
}

// HandleReset shows the whole catalog.
func (h *CatalogHandler) HandleReset(c *fiber.Ctx) error {
	return h.withCatalog(c, func(cat *viewmodel.Catalog) error {
		cat.ResetToAll()
		return nil
	})
}
