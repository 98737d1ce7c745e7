package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventario/internal/form"
	"inventario/internal/images"
	"inventario/internal/middleware"
	"inventario/internal/models"
	"inventario/internal/repositories"
	"inventario/internal/services"
	"inventario/internal/store"
	"inventario/internal/viewmodel"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.CatalogService
	form     *form.Controller
	sessions *viewmodel.Sessions
	local    *images.LocalStore
	log      *zap.Logger
}

// NewProductHandler creates a new ProductHandler. local is the local image
// store, or nil when images live in a bucket.
func NewProductHandler(service *services.CatalogService, ctrl *form.Controller, sessions *viewmodel.Sessions, local *images.LocalStore, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		form:     ctrl,
		sessions: sessions,
		local:    local,
		log:      log,
	}
}

// RegisterRoutes registers the product routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	r := router.Group("/products")
	r.Post("/", h.HandleCreate)
	r.Get("/:docId", h.HandleGet)
	r.Put("/:docId", h.HandleUpdate)
	r.Patch("/:docId/stock", h.HandleUpdateStock)
	r.Delete("/:docId", h.HandleDelete)
	r.Get("/:docId/image", h.HandleImage)
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

// HandleGet returns the edit form prefilled with a product.
func (h *ProductHandler) HandleGet(c *fiber.Ctx) error {
	prefill, err := h.form.Load(c.UserContext(), c.Params("docId"))
	if err != nil {
		return respondError(c, h.log, "Could not load product", err)
	}
	return c.JSON(prefill)
}

// HandleCreate saves a new product from the form.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	return h.save(c, "")
}

// HandleUpdate saves the form over an existing product.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	docID := c.Params("docId")
	if strings.TrimSpace(docID) == "" {
		return respondError(c, h.log, "Could not update product", repositories.ErrInvalidDocumentID)
	}
	return h.save(c, docID)
}

func (h *ProductHandler) save(c *fiber.Ctx, docID string) error {
	f := form.NewProductForm()
	if err := c.BodyParser(&f); err != nil {
		return badBody(c, err)
	}

	upload, closeUpload, err := attachedImage(c)
	if err != nil {
		return badBody(c, err)
	}
	defer closeUpload()

	savedID, err := h.form.Save(c.UserContext(), docID, f, upload)
	var partial *repositories.PartialWriteError
	if err != nil && !errors.As(err, &partial) {
		return respondError(c, h.log, "Could not save product", err)
	}
	h.refresh(c)

	status := fiber.StatusOK
	message := "Product updated successfully"
	if docID == "" {
		status = fiber.StatusCreated
		message = "Product created successfully"
	}
	body := fiber.Map{"message": message, "doc_id": savedID}
	if partial != nil {
		h.log.Warn("product saved without legacy id", zap.String("doc_id", savedID), zap.Error(err))
		body["warning"] = partial.Error()
	}
	return c.Status(status).JSON(body)
}

// attachedImage returns the "image" file of a multipart request, or nil.
func attachedImage(c *fiber.Ctx) (*images.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}
	fh, err := c.FormFile("image")
	if err != nil {
		// No file part at all is a save without attachment.
		return nil, noop, nil
	}
	file, err := fh.Open()
	if err != nil {
		return nil, noop, fmt.Errorf("failed to read attached image: %w", err)
	}
	return &images.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Body:        file,
	}, func() { file.Close() }, nil
}

// HandleUpdateStock changes only the current stock.
func (h *ProductHandler) HandleUpdateStock(c *fiber.Ctx) error {
	var req stockRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if req.Stock == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "stock is required"})
	}

	product, err := h.find(c, c.Params("docId"))
	if err != nil {
		return respondError(c, h.log, "Could not update stock", err)
	}
	if err := h.service.UpdateStock(c.UserContext(), product, *req.Stock); err != nil {
		return respondError(c, h.log, "Could not update stock", err)
	}
	h.refresh(c)

	return c.JSON(fiber.Map{
		"message": "Stock updated successfully",
		"doc_id":  product.DocID,
		"stock":   *req.Stock,
	})
}

// HandleDelete deactivates a product.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	docID := c.Params("docId")
	if err := h.service.SoftDeleteProduct(c.UserContext(), docID); err != nil {
		return respondError(c, h.log, "Could not delete product", err)
	}
	h.refresh(c)
	return c.JSON(fiber.Map{"message": "Product deleted successfully", "doc_id": docID})
}

// HandleImage serves a local picture or redirects to a remote one.
func (h *ProductHandler) HandleImage(c *fiber.Ctx) error {
	product, err := h.find(c, c.Params("docId"))
	if err != nil {
		return respondError(c, h.log, "Could not load image", err)
	}
	ref := product.ImageRef
	if ref == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product has no image"})
	}
	if !images.IsLocal(ref) {
		return c.Redirect(ref, fiber.StatusFound)
	}
	if h.local == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Local images are not served by this instance"})
	}
	path, ok := h.local.Resolve(ref)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Image is outside the image directory"})
	}
	return c.SendFile(path)
}

// find looks the product up in the operator's catalog.
func (h *ProductHandler) find(c *fiber.Ctx, docID string) (models.Product, error) {
	cat, err := h.sessions.Get(c.UserContext(), middleware.OperatorID(c))
	if err != nil {
		return models.Product{}, err
	}
	product, ok := cat.Find(docID)
	if !ok {
		return models.Product{}, fmt.Errorf("product %s: %w", docID, store.ErrNotFound)
	}
	return product, nil
}

// refresh reloads the operator's catalog after a write. Failures only leave
// the catalog stale.
func (h *ProductHandler) refresh(c *fiber.Ctx) {
	refreshCatalog(c.UserContext(), h.sessions, middleware.OperatorID(c), h.log, false)
}

func refreshCatalog(ctx context.Context, sessions *viewmodel.Sessions, operatorID string, log *zap.Logger, references bool) {
	cat, err := sessions.Get(ctx, operatorID)
	if err != nil {
		log.Warn("catalog unavailable after write", zap.Error(err))
		return
	}
	if references {
		err = cat.Sync(ctx, sessions.Source())
	} else {
		err = cat.Refresh(ctx, sessions.Source())
	}
	if err != nil && !errors.Is(err, viewmodel.ErrDiscarded) {
		log.Warn("catalog refresh after write failed", zap.String("operator_id", operatorID), zap.Error(err))
	}
}
