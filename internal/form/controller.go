package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"inventario/internal/images"
	"inventario/internal/models"
	"inventario/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNoImageStore is returned when an image is attached but no store is
// configured to keep it.
var ErrNoImageStore = errors.New("no image store configured")

// ProductWriter is the part of the catalog the form reads and writes.
type ProductWriter interface {
	ListActiveProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, product models.Product) (string, error)
	UpdateProduct(ctx context.Context, docID string, product models.Product) error
}

// Prefill is a product loaded into the form.
type Prefill struct {
	DocID    string      `json:"doc_id"`
	Form     ProductForm `json:"form"`
	ImageRef string      `json:"image_ref"`
}

// Controller saves product forms.
type Controller struct {
	products ProductWriter
	images   images.Store
	log      *zap.Logger
}

// NewController creates a new Controller. imageStore may be nil, in which case
// attachments are rejected.
func NewController(products ProductWriter, imageStore images.Store, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{products: products, images: imageStore, log: log}
}

// Save validates the form, resolves its image and creates the product when
// docID is empty or updates it otherwise. It returns the product's document ID.
//
// An attached upload replaces whatever the URL field says. Without one the
// trimmed URL text is used as is, so an empty field clears the image.
func (c *Controller) Save(ctx context.Context, docID string, f ProductForm, upload *images.Upload) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}

	imageRef := strings.TrimSpace(f.ImageURL)
	if upload != nil {
		if c.images == nil {
			return "", ErrNoImageStore
		}
		ref, err := c.images.Save(ctx, *upload)
		if err != nil {
			c.log.Error("failed to store product image", zap.String("filename", upload.Filename), zap.Error(err))
			return "", fmt.Errorf("failed to save image: %w", err)
		}
		imageRef = ref
	}

	product, err := f.Product(imageRef)
	if err != nil {
		return "", err
	}

	if docID == "" {
		return c.products.CreateProduct(ctx, product)
	}
	if err := c.products.UpdateProduct(ctx, docID, product); err != nil {
		return "", err
	}
	return docID, nil
}

// Load prefills the form with an active product.
func (c *Controller) Load(ctx context.Context, docID string) (Prefill, error) {
	products, err := c.products.ListActiveProducts(ctx)
	if err != nil {
		return Prefill{}, err
	}
	for _, p := range products {
		if p.DocID == docID {
			return Prefill{DocID: p.DocID, Form: FromProduct(p), ImageRef: p.ImageRef}, nil
		}
	}
	return Prefill{}, fmt.Errorf("product %s: %w", docID, store.ErrNotFound)
}

// FromProduct fills a form from a stored product. Local image references are
// not shown in the URL field.
func FromProduct(p models.Product) ProductForm {
	f := ProductForm{
		Name:         p.Name,
		Description:  p.Description,
		UnitPrice:    decimal.NewFromFloat(p.UnitPrice).String(),
		CurrentStock: strconv.Itoa(p.CurrentStock),
		MinStock:     strconv.Itoa(p.MinStock),
		Barcode:      p.Barcode,
		CategoryID:   p.CategoryID,
		SupplierID:   p.SupplierID,
	}
	if !images.IsLocal(p.ImageRef) {
		f.ImageURL = p.ImageRef
	}
	return f
}
