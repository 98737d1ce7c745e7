package repositories

import (
	"context"
	"errors"
	"fmt"

	"inventario/internal/models"
)

// ErrInvalidDocumentID is returned, before any store call, when an operation
// needs a document ID and got an empty one.
var ErrInvalidDocumentID = errors.New("invalid document reference")

// PartialWriteError reports a create whose first phase succeeded but whose
// legacy ID write-back failed. The document exists without its numeric ID.
type PartialWriteError struct {
	Collection string
	DocID      string
	Err        error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("document %s/%s created but legacy id write-back failed: %v", e.Collection, e.DocID, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// CatalogRepository defines the interface for catalog data access.
type CatalogRepository interface {
	ListActiveProducts(ctx context.Context) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	CreateProduct(ctx context.Context, product models.Product) (string, error)
	UpdateProduct(ctx context.Context, docID string, product models.Product) error
	SoftDeleteProduct(ctx context.Context, docID string) error
	CreateCategory(ctx context.Context, category models.Category) (string, error)
	CreateSupplier(ctx context.Context, supplier models.Supplier) (string, error)
}
