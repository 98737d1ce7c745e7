package repositories

import (
	"context"
	"fmt"
	"strings"

	"inventario/internal/models"
	"inventario/internal/store"

	"go.uber.org/zap"
)

// StoreCatalogRepository is a CatalogRepository over a DocumentStore.
type StoreCatalogRepository struct {
	store       store.DocumentStore
	collections Collections
	cache       *ReferenceCache
	log         *zap.Logger
}

// NewStoreCatalogRepository creates a new instance of StoreCatalogRepository.
// cache may be nil.
func NewStoreCatalogRepository(s store.DocumentStore, collections Collections, cache *ReferenceCache, log *zap.Logger) *StoreCatalogRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoreCatalogRepository{
		store:       s,
		collections: collections,
		cache:       cache,
		log:         log,
	}
}

// ListActiveProducts returns the active products ordered by name.
func (r *StoreCatalogRepository) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	docs, err := r.store.Find(ctx, store.Query{
		Collection: r.collections.Products,
		Where:      []store.Filter{{Field: fieldActive, Value: true}},
		OrderBy:    fieldProductName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := productFromDocument(doc)
		if err != nil {
			r.skip(r.collections.Products, doc.ID, err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// ListCategories returns all categories ordered by name.
func (r *StoreCatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if r.cache.load(ctx, categoriesCacheKey, &categories) {
		return categories, nil
	}

	docs, err := r.store.Find(ctx, store.Query{
		Collection: r.collections.Categories,
		OrderBy:    fieldCategoryName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories = make([]models.Category, 0, len(docs))
	for _, doc := range docs {
		c, err := categoryFromDocument(doc)
		if err != nil {
			r.skip(r.collections.Categories, doc.ID, err)
			continue
		}
		categories = append(categories, c)
	}
	r.cache.store(ctx, categoriesCacheKey, categories)
	return categories, nil
}

// ListSuppliers returns all suppliers ordered by name.
func (r *StoreCatalogRepository) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if r.cache.load(ctx, suppliersCacheKey, &suppliers) {
		return suppliers, nil
	}

	docs, err := r.store.Find(ctx, store.Query{
		Collection: r.collections.Suppliers,
		OrderBy:    fieldSupplierName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	suppliers = make([]models.Supplier, 0, len(docs))
	for _, doc := range docs {
		s, err := supplierFromDocument(doc)
		if err != nil {
			r.skip(r.collections.Suppliers, doc.ID, err)
			continue
		}
		suppliers = append(suppliers, s)
	}
	r.cache.store(ctx, suppliersCacheKey, suppliers)
	return suppliers, nil
}

// CreateProduct stores a new active product and returns its document ID.
func (r *StoreCatalogRepository) CreateProduct(ctx context.Context, product models.Product) (string, error) {
	return r.create(ctx, r.collections.Products, fieldProductID, newProductFields(product))
}

// UpdateProduct overwrites the mutable fields of an existing product.
func (r *StoreCatalogRepository) UpdateProduct(ctx context.Context, docID string, product models.Product) error {
	if strings.TrimSpace(docID) == "" {
		return ErrInvalidDocumentID
	}
	if err := r.store.Update(ctx, r.collections.Products, docID, productMutableFields(product)); err != nil {
		return fmt.Errorf("failed to update product %s: %w", docID, err)
	}
	return nil
}

// SoftDeleteProduct marks a product inactive. The document is kept.
func (r *StoreCatalogRepository) SoftDeleteProduct(ctx context.Context, docID string) error {
	if strings.TrimSpace(docID) == "" {
		return ErrInvalidDocumentID
	}
	fields := store.Fields{
		fieldActive:    false,
		fieldUpdatedAt: store.ServerTimestamp,
	}
	if err := r.store.Update(ctx, r.collections.Products, docID, fields); err != nil {
		return fmt.Errorf("failed to deactivate product %s: %w", docID, err)
	}
	return nil
}

// CreateCategory stores a new category and returns its document ID.
func (r *StoreCatalogRepository) CreateCategory(ctx context.Context, category models.Category) (string, error) {
	docID, err := r.create(ctx, r.collections.Categories, fieldCategoryID, newCategoryFields(category))
	if docID != "" {
		r.cache.invalidate(ctx, categoriesCacheKey)
	}
	return docID, err
}

// CreateSupplier stores a new supplier and returns its document ID.
func (r *StoreCatalogRepository) CreateSupplier(ctx context.Context, supplier models.Supplier) (string, error) {
	docID, err := r.create(ctx, r.collections.Suppliers, fieldSupplierID, newSupplierFields(supplier))
	if docID != "" {
		r.cache.invalidate(ctx, suppliersCacheKey)
	}
	return docID, err
}

// create adds the document, then writes back its own ID and legacy numeric ID.
// When the second write fails the document ID is still returned, together
// with a *PartialWriteError.
func (r *StoreCatalogRepository) create(ctx context.Context, collection, idField string, fields store.Fields) (string, error) {
	docID, err := r.store.Add(ctx, collection, fields)
	if err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}

	backfill := store.Fields{
		fieldStoreID: docID,
		idField:      LegacyID(docID),
	}
	if err := r.store.Update(ctx, collection, docID, backfill); err != nil {
		r.log.Error("legacy id write-back failed",
			zap.String("collection", collection),
			zap.String("doc_id", docID),
			zap.Error(err),
		)
		return docID, &PartialWriteError{Collection: collection, DocID: docID, Err: err}
	}
	return docID, nil
}

func (r *StoreCatalogRepository) skip(collection, docID string, err error) {
	r.log.Warn("skipping malformed document",
		zap.String("collection", collection),
		zap.String("doc_id", docID),
		zap.Error(err),
	)
}
