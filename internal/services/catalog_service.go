package services

import (
	"context"
	"errors"
	"time"

	"inventario/internal/models"
	"inventario/internal/repositories"
	"inventario/pkg/metrics"
	"inventario/pkg/rabbitmq"

	"go.uber.org/zap"
)

// ErrNegativeStock is returned by UpdateStock for a stock below zero.
var ErrNegativeStock = errors.New("stock cannot be negative")

// EventPublisher delivers catalog events.
type EventPublisher interface {
	PublishCatalogEvent(ctx context.Context, ev rabbitmq.CatalogEvent) error
}

// CatalogService handles business logic for catalog reads and writes.
type CatalogService struct {
	repo        repositories.CatalogRepository
	collections repositories.Collections
	events      EventPublisher
	metrics     *metrics.Metrics
	log         *zap.Logger
	now         func() time.Time
}

// NewCatalogService creates a new CatalogService. events and m may be nil.
func NewCatalogService(repo repositories.CatalogRepository, collections repositories.Collections, events EventPublisher, m *metrics.Metrics, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{
		repo:        repo,
		collections: collections,
		events:      events,
		metrics:     m,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListActiveProducts retrieves the active products.
func (s *CatalogService) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListActiveProducts(ctx)
}

// ListCategories retrieves all categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

// ListSuppliers retrieves all suppliers.
func (s *CatalogService) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// CreateProduct creates a new product.
func (s *CatalogService) CreateProduct(ctx context.Context, product models.Product) (string, error) {
	docID, err := s.repo.CreateProduct(ctx, product)
	if docID != "" {
		s.publishProduct(ctx, rabbitmq.ProductCreated, docID, product)
	}
	return docID, err
}

// UpdateProduct updates an existing product.
func (s *CatalogService) UpdateProduct(ctx context.Context, docID string, product models.Product) error {
	if err := s.repo.UpdateProduct(ctx, docID, product); err != nil {
		return err
	}
	s.publishProduct(ctx, rabbitmq.ProductUpdated, docID, product)
	return nil
}

// UpdateStock sets the current stock of a product, keeping its other fields.
func (s *CatalogService) UpdateStock(ctx context.Context, product models.Product, stock int) error {
	if stock < 0 {
		return ErrNegativeStock
	}
	product.CurrentStock = stock
	return s.UpdateProduct(ctx, product.DocID, product)
}

// SoftDeleteProduct deactivates a product.
func (s *CatalogService) SoftDeleteProduct(ctx context.Context, docID string) error {
	if err := s.repo.SoftDeleteProduct(ctx, docID); err != nil {
		return err
	}
	s.publish(ctx, rabbitmq.CatalogEvent{
		Type:       rabbitmq.ProductDeactivated,
		Collection: s.collections.Products,
		DocID:      docID,
	})
	return nil
}

// CreateCategory creates a new category.
func (s *CatalogService) CreateCategory(ctx context.Context, category models.Category) (string, error) {
	docID, err := s.repo.CreateCategory(ctx, category)
	if docID != "" {
		s.publish(ctx, rabbitmq.CatalogEvent{
			Type:       rabbitmq.CategoryCreated,
			Collection: s.collections.Categories,
			DocID:      docID,
			Name:       category.Name,
		})
	}
	return docID, err
}

// CreateSupplier creates a new supplier.
func (s *CatalogService) CreateSupplier(ctx context.Context, supplier models.Supplier) (string, error) {
	docID, err := s.repo.CreateSupplier(ctx, supplier)
	if docID != "" {
		s.publish(ctx, rabbitmq.CatalogEvent{
			Type:       rabbitmq.SupplierCreated,
			Collection: s.collections.Suppliers,
			DocID:      docID,
			Name:       supplier.Name,
		})
	}
	return docID, err
}

func (s *CatalogService) publishProduct(ctx context.Context, eventType, docID string, product models.Product) {
	stock := product.CurrentStock
	ev := rabbitmq.CatalogEvent{
		Type:       eventType,
		Collection: s.collections.Products,
		DocID:      docID,
		Name:       product.Name,
		Stock:      &stock,
	}
	s.publish(ctx, ev)
	if product.IsLowStock() {
		ev.Type = rabbitmq.ProductLowStock
		s.publish(ctx, ev)
	}
}

// publish never fails the write it reports on.
func (s *CatalogService) publish(ctx context.Context, ev rabbitmq.CatalogEvent) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.now()

	outcome := "ok"
	if err := s.events.PublishCatalogEvent(ctx, ev); err != nil {
		outcome = "error"
		s.log.Warn("failed to publish catalog event",
			zap.String("type", ev.Type),
			zap.String("doc_id", ev.DocID),
			zap.Error(err),
		)
	}
	if s.metrics != nil {
		s.metrics.CatalogEventsOut.WithLabelValues(ev.Type, outcome).Inc()
	}
}

