// Package viewmodel holds the in-memory product catalog an operator works
// against: the full list fetched from the repository, the projection currently
// shown, and the aggregate figures computed over it.
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	"inventario/internal/models"
	"inventario/pkg/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AllCategories selects every category in ApplyCategoryFilter.
const AllCategories = -1

// Search terms shorter than this many UTF-16 units (and not empty) leave the
// projection alone. The desktop client measures terms the same way.
const minSearchUnits = 3

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

var (
	// ErrDiscarded is returned when a fetch completed after its result stopped
	// mattering: the catalog was closed, the caller went away, or a newer
	// refresh started. State is left untouched.
	ErrDiscarded = errors.New("refresh result discarded")

	// ErrEmptySearchTerm is returned by SearchNow for a blank term.
	ErrEmptySearchTerm = errors.New("search term is empty")
)

// ProductSource provides the active products.
type ProductSource interface {
	ListActiveProducts(ctx context.Context) ([]models.Product, error)
}

// ReferenceSource provides the categories and suppliers used for labels.
type ReferenceSource interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
}

// Source is everything a catalog reads.
type Source interface {
	ProductSource
	ReferenceSource
}

// FilterKind names the projection currently applied.
type FilterKind string

const (
	FilterAll      FilterKind = "all"
	FilterSearch   FilterKind = "search"
	FilterCategory FilterKind = "category"
	FilterLowStock FilterKind = "low_stock"
)

// FilterState describes the active projection.
type FilterState struct {
	Kind       FilterKind `json:"kind"`
	Term       string     `json:"term,omitempty"`
	CategoryID int        `json:"category_id,omitempty"`
}

// Stats are computed over the full list regardless of the projection.
type Stats struct {
	Count      int             `json:"count"`
	TotalValue decimal.Decimal `json:"total_value"`
	LowStock   int             `json:"low_stock"`
}

// Row is a visible product with its reference labels resolved.
type Row struct {
	models.Product
	CategoryLabel string `json:"category_label"`
	SupplierLabel string `json:"supplier_label"`
	LowStock      bool   `json:"low_stock"`
}

// View is a consistent snapshot of the catalog.
type View struct {
	Rows   []Row       `json:"rows"`
	Stats  Stats       `json:"stats"`
	Filter FilterState `json:"filter"`
}

// Config tunes a Catalog. The zero value is usable.
type Config struct {
	SearchDebounce time.Duration
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

// Catalog is the view model of one operator. It is safe for concurrent use.
type Catalog struct {
	mu         sync.RWMutex
	full       []models.Product
	visible    []models.Product
	filter     FilterState
	categories map[int]string
	suppliers  map[int]string

	generation    uint64
	refGeneration uint64
	closed        bool

	search  *Debouncer
	log     *zap.Logger
	metrics *metrics.Metrics
}

// New creates an empty catalog.
func New(cfg Config) *Catalog {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{
		filter:     FilterState{Kind: FilterAll},
		categories: map[int]string{},
		suppliers:  map[int]string{},
		search:     NewDebouncer(cfg.SearchDebounce),
		log:        log,
		metrics:    cfg.Metrics,
	}
}

// Refresh fetches the active products and replaces the full list. A successful
// refresh shows the whole list again and clears the active filter.
func (c *Catalog) Refresh(ctx context.Context, src ProductSource) error {
	return c.refresh(ctx, src, false)
}

// Reload fetches the active products like Refresh but keeps the active filter,
// applying it again to the new full list. Background refreshes use it.
func (c *Catalog) Reload(ctx context.Context, src ProductSource) error {
	return c.refresh(ctx, src, true)
}

func (c *Catalog) refresh(ctx context.Context, src ProductSource, keepFilter bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrDiscarded
	}
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	products, err := src.ListActiveProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || ctx.Err() != nil || gen != c.generation {
		c.discarded("products")
		return ErrDiscarded
	}
	c.full = products
	if keepFilter {
		c.applyFilterLocked(c.filter)
	} else {
		c.resetLocked()
	}

	if c.metrics != nil {
		stats := c.statsLocked()
		c.metrics.InventoryProducts.Set(float64(stats.Count))
		c.metrics.InventoryValue.Set(stats.TotalValue.InexactFloat64())
		c.metrics.InventoryLowStock.Set(float64(stats.LowStock))
	}
	return nil
}

// RefreshReferences reloads the category and supplier labels.
func (c *Catalog) RefreshReferences(ctx context.Context, src ReferenceSource) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrDiscarded
	}
	c.refGeneration++
	gen := c.refGeneration
	c.mu.Unlock()

	categories, err := src.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	suppliers, err := src.ListSuppliers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load suppliers: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || ctx.Err() != nil || gen != c.refGeneration {
		c.discarded("references")
		return ErrDiscarded
	}
	c.categories = make(map[int]string, len(categories))
	for _, cat := range categories {
		c.categories[cat.ID] = cat.Name
	}
	c.suppliers = make(map[int]string, len(suppliers))
	for _, s := range suppliers {
		c.suppliers[s.ID] = s.Name
	}
	return nil
}

// Sync refreshes the reference labels and then the products.
func (c *Catalog) Sync(ctx context.Context, src Source) error {
	if err := c.RefreshReferences(ctx, src); err != nil {
		return err
	}
	return c.Refresh(ctx, src)
}

// SyncKeepingFilter is Sync with Reload semantics for the products.
func (c *Catalog) SyncKeepingFilter(ctx context.Context, src Source) error {
	if err := c.RefreshReferences(ctx, src); err != nil {
		return err
	}
	return c.Reload(ctx, src)
}

func (c *Catalog) discarded(what string) {
	c.log.Debug("dropping late catalog result", zap.String("result", what))
	if c.metrics != nil {
		c.metrics.DiscardedRefreshes.Inc()
	}
}

// ApplyTextSearch shows the products whose name contains term, ignoring case.
// An empty term shows everything; a term of one or two characters changes
// nothing.
func (c *Catalog) ApplyTextSearch(term string) {
	n := utf16Len(term)
	if n > 0 && n < minSearchUnits {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if n == 0 {
		c.resetLocked()
		return
	}
	c.searchLocked(term)
}

// SearchNow runs a search for the trimmed term regardless of its length.
func (c *Catalog) SearchNow(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return ErrEmptySearchTerm
	}
	c.search.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchLocked(term)
	return nil
}

// TypeSearch feeds a keystroke into the debounced search box. Only the text
// present when typing pauses is searched for.
func (c *Catalog) TypeSearch(text string) {
	c.search.Trigger(func() {
		c.ApplyTextSearch(text)
	})
}

func (c *Catalog) searchLocked(term string) {
	needle := strings.ToLower(term)
	c.visible = c.selectLocked(func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	})
	c.filter = FilterState{Kind: FilterSearch, Term: term}
}

// ApplyCategoryFilter shows the products of one category.
func (c *Catalog) ApplyCategoryFilter(categoryID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if categoryID == AllCategories {
		c.resetLocked()
		return
	}
	c.visible = c.selectLocked(func(p models.Product) bool {
		return p.CategoryID == categoryID
	})
	c.filter = FilterState{Kind: FilterCategory, CategoryID: categoryID}
}

// ApplyLowStockFilter shows the products at or below their minimum stock.
func (c *Catalog) ApplyLowStockFilter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = c.selectLocked(models.Product.IsLowStock)
	c.filter = FilterState{Kind: FilterLowStock}
}

// ResetToAll shows the full list, clears the filter and drops any search still
// waiting for typing to pause.
func (c *Catalog) ResetToAll() {
	c.search.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// applyFilterLocked recomputes the visible list for f from the full list.
func (c *Catalog) applyFilterLocked(f FilterState) {
	switch f.Kind {
	case FilterSearch:
		c.searchLocked(f.Term)
	case FilterCategory:
		c.visible = c.selectLocked(func(p models.Product) bool {
			return p.CategoryID == f.CategoryID
		})
		c.filter = f
	case FilterLowStock:
		c.visible = c.selectLocked(models.Product.IsLowStock)
		c.filter = f
	default:
		c.resetLocked()
	}
}

func (c *Catalog) resetLocked() {
	c.visible = c.full
	c.filter = FilterState{Kind: FilterAll}
}

// selectLocked always filters the full list, so projections never stack.
func (c *Catalog) selectLocked(keep func(models.Product) bool) []models.Product {
	out := make([]models.Product, 0, len(c.full))
	for _, p := range c.full {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Statistics summarizes the full list.
func (c *Catalog) Statistics() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statsLocked()
}

func (c *Catalog) statsLocked() Stats {
	return ComputeStatistics(c.full)
}

// ComputeStatistics returns the count, the total value (unit price times
// current stock) and the number of low-stock products.
func ComputeStatistics(products []models.Product) Stats {
	total := decimal.Zero
	low := 0
	for _, p := range products {
		total = total.Add(decimal.NewFromFloat(p.UnitPrice).Mul(decimal.NewFromInt(int64(p.CurrentStock))))
		if p.IsLowStock() {
			low++
		}
	}
	return Stats{Count: len(products), TotalValue: total, LowStock: low}
}

// Visible returns a copy of the current projection.
func (c *Catalog) Visible() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Product(nil), c.visible...)
}

// All returns a copy of the full list.
func (c *Catalog) All() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Product(nil), c.full...)
}

// Filter returns the active filter.
func (c *Catalog) Filter() FilterState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// Rows returns the projection with labels resolved.
func (c *Catalog) Rows() []Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rowsLocked()
}

func (c *Catalog) rowsLocked() []Row {
	rows := make([]Row, 0, len(c.visible))
	for _, p := range c.visible {
		rows = append(rows, Row{
			Product:       p,
			CategoryLabel: c.categoryLabelLocked(p.CategoryID),
			SupplierLabel: c.supplierLabelLocked(p.SupplierID),
			LowStock:      p.IsLowStock(),
		})
	}
	return rows
}

// Snapshot returns rows, statistics and filter taken under one lock.
func (c *Catalog) Snapshot() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return View{
		Rows:   c.rowsLocked(),
		Stats:  c.statsLocked(),
		Filter: c.filter,
	}
}

// CategoryLabel returns the name of a category, or a placeholder for an ID
// that matches none.
func (c *Catalog) CategoryLabel(id int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categoryLabelLocked(id)
}

func (c *Catalog) categoryLabelLocked(id int) string {
	if name, ok := c.categories[id]; ok {
		return name
	}
	return fmt.Sprintf("unknown category %d", id)
}

// SupplierLabel returns the name of a supplier, or a placeholder.
func (c *Catalog) SupplierLabel(id int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.supplierLabelLocked(id)
}

func (c *Catalog) supplierLabelLocked(id int) string {
	if name, ok := c.suppliers[id]; ok {
		return name
	}
	return fmt.Sprintf("unknown supplier %d", id)
}

// Find looks a product up in the full list.
func (c *Catalog) Find(docID string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.full {
		if p.DocID == docID {
			return p, true
		}
	}
	return models.Product{}, false
}

// Close stops the catalog. Fetches still in flight are discarded when they
// complete.
func (c *Catalog) Close() {
	c.search.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
