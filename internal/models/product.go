package models

import "time"

// Product represents an inventory item stored in the catalog collection.
type Product struct {
	DocID        string    `json:"doc_id"`
	NumericID    int       `json:"numeric_id"`
	Name         string    `json:"name" validate:"required"`
	Description  string    `json:"description"`
	UnitPrice    float64   `json:"unit_price" validate:"gt=0"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
	Barcode      string    `json:"barcode"`
	CategoryID   int       `json:"category_id"`
	SupplierID   int       `json:"supplier_id"`
	ImageRef     string    `json:"image_ref"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsLowStock reports whether the current stock has reached the minimum.
func (p Product) IsLowStock() bool {
	return p.CurrentStock <= p.MinStock
}
