// Package form validates the product edit form and turns it into a product
// write.
package form

import (
	"fmt"
	"strconv"
	"strings"

	"inventario/internal/models"

	"github.com/shopspring/decimal"
)

// Unselected is the category or supplier choice of an untouched picker.
const Unselected = -1

// Form field names, as reported in FieldError.
const (
	FieldName         = "name"
	FieldUnitPrice    = "unit_price"
	FieldCurrentStock = "current_stock"
	FieldMinStock     = "min_stock"
	FieldCategory     = "category_id"
	FieldSupplier     = "supplier_id"
)

// FieldError is a validation failure of a single form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ProductForm holds the raw text of the product edit form.
type ProductForm struct {
	Name         string `json:"name" form:"name"`
	Description  string `json:"description" form:"description"`
	UnitPrice    string `json:"unit_price" form:"unit_price"`
	CurrentStock string `json:"current_stock" form:"current_stock"`
	MinStock     string `json:"min_stock" form:"min_stock"`
	Barcode      string `json:"barcode" form:"barcode"`
	ImageURL     string `json:"image_url" form:"image_url"`
	CategoryID   int    `json:"category_id" form:"category_id"`
	SupplierID   int    `json:"supplier_id" form:"supplier_id"`
}

// NewProductForm returns an empty form with nothing selected.
func NewProductForm() ProductForm {
	return ProductForm{CategoryID: Unselected, SupplierID: Unselected}
}

// Validate checks the fields in form order and reports the first failure as a
// *FieldError.
func (f ProductForm) Validate() error {
	_, err := f.parse()
	return err
}

type parsedForm struct {
	price        decimal.Decimal
	currentStock int
	minStock     int
}

func (f ProductForm) parse() (parsedForm, error) {
	var out parsedForm

	if strings.TrimSpace(f.Name) == "" {
		return out, &FieldError{Field: FieldName, Message: "required"}
	}

	price := strings.TrimSpace(f.UnitPrice)
	if price == "" {
		return out, &FieldError{Field: FieldUnitPrice, Message: "required"}
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return out, &FieldError{Field: FieldUnitPrice, Message: "invalid price"}
	}
	if !d.IsPositive() {
		return out, &FieldError{Field: FieldUnitPrice, Message: "price must be greater than 0"}
	}
	out.price = d

	if out.currentStock, err = parseStock(FieldCurrentStock, f.CurrentStock); err != nil {
		return out, err
	}
	if out.minStock, err = parseStock(FieldMinStock, f.MinStock); err != nil {
		return out, err
	}

	if f.CategoryID == Unselected {
		return out, &FieldError{Field: FieldCategory, Message: "select a category"}
	}
	if f.SupplierID == Unselected {
		return out, &FieldError{Field: FieldSupplier, Message: "select a supplier"}
	}
	return out, nil
}

// parseStock accepts any integer; the sign is not checked.
func parseStock(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &FieldError{Field: field, Message: "required"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FieldError{Field: field, Message: "must be a whole number"}
	}
	return n, nil
}

// Product validates the form and builds the product it describes, with
// imageRef as its image.
func (f ProductForm) Product(imageRef string) (models.Product, error) {
	parsed, err := f.parse()
	if err != nil {
		return models.Product{}, err
	}
	return models.Product{
		Name:         strings.TrimSpace(f.Name),
		Description:  strings.TrimSpace(f.Description),
		UnitPrice:    parsed.price.InexactFloat64(),
		CurrentStock: parsed.currentStock,
		MinStock:     parsed.minStock,
		Barcode:      strings.TrimSpace(f.Barcode),
		CategoryID:   f.CategoryID,
		SupplierID:   f.SupplierID,
		ImageRef:     imageRef,
		Active:       true,
	}, nil
}
