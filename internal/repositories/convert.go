package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"inventario/internal/models"
	"inventario/internal/store"
)

// fieldReader pulls typed values out of an untyped document. The first type
// mismatch is kept in err and makes the whole document malformed.
type fieldReader struct {
	fields store.Fields
	err    error
}

func (r *fieldReader) fail(name string, v interface{}, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("field %s: expected %s, got %T", name, want, v)
	}
}

func (r *fieldReader) str(name string) string {
	v, ok := r.fields[name]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(name, v, "string")
	}
	return s
}

// integer returns the field as a 32-bit legacy integer. Floating values are
// truncated toward zero. present is false when the field is missing or null.
func (r *fieldReader) integer(name string) (n int, present bool) {
	v, ok := r.fields[name]
	if !ok || v == nil {
		return 0, false
	}
	i, ok := toInt64(v)
	if !ok {
		r.fail(name, v, "number")
		return 0, false
	}
	return int(int32(i)), true
}

// price accepts any numeric representation; anything else reads as zero.
func (r *fieldReader) price(name string) float64 {
	f, _ := toFloat64(r.fields[name])
	return f
}

func (r *fieldReader) boolean(name string, def bool) bool {
	v, ok := r.fields[name]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(name, v, "bool")
		return def
	}
	return b
}

func (r *fieldReader) timestamp(name string) time.Time {
	v, ok := r.fields[name]
	if !ok || v == nil {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
		return time.Time{}
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			r.fail(name, v, "RFC3339 timestamp")
			return time.Time{}
		}
		return parsed
	}
	r.fail(name, v, "timestamp")
	return time.Time{}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func productFromDocument(doc store.Document) (models.Product, error) {
	r := &fieldReader{fields: doc.Fields}

	numericID, ok := r.integer(fieldProductID)
	if !ok {
		numericID = LegacyID(doc.ID)
	}
	currentStock, _ := r.integer(fieldCurrentStock)
	minStock, _ := r.integer(fieldMinStock)
	categoryID, _ := r.integer(fieldCategoryID)
	supplierID, _ := r.integer(fieldSupplierID)

	p := models.Product{
		DocID:        doc.ID,
		NumericID:    numericID,
		Name:         r.str(fieldProductName),
		Description:  r.str(fieldDescription),
		UnitPrice:    r.price(fieldUnitPrice),
		CurrentStock: currentStock,
		MinStock:     minStock,
		Barcode:      r.str(fieldBarcode),
		CategoryID:   categoryID,
		SupplierID:   supplierID,
		Active:       r.boolean(fieldActive, true),
		ImageRef:     r.str(fieldImageURL),
		CreatedAt:    r.timestamp(fieldRegisteredAt),
		UpdatedAt:    r.timestamp(fieldUpdatedAt),
	}
	if r.err != nil {
		return models.Product{}, r.err
	}
	return p, nil
}

func categoryFromDocument(doc store.Document) (models.Category, error) {
	r := &fieldReader{fields: doc.Fields}

	id, ok := r.integer(fieldCategoryID)
	if !ok {
		id = LegacyID(doc.ID)
	}
	c := models.Category{
		ID:          id,
		DocID:       doc.ID,
		Name:        r.str(fieldCategoryName),
		Description: r.str(fieldDescription),
		CreatedAt:   r.timestamp(fieldCreatedAt),
	}
	if r.err != nil {
		return models.Category{}, r.err
	}
	return c, nil
}

func supplierFromDocument(doc store.Document) (models.Supplier, error) {
	r := &fieldReader{fields: doc.Fields}

	id, ok := r.integer(fieldSupplierID)
	if !ok {
		id = LegacyID(doc.ID)
	}
	s := models.Supplier{
		ID:        id,
		DocID:     doc.ID,
		Name:      r.str(fieldSupplierName),
		Telephone: r.str(fieldTelephone),
		Email:     r.str(fieldEmail),
		Address:   r.str(fieldAddress),
		City:      r.str(fieldCity),
		Country:   r.str(fieldCountry),
		CreatedAt: r.timestamp(fieldRegisteredAt),
	}
	if r.err != nil {
		return models.Supplier{}, r.err
	}
	return s, nil
}

// productMutableFields are the fields an update overwrites.
func productMutableFields(p models.Product) store.Fields {
	return store.Fields{
		fieldProductName:  p.Name,
		fieldDescription:  p.Description,
		fieldUnitPrice:    p.UnitPrice,
		fieldCurrentStock: p.CurrentStock,
		fieldMinStock:     p.MinStock,
		fieldBarcode:      p.Barcode,
		fieldCategoryID:   p.CategoryID,
		fieldSupplierID:   p.SupplierID,
		fieldImageURL:     p.ImageRef,
		fieldUpdatedAt:    store.ServerTimestamp,
	}
}

func newProductFields(p models.Product) store.Fields {
	fields := productMutableFields(p)
	fields[fieldActive] = true
	fields[fieldRegisteredAt] = store.ServerTimestamp
	return fields
}

func newCategoryFields(c models.Category) store.Fields {
	return store.Fields{
		fieldCategoryName: c.Name,
		fieldDescription:  c.Description,
		fieldCreatedAt:    store.ServerTimestamp,
	}
}

func newSupplierFields(s models.Supplier) store.Fields {
	return store.Fields{
		fieldSupplierName: s.Name,
		fieldTelephone:    s.Telephone,
		fieldEmail:        s.Email,
		fieldAddress:      s.Address,
		fieldCity:         s.City,
		fieldCountry:      s.Country,
		fieldRegisteredAt: store.ServerTimestamp,
	}
}
