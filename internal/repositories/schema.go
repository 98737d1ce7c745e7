package repositories

// Field names shared with the desktop application. They are a cross-client
// contract and must not change.
const (
	fieldStoreID = "firestore_id"

	fieldProductID    = "id_producto"
	fieldProductName  = "nombre_producto"
	fieldDescription  = "descripcion"
	fieldUnitPrice    = "precio_unitario"
	fieldCurrentStock = "stock_actual"
	fieldMinStock     = "stock_minimo"
	fieldBarcode      = "codigo_barras"
	fieldCategoryID   = "id_categoria"
	fieldSupplierID   = "id_proveedor"
	fieldActive       = "activo"
	fieldRegisteredAt = "fecha_registro"
	fieldUpdatedAt    = "ultima_actualizacion"
	fieldImageURL     = "imagen_url"

	fieldCategoryName = "nombre_categoria"
	fieldCreatedAt    = "fecha_creacion"

	fieldSupplierName = "nombre_proveedor"
	fieldTelephone    = "telefono"
	fieldEmail        = "email"
	fieldAddress      = "direccion"
	fieldCity         = "ciudad"
	fieldCountry      = "pais"
)

// Collections names the three catalog collections.
type Collections struct {
	Products   string
	Categories string
	Suppliers  string
}

// DefaultCollections are the collection names the desktop application uses.
var DefaultCollections = Collections{
	Products:   "productos",
	Categories: "categorias",
	Suppliers:  "proveedores",
}
