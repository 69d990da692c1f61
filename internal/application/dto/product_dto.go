package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU         string          `json:"sku" validate:"required,min=1,max=100"`
	Barcode     string          `json:"barcode" validate:"max=64"`
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	Price       decimal.Decimal `json:"price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	UNSPSC_Code string          `json:"unspsc_code"`
	UnitMeasure string          `json:"unit_measure" validate:"omitempty,max=10"`
	Tags        []string        `json:"tags" validate:"max=30,dive,min=1,max=40"`
	Attributes  json.RawMessage `json:"attributes"`
}

// UpdateProductRequest entrada para actualizar un producto (sin costo ni stock).
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Barcode     *string          `json:"barcode" validate:"omitempty,max=64"`
	CategoryID  *string          `json:"category_id"`
	Price       *decimal.Decimal `json:"price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	UNSPSC_Code *string          `json:"unspsc_code"`
	UnitMeasure *string          `json:"unit_measure"`
	Active      *bool            `json:"active"`
	Attributes  json.RawMessage  `json:"attributes"`
}

// ProductFilterRequest query de GET /api/products.
type ProductFilterRequest struct {
	Search          string `query:"q"`
	CategoryID      string `query:"category_id"`
	Tag             string `query:"tag"`
	IncludeInactive bool   `query:"include_inactive"`
	Limit           int    `query:"limit"`
	Offset          int    `query:"offset"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string                 `json:"id"`
	CompanyID   string                 `json:"company_id"`
	CategoryID  string                 `json:"category_id,omitempty"`
	SKU         string                 `json:"sku"`
	Barcode     string                 `json:"barcode,omitempty"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Price       decimal.Decimal        `json:"price"`
	Cost        decimal.Decimal        `json:"cost"`
	TaxRate     decimal.Decimal        `json:"tax_rate"`
	UNSPSC_Code string                 `json:"unspsc_code"`
	UnitMeasure string                 `json:"unit_measure"`
	Tags        []string               `json:"tags"`
	Images      []ProductImageResponse `json:"images,omitempty"`
	Attributes  json.RawMessage        `json:"attributes,omitempty"`
	Active      bool                   `json:"active"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// TagsRequest body para POST /api/products/:id/tags.
type TagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,max=30,dive,min=1,max=40"`
}

// AddImageRequest body para POST /api/products/:id/images.
type AddImageRequest struct {
	URL       string `json:"url" validate:"required,url"`
	AltText   string `json:"alt_text" validate:"max=200"`
	Position  int    `json:"position" validate:"min=0"`
	IsPrimary bool   `json:"is_primary"`
}

// ProductImageResponse imagen de producto.
type ProductImageResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	AltText   string `json:"alt_text,omitempty"`
	Position  int    `json:"position"`
	IsPrimary bool   `json:"is_primary"`
}

// CreateCategoryRequest body para POST /api/categories.
type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Code     string `json:"code" validate:"required,min=1,max=40"`
	ParentID string `json:"parent_id"`
}

// CategoryResponse categoría.
type CategoryResponse struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Status   string `json:"status"`
}

// ImportRowError error de una fila del archivo de importación (Row empieza en 2: la 1 es el encabezado).
type ImportRowError struct {
	Row     int    `json:"row"`
	SKU     string `json:"sku,omitempty"`
	Message string `json:"message"`
}

// ImportResult resumen de POST /api/products/import.
type ImportResult struct {
	Format   string           `json:"format"`
	Encoding string           `json:"encoding,omitempty"`
	DryRun   bool             `json:"dry_run"`
	Rows     int              `json:"rows"`
	Created  int              `json:"created"`
	Updated  int              `json:"updated"`
	Stocked  int              `json:"stocked"`
	Errors   []ImportRowError `json:"errors"`
}
