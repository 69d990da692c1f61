package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product SKU del catálogo. Cost es promedio ponderado; el stock vive por bodega en Stock.
type Product struct {
	ID          string
	CompanyID   string
	CategoryID  string
	SKU         string // único por empresa
	Barcode     string
	Name        string
	Description string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	TaxRate     decimal.Decimal // IVA en porcentaje: 0, 5, 19
	UNSPSC_Code string
	UnitMeasure string
	Tags        []string
	Images      []ProductImage
	Attributes  json.RawMessage
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductImage imagen del producto (URL externa). Position ordena la galería.
type ProductImage struct {
	ID        string
	ProductID string
	URL       string
	AltText   string
	Position  int
	IsPrimary bool
	CreatedAt time.Time
}
