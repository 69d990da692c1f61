package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock existencia de un producto en una bodega.
type Stock struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}
