package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// ProductFilter filtros de búsqueda del catálogo. Search compara nombre, SKU y código de barras.
type ProductFilter struct {
	Search          string
	CategoryID      string
	Tag             string
	IncludeInactive bool
	Limit           int
	Offset          int
}

// ProductRepository puerto de persistencia para productos, etiquetas e imágenes.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByCompanyAndSKU(ctx context.Context, companyID, sku string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
	List(ctx context.Context, companyID string, f ProductFilter) ([]*entity.Product, int, error)

	SetTags(ctx context.Context, productID string, tags []string) error
	ListTags(ctx context.Context, companyID string) ([]string, error)

	AddImage(ctx context.Context, img *entity.ProductImage) error
	ListImages(ctx context.Context, productID string) ([]entity.ProductImage, error)
	DeleteImage(ctx context.Context, productID, imageID string) error
	SetPrimaryImage(ctx context.Context, productID, imageID string) error
}
