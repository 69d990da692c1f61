package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/usecase"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/testutil/memstore"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newProducts(t *testing.T) (*usecase.ProductUseCase, *memstore.Store, string, string) {
	t.Helper()
	s := memstore.New()
	companyID, _, userID := s.SeedCompany("900123456")
	return usecase.NewProductUseCase(s.Products(), s.Categories(), s.Recorder()), s, companyID, userID
}

func TestProductCreate(t *testing.T) {
	uc, s, companyID, userID := newProducts(t)
	ctx := context.Background()

	p, err := uc.Create(ctx, companyID, userID, dto.CreateProductRequest{
		SKU: " CAF-01 ", Name: "Café 500g", Price: dec("18000"), TaxRate: dec("0.19"),
		Tags: []string{"Bebidas", "bebidas", " Café "},
	})
	require.NoError(t, err)
	assert.Equal(t, "CAF-01", p.SKU)
	assert.True(t, p.TaxRate.Equal(dec("19")))
	assert.Equal(t, "94", p.UnitMeasure)
	assert.Equal(t, []string{"bebidas", "café"}, p.Tags)
	assert.True(t, p.Active)
	assert.True(t, p.Cost.IsZero())

	_, err = uc.Create(ctx, companyID, userID, dto.CreateProductRequest{SKU: "CAF-01", Name: "Otro", TaxRate: dec("19")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, companyID, userID, dto.CreateProductRequest{SKU: "X1", Name: "X", TaxRate: dec("16")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, companyID, userID, dto.CreateProductRequest{SKU: "X2", Name: "X", CategoryID: "no-existe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Len(t, s.AuditEntries(), 1)
}

func TestProductListYDesactivar(t *testing.T) {
	uc, _, companyID, userID := newProducts(t)
	ctx := context.Background()
	cat, err := uc.CreateCategory(ctx, companyID, dto.CreateCategoryRequest{Name: "Bebidas calientes", Code: "beb"})
	require.NoError(t, err)
	assert.Equal(t, "BEB", cat.Code)
	_, err = uc.CreateCategory(ctx, companyID, dto.CreateCategoryRequest{Name: "Otra", Code: "BEB"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	a, err := uc.Create(ctx, companyID, userID, dto.CreateProductRequest{SKU: "A1", Name: "Café", Barcode: "7701", CategoryID: cat.ID, Tags: []string{"promo"}})
	require.NoError(t, err)
	_, err = uc.Create(ctx, companyID, userID, dto.CreateProductRequest{SKU: "B1", Name: "Azúcar"})
	require.NoError(t, err)

	byTag, err := uc.List(ctx, companyID, dto.ProductFilterRequest{Tag: "PROMO"})
	require.NoError(t, err)
	require.Len(t, byTag.Items, 1)
	assert.Equal(t, "A1", byTag.Items[0].SKU)

	byBarcode, err := uc.List(ctx, companyID, dto.ProductFilterRequest{Search: "7701"})
	require.NoError(t, err)
	assert.Len(t, byBarcode.Items, 1)

	byCat, err := uc.List(ctx, companyID, dto.ProductFilterRequest{CategoryID: cat.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, byCat.Page.Total)

	require.NoError(t, uc.Deactivate(ctx, companyID, userID, a.ID))
	all, err := uc.List(ctx, companyID, dto.ProductFilterRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 1)
	withInactive, err := uc.List(ctx, companyID, dto.ProductFilterRequest{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, withInactive.Items, 2)
}

func TestProductTags(t *testing.T) {
	uc, _, companyID, userID := newProducts(t)
	ctx := context.Background()
	p, err := uc.Create(ctx, companyID, userID, dto.CreateProductRequest{SKU: "A1", Name: "Café", Tags: []string{"promo"}})
	require.NoError(t, err)

	tags, err := uc.AddTags(ctx, companyID, userID, p.ID, []string{"Orgánico", "promo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"promo", "orgánico"}, tags)

	tags, err = uc.RemoveTag(ctx, companyID, userID, p.ID, "PROMO")
	require.NoError(t, err)
	assert.Equal(t, []string{"orgánico"}, tags)

	all, err := uc.ListTags(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, []string{"orgánico"}, all)

	_, err = uc.AddTags(ctx, "otra", userID, p.ID, []string{"x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestProductImages(t *testing.T) {
	uc, _, companyID, userID := newProducts(t)
	ctx := context.Background()
	p, err := uc.Create(ctx, companyID, userID, dto.CreateProductRequest{SKU: "A1", Name: "Café"})
	require.NoError(t, err)

	first, err := uc.AddImage(ctx, companyID, userID, p.ID, dto.AddImageRequest{URL: "https://cdn.test/a.jpg", Position: 0})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary, "la primera imagen queda como principal")

	second, err := uc.AddImage(ctx, companyID, userID, p.ID, dto.AddImageRequest{URL: "https://cdn.test/b.jpg", Position: 1})
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)

	_, err = uc.AddImage(ctx, companyID, userID, p.ID, dto.AddImageRequest{URL: "ftp://cdn.test/c.jpg"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	imgs, err := uc.SetPrimaryImage(ctx, companyID, p.ID, second.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.False(t, imgs[0].IsPrimary)
	assert.True(t, imgs[1].IsPrimary)

	require.NoError(t, uc.RemoveImage(ctx, companyID, userID, p.ID, second.ID))
	got, err := uc.GetByID(ctx, companyID, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.Equal(t, first.ID, got.Images[0].ID)
	assert.True(t, got.Images[0].IsPrimary)

	assert.ErrorIs(t, uc.RemoveImage(ctx, companyID, userID, p.ID, second.ID), domain.ErrNotFound)
}

func TestProductUpdate(t *testing.T) {
	uc, _, companyID, userID := newProducts(t)
	ctx := context.Background()
	p, err := uc.Create(ctx, companyID, userID, dto.CreateProductRequest{SKU: "A1", Name: "Café", Price: dec("1000")})
	require.NoError(t, err)

	price, rate, name := dec("1500"), dec("5"), "Café molido"
	up, err := uc.Update(ctx, companyID, userID, p.ID, dto.UpdateProductRequest{Name: &name, Price: &price, TaxRate: &rate})
	require.NoError(t, err)
	assert.Equal(t, "Café molido", up.Name)
	assert.True(t, up.Price.Equal(price))
	assert.True(t, up.TaxRate.Equal(rate))

	neg := dec("-1")
	_, err = uc.Update(ctx, companyID, userID, p.ID, dto.UpdateProductRequest{Price: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.GetByID(ctx, "otra", p.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
