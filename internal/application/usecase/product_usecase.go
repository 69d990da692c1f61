package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/pricing"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

const maxImages = 12

// ProductUseCase catálogo: productos, etiquetas, imágenes y categorías.
// Cost y Stock se manejan vía movimientos.
type ProductUseCase struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	audit        ports.AuditRecorder
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, categoryRepo repository.CategoryRepository, auditRec ports.AuditRecorder) *ProductUseCase {
	return &ProductUseCase{repo: repo, categoryRepo: categoryRepo, audit: auditRec}
}

// taxRate acepta 19 o 0.19; solo tarifas de IVA vigentes.
func taxRate(in decimal.Decimal) (decimal.Decimal, error) {
	rate := pricing.NormalizeRate(in)
	if !pricing.ValidRate(rate) {
		return decimal.Zero, fmt.Errorf("%w: IVA %s no permitido", domain.ErrInvalidInput, in.String())
	}
	return rate, nil
}

func normalizeTags(tags []string) []string {
	return inventory.SplitTags(strings.Join(tags, ","))
}

// Create crea un nuevo producto. Cost inicia en 0.
func (uc *ProductUseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.TrimSpace(in.SKU)
	if sku == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: SKU y nombre son obligatorios", domain.ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
	}
	rate, err := taxRate(in.TaxRate)
	if err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByCompanyAndSKU(ctx, companyID, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: SKU %s", domain.ErrDuplicate, sku)
	}
	if err := uc.checkCategory(ctx, companyID, in.CategoryID); err != nil {
		return nil, err
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "94"
	}
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		CategoryID:  in.CategoryID,
		SKU:         sku,
		Barcode:     strings.TrimSpace(in.Barcode),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Cost:        decimal.Zero,
		TaxRate:     rate,
		UNSPSC_Code: in.UNSPSC_Code,
		UnitMeasure: in.UnitMeasure,
		Tags:        normalizeTags(in.Tags),
		Attributes:  in.Attributes,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	resp := toProductResponse(product)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCreate, "product", product.ID, "producto "+product.SKU, nil, resp))
	return resp, nil
}

// GetByID obtiene un producto con sus imágenes.
func (uc *ProductUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ProductResponse, error) {
	product, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto. No permite modificar Cost ni Stock (se manejan vía movimientos).
func (uc *ProductUseCase) Update(ctx context.Context, companyID, userID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	before := toProductResponse(product)
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Barcode != nil {
		product.Barcode = strings.TrimSpace(*in.Barcode)
	}
	if in.CategoryID != nil {
		if err := uc.checkCategory(ctx, companyID, *in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *in.CategoryID
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
		}
		product.Price = *in.Price
	}
	if in.TaxRate != nil {
		rate, err := taxRate(*in.TaxRate)
		if err != nil {
			return nil, err
		}
		product.TaxRate = rate
	}
	if in.UNSPSC_Code != nil {
		product.UNSPSC_Code = *in.UNSPSC_Code
	}
	if in.UnitMeasure != nil {
		product.UnitMeasure = *in.UnitMeasure
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	if len(in.Attributes) > 0 {
		product.Attributes = in.Attributes
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	resp := toProductResponse(product)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditUpdate, "product", product.ID, "producto "+product.SKU, before, resp))
	return resp, nil
}

// Deactivate oculta el producto del catálogo; las facturas y movimientos lo siguen referenciando.
func (uc *ProductUseCase) Deactivate(ctx context.Context, companyID, userID, id string) error {
	active := false
	_, err := uc.Update(ctx, companyID, userID, id, dto.UpdateProductRequest{Active: &active})
	return err
}

// List lista productos por empresa: búsqueda por nombre, SKU o código de barras, categoría y etiqueta.
func (uc *ProductUseCase) List(ctx context.Context, companyID string, in dto.ProductFilterRequest) (*dto.ProductListResponse, error) {
	f := repository.ProductFilter{
		Search:          strings.TrimSpace(in.Search),
		CategoryID:      in.CategoryID,
		Tag:             strings.ToLower(strings.TrimSpace(in.Tag)),
		IncludeInactive: in.IncludeInactive,
		Limit:           dto.NormalizeLimit(in.Limit),
		Offset:          max(in.Offset, 0),
	}
	list, total, err := uc.repo.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}, nil
}

// ── Etiquetas ────────────────────────────────────────────────────────────────

// AddTags agrega etiquetas (minúsculas, sin repetidos).
func (uc *ProductUseCase) AddTags(ctx context.Context, companyID, userID, id string, tags []string) ([]string, error) {
	product, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	merged := normalizeTags(append(append([]string{}, product.Tags...), tags...))
	if err := uc.repo.SetTags(ctx, id, merged); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditUpdate, "product", id,
		"etiquetas "+product.SKU, product.Tags, merged))
	return merged, nil
}

// RemoveTag quita una etiqueta; no falla si no estaba.
func (uc *ProductUseCase) RemoveTag(ctx context.Context, companyID, userID, id, tag string) ([]string, error) {
	product, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	out := make([]string, 0, len(product.Tags))
	for _, t := range product.Tags {
		if t != tag {
			out = append(out, t)
		}
	}
	if len(out) == len(product.Tags) {
		return out, nil
	}
	if err := uc.repo.SetTags(ctx, id, out); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditUpdate, "product", id,
		"etiquetas "+product.SKU, product.Tags, out))
	return out, nil
}

// ListTags etiquetas distintas del catálogo.
func (uc *ProductUseCase) ListTags(ctx context.Context, companyID string) ([]string, error) {
	return uc.repo.ListTags(ctx, companyID)
}

// ── Imágenes ─────────────────────────────────────────────────────────────────

// AddImage registra una imagen por URL. La primera imagen queda como principal.
func (uc *ProductUseCase) AddImage(ctx context.Context, companyID, userID, id string, in dto.AddImageRequest) (*dto.ProductImageResponse, error) {
	product, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	url := strings.TrimSpace(in.URL)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: URL de imagen %q", domain.ErrInvalidInput, in.URL)
	}
	if len(product.Images) >= maxImages {
		return nil, fmt.Errorf("%w: máximo %d imágenes por producto", domain.ErrConflict, maxImages)
	}
	img := &entity.ProductImage{
		ID:        uuid.New().String(),
		ProductID: id,
		URL:       url,
		AltText:   strings.TrimSpace(in.AltText),
		Position:  in.Position,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.AddImage(ctx, img); err != nil {
		return nil, err
	}
	if in.IsPrimary || len(product.Images) == 0 {
		if err := uc.repo.SetPrimaryImage(ctx, id, img.ID); err != nil {
			return nil, err
		}
		img.IsPrimary = true
	}
	resp := toImageResponse(*img)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCreate, "product_image", img.ID,
		"imagen de "+product.SKU, nil, resp))
	return &resp, nil
}

// RemoveImage elimina la imagen; si era la principal, la siguiente por posición pasa a serlo.
func (uc *ProductUseCase) RemoveImage(ctx context.Context, companyID, userID, id, imageID string) error {
	product, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return err
	}
	var removed *entity.ProductImage
	for i := range product.Images {
		if product.Images[i].ID == imageID {
			removed = &product.Images[i]
		}
	}
	if removed == nil {
		return fmt.Errorf("%w: imagen %s", domain.ErrNotFound, imageID)
	}
	if err := uc.repo.DeleteImage(ctx, id, imageID); err != nil {
		return err
	}
	if removed.IsPrimary {
		for _, img := range product.Images {
			if img.ID != imageID {
				if err := uc.repo.SetPrimaryImage(ctx, id, img.ID); err != nil {
					return err
				}
				break
			}
		}
	}
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditDelete, "product_image", imageID,
		"imagen de "+product.SKU, toImageResponse(*removed), nil))
	return nil
}

// SetPrimaryImage marca la imagen principal del producto.
func (uc *ProductUseCase) SetPrimaryImage(ctx context.Context, companyID, id, imageID string) ([]dto.ProductImageResponse, error) {
	if _, err := uc.owned(ctx, companyID, id); err != nil {
		return nil, err
	}
	if err := uc.repo.SetPrimaryImage(ctx, id, imageID); err != nil {
		return nil, err
	}
	imgs, err := uc.repo.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductImageResponse, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, toImageResponse(img))
	}
	return out, nil
}

// ── Categorías ───────────────────────────────────────────────────────────────

// CreateCategory crea una categoría; el código es único por empresa.
func (uc *ProductUseCase) CreateCategory(ctx context.Context, companyID string, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: nombre y código son obligatorios", domain.ErrInvalidInput)
	}
	existing, err := uc.categoryRepo.GetByCompanyAndCode(ctx, companyID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: categoría %s", domain.ErrDuplicate, code)
	}
	if err := uc.checkCategory(ctx, companyID, in.ParentID); err != nil {
		return nil, err
	}
	now := time.Now()
	c := &entity.Category{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		ParentID:  in.ParentID,
		Name:      strings.TrimSpace(in.Name),
		Code:      code,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.categoryRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := toCategoryResponse(c)
	return &resp, nil
}

// ListCategories categorías de la empresa.
func (uc *ProductUseCase) ListCategories(ctx context.Context, companyID string) ([]dto.CategoryResponse, error) {
	list, err := uc.categoryRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCategoryResponse(c))
	}
	return out, nil
}

func (uc *ProductUseCase) checkCategory(ctx context.Context, companyID, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	c, err := uc.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if c == nil || c.CompanyID != companyID {
		return fmt.Errorf("%w: categoría %s", domain.ErrNotFound, categoryID)
	}
	return nil
}

func (uc *ProductUseCase) owned(ctx context.Context, companyID, id string) (*entity.Product, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	if p.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	resp := &dto.ProductResponse{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		CategoryID:  p.CategoryID,
		SKU:         p.SKU,
		Barcode:     p.Barcode,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Cost:        p.Cost,
		TaxRate:     p.TaxRate,
		UNSPSC_Code: p.UNSPSC_Code,
		UnitMeasure: p.UnitMeasure,
		Tags:        p.Tags,
		Attributes:  p.Attributes,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	for _, img := range p.Images {
		resp.Images = append(resp.Images, toImageResponse(img))
	}
	return resp
}

func toImageResponse(img entity.ProductImage) dto.ProductImageResponse {
	return dto.ProductImageResponse{
		ID:        img.ID,
		URL:       img.URL,
		AltText:   img.AltText,
		Position:  img.Position,
		IsPrimary: img.IsPrimary,
	}
}

func toCategoryResponse(c *entity.Category) dto.CategoryResponse {
	return dto.CategoryResponse{ID: c.ID, ParentID: c.ParentID, Name: c.Name, Code: c.Code, Status: c.Status}
}
