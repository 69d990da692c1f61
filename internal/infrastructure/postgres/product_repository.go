package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
// Las etiquetas viven en products.tags (text[]); las imágenes en product_images.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, company_id, category_id, sku, barcode, name, description, price, cost, tax_rate,
	unspsc_code, unit_measure, tags, attributes, active, created_at, updated_at`

func scanProduct(row scanner) (*entity.Product, error) {
	var p entity.Product
	var categoryID *string
	err := row.Scan(&p.ID, &p.CompanyID, &categoryID, &p.SKU, &p.Barcode, &p.Name, &p.Description,
		&p.Price, &p.Cost, &p.TaxRate, &p.UNSPSC_Code, &p.UnitMeasure, &p.Tags, &p.Attributes,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CategoryID = deref(categoryID)
	return &p, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// Create persiste un nuevo producto. Cost inicia en 0; el SKU es único por empresa.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.CompanyID, nullIfEmpty(product.CategoryID), product.SKU, product.Barcode,
		product.Name, product.Description, product.Price, product.Cost, product.TaxRate,
		product.UNSPSC_Code, product.UnitMeasure, tagsOrEmpty(product.Tags), product.Attributes,
		product.Active, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: SKU %s", domain.ErrDuplicate, product.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE `+where, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p.Images, err = r.ListImages(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID obtiene un producto por ID con su galería.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetByCompanyAndSKU obtiene un producto por empresa y SKU.
func (r *ProductRepo) GetByCompanyAndSKU(ctx context.Context, companyID, sku string) (*entity.Product, error) {
	return r.getOne(ctx, `company_id = $1 AND sku = $2`, companyID, sku)
}

// Update actualiza un producto existente. No modifica Cost (se maneja vía movimientos).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products SET category_id = $2, barcode = $3, name = $4, description = $5, price = $6, tax_rate = $7,
			unspsc_code = $8, unit_measure = $9, tags = $10, attributes = $11, active = $12, updated_at = $13
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		product.ID, nullIfEmpty(product.CategoryID), product.Barcode, product.Name, product.Description,
		product.Price, product.TaxRate, product.UNSPSC_Code, product.UnitMeasure, tagsOrEmpty(product.Tags),
		product.Attributes, product.Active, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, product.ID)
	}
	return nil
}

// UpdateCost actualiza solo el costo del producto (usado por el motor de inventario).
func (r *ProductRepo) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE products SET cost = $2, updated_at = now() WHERE id = $1`, productID, cost)
	if err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	return nil
}

// List busca en el catálogo y devuelve además el total sin paginar.
func (r *ProductRepo) List(ctx context.Context, companyID string, pf repository.ProductFilter) ([]*entity.Product, int, error) {
	f := newFilter("company_id = $%d", companyID)
	if !pf.IncludeInactive {
		f.conds = append(f.conds, "active")
	}
	if pf.Search != "" {
		f.add("(name ILIKE '%%' || $%[1]d || '%%' OR sku ILIKE '%%' || $%[1]d || '%%' OR barcode = $%[1]d)", pf.Search)
	}
	if pf.CategoryID != "" {
		f.add("category_id = $%d", pf.CategoryID)
	}
	if pf.Tag != "" {
		f.add("$%d = ANY(tags)", pf.Tag)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM products`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	query := `SELECT ` + productColumns + ` FROM products` + f.where() + ` ORDER BY name` + f.page(pf.Limit, pf.Offset)
	rows, err := r.q.Query(ctx, query, f.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	list := []*entity.Product{}
	byID := map[string]*entity.Product{}
	ids := []string{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return list, total, nil
	}

	imgs, err := r.q.Query(ctx, `SELECT `+imageColumns+` FROM product_images WHERE product_id = ANY($1) ORDER BY position`, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("list product images: %w", err)
	}
	defer imgs.Close()
	for imgs.Next() {
		img, err := scanImage(imgs)
		if err != nil {
			return nil, 0, fmt.Errorf("scan image: %w", err)
		}
		if p := byID[img.ProductID]; p != nil {
			p.Images = append(p.Images, img)
		}
	}
	return list, total, imgs.Err()
}

// SetTags reemplaza las etiquetas del producto.
func (r *ProductRepo) SetTags(ctx context.Context, productID string, tags []string) error {
	_, err := r.q.Exec(ctx, `UPDATE products SET tags = $2, updated_at = now() WHERE id = $1`, productID, tagsOrEmpty(tags))
	if err != nil {
		return fmt.Errorf("set tags: %w", err)
	}
	return nil
}

// ListTags etiquetas distintas en uso por la empresa.
func (r *ProductRepo) ListTags(ctx context.Context, companyID string) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT t FROM products, unnest(tags) AS t
		WHERE company_id = $1 ORDER BY t`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const imageColumns = `id, product_id, url, alt_text, position, is_primary, created_at`

func scanImage(row scanner) (entity.ProductImage, error) {
	var img entity.ProductImage
	err := row.Scan(&img.ID, &img.ProductID, &img.URL, &img.AltText, &img.Position, &img.IsPrimary, &img.CreatedAt)
	return img, err
}

// AddImage agrega la imagen al final de la galería.
func (r *ProductRepo) AddImage(ctx context.Context, img *entity.ProductImage) error {
	query := `
		INSERT INTO product_images (id, product_id, url, alt_text, position, is_primary, created_at)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM product_images WHERE product_id = $2),
			false, $5)
		RETURNING position`
	if err := r.q.QueryRow(ctx, query, img.ID, img.ProductID, img.URL, img.AltText, img.CreatedAt).Scan(&img.Position); err != nil {
		return fmt.Errorf("insert product image: %w", err)
	}
	img.IsPrimary = false
	return nil
}

// ListImages galería ordenada por posición.
func (r *ProductRepo) ListImages(ctx context.Context, productID string) ([]entity.ProductImage, error) {
	rows, err := r.q.Query(ctx, `SELECT `+imageColumns+` FROM product_images WHERE product_id = $1 ORDER BY position`, productID)
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	defer rows.Close()
	out := []entity.ProductImage{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// DeleteImage elimina la imagen del producto.
func (r *ProductRepo) DeleteImage(ctx context.Context, productID, imageID string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM product_images WHERE id = $1 AND product_id = $2`, imageID, productID)
	if err != nil {
		return fmt.Errorf("delete product image: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: imagen %s", domain.ErrNotFound, imageID)
	}
	return nil
}

// SetPrimaryImage deja una sola imagen principal por producto.
func (r *ProductRepo) SetPrimaryImage(ctx context.Context, productID, imageID string) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE product_images SET is_primary = (id = $2)
		WHERE product_id = $1 AND EXISTS (SELECT 1 FROM product_images WHERE id = $2 AND product_id = $1)`,
		productID, imageID)
	if err != nil {
		return fmt.Errorf("set primary image: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: imagen %s", domain.ErrNotFound, imageID)
	}
	return nil
}
