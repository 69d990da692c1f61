package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

// ── Empresas y usuarios ───────────────────────────────────────────────────────

type CompanyRepo struct{ s *Store }

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

func (s *Store) Companies() *CompanyRepo { return &CompanyRepo{s} }

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	defer r.s.lock()()
	for _, x := range r.s.st.companies {
		if x.NIT == c.NIT {
			return domain.ErrDuplicate
		}
	}
	r.s.st.companies[c.ID] = *c
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	defer r.s.lock()()
	if c, ok := r.s.st.companies[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *CompanyRepo) GetByNIT(_ context.Context, nit string) (*entity.Company, error) {
	defer r.s.lock()()
	for _, c := range r.s.st.companies {
		if c.NIT == nit {
			return ptr(c), nil
		}
	}
	return nil, nil
}

func (r *CompanyRepo) Update(_ context.Context, c *entity.Company) error {
	defer r.s.lock()()
	if _, ok := r.s.st.companies[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.st.companies[c.ID] = *c
	return nil
}

func (r *CompanyRepo) List(_ context.Context, limit, offset int) ([]*entity.Company, error) {
	defer r.s.lock()()
	var out []*entity.Company
	for _, c := range r.s.st.companies {
		out = append(out, ptr(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (r *CompanyRepo) HasActiveModule(_ context.Context, companyID, module string) (bool, error) {
	defer r.s.lock()()
	m, ok := r.s.st.modules[companyID+"|"+module]
	if !ok {
		return false, nil
	}
	return m.Enabled(time.Now()), nil
}

func (r *CompanyRepo) ListModules(_ context.Context, companyID string) ([]*entity.CompanyModule, error) {
	defer r.s.lock()()
	var out []*entity.CompanyModule
	for _, m := range r.s.st.modules {
		if m.CompanyID == companyID {
			out = append(out, ptr(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleName < out[j].ModuleName })
	return out, nil
}

func (r *CompanyRepo) UpsertModule(_ context.Context, m *entity.CompanyModule) error {
	defer r.s.lock()()
	r.s.st.modules[m.CompanyID+"|"+m.ModuleName] = *m
	return nil
}

type UserRepo struct{ s *Store }

var _ repository.UserRepository = (*UserRepo)(nil)

func (s *Store) Users() *UserRepo { return &UserRepo{s} }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	defer r.s.lock()()
	for _, x := range r.s.st.users {
		if x.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.st.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	defer r.s.lock()()
	if u, ok := r.s.st.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.st.users {
		if u.Email == email {
			return ptr(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	defer r.s.lock()()
	r.s.st.users[u.ID] = *u
	return nil
}

func (r *UserRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.User, error) {
	defer r.s.lock()()
	var out []*entity.User
	for _, u := range r.s.st.users {
		if u.CompanyID == companyID {
			out = append(out, ptr(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return page(out, limit, offset), nil
}

// ── Bodegas ───────────────────────────────────────────────────────────────────

type WarehouseRepo struct{ s *Store }

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s} }

func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	defer r.s.lock()()
	r.s.st.warehouses[w.ID] = *w
	return nil
}

func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	defer r.s.lock()()
	if w, ok := r.s.st.warehouses[id]; ok {
		return &w, nil
	}
	return nil, nil
}

func (r *WarehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	defer r.s.lock()()
	r.s.st.warehouses[w.ID] = *w
	return nil
}

func (r *WarehouseRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Warehouse, error) {
	defer r.s.lock()()
	var out []*entity.Warehouse
	for _, w := range r.s.st.warehouses {
		if w.CompanyID == companyID {
			out = append(out, ptr(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (r *WarehouseRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	delete(r.s.st.warehouses, id)
	return nil
}

// ── Clientes ──────────────────────────────────────────────────────────────────

type CustomerRepo struct{ s *Store }

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s} }

func (r *CustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	defer r.s.lock()()
	for _, x := range r.s.st.customers {
		if x.CompanyID == c.CompanyID && x.TaxID == c.TaxID {
			return domain.ErrDuplicate
		}
	}
	r.s.st.customers[c.ID] = *c
	return nil
}

func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	defer r.s.lock()()
	if c, ok := r.s.st.customers[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *CustomerRepo) GetByCompanyAndTaxID(_ context.Context, companyID, taxID string) (*entity.Customer, error) {
	defer r.s.lock()()
	for _, c := range r.s.st.customers {
		if c.CompanyID == companyID && c.TaxID == taxID {
			return ptr(c), nil
		}
	}
	return nil, nil
}

func (r *CustomerRepo) ListByCompany(_ context.Context, companyID, search string, limit, offset int) ([]*entity.Customer, error) {
	defer r.s.lock()()
	var out []*entity.Customer
	for _, c := range r.s.st.customers {
		if c.CompanyID != companyID {
			continue
		}
		if search != "" && !contains(c.Name, search) && !contains(c.TaxID, search) {
			continue
		}
		out = append(out, ptr(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (r *CustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	defer r.s.lock()()
	r.s.st.customers[c.ID] = *c
	return nil
}

// ── Categorías y productos ────────────────────────────────────────────────────

type CategoryRepo struct{ s *Store }

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s} }

func (r *CategoryRepo) Create(_ context.Context, c *entity.Category) error {
	defer r.s.lock()()
	r.s.st.categories[c.ID] = *c
	return nil
}

func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	defer r.s.lock()()
	if c, ok := r.s.st.categories[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *CategoryRepo) GetByCompanyAndCode(_ context.Context, companyID, code string) (*entity.Category, error) {
	defer r.s.lock()()
	for _, c := range r.s.st.categories {
		if c.CompanyID == companyID && c.Code == code {
			return ptr(c), nil
		}
	}
	return nil, nil
}

func (r *CategoryRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Category, error) {
	defer r.s.lock()()
	var out []*entity.Category
	for _, c := range r.s.st.categories {
		if c.CompanyID == companyID {
			out = append(out, ptr(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type ProductRepo struct{ s *Store }

var _ repository.ProductRepository = (*ProductRepo)(nil)

func (s *Store) Products() *ProductRepo { return &ProductRepo{s} }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	defer r.s.lock()()
	for _, x := range r.s.st.products {
		if x.CompanyID == p.CompanyID && x.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	r.s.st.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	defer r.s.lock()()
	if p, ok := r.s.st.products[id]; ok {
		return r.withImages(p), nil
	}
	return nil, nil
}

func (r *ProductRepo) withImages(p entity.Product) *entity.Product {
	p.Images = nil
	for _, img := range r.s.st.images {
		if img.ProductID == p.ID {
			p.Images = append(p.Images, img)
		}
	}
	sort.Slice(p.Images, func(i, j int) bool { return p.Images[i].Position < p.Images[j].Position })
	return &p
}

func (r *ProductRepo) GetByCompanyAndSKU(_ context.Context, companyID, sku string) (*entity.Product, error) {
	defer r.s.lock()()
	for _, p := range r.s.st.products {
		if p.CompanyID == companyID && p.SKU == sku {
			return ptr(p), nil
		}
	}
	return nil, nil
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	defer r.s.lock()()
	if _, ok := r.s.st.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	cp.Images = nil
	r.s.st.products[p.ID] = cp
	return nil
}

func (r *ProductRepo) UpdateCost(_ context.Context, id string, cost decimal.Decimal) error {
	defer r.s.lock()()
	p := r.s.st.products[id]
	p.Cost = cost
	r.s.st.products[id] = p
	return nil
}

func (r *ProductRepo) List(_ context.Context, companyID string, f repository.ProductFilter) ([]*entity.Product, int, error) {
	defer r.s.lock()()
	var out []*entity.Product
	for _, p := range r.s.st.products {
		if p.CompanyID != companyID || (!p.Active && !f.IncludeInactive) {
			continue
		}
		if f.Search != "" && !contains(p.Name, f.Search) && !contains(p.SKU, f.Search) && !contains(p.Barcode, f.Search) {
			continue
		}
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.Tag != "" && !hasTag(p.Tags, f.Tag) {
			continue
		}
		out = append(out, ptr(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *ProductRepo) SetTags(_ context.Context, productID string, tags []string) error {
	defer r.s.lock()()
	p, ok := r.s.st.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Tags = append([]string(nil), tags...)
	r.s.st.products[productID] = p
	return nil
}

func (r *ProductRepo) ListTags(_ context.Context, companyID string) ([]string, error) {
	defer r.s.lock()()
	set := map[string]bool{}
	for _, p := range r.s.st.products {
		if p.CompanyID == companyID {
			for _, t := range p.Tags {
				set[t] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (r *ProductRepo) AddImage(_ context.Context, img *entity.ProductImage) error {
	defer r.s.lock()()
	r.s.st.images[img.ID] = *img
	return nil
}

func (r *ProductRepo) ListImages(_ context.Context, productID string) ([]entity.ProductImage, error) {
	defer r.s.lock()()
	return r.withImages(entity.Product{ID: productID}).Images, nil
}

func (r *ProductRepo) DeleteImage(_ context.Context, productID, imageID string) error {
	defer r.s.lock()()
	img, ok := r.s.st.images[imageID]
	if !ok || img.ProductID != productID {
		return domain.ErrNotFound
	}
	delete(r.s.st.images, imageID)
	return nil
}

func (r *ProductRepo) SetPrimaryImage(_ context.Context, productID, imageID string) error {
	defer r.s.lock()()
	if img, ok := r.s.st.images[imageID]; !ok || img.ProductID != productID {
		return domain.ErrNotFound
	}
	for id, img := range r.s.st.images {
		if img.ProductID == productID {
			img.IsPrimary = id == imageID
			r.s.st.images[id] = img
		}
	}
	return nil
}

// ── Stock y movimientos ───────────────────────────────────────────────────────

type StockRepo struct{ s *Store }

var _ repository.StockRepository = (*StockRepo)(nil)

func (s *Store) Stock() *StockRepo { return &StockRepo{s} }

func (r *StockRepo) Get(_ context.Context, productID, warehouseID string) (*entity.Stock, error) {
	defer r.s.lock()()
	if st, ok := r.s.st.stock[stockKey(productID, warehouseID)]; ok {
		return &st, nil
	}
	return &entity.Stock{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}, nil
}

func (r *StockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	return r.Get(ctx, productID, warehouseID)
}

func (r *StockRepo) Upsert(_ context.Context, st *entity.Stock) error {
	defer r.s.lock()()
	r.s.st.stock[stockKey(st.ProductID, st.WarehouseID)] = *st
	return nil
}

func (r *StockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Stock, error) {
	defer r.s.lock()()
	var out []*entity.Stock
	for _, st := range r.s.st.stock {
		if st.ProductID == productID {
			out = append(out, ptr(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

type MovementRepo struct{ s *Store }

var _ repository.InventoryMovementRepository = (*MovementRepo)(nil)

func (s *Store) Movements() *MovementRepo { return &MovementRepo{s} }

func (r *MovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	defer r.s.lock()()
	r.s.st.movements = append(r.s.st.movements, *m)
	return nil
}

func (r *MovementRepo) ListByProduct(_ context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	defer r.s.lock()()
	var out []*entity.InventoryMovement
	for _, m := range r.s.st.movements {
		if m.ProductID != productID {
			continue
		}
		if (from != nil && m.Date.Before(*from)) || (to != nil && m.Date.After(*to)) {
			continue
		}
		out = append(out, ptr(m))
	}
	sortByTime(out, func(m *entity.InventoryMovement) time.Time { return m.Date }, true)
	return page(out, limit, offset), nil
}
