// Package memstore implementa los repositorios en memoria para pruebas de casos de uso.
// TxRunner toma una copia del estado y la restaura si la función falla.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/application/parking"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

type state struct {
	companies     map[string]entity.Company
	modules       map[string]entity.CompanyModule
	users         map[string]entity.User
	warehouses    map[string]entity.Warehouse
	customers     map[string]entity.Customer
	categories    map[string]entity.Category
	products      map[string]entity.Product
	images        map[string]entity.ProductImage
	stock         map[string]entity.Stock
	movements     []entity.InventoryMovement
	resolutions   map[string]entity.BillingResolution
	invoices      map[string]entity.Invoice
	details       []entity.InvoiceDetail
	payments      map[string]entity.Payment
	creditNotes   map[string]entity.CreditNote
	receivables   map[string]entity.AccountReceivable
	tariffs       map[string]entity.ParkingTariff
	sessions      map[string]entity.ParkingSession
	subscriptions map[string]entity.ParkingSubscription
	audit         []entity.AuditLog
	tickets       map[string]int64
}

func newState() state {
	return state{
		companies:     map[string]entity.Company{},
		modules:       map[string]entity.CompanyModule{},
		users:         map[string]entity.User{},
		warehouses:    map[string]entity.Warehouse{},
		customers:     map[string]entity.Customer{},
		categories:    map[string]entity.Category{},
		products:      map[string]entity.Product{},
		images:        map[string]entity.ProductImage{},
		stock:         map[string]entity.Stock{},
		resolutions:   map[string]entity.BillingResolution{},
		invoices:      map[string]entity.Invoice{},
		payments:      map[string]entity.Payment{},
		creditNotes:   map[string]entity.CreditNote{},
		receivables:   map[string]entity.AccountReceivable{},
		tariffs:       map[string]entity.ParkingTariff{},
		sessions:      map[string]entity.ParkingSession{},
		subscriptions: map[string]entity.ParkingSubscription{},
		tickets:       map[string]int64{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		companies:     cloneMap(s.companies),
		modules:       cloneMap(s.modules),
		users:         cloneMap(s.users),
		warehouses:    cloneMap(s.warehouses),
		customers:     cloneMap(s.customers),
		categories:    cloneMap(s.categories),
		products:      cloneMap(s.products),
		images:        cloneMap(s.images),
		stock:         cloneMap(s.stock),
		movements:     append([]entity.InventoryMovement(nil), s.movements...),
		resolutions:   cloneMap(s.resolutions),
		invoices:      cloneMap(s.invoices),
		details:       append([]entity.InvoiceDetail(nil), s.details...),
		payments:      cloneMap(s.payments),
		creditNotes:   cloneMap(s.creditNotes),
		receivables:   cloneMap(s.receivables),
		tariffs:       cloneMap(s.tariffs),
		sessions:      cloneMap(s.sessions),
		subscriptions: cloneMap(s.subscriptions),
		audit:         append([]entity.AuditLog(nil), s.audit...),
		tickets:       cloneMap(s.tickets),
	}
}

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	st   state
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

var (
	_ inventory.TxRunner = (*Store)(nil)
	_ billing.TxRunner   = (*Store)(nil)
	_ parking.TxRunner   = (*Store)(nil)
)

func (s *Store) tx(fn func() error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()
	if err := fn(); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) InventoryRepos() inventory.Repos {
	return inventory.Repos{Movements: s.Movements(), Stock: s.Stock(), Products: s.Products()}
}

func (s *Store) Run(ctx context.Context, fn func(r inventory.Repos) error) error {
	return s.tx(func() error { return fn(s.InventoryRepos()) })
}

func (s *Store) RunBilling(ctx context.Context, fn func(r billing.Repos) error) error {
	return s.tx(func() error {
		return fn(billing.Repos{
			Repos:       s.InventoryRepos(),
			Customers:   s.Customers(),
			Invoices:    s.Invoices(),
			Payments:    s.Payments(),
			CreditNotes: s.CreditNotes(),
			Receivables: s.Receivables(),
			Resolutions: s.Resolutions(),
		})
	})
}

func (s *Store) RunParking(ctx context.Context, fn func(r parking.Repos) error) error {
	return s.tx(func() error {
		return fn(parking.Repos{Sessions: s.Sessions(), Subscriptions: s.Subscriptions(), Tariffs: s.Tariffs()})
	})
}

// ── Seeds ─────────────────────────────────────────────────────────────────────

// SeedCompany crea empresa, bodega y usuario admin; devuelve sus IDs.
func (s *Store) SeedCompany(nit string) (companyID, warehouseID, userID string) {
	defer s.lock()()
	now := time.Now()
	companyID, warehouseID, userID = uuid.NewString(), uuid.NewString(), uuid.NewString()
	s.st.companies[companyID] = entity.Company{ID: companyID, Name: "Empresa " + nit, NIT: nit, Status: "active", CreatedAt: now, UpdatedAt: now}
	s.st.warehouses[warehouseID] = entity.Warehouse{ID: warehouseID, CompanyID: companyID, Name: "Principal", Capacity: 2, CreatedAt: now, UpdatedAt: now}
	s.st.users[userID] = entity.User{ID: userID, CompanyID: companyID, Email: nit + "@test.co", Name: "Admin", Role: entity.RoleAdmin, Status: "active"}
	return companyID, warehouseID, userID
}

// AddWarehouse agrega otra bodega a la empresa.
func (s *Store) AddWarehouse(companyID, name string, capacity int) string {
	defer s.lock()()
	id := uuid.NewString()
	s.st.warehouses[id] = entity.Warehouse{ID: id, CompanyID: companyID, Name: name, Capacity: capacity}
	return id
}

// SeedProduct crea un producto y, si qty > 0, su existencia en la bodega.
func (s *Store) SeedProduct(companyID, warehouseID, sku string, price, cost, taxPercent, qty decimal.Decimal) string {
	defer s.lock()()
	id := uuid.NewString()
	s.st.products[id] = entity.Product{
		ID: id, CompanyID: companyID, SKU: sku, Name: "Producto " + sku,
		Price: price, Cost: cost, TaxRate: taxPercent, UnitMeasure: "94", Active: true,
	}
	if qty.IsPositive() {
		s.st.stock[stockKey(id, warehouseID)] = entity.Stock{ProductID: id, WarehouseID: warehouseID, Quantity: qty}
	}
	return id
}

// SeedCustomer crea un cliente.
func (s *Store) SeedCustomer(companyID, taxID string, creditDays int) string {
	defer s.lock()()
	id := uuid.NewString()
	s.st.customers[id] = entity.Customer{ID: id, CompanyID: companyID, Name: "Cliente " + taxID, IdentificationType: "13", TaxID: taxID, CreditDays: creditDays}
	return id
}

// SeedResolution crea una resolución activa para el tipo y prefijo.
func (s *Store) SeedResolution(companyID, kind, prefix string, from, to int64) string {
	defer s.lock()()
	id := uuid.NewString()
	s.st.resolutions[id] = entity.BillingResolution{
		ID: id, CompanyID: companyID, Kind: kind, ResolutionNumber: "18760000001", Prefix: prefix,
		RangeFrom: from, RangeTo: to, NextNumber: from,
		DateFrom: time.Now().AddDate(-1, 0, 0), DateTo: time.Now().AddDate(1, 0, 0),
		TechnicalKey: "clave-tecnica", IsActive: true,
	}
	return id
}

// StockOf existencia actual.
func (s *Store) StockOf(productID, warehouseID string) decimal.Decimal {
	defer s.lock()()
	return s.st.stock[stockKey(productID, warehouseID)].Quantity
}

// AuditEntries copia de la bitácora.
func (s *Store) AuditEntries() []entity.AuditLog {
	defer s.lock()()
	return append([]entity.AuditLog(nil), s.st.audit...)
}

// MovementsOf movimientos de un producto.
func (s *Store) MovementsOf(productID string) []entity.InventoryMovement {
	defer s.lock()()
	var out []entity.InventoryMovement
	for _, m := range s.st.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out
}

// Recorder implementa ports.AuditRecorder guardando en la bitácora en memoria.
type Recorder struct{ s *Store }

func (s *Store) Recorder() *Recorder { return &Recorder{s} }

func (r *Recorder) Record(_ context.Context, e *entity.AuditLog) {
	if e == nil {
		return
	}
	defer r.s.lock()()
	r.s.st.audit = append(r.s.st.audit, *e)
}

func stockKey(productID, warehouseID string) string { return productID + "|" + warehouseID }

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func ptr[T any](v T) *T { return &v }

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sortByTime[T any](list []*T, at func(*T) time.Time, desc bool) {
	sort.SliceStable(list, func(i, j int) bool {
		if desc {
			return at(list[i]).After(at(list[j]))
		}
		return at(list[i]).Before(at(list[j]))
	})
}
