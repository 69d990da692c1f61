package billing_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/testutil/memstore"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// fakeDispatcher guarda los documentos encolados.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeDispatcher) ProcessAsync(kind, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind+":"+id)
}

func (f *fakeDispatcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeExporter struct{ report *dto.AgingReport }

func (f *fakeExporter) WriteAging(w io.Writer, companyName string, r *dto.AgingReport) error {
	f.report = r
	_, err := w.Write([]byte("xlsx:" + companyName))
	return err
}

type fixture struct {
	store      *memstore.Store
	invoices   *billing.InvoiceUseCase
	payments   *billing.PaymentUseCase
	notes      *billing.CreditNoteUseCase
	receivable *billing.ReceivableUseCase
	dispatcher *fakeDispatcher
	exporter   *fakeExporter

	companyID  string
	whID       string
	userID     string
	customerID string
	productID  string
}

// newFixture: producto A1 a 10.000 + IVA 19 %, costo 6.000, 10 unidades; cliente con 30 días de crédito.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memstore.New()
	companyID, whID, userID := s.SeedCompany("900123456")
	f := &fixture{
		store:      s,
		dispatcher: &fakeDispatcher{},
		exporter:   &fakeExporter{},
		companyID:  companyID,
		whID:       whID,
		userID:     userID,
	}
	f.customerID = s.SeedCustomer(companyID, "1020304050", 30)
	f.productID = s.SeedProduct(companyID, whID, "A1", dec("10000"), dec("6000"), dec("19"), dec("10"))
	s.SeedResolution(companyID, entity.ResolutionKindInvoice, "FE", 1, 1000)
	s.SeedResolution(companyID, entity.ResolutionKindCreditNote, "NC", 1, 1000)

	rec := s.Recorder()
	f.invoices = billing.NewInvoiceUseCase(s, s.Customers(), s.Products(), s.Warehouses(), s.Invoices(), nil, f.dispatcher, rec)
	f.payments = billing.NewPaymentUseCase(s, s.Invoices(), s.Payments(), rec)
	f.notes = billing.NewCreditNoteUseCase(s, s.Invoices(), s.CreditNotes(), s.Warehouses(), nil, f.dispatcher, rec)
	f.receivable = billing.NewReceivableUseCase(s, s.Companies(), s.Customers(), s.Invoices(), s.Payments(), s.CreditNotes(), s.Receivables(), f.exporter, rec)
	return f
}

// issue crea y emite una factura de qty unidades de A1 sin descuento.
func (f *fixture) issue(t *testing.T, qty string, form string) *dto.InvoiceResponse {
	t.Helper()
	inv, err := f.invoices.CreateInvoice(context.Background(), f.companyID, f.userID, dto.CreateInvoiceRequest{
		CustomerID:  f.customerID,
		WarehouseID: f.whID,
		PaymentForm: form,
		Issue:       true,
		Items:       []dto.InvoiceItemRequest{{ProductID: f.productID, Quantity: dec(qty)}},
	})
	if err != nil {
		t.Fatalf("emitir factura: %v", err)
	}
	return inv
}
