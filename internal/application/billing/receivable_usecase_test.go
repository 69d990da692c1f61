package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

func issueAt(t *testing.T, f *fixture, customerID string, date time.Time, qty string) *dto.InvoiceResponse {
	t.Helper()
	inv, err := f.invoices.CreateInvoice(context.Background(), f.companyID, f.userID, dto.CreateInvoiceRequest{
		CustomerID: customerID, WarehouseID: f.whID, Date: &date, PaymentForm: "2", Issue: true,
		Items: []dto.InvoiceItemRequest{{ProductID: f.productID, Quantity: dec(qty)}},
	})
	require.NoError(t, err)
	return inv
}

func TestAging_AgrupaPorClienteYRango(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	other := f.store.SeedCustomer(f.companyID, "5556667", 0)

	issueAt(t, f, f.customerID, now.AddDate(0, 0, -45), "1")  // vence hace 15 días
	issueAt(t, f, f.customerID, now, "2")                     // al día
	old := issueAt(t, f, other, now.AddDate(0, 0, -100), "1") // crédito 0: 100 días vencida
	_, err := f.payments.RegisterPayment(ctx, f.companyID, f.userID, old.ID, dto.RegisterPaymentRequest{Amount: dec("1900"), Method: "10"})
	require.NoError(t, err)

	report, err := f.receivable.Aging(ctx, f.companyID, now)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)

	first := report.Rows[0]
	assert.Equal(t, f.customerID, first.CustomerID)
	assert.True(t, first.Total.Equal(dec("35700")))
	assert.True(t, first.Buckets["current"].Equal(dec("23800")), first.Buckets["current"].String())
	assert.True(t, first.Buckets["1-30"].Equal(dec("11900")))

	second := report.Rows[1]
	assert.True(t, second.Buckets["90+"].Equal(dec("10000")))
	assert.True(t, report.Overall.Equal(dec("45700")))

	overdue, err := f.receivable.ListReceivables(ctx, f.companyID, dto.ReceivableFilterRequest{Overdue: true})
	require.NoError(t, err)
	assert.Len(t, overdue, 2)
	for _, r := range overdue {
		assert.Positive(t, r.DaysOverdue)
	}
}

func TestExportAging_UsaElExportador(t *testing.T) {
	f := newFixture(t)
	f.issue(t, "1", "2")
	asOf := time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC)

	data, name, err := f.receivable.ExportAging(context.Background(), f.companyID, asOf)
	require.NoError(t, err)
	assert.Equal(t, "cartera_2030-01-31.xlsx", name)
	assert.Equal(t, "xlsx:Empresa 900123456", string(data))
	require.NotNil(t, f.exporter.report)
	assert.True(t, f.exporter.report.Overall.Equal(dec("11900")))
}

func TestSyncAll_CorrigeDesviacionesYEsIdempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.issue(t, "1", "2")
	f.issue(t, "1", "2")
	_, err := f.invoices.CreateInvoice(ctx, f.companyID, f.userID, dto.CreateInvoiceRequest{
		CustomerID: f.customerID, WarehouseID: f.whID,
		Items: []dto.InvoiceItemRequest{{ProductID: f.productID, Quantity: dec("1")}},
	})
	require.NoError(t, err)

	ar, _ := f.store.Receivables().GetByInvoice(ctx, a.ID)
	ar.Balance = dec("1")
	ar.Status = entity.ReceivableStatusPaid
	require.NoError(t, f.store.Receivables().Upsert(ctx, ar))

	res, err := f.receivable.SyncAll(ctx, f.companyID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed, "los borradores no tienen cartera")
	assert.Equal(t, 1, res.Updated)

	fixed, _ := f.store.Receivables().GetByInvoice(ctx, a.ID)
	assert.True(t, fixed.Balance.Equal(dec("11900")))
	assert.Equal(t, entity.ReceivableStatusOpen, fixed.Status)

	res, err = f.receivable.SyncAll(ctx, f.companyID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)
}

func TestCustomerStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "2", "2")
	_, err := f.payments.RegisterPayment(ctx, f.companyID, f.userID, inv.ID, dto.RegisterPaymentRequest{Amount: dec("5000"), Method: "10"})
	require.NoError(t, err)
	_, err = f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, dto.CreateCreditNoteRequest{ConceptCode: "3", Reason: "ajuste", Amount: decp("1190")})
	require.NoError(t, err)

	st, err := f.receivable.CustomerStatement(ctx, f.companyID, f.customerID)
	require.NoError(t, err)
	assert.Len(t, st.Invoices, 1)
	assert.Len(t, st.Payments, 1)
	assert.Len(t, st.CreditNotes, 1)
	assert.True(t, st.Outstanding.Equal(dec("17610")), st.Outstanding.String())

	_, err = f.receivable.CustomerStatement(ctx, "otra", f.customerID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.receivable.GetByInvoice(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReceivableStatusPartial, got.Status)
}
