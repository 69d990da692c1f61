package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/testutil/memstore"
)

func TestCreateInvoice_BorradorConDescuentoYSalidaDeInventario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.invoices.CreateInvoice(ctx, f.companyID, f.userID, dto.CreateInvoiceRequest{
		CustomerID:  f.customerID,
		WarehouseID: f.whID,
		Items:       []dto.InvoiceItemRequest{{ProductID: f.productID, Quantity: dec("2"), Discount: dec("1000")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "FE", inv.Prefix)
	assert.Equal(t, "1", inv.Number)
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, entity.DIANStatusDraft, inv.DIAN_Status)
	assert.True(t, inv.NetTotal.Equal(dec("19000")), inv.NetTotal.String())
	assert.True(t, inv.DiscountTotal.Equal(dec("1000")))
	assert.True(t, inv.TaxTotal.Equal(dec("3610")))
	assert.True(t, inv.GrandTotal.Equal(dec("22610")))
	require.Len(t, inv.Details, 1)
	assert.True(t, inv.Details[0].TaxRate.Equal(dec("0.19")))

	assert.True(t, f.store.StockOf(f.productID, f.whID).Equal(dec("8")))
	movs := f.store.MovementsOf(f.productID)
	require.Len(t, movs, 1)
	assert.Equal(t, inv.ID, movs[0].TransactionID)
	assert.Equal(t, "FV:FE1", movs[0].Reference)

	details, _ := f.store.Invoices().GetDetailsByInvoiceID(ctx, inv.ID)
	require.Len(t, details, 1)
	assert.True(t, details[0].UnitCost.Equal(dec("6000")))

	ar, _ := f.store.Receivables().GetByInvoice(ctx, inv.ID)
	assert.Nil(t, ar, "un borrador no genera cartera")
	assert.Empty(t, f.dispatcher.Calls())
}

func TestCreateInvoice_EmitidaACreditoCreaCarteraYEncolaEnvio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	inv, err := f.invoices.CreateInvoice(ctx, f.companyID, f.userID, dto.CreateInvoiceRequest{
		CustomerID:  f.customerID,
		WarehouseID: f.whID,
		Date:        &date,
		PaymentForm: "2",
		Issue:       true,
		Items:       []dto.InvoiceItemRequest{{ProductID: f.productID, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusIssued, inv.Status)
	assert.Equal(t, "2024-07-01", inv.DueDate)

	ar, err := f.store.Receivables().GetByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, ar)
	assert.Equal(t, entity.ReceivableStatusOpen, ar.Status)
	assert.True(t, ar.Balance.Equal(dec("11900")))
	assert.Equal(t, "FE1", ar.DocumentNo)

	assert.Equal(t, []string{billing.DocInvoice + ":" + inv.ID}, f.dispatcher.Calls())
}

func TestCreateInvoice_SinStockHaceRollbackCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.invoices.CreateInvoice(ctx, f.companyID, f.userID, dto.CreateInvoiceRequest{
		CustomerID:  f.customerID,
		WarehouseID: f.whID,
		Items: []dto.InvoiceItemRequest{
			{ProductID: f.productID, Quantity: dec("6")},
			{ProductID: f.productID, Quantity: dec("6")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.store.StockOf(f.productID, f.whID).Equal(dec("10")))
	list, _ := f.invoices.ListInvoices(ctx, f.companyID, dto.InvoiceFilterRequest{})
	assert.Empty(t, list.Items)

	// el consecutivo no se consume
	inv := f.issue(t, "1", "1")
	assert.Equal(t, "1", inv.Number)
}

func TestCreateInvoice_ResolucionAgotada(t *testing.T) {
	s := memstore.New()
	companyID, whID, userID := s.SeedCompany("800111222")
	customerID := s.SeedCustomer(companyID, "123", 0)
	pid := s.SeedProduct(companyID, whID, "X", dec("100"), dec("50"), dec("0"), dec("100"))
	s.SeedResolution(companyID, entity.ResolutionKindInvoice, "SETP", 990000000, 990000001)
	uc := billing.NewInvoiceUseCase(s, s.Customers(), s.Products(), s.Warehouses(), s.Invoices(), nil, nil, s.Recorder())

	req := dto.CreateInvoiceRequest{CustomerID: customerID, WarehouseID: whID, Items: []dto.InvoiceItemRequest{{ProductID: pid, Quantity: dec("1")}}}
	for _, want := range []string{"990000000", "990000001"} {
		inv, err := uc.CreateInvoice(context.Background(), companyID, userID, req)
		require.NoError(t, err)
		assert.Equal(t, want, inv.Number)
	}
	_, err := uc.CreateInvoice(context.Background(), companyID, userID, req)
	assert.ErrorIs(t, err, domain.ErrResolutionExhausted)
}

func TestCreateInvoice_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherCompany, otherWh, _ := f.store.SeedCompany("811000111")
	foreignProduct := f.store.SeedProduct(otherCompany, otherWh, "Z", dec("1"), dec("1"), dec("0"), dec("1"))

	base := func() dto.CreateInvoiceRequest {
		return dto.CreateInvoiceRequest{
			CustomerID: f.customerID, WarehouseID: f.whID,
			Items: []dto.InvoiceItemRequest{{ProductID: f.productID, Quantity: dec("1")}},
		}
	}
	cases := map[string]struct {
		mutate func(r *dto.CreateInvoiceRequest)
		want   error
	}{
		"sin ítems":           {func(r *dto.CreateInvoiceRequest) { r.Items = nil }, domain.ErrInvalidInput},
		"cliente inexistente": {func(r *dto.CreateInvoiceRequest) { r.CustomerID = "nope" }, domain.ErrNotFound},
		"bodega ajena":        {func(r *dto.CreateInvoiceRequest) { r.WarehouseID = otherWh }, domain.ErrNotFound},
		"producto ajeno":      {func(r *dto.CreateInvoiceRequest) { r.Items[0].ProductID = foreignProduct }, domain.ErrForbidden},
		"cantidad cero":       {func(r *dto.CreateInvoiceRequest) { r.Items[0].Quantity = dec("0") }, domain.ErrInvalidInput},
		"descuento excesivo":  {func(r *dto.CreateInvoiceRequest) { r.Items[0].Discount = dec("20000") }, domain.ErrInvalidInput},
		"medio de pago":       {func(r *dto.CreateInvoiceRequest) { r.PaymentMethod = "99" }, domain.ErrInvalidInput},
		"pagada sin emitir":   {func(r *dto.CreateInvoiceRequest) { r.PaidOnIssue = true }, domain.ErrInvalidInput},
		"pagada a crédito": {func(r *dto.CreateInvoiceRequest) {
			r.PaidOnIssue, r.Issue, r.PaymentForm = true, true, "2"
		}, domain.ErrInvalidInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := base()
			tc.mutate(&req)
			_, err := f.invoices.CreateInvoice(ctx, f.companyID, f.userID, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestIssueInvoice_ContadoPagadaAlEmitir(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := f.invoices.CreateInvoice(ctx, f.companyID, f.userID, dto.CreateInvoiceRequest{
		CustomerID: f.customerID, WarehouseID: f.whID,
		Items: []dto.InvoiceItemRequest{{ProductID: f.productID, Quantity: dec("1")}},
	})
	require.NoError(t, err)

	inv, err := f.invoices.IssueInvoice(ctx, f.companyID, f.userID, draft.ID, dto.IssueInvoiceRequest{PaidOnIssue: true, PaymentMethod: "48"})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.Balance.IsZero())

	payments, err := f.payments.ListPayments(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "48", payments[0].Method)

	_, err = f.invoices.IssueInvoice(ctx, f.companyID, f.userID, draft.ID, dto.IssueInvoiceRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelDraft_DevuelveInventario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := f.invoices.CreateInvoice(ctx, f.companyID, f.userID, dto.CreateInvoiceRequest{
		CustomerID: f.customerID, WarehouseID: f.whID,
		Items: []dto.InvoiceItemRequest{{ProductID: f.productID, Quantity: dec("4")}},
	})
	require.NoError(t, err)
	require.True(t, f.store.StockOf(f.productID, f.whID).Equal(dec("6")))

	inv, err := f.invoices.CancelDraft(ctx, f.companyID, f.userID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, inv.Status)
	assert.True(t, f.store.StockOf(f.productID, f.whID).Equal(dec("10")))

	p, _ := f.store.Products().GetByID(ctx, f.productID)
	assert.True(t, p.Cost.Equal(dec("6000")), "el reingreso al mismo costo no cambia el promedio")

	issued := f.issue(t, "1", "1")
	_, err = f.invoices.CancelDraft(ctx, f.companyID, f.userID, issued.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestGetInvoice_OtraEmpresa(t *testing.T) {
	f := newFixture(t)
	inv := f.issue(t, "1", "1")
	_, err := f.invoices.GetInvoice(context.Background(), "otra", inv.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.invoices.GetInvoice(context.Background(), f.companyID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetrySubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "1", "1")

	_, err := f.invoices.RetrySubmission(ctx, f.companyID, f.userID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, f.dispatcher.Calls(), 2)

	stored, _ := f.store.Invoices().GetByID(ctx, inv.ID)
	stored.DIAN_Status = entity.DIANStatusExitoso
	require.NoError(t, f.store.Invoices().UpdateElectronic(ctx, stored))
	_, err = f.invoices.RetrySubmission(ctx, f.companyID, f.userID, inv.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, _, err = f.invoices.DownloadXML(ctx, f.companyID, inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
