package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

func TestRegisterPayment_AbonoParcialYTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "2", "2") // 23.800

	p, err := f.payments.RegisterPayment(ctx, f.companyID, f.userID, inv.ID, dto.RegisterPaymentRequest{Amount: dec("10000"), Method: "47", Reference: " TRX-1 "})
	require.NoError(t, err)
	assert.Equal(t, "TRX-1", p.Reference)
	require.NotNil(t, p.Ledger)
	assert.Equal(t, entity.InvoiceStatusPartial, p.Ledger.Status)
	assert.True(t, p.Ledger.Balance.Equal(dec("13800")))

	ar, _ := f.store.Receivables().GetByInvoice(ctx, inv.ID)
	assert.Equal(t, entity.ReceivableStatusPartial, ar.Status)
	assert.True(t, ar.Balance.Equal(dec("13800")))

	_, err = f.payments.RegisterPayment(ctx, f.companyID, f.userID, inv.ID, dto.RegisterPaymentRequest{Amount: dec("13800.01"), Method: "10"})
	assert.ErrorIs(t, err, domain.ErrOverpayment)

	p, err = f.payments.RegisterPayment(ctx, f.companyID, f.userID, inv.ID, dto.RegisterPaymentRequest{Amount: dec("13800"), Method: "10"})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, p.Ledger.Status)
	assert.True(t, p.Ledger.Balance.IsZero())

	ar, _ = f.store.Receivables().GetByInvoice(ctx, inv.ID)
	assert.Equal(t, entity.ReceivableStatusPaid, ar.Status)
}

func TestRegisterPayment_Rechazos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := f.invoices.CreateInvoice(ctx, f.companyID, f.userID, dto.CreateInvoiceRequest{
		CustomerID: f.customerID, WarehouseID: f.whID,
		Items: []dto.InvoiceItemRequest{{ProductID: f.productID, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	issued := f.issue(t, "1", "2")

	_, err = f.payments.RegisterPayment(ctx, f.companyID, f.userID, draft.ID, dto.RegisterPaymentRequest{Amount: dec("1"), Method: "10"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.payments.RegisterPayment(ctx, f.companyID, f.userID, issued.ID, dto.RegisterPaymentRequest{Amount: dec("1"), Method: "99"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.payments.RegisterPayment(ctx, f.companyID, f.userID, issued.ID, dto.RegisterPaymentRequest{Amount: dec("0"), Method: "10"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.payments.RegisterPayment(ctx, "otra", f.userID, issued.ID, dto.RegisterPaymentRequest{Amount: dec("1"), Method: "10"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, _ := f.payments.ListPayments(ctx, f.companyID, issued.ID)
	assert.Empty(t, list)
}

func TestVoidPayment_RestauraSaldo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "1", "2") // 11.900

	p, err := f.payments.RegisterPayment(ctx, f.companyID, f.userID, inv.ID, dto.RegisterPaymentRequest{Amount: dec("11900"), Method: "10"})
	require.NoError(t, err)
	require.Equal(t, entity.InvoiceStatusPaid, p.Ledger.Status)

	voided, err := f.payments.VoidPayment(ctx, f.companyID, f.userID, p.ID, dto.VoidPaymentRequest{Reason: "cheque devuelto"})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusVoided, voided.Status)
	assert.Equal(t, entity.InvoiceStatusIssued, voided.Ledger.Status)
	assert.True(t, voided.Ledger.Balance.Equal(dec("11900")))

	ar, _ := f.store.Receivables().GetByInvoice(ctx, inv.ID)
	assert.Equal(t, entity.ReceivableStatusOpen, ar.Status)

	_, err = f.payments.VoidPayment(ctx, f.companyID, f.userID, p.ID, dto.VoidPaymentRequest{Reason: "otra vez"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.payments.VoidPayment(ctx, f.companyID, f.userID, p.ID, dto.VoidPaymentRequest{Reason: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := f.payments.ListPayments(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "cheque devuelto", list[0].VoidReason)

	var voids int
	for _, e := range f.store.AuditEntries() {
		if e.Action == entity.AuditVoid {
			voids++
		}
	}
	assert.Equal(t, 1, voids)
}
