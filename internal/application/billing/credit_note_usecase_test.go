package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

func TestCreateCreditNote_DevolucionParcialConReingreso(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "3", "2") // 35.700
	require.True(t, f.store.StockOf(f.productID, f.whID).Equal(dec("7")))

	note, err := f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, dto.CreateCreditNoteRequest{
		ConceptCode: "1", Reason: "devolución", Restock: true,
		Items: []dto.CreditNoteItemRequest{{ProductID: f.productID, Quantity: dec("2")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "NC", note.Prefix)
	assert.Equal(t, "1", note.Number)
	assert.True(t, note.NetTotal.Equal(dec("20000")))
	assert.True(t, note.TaxTotal.Equal(dec("3800")))
	assert.True(t, note.GrandTotal.Equal(dec("23800")))
	assert.Equal(t, entity.InvoiceStatusPartial, note.Ledger.Status)
	assert.True(t, note.Ledger.Balance.Equal(dec("11900")))

	assert.True(t, f.store.StockOf(f.productID, f.whID).Equal(dec("9")))
	movs := f.store.MovementsOf(f.productID)
	last := movs[len(movs)-1]
	assert.Equal(t, entity.MovementTypeIN, last.Type)
	assert.Equal(t, "NC:NC1", last.Reference)
	assert.True(t, last.UnitCost.Equal(dec("6000")))

	_, err = f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, dto.CreateCreditNoteRequest{
		ConceptCode: "1", Reason: "devolución",
		Items: []dto.CreditNoteItemRequest{{ProductID: f.productID, Quantity: dec("2")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "solo queda una unidad por acreditar")

	ar, _ := f.store.Receivables().GetByInvoice(ctx, inv.ID)
	assert.True(t, ar.CreditedTotal.Equal(dec("23800")))
	assert.Contains(t, f.dispatcher.Calls(), billing.DocCreditNote+":"+note.ID)
}

func TestCreateCreditNote_AnulacionTotalCancelaFactura(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "1", "2")

	_, err := f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, dto.CreateCreditNoteRequest{
		ConceptCode: "2", Reason: "anulación", Amount: decp("5000"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "la anulación debe cubrir todo el saldo")

	note, err := f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, dto.CreateCreditNoteRequest{
		ConceptCode: "2", Reason: "anulación", Restock: true,
		Items: []dto.CreditNoteItemRequest{{ProductID: f.productID, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, note.Ledger.Status)
	assert.True(t, f.store.StockOf(f.productID, f.whID).Equal(dec("10")))

	ar, _ := f.store.Receivables().GetByInvoice(ctx, inv.ID)
	assert.Equal(t, entity.ReceivableStatusCancelled, ar.Status)

	_, err = f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, dto.CreateCreditNoteRequest{
		ConceptCode: "5", Reason: "otra", Amount: decp("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreateCreditNote_PorValorSeparaIVA(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "2", "2") // 23.800

	note, err := f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, dto.CreateCreditNoteRequest{
		ConceptCode: "3", Reason: "descuento comercial", Amount: decp("11900"),
	})
	require.NoError(t, err)
	require.Len(t, note.Lines, 1)
	assert.Empty(t, note.Lines[0].ProductID)
	assert.True(t, note.NetTotal.Equal(dec("10000")), note.NetTotal.String())
	assert.True(t, note.TaxTotal.Equal(dec("1900")), note.TaxTotal.String())
	assert.True(t, note.Ledger.Balance.Equal(dec("11900")))
	assert.True(t, f.store.StockOf(f.productID, f.whID).Equal(dec("8")), "sin reingreso")

	_, err = f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, dto.CreateCreditNoteRequest{
		ConceptCode: "3", Reason: "excede", Amount: decp("20000"),
	})
	assert.ErrorIs(t, err, domain.ErrCreditExceedsBalance)

	notes, err := f.notes.ListCreditNotes(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestCreateCreditNote_SaldoPagadoYValidaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "1", "2")

	cases := map[string]struct {
		req  dto.CreateCreditNoteRequest
		want error
	}{
		"concepto inválido":   {dto.CreateCreditNoteRequest{ConceptCode: "9", Reason: "x", Amount: decp("1")}, domain.ErrInvalidInput},
		"sin ítems ni valor":  {dto.CreateCreditNoteRequest{ConceptCode: "1", Reason: "x"}, domain.ErrInvalidInput},
		"ítems y valor":       {dto.CreateCreditNoteRequest{ConceptCode: "1", Reason: "x", Amount: decp("1"), Items: []dto.CreditNoteItemRequest{{ProductID: f.productID, Quantity: dec("1")}}}, domain.ErrInvalidInput},
		"reingreso sin ítems": {dto.CreateCreditNoteRequest{ConceptCode: "1", Reason: "x", Restock: true, Amount: decp("1")}, domain.ErrInvalidInput},
		"producto ajeno":      {dto.CreateCreditNoteRequest{ConceptCode: "1", Reason: "x", Items: []dto.CreditNoteItemRequest{{ProductID: "otro", Quantity: dec("1")}}}, domain.ErrInvalidInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := f.payments.RegisterPayment(ctx, f.companyID, f.userID, inv.ID, dto.RegisterPaymentRequest{Amount: dec("11900"), Method: "10"})
	require.NoError(t, err)
	_, err = f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, dto.CreateCreditNoteRequest{ConceptCode: "5", Reason: "tarde", Amount: decp("100")})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "una factura pagada no admite nota crédito")
}
