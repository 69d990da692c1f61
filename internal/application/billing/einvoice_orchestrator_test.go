package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

type fakeProvider struct {
	result  *billing.SubmissionResult
	err     error
	invoice *billing.InvoiceDocument
	note    *billing.CreditNoteDocument
}

func (p *fakeProvider) Name() string { return billing.ProviderDIAN }

func (p *fakeProvider) SubmitInvoice(_ context.Context, doc *billing.InvoiceDocument) (*billing.SubmissionResult, error) {
	p.invoice = doc
	return p.result, p.err
}

func (p *fakeProvider) SubmitCreditNote(_ context.Context, doc *billing.CreditNoteDocument) (*billing.SubmissionResult, error) {
	p.note = doc
	return p.result, p.err
}

func (f *fixture) orchestrator(p billing.EInvoiceProvider) *billing.EInvoiceOrchestrator {
	s := f.store
	return billing.NewEInvoiceOrchestrator(s.Invoices(), s.CreditNotes(), s.Companies(), s.Customers(), s.Products(), s.Resolutions(), p, zerolog.Nop())
}

func TestProcessInvoice_Aceptada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "2", "2")
	p := &fakeProvider{result: &billing.SubmissionResult{Accepted: true, CUFE: "cufe-1", QRData: "qr", XMLSigned: "<Invoice/>", TrackID: "track-1"}}
	o := f.orchestrator(p)

	require.NoError(t, o.ProcessInvoice(ctx, inv.ID))
	stored, _ := f.store.Invoices().GetByID(ctx, inv.ID)
	assert.Equal(t, entity.DIANStatusExitoso, stored.DIAN_Status)
	assert.Equal(t, "cufe-1", stored.CUFE)
	assert.Equal(t, billing.ProviderDIAN, stored.Provider)

	require.NotNil(t, p.invoice)
	require.Len(t, p.invoice.Lines, 1)
	assert.Equal(t, "A1", p.invoice.Lines[0].ProductCode)
	assert.Equal(t, "94", p.invoice.Lines[0].UnitCode)
	assert.Equal(t, "FE", p.invoice.Resolution.Prefix)

	// una factura aceptada no se reenvía
	p.invoice = nil
	require.NoError(t, o.ProcessInvoice(ctx, inv.ID))
	assert.Nil(t, p.invoice)

	xml, name, err := f.invoices.DownloadXML(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "<Invoice/>", string(xml))
	assert.Equal(t, "factura_FE1.xml", name)
}

func TestProcessInvoice_RechazadaYError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "1", "1")

	rejected := &fakeProvider{result: &billing.SubmissionResult{Accepted: false, Errors: "FAD06: NIT inválido"}}
	require.NoError(t, f.orchestrator(rejected).ProcessInvoice(ctx, inv.ID))
	stored, _ := f.store.Invoices().GetByID(ctx, inv.ID)
	assert.Equal(t, entity.DIANStatusRechazado, stored.DIAN_Status)
	assert.Equal(t, "FAD06: NIT inválido", stored.DIANErrors)

	failing := &fakeProvider{err: errors.New("timeout")}
	err := f.orchestrator(failing).ProcessInvoice(ctx, inv.ID)
	require.Error(t, err)
	stored, _ = f.store.Invoices().GetByID(ctx, inv.ID)
	assert.Equal(t, entity.DIANStatusErrorGeneration, stored.DIAN_Status)
	assert.Contains(t, stored.DIANErrors, "timeout")
	assert.True(t, billing.Resubmittable(stored.DIAN_Status))
}

func TestProcessInvoice_SinProveedorQuedaEnBorrador(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "1", "1")
	o := f.orchestrator(nil)

	assert.False(t, o.Enabled())
	o.ProcessAsync(billing.DocInvoice, inv.ID)
	o.Wait()
	require.NoError(t, o.ProcessInvoice(ctx, inv.ID))
	stored, _ := f.store.Invoices().GetByID(ctx, inv.ID)
	assert.Equal(t, entity.DIANStatusDraft, stored.DIAN_Status)
}

func TestProcessAsync_EnviaEnSegundoPlano(t *testing.T) {
	f := newFixture(t)
	inv := f.issue(t, "1", "1")
	o := f.orchestrator(&fakeProvider{result: &billing.SubmissionResult{Accepted: true, CUFE: "c"}})

	o.ProcessAsync(billing.DocInvoice, inv.ID)
	o.Wait()
	stored, _ := f.store.Invoices().GetByID(context.Background(), inv.ID)
	assert.Equal(t, entity.DIANStatusExitoso, stored.DIAN_Status)
}

func TestProcessCreditNote_RequiereCUFEDeLaFactura(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, "2", "2")
	note, err := f.notes.CreateCreditNote(ctx, f.companyID, f.userID, inv.ID, dto.CreateCreditNoteRequest{
		ConceptCode: "1", Reason: "devolución",
		Items: []dto.CreditNoteItemRequest{{ProductID: f.productID, Quantity: dec("1")}},
	})
	require.NoError(t, err)

	p := &fakeProvider{result: &billing.SubmissionResult{Accepted: true, CUFE: "cude-1"}}
	o := f.orchestrator(p)

	require.Error(t, o.ProcessCreditNote(ctx, note.ID), "la factura aún no tiene CUFE")
	stored, _ := f.store.CreditNotes().GetByID(ctx, note.ID)
	assert.Equal(t, entity.DIANStatusErrorGeneration, stored.DIAN_Status)

	require.NoError(t, o.ProcessInvoice(ctx, inv.ID))
	p.result = &billing.SubmissionResult{Accepted: true, CUFE: "cude-1"}
	sent := time.Now()
	require.NoError(t, o.ProcessCreditNote(ctx, note.ID))
	stored, _ = f.store.CreditNotes().GetByID(ctx, note.ID)
	assert.Equal(t, entity.DIANStatusExitoso, stored.DIAN_Status)
	assert.False(t, stored.UpdatedAt.Before(sent), "updated_at %s", stored.UpdatedAt)
	assert.Equal(t, "cude-1", stored.CUDE)
	require.NotNil(t, p.note)
	assert.Equal(t, "A1", p.note.ProductCodes[f.productID])
	assert.Equal(t, "NC", p.note.Resolution.Prefix)
}
