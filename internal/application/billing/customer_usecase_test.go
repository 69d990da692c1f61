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

func TestCustomer_CrearConNIT(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := billing.NewCustomerUseCase(f.store.Customers())

	_, err := uc.Create(ctx, f.companyID, dto.CreateCustomerRequest{Name: "Acme SAS", IdentificationType: "31", TaxID: "900123456-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "dígito de verificación incorrecto")

	c, err := uc.Create(ctx, f.companyID, dto.CreateCustomerRequest{Name: " Acme SAS ", IdentificationType: "31", TaxID: "900123456-8", CreditDays: 45})
	require.NoError(t, err)
	assert.Equal(t, "Acme SAS", c.Name)
	assert.Equal(t, 45, c.CreditDays)

	_, err = uc.Create(ctx, f.companyID, dto.CreateCustomerRequest{Name: "Otro", IdentificationType: "31", TaxID: "900123456-8"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, f.companyID, dto.CreateCustomerRequest{Name: "X", IdentificationType: "99", TaxID: "123"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cc, err := uc.Create(ctx, f.companyID, dto.CreateCustomerRequest{Name: "Persona", TaxID: "1098765"})
	require.NoError(t, err)
	assert.Equal(t, "13", cc.IdentificationType)
}

func TestCustomer_ActualizarYAislamiento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := billing.NewCustomerUseCase(f.store.Customers())

	days := 60
	email := "pagos@cliente.co"
	c, err := uc.Update(ctx, f.companyID, f.customerID, dto.UpdateCustomerRequest{CreditDays: &days, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, 60, c.CreditDays)
	assert.Equal(t, email, c.Email)

	_, err = uc.Get(ctx, "otra", f.customerID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := uc.List(ctx, f.companyID, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type fakePDF struct{ details []billing.InvoiceDetailForPDF }

func (g *fakePDF) GenerateInvoicePDF(_ context.Context, _ *entity.Invoice, _ *entity.Company, _ *entity.Customer, details []billing.InvoiceDetailForPDF) ([]byte, error) {
	g.details = details
	return []byte("%PDF"), nil
}

func TestDownloadInvoicePDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gen := &fakePDF{}
	s := f.store
	uc := billing.NewPDFUseCase(s.Invoices(), s.Companies(), s.Customers(), s.Products(), gen)

	draft, err := f.invoices.CreateInvoice(ctx, f.companyID, f.userID, dto.CreateInvoiceRequest{
		CustomerID: f.customerID, WarehouseID: f.whID,
		Items: []dto.InvoiceItemRequest{{ProductID: f.productID, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	_, _, err = uc.DownloadInvoicePDF(ctx, f.companyID, draft.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	inv := f.issue(t, "1", "1")
	data, name, err := uc.DownloadInvoicePDF(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
	assert.Contains(t, name, "FE2")
	require.Len(t, gen.details, 1)
	assert.Equal(t, "Producto A1", gen.details[0].ProductName)

	_, _, err = uc.DownloadInvoicePDF(ctx, "otra", inv.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
